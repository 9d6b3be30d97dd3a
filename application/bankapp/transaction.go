package bankapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bank_automation/application/screen"
	"bank_automation/domain/entities"

	"github.com/shopspring/decimal"
)

// ErrGainUnsupported is returned when a gain correction is decided but no
// income entry control is configured. The income branch of the entry form is
// an unverified part of the layout, so the client fails closed instead of
// guessing at it.
var ErrGainUnsupported = errors.New("income entry control not configured, refusing gain correction")

// TransactionConfig names the controls of the manual transaction entry form
// and the settle delay between scripted steps.
type TransactionConfig struct {
	NewEntryLabel string // opens the entry form from an account view
	ExpenseLabel  string // selects the expense branch
	IncomeLabel   string // selects the income branch; empty fails gains closed
	AmountConfirm string
	LabelConfirm  string
	CategoryField string
	SaveLabel     string

	StepWait time.Duration
}

// DefaultTransactionConfig returns the control labels of the observed app
// version. The income label is deliberately left empty.
func DefaultTransactionConfig() TransactionConfig {
	return TransactionConfig{
		NewEntryLabel: "Transaktion hinzufügen",
		ExpenseLabel:  "Ausgabe",
		IncomeLabel:   "",
		AmountConfirm: "Weiter",
		LabelConfirm:  "Weiter",
		CategoryField: "Kategorie",
		SaveLabel:     "Speichern",
		StepWait:      2 * time.Second,
	}
}

// InjectTransaction records a manual transaction with the given signed
// amount, free-text label and category. The caller must already be on the
// account view the transaction belongs to (typically right after tapping the
// reconciled account's row).
//
// The sequence is a fixed script over located controls, never raw
// coordinates, with one settle wait per step. After the final save the
// client verifies the form actually closed before reporting success.
func (c *Client) InjectTransaction(ctx context.Context, amount decimal.Decimal, label, category string) error {
	tc := c.cfg.Transactions

	if err := c.lookAndTap(ctx, tc.NewEntryLabel); err != nil {
		return err
	}
	c.state = entities.ScreenTransactionForm

	switch {
	case amount.Sign() < 0:
		if err := c.lookAndTap(ctx, tc.ExpenseLabel); err != nil {
			return err
		}
	default:
		if tc.IncomeLabel == "" {
			return ErrGainUnsupported
		}
		if err := c.lookAndTap(ctx, tc.IncomeLabel); err != nil {
			return err
		}
	}

	// Amount is typed in minor units without separators.
	minor := amount.Abs().Mul(decimal.NewFromInt(100)).Round(0)
	if err := c.device.InputText(ctx, minor.String()); err != nil {
		return fmt.Errorf("type amount: %w", err)
	}
	c.wait(ctx, tc.StepWait)

	if err := c.lookAndTap(ctx, tc.AmountConfirm); err != nil {
		return err
	}

	if err := c.device.InputText(ctx, label); err != nil {
		return fmt.Errorf("type label: %w", err)
	}
	c.wait(ctx, tc.StepWait)

	if err := c.lookAndTap(ctx, tc.LabelConfirm); err != nil {
		return err
	}

	field, err := c.tapControl(ctx, tc.CategoryField)
	if err != nil {
		return err
	}

	if err := c.device.InputText(ctx, category); err != nil {
		return fmt.Errorf("type category: %w", err)
	}
	c.wait(ctx, tc.StepWait)

	if err := c.tapFirstSuggestion(ctx, category, field.Bounds); err != nil {
		return err
	}

	if err := c.lookAndTap(ctx, tc.SaveLabel); err != nil {
		return err
	}

	if err := c.verifySaved(ctx); err != nil {
		return err
	}

	c.state = entities.ScreenWidget
	c.log.WithField("amount", amount.StringFixed(2)).Info("transaction recorded")
	return nil
}

// RecordCorrection opens the account behind the given anchor element,
// injects the correcting transaction and returns to the overview.
func (c *Client) RecordCorrection(ctx context.Context, anchor entities.ScreenElement, amount decimal.Decimal, label, category string) error {
	x, y := anchor.Bounds.Center()
	if err := c.device.Tap(ctx, x, y); err != nil {
		return fmt.Errorf("tap account row: %w", err)
	}
	c.wait(ctx, c.cfg.WidgetWait)
	c.state = entities.ScreenWidget

	if err := c.InjectTransaction(ctx, amount, label, category); err != nil {
		return err
	}

	return c.ReturnHome(ctx)
}

// lookAndTap scroll-searches for a control and taps its center.
func (c *Client) lookAndTap(ctx context.Context, name string) error {
	_, err := c.tapControl(ctx, name)
	return err
}

func (c *Client) tapControl(ctx context.Context, name string) (entities.ScreenElement, error) {
	el, found, err := c.locator.FindByScroll(ctx, name, screen.ScrollDown, c.cfg.ScrollAttempts)
	if err != nil {
		return entities.ScreenElement{}, err
	}
	if !found {
		return entities.ScreenElement{}, &entities.ElementNotFoundError{Label: name}
	}

	x, y := el.Bounds.Center()
	if err := c.device.Tap(ctx, x, y); err != nil {
		return entities.ScreenElement{}, fmt.Errorf("tap %q: %w", name, err)
	}
	c.wait(ctx, c.cfg.Transactions.StepWait)
	return el, nil
}

// tapFirstSuggestion picks the first category suggestion, which renders
// below the category field. The typed text also matches, so candidates above
// the field's bottom edge are filtered out.
func (c *Client) tapFirstSuggestion(ctx context.Context, category string, field entities.Rect) error {
	snap, err := c.locator.Capture(ctx)
	if err != nil {
		return err
	}

	minY := field.Y2
	candidates := screen.WithinBounds(
		screen.FindByText(snap, category, screen.MatchSubstring),
		screen.BoundsFilter{MinY1: &minY},
	)
	if len(candidates) == 0 {
		return &entities.ElementNotFoundError{Label: category}
	}

	x, y := candidates[0].Bounds.Center()
	if err := c.device.Tap(ctx, x, y); err != nil {
		return fmt.Errorf("tap category suggestion: %w", err)
	}
	c.wait(ctx, c.cfg.Transactions.StepWait)
	return nil
}

// verifySaved checks the entry form actually closed after the save tap. A
// still-visible save control means a layout change broke the script and the
// transaction state is unknown.
func (c *Client) verifySaved(ctx context.Context) error {
	snap, err := c.locator.Capture(ctx)
	if err != nil {
		return err
	}
	if len(screen.FindByText(snap, c.cfg.Transactions.SaveLabel, screen.MatchExact)) > 0 {
		return &entities.MalformedLayoutError{
			Label:  c.cfg.Transactions.SaveLabel,
			Reason: "entry form still visible after save",
		}
	}
	return nil
}
