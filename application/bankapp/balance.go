package bankapp

import (
	"context"
	"strings"
	"unicode"

	"bank_automation/application/screen"
	"bank_automation/domain/entities"

	"github.com/shopspring/decimal"
)

// AccountBalance reads the balance shown for the named account on the
// overview. The caller must have reached home first; visibility is primed
// with a scroll search before the final snapshot.
//
// The overview renders an account's name label immediately before its value
// label in document order, which is the convention exploited here. The
// returned element is the account label itself so the caller can reuse it for
// a subsequent tap.
func (c *Client) AccountBalance(ctx context.Context, label string) (decimal.Decimal, entities.ScreenElement, error) {
	_, found, err := c.locator.FindByScroll(ctx, label, screen.ScrollDown, c.cfg.ScrollAttempts)
	if err != nil {
		return decimal.Zero, entities.ScreenElement{}, err
	}
	if !found {
		return decimal.Zero, entities.ScreenElement{}, &entities.ElementNotFoundError{Label: label}
	}

	snap, err := c.locator.Capture(ctx)
	if err != nil {
		return decimal.Zero, entities.ScreenElement{}, err
	}

	idx := -1
	for i, el := range snap.Texts {
		if el.Label == label {
			idx = i
			break
		}
	}
	if idx < 0 {
		return decimal.Zero, entities.ScreenElement{}, &entities.ElementNotFoundError{Label: label}
	}
	if idx+1 >= len(snap.Texts) {
		return decimal.Zero, entities.ScreenElement{}, &entities.MalformedLayoutError{
			Label:  label,
			Reason: "no element follows the account label",
		}
	}

	raw := snap.Texts[idx+1].Label
	balance, err := ParseAmount(raw)
	if err != nil {
		c.log.WithField("raw", raw).Error("balance text did not parse")
		return decimal.Zero, entities.ScreenElement{}, err
	}

	return balance, snap.Texts[idx], nil
}

// ParseAmount parses a displayed monetary value using the app's locale:
// "." groups thousands, "," marks the decimal point, and a short unit suffix
// (e.g. " €") trails the digits. The suffix is stripped by trimming trailing
// non-digit runes rather than a fixed count, so both "1.234,56€" and
// "1.234,56 €" parse to 1234.56.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimRightFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if s == "" {
		return decimal.Zero, &entities.UnparseableBalanceError{Raw: raw}
	}

	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	value, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &entities.UnparseableBalanceError{Raw: raw, Err: err}
	}
	return value, nil
}
