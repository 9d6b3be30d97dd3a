package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bank_automation/domain/entities"
	"bank_automation/domain/interfaces"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// AppDriver is the slice of the banking app client the manager drives. The
// device behind it is exclusive: the manager is the only caller while a pass
// is in flight.
type AppDriver interface {
	InitApp(ctx context.Context) error
	EnsureHome(ctx context.Context) error
	RequestBankUpdate(ctx context.Context) error
	AccountBalance(ctx context.Context, label string) (decimal.Decimal, entities.ScreenElement, error)
	RecordCorrection(ctx context.Context, anchor entities.ScreenElement, amount decimal.Decimal, label, category string) error
}

// Config holds the reconciliation policy.
type Config struct {
	// APIAccounts are read from the app and exposed over HTTP as-is.
	APIAccounts []string

	// VirtualAccounts are reconciled against their external ground truth.
	VirtualAccounts []entities.VirtualAccount

	// Threshold is the dead-band: discrepancies at or below it are left
	// alone.
	Threshold decimal.Decimal

	// Cooldown limits how often a full pass may run.
	Cooldown time.Duration

	// StartHour and Timezone pin the daily scheduled pass.
	StartHour int
	Timezone  string

	// CorrectionLabel and CorrectionCategory are stamped on every
	// injected transaction.
	CorrectionLabel    string
	CorrectionCategory string
}

// DefaultConfig returns the reconciliation defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:          decimal.NewFromInt(10),
		Cooldown:           30 * time.Minute,
		StartHour:          22,
		Timezone:           "Europe/Berlin",
		CorrectionLabel:    "Balance correction",
		CorrectionCategory: "Sonstiges",
	}
}

// PassReport is the outcome of one reconciliation pass. Accounts that failed
// keep their last-known balance and carry their failure reason instead.
// Failure is set when the pass itself died before finishing its cycle.
type PassReport struct {
	ID         string                                    `json:"id"`
	StartedAt  time.Time                                 `json:"started_at"`
	FinishedAt time.Time                                 `json:"finished_at"`
	Results    map[string]entities.ReconciliationResult `json:"results"`
	Errors     map[string]string                         `json:"errors"`
	Failure    string                                    `json:"failure,omitempty"`
}

// Manager owns the reconciliation lifecycle: the scheduled daily pass, the
// externally triggered update, the last-known balances readers see, and the
// gate that keeps all of it off the device while another pass runs.
type Manager struct {
	cfg    Config
	app    AppDriver
	feed   interfaces.BalanceFeed
	prices interfaces.PriceFeed
	guard  interfaces.CorrectionGuard
	store  interfaces.BalanceStore
	log    *logrus.Logger
	gate   *Gate

	mu       sync.RWMutex
	balances map[string]entities.AccountBalance
	lastPass *PassReport
}

// NewManager creates a manager and seeds the last-known balances from the
// store so restarts keep the read API meaningful.
func NewManager(cfg Config, app AppDriver, feed interfaces.BalanceFeed, prices interfaces.PriceFeed, guard interfaces.CorrectionGuard, store interfaces.BalanceStore, log *logrus.Logger) *Manager {
	m := &Manager{
		cfg:      cfg,
		app:      app,
		feed:     feed,
		prices:   prices,
		guard:    guard,
		store:    store,
		log:      log,
		gate:     NewGate(),
		balances: make(map[string]entities.AccountBalance),
	}

	if store != nil {
		if saved, err := store.Load(); err != nil {
			log.WithError(err).Warn("could not load persisted balances")
		} else {
			m.balances = saved
		}
	}

	return m
}

// RunPass executes one full reconciliation pass, blocking until it finishes.
// Returns ErrBusy when another pass holds the gate.
func (m *Manager) RunPass(ctx context.Context) (*PassReport, error) {
	if !m.gate.TryAcquire(m.cfg.Cooldown) {
		return nil, entities.ErrBusy
	}
	defer m.gate.Release()
	return m.runPass(ctx)
}

// RequestUpdate asks for a fresh pass. Non-blocking requests receive the
// grant decision immediately and the pass runs fire-and-forget; a denied
// request is the normal answer during the cooldown window or while a pass is
// in flight.
func (m *Manager) RequestUpdate(block bool) error {
	if !m.gate.TryAcquire(m.cfg.Cooldown) {
		return entities.ErrBusy
	}

	if block {
		defer m.gate.Release()
		_, err := m.runPass(context.Background())
		return err
	}

	go func() {
		defer m.gate.Release()
		if _, err := m.runPass(context.Background()); err != nil {
			m.log.WithError(err).Error("background pass failed")
		}
	}()
	return nil
}

// UpdateRunning reports whether a pass currently holds the device.
func (m *Manager) UpdateRunning() bool {
	return m.gate.InFlight()
}

// Balances returns a snapshot of the last-known balances. Readers never see
// live device state.
func (m *Manager) Balances() map[string]entities.AccountBalance {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]entities.AccountBalance, len(m.balances))
	for name, bal := range m.balances {
		out[name] = bal
	}
	return out
}

// LastUpdate returns the most recent balance timestamp across accounts.
func (m *Manager) LastUpdate() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var last time.Time
	for _, bal := range m.balances {
		if bal.UpdatedAt.After(last) {
			last = bal.UpdatedAt
		}
	}
	return last
}

// LastPass returns the report of the most recently finished pass, nil before
// the first one.
func (m *Manager) LastPass() *PassReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastPass
}

// StartScheduler starts the daily pass at the configured hour and timezone.
// The returned cron owns the schedule; stop it on shutdown.
func (m *Manager) StartScheduler() (*cron.Cron, error) {
	loc, err := time.LoadLocation(m.cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", m.cfg.Timezone, err)
	}

	c := cron.New(cron.WithLocation(loc))
	spec := fmt.Sprintf("0 %d * * *", m.cfg.StartHour)
	if _, err := c.AddFunc(spec, func() {
		if err := m.RequestUpdate(false); err != nil {
			if errors.Is(err, entities.ErrBusy) {
				m.log.Info("scheduled pass skipped, another pass is running")
				return
			}
			m.log.WithError(err).Error("scheduled pass failed to start")
		}
	}); err != nil {
		return nil, fmt.Errorf("register schedule %q: %w", spec, err)
	}

	c.Start()
	m.log.WithFields(logrus.Fields{
		"schedule": spec,
		"timezone": m.cfg.Timezone,
	}).Info("scheduler started")
	return c, nil
}

// runPass drives the device through one complete cycle. Caller holds the
// gate. Transport failures abort the pass; anything scoped to a single
// account is recorded in the report and the pass moves on.
func (m *Manager) runPass(ctx context.Context) (*PassReport, error) {
	report := &PassReport{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Results:   make(map[string]entities.ReconciliationResult),
		Errors:    make(map[string]string),
	}
	log := m.log.WithField("pass_id", report.ID)
	log.Info("reconciliation pass started")

	if err := m.app.InitApp(ctx); err != nil {
		return m.finishPass(report, fmt.Errorf("init app: %w", err))
	}
	if err := m.app.EnsureHome(ctx); err != nil {
		return m.finishPass(report, fmt.Errorf("reach overview: %w", err))
	}

	for _, account := range m.cfg.VirtualAccounts {
		if err := m.reconcileVirtual(ctx, account, report); err != nil {
			var transport *entities.TransportError
			if errors.As(err, &transport) {
				return m.finishPass(report, err)
			}
			log.WithError(err).WithField("account", account.Name).Warn("account reconciliation failed")
			report.Errors[account.Name] = err.Error()
		}
	}

	if err := m.app.RequestBankUpdate(ctx); err != nil {
		return m.finishPass(report, fmt.Errorf("request bank update: %w", err))
	}

	for _, name := range m.cfg.APIAccounts {
		balance, _, err := m.readBalance(ctx, name)
		if err != nil {
			var transport *entities.TransportError
			if errors.As(err, &transport) {
				return m.finishPass(report, err)
			}
			log.WithError(err).WithField("account", name).Warn("balance read failed")
			report.Errors[name] = err.Error()
			continue
		}
		m.setBalance(name, balance)
		log.WithFields(logrus.Fields{
			"account": name,
			"balance": balance.StringFixed(2),
		}).Info("balance updated")
	}

	m.persistBalances()

	log.WithField("errors", len(report.Errors)).Info("reconciliation pass finished")
	return m.finishPass(report, nil)
}

// finishPass stamps the report and publishes it as the last pass. Aborted
// passes are published too, with the abort reason, so callers of the read API
// can see why a pass died instead of the previous report.
func (m *Manager) finishPass(report *PassReport, err error) (*PassReport, error) {
	if err != nil {
		report.Failure = err.Error()
	}
	report.FinishedAt = time.Now()

	m.mu.Lock()
	m.lastPass = report
	m.mu.Unlock()
	return report, err
}

// reconcileVirtual fetches the ground truth for one virtual account, decides
// the correction and injects it when the delta leaves the dead-band.
func (m *Manager) reconcileVirtual(ctx context.Context, account entities.VirtualAccount, report *PassReport) error {
	target, err := m.feed.Fetch(ctx, account)
	if err != nil {
		return fmt.Errorf("fetch ground truth: %w", err)
	}

	if account.ForeignCurrency != "" {
		rate, err := m.prices.Rate(ctx, account.ForeignCurrency)
		if err != nil {
			return fmt.Errorf("convert %s: %w", account.ForeignCurrency, err)
		}
		target = target.Mul(rate)
	}
	target = target.Round(2)

	observed, anchor, err := m.readBalance(ctx, account.Name)
	if err != nil {
		return err
	}

	result := Decide(observed, target, m.cfg.Threshold)
	report.Results[account.Name] = result
	m.setBalance(account.Name, observed)

	if result.Action == entities.ActionNone {
		return nil
	}

	if m.guard != nil {
		if err := m.guard.AllowCorrection(account.Name, result.Delta); err != nil {
			return fmt.Errorf("correction blocked: %w", err)
		}
	}

	if err := m.app.RecordCorrection(ctx, anchor, result.Delta, m.cfg.CorrectionLabel, m.cfg.CorrectionCategory); err != nil {
		return fmt.Errorf("record correction: %w", err)
	}

	m.setBalance(account.Name, target)
	return nil
}

// readBalance reads one account balance with the bounded recovery policy: an
// element that stayed missing gets exactly one app reset and retry.
func (m *Manager) readBalance(ctx context.Context, name string) (decimal.Decimal, entities.ScreenElement, error) {
	balance, anchor, err := m.app.AccountBalance(ctx, name)
	if err == nil {
		return balance, anchor, nil
	}

	var notFound *entities.ElementNotFoundError
	if !errors.As(err, &notFound) {
		return decimal.Zero, entities.ScreenElement{}, err
	}

	m.log.WithField("account", name).Warn("account not found, resetting app for one retry")
	if err := m.app.InitApp(ctx); err != nil {
		return decimal.Zero, entities.ScreenElement{}, err
	}
	if err := m.app.EnsureHome(ctx); err != nil {
		return decimal.Zero, entities.ScreenElement{}, err
	}
	return m.app.AccountBalance(ctx, name)
}

func (m *Manager) setBalance(name string, balance decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[name] = entities.AccountBalance{
		Balance:   balance,
		UpdatedAt: time.Now(),
	}
}

func (m *Manager) persistBalances() {
	if m.store == nil {
		return
	}
	if err := m.store.Save(m.Balances()); err != nil {
		m.log.WithError(err).Warn("could not persist balances")
	}
}
