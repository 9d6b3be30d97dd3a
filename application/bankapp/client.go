package bankapp

import (
	"context"
	"fmt"
	"time"

	"bank_automation/application/screen"
	"bank_automation/domain/entities"
	"bank_automation/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// Config holds the app-specific knowledge the client drives with: package
// identity, the home-screen marker, fixed layout conventions and the settle
// delays each action needs before the next snapshot is trustworthy.
type Config struct {
	Package  string
	Activity string

	// PIN unlocks the app after a cold start, sent digit by digit as key
	// events. Digits only.
	PIN string

	// HomeMarker is the label that identifies the overview screen when it
	// appears at structural index 0.
	HomeMarker string

	// WidgetTapX is the fixed column tapped to open an account widget.
	// The balance control sits in the same row as the widget's name label,
	// so only the row is matched dynamically.
	WidgetTapX int

	// ScrollAttempts bounds the scroll-and-retry search for a widget.
	ScrollAttempts int

	ResetWait   time.Duration // after force-stop
	PINWait     time.Duration // after app start, before PIN entry
	LaunchWait  time.Duration // after PIN entry, covers login and load
	Settle      time.Duration // after an ordinary tap
	WidgetWait  time.Duration // after opening an account widget
	RefreshWait time.Duration // after the pull-to-refresh gesture

	Transactions TransactionConfig
}

// DefaultConfig returns timings and layout constants observed on the device.
func DefaultConfig() Config {
	return Config{
		HomeMarker:     "Übersicht",
		WidgetTapX:     580,
		ScrollAttempts: 5,
		ResetWait:      2 * time.Second,
		PINWait:        5 * time.Second,
		LaunchWait:     30 * time.Second,
		Settle:         2 * time.Second,
		WidgetWait:     8 * time.Second,
		RefreshWait:    10 * time.Second,
		Transactions:   DefaultTransactionConfig(),
	}
}

// Client drives the banking app through the device automation surface. It
// owns the navigation belief: any operation that depends on the overview
// screen forces the state there first instead of trusting staleness.
//
// The client assumes exclusive access to the device; callers serialize.
type Client struct {
	device  interfaces.Device
	locator *screen.Locator
	log     *logrus.Logger
	cfg     Config

	state entities.Screen

	// homeAnchor caches the clickable occurrence of the home marker so
	// returning home avoids a full scroll search. Invalidated whenever
	// home verification fails.
	homeAnchor *entities.ScreenElement
}

// NewClient creates a client with default configuration.
func NewClient(device interfaces.Device, locator *screen.Locator, log *logrus.Logger) *Client {
	return NewClientWithConfig(device, locator, log, DefaultConfig())
}

// NewClientWithConfig creates a client with custom configuration.
func NewClientWithConfig(device interfaces.Device, locator *screen.Locator, log *logrus.Logger, cfg Config) *Client {
	return &Client{
		device:  device,
		locator: locator,
		log:     log,
		cfg:     cfg,
		state:   entities.ScreenUnknown,
	}
}

// State returns the current navigation belief.
func (c *Client) State() entities.Screen {
	return c.state
}

// InitApp cold-starts the app: force-stop, relaunch, PIN entry, load wait.
// The navigation state is unknown until EnsureHome verifies the overview.
func (c *Client) InitApp(ctx context.Context) error {
	c.state = entities.ScreenUnknown
	c.homeAnchor = nil

	c.log.WithField("package", c.cfg.Package).Info("restarting app")

	if err := c.device.ForceStop(ctx, c.cfg.Package); err != nil {
		return fmt.Errorf("force-stop app: %w", err)
	}
	c.wait(ctx, c.cfg.ResetWait)

	if err := c.device.StartApp(ctx, c.cfg.Package, c.cfg.Activity); err != nil {
		return fmt.Errorf("start app: %w", err)
	}

	// The lock prompt needs to render before key events reach it.
	c.wait(ctx, c.cfg.PINWait)

	for _, digit := range c.cfg.PIN {
		if err := c.device.KeyEvent(ctx, "KEYCODE_"+string(digit)); err != nil {
			return fmt.Errorf("enter pin: %w", err)
		}
	}

	c.log.Info("waiting for app to load")
	c.wait(ctx, c.cfg.LaunchWait)
	return nil
}

// IsHome reports whether the overview screen is currently shown: the home
// marker label present at structural index 0. OCR snapshots carry no index,
// so any exact match counts there.
func (c *Client) IsHome(ctx context.Context) (bool, error) {
	snap, err := c.locator.Capture(ctx)
	if err != nil {
		return false, err
	}
	return c.homeVisible(snap), nil
}

func (c *Client) homeVisible(snap screen.Snapshot) bool {
	for _, el := range screen.FindByText(snap, c.cfg.HomeMarker, screen.MatchExact) {
		if el.Source == entities.SourceOCR {
			return true
		}
		if el.Node != nil && el.Node.Index == "0" {
			return true
		}
	}
	return false
}

// EnsureHome forces the navigation state to home. When the marker is absent
// it performs one full app reset and re-verifies; a second miss is fatal for
// the current cycle and propagates.
func (c *Client) EnsureHome(ctx context.Context) error {
	snap, err := c.locator.Capture(ctx)
	if err != nil {
		return err
	}
	if c.homeVisible(snap) {
		c.state = entities.ScreenHome
		c.cacheHomeAnchor(snap)
		return nil
	}

	c.log.WithField("marker", c.cfg.HomeMarker).Warn("overview not visible, resetting app")
	c.homeAnchor = nil

	if err := c.InitApp(ctx); err != nil {
		return err
	}

	snap, err = c.locator.Capture(ctx)
	if err != nil {
		return err
	}
	if !c.homeVisible(snap) {
		c.state = entities.ScreenUnknown
		return fmt.Errorf("overview not reachable after app reset: %w",
			&entities.ElementNotFoundError{Label: c.cfg.HomeMarker})
	}

	c.state = entities.ScreenHome
	c.cacheHomeAnchor(snap)
	return nil
}

func (c *Client) cacheHomeAnchor(snap screen.Snapshot) {
	if c.homeAnchor != nil {
		return
	}
	for _, el := range screen.FindClickableByText(snap, c.cfg.HomeMarker, screen.MatchExact) {
		anchor := el
		c.homeAnchor = &anchor
		return
	}
}

// ReturnHome navigates back to the overview using the cached home anchor,
// falling back to a full EnsureHome when no anchor is cached or the tap did
// not land.
func (c *Client) ReturnHome(ctx context.Context) error {
	if c.homeAnchor != nil {
		x, y := c.homeAnchor.Bounds.Center()
		if err := c.tap(ctx, x, y); err != nil {
			return fmt.Errorf("tap home anchor: %w", err)
		}

		ok, err := c.IsHome(ctx)
		if err != nil {
			return err
		}
		if ok {
			c.state = entities.ScreenHome
			return nil
		}
		c.homeAnchor = nil
	}
	return c.EnsureHome(ctx)
}

// OpenWidget opens the named account widget from the overview. A widget that
// stays absent after the bounded scroll search is reported via found=false;
// whether to reset the app and retry the whole pass is the orchestrator's
// call, not looped here.
func (c *Client) OpenWidget(ctx context.Context, name string) (entities.ScreenElement, bool, error) {
	if err := c.EnsureHome(ctx); err != nil {
		return entities.ScreenElement{}, false, err
	}

	widget, found, err := c.locator.FindByScroll(ctx, name, screen.ScrollDown, c.cfg.ScrollAttempts)
	if err != nil {
		return entities.ScreenElement{}, false, err
	}
	if !found {
		c.log.WithField("widget", name).Warn("widget not found on overview")
		return entities.ScreenElement{}, false, nil
	}

	// The widget's detail control sits in the same row as its name label,
	// at a fixed column.
	_, rowY := widget.Bounds.Center()
	if err := c.device.Tap(ctx, c.cfg.WidgetTapX, rowY); err != nil {
		return entities.ScreenElement{}, false, fmt.Errorf("tap widget row: %w", err)
	}
	c.wait(ctx, c.cfg.WidgetWait)

	c.state = entities.ScreenWidget
	return widget, true, nil
}

// RequestBankUpdate triggers the app's pull-to-refresh on the overview so it
// fetches fresh data from the bank, then waits for the refresh to finish.
func (c *Client) RequestBankUpdate(ctx context.Context) error {
	if err := c.EnsureHome(ctx); err != nil {
		return err
	}

	c.log.Info("requesting bank refresh")
	if err := c.device.Swipe(ctx, 500, 400, 500, 1400); err != nil {
		return fmt.Errorf("pull-to-refresh: %w", err)
	}
	c.wait(ctx, c.cfg.RefreshWait)
	return nil
}

func (c *Client) tap(ctx context.Context, x, y int) error {
	if err := c.device.Tap(ctx, x, y); err != nil {
		return err
	}
	c.wait(ctx, c.cfg.Settle)
	return nil
}

func (c *Client) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
