package screen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bank_automation/domain/entities"
	"bank_automation/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// MatchMode controls how labels are compared during a text search.
type MatchMode int

const (
	// MatchExact requires label equality
	MatchExact MatchMode = iota
	// MatchSubstring matches case-insensitive substrings
	MatchSubstring
)

// ScrollDirection selects the swipe gesture used while searching.
type ScrollDirection int

const (
	ScrollDown ScrollDirection = iota
	ScrollUp
)

// Swipe anchor points for scroll gestures, from the observed device layout.
const (
	swipeColumn = 500
	swipeFrom   = 1000
	swipeTo     = 500
)

// Config holds tunables for the locator.
type Config struct {
	// Settle is the wait after a scroll gesture before re-snapshotting.
	// A fixed sleep matches the app's observed timing; polling for a
	// post-action marker would be the stricter alternative.
	Settle time.Duration

	// UseOCR switches snapshots from the UI tree dump to a screenshot
	// plus OCR pass, for apps whose tree exposes no text.
	UseOCR bool

	// Mode is the comparison applied by FindByText.
	Mode MatchMode
}

// DefaultConfig returns the locator defaults.
func DefaultConfig() Config {
	return Config{
		Settle: 5 * time.Second,
		UseOCR: false,
		Mode:   MatchSubstring,
	}
}

// Locator searches the live screen for elements matching a text predicate,
// scrolling when the target is not initially visible.
type Locator struct {
	device interfaces.Device
	ocr    interfaces.OCR
	log    *logrus.Logger
	cfg    Config
}

// NewLocator creates a locator with default configuration.
func NewLocator(device interfaces.Device, ocr interfaces.OCR, log *logrus.Logger) *Locator {
	return NewLocatorWithConfig(device, ocr, log, DefaultConfig())
}

// NewLocatorWithConfig creates a locator with custom configuration.
func NewLocatorWithConfig(device interfaces.Device, ocr interfaces.OCR, log *logrus.Logger, cfg Config) *Locator {
	return &Locator{
		device: device,
		ocr:    ocr,
		log:    log,
		cfg:    cfg,
	}
}

// Capture takes a fresh snapshot of the screen via the configured source.
func (l *Locator) Capture(ctx context.Context) (Snapshot, error) {
	if l.cfg.UseOCR {
		if l.ocr == nil {
			return Snapshot{}, fmt.Errorf("ocr snapshots requested but no ocr service configured")
		}
		img, err := l.device.Screenshot(ctx)
		if err != nil {
			return Snapshot{}, fmt.Errorf("capture screenshot: %w", err)
		}
		fragments, err := l.ocr.Recognize(ctx, img)
		if err != nil {
			return Snapshot{}, fmt.Errorf("recognize screenshot: %w", err)
		}
		return NormalizeOCR(fragments), nil
	}

	xmlText, err := l.device.DumpUITree(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("dump ui tree: %w", err)
	}
	root, err := ParseUITree(xmlText)
	if err != nil {
		return Snapshot{}, err
	}
	return Normalize(root)
}

// FindByText returns every text element of the snapshot matching the query
// under the given mode, preserving document order.
func FindByText(snap Snapshot, query string, mode MatchMode) []entities.ScreenElement {
	return filterByText(snap.Texts, query, mode)
}

// FindClickableByText is FindByText over the clickable sequence.
func FindClickableByText(snap Snapshot, query string, mode MatchMode) []entities.ScreenElement {
	return filterByText(snap.Clickables, query, mode)
}

func filterByText(els []entities.ScreenElement, query string, mode MatchMode) []entities.ScreenElement {
	var matches []entities.ScreenElement
	for _, el := range els {
		switch mode {
		case MatchExact:
			if el.Label == query {
				matches = append(matches, el)
			}
		case MatchSubstring:
			if strings.Contains(strings.ToLower(el.Label), strings.ToLower(query)) {
				matches = append(matches, el)
			}
		}
	}
	return matches
}

// FindByScroll searches for an element whose label equals target exactly,
// scrolling in the given direction between attempts. Substring mode widens
// the candidate search but selection still requires the exact label, so an
// unrelated superstring match is never picked.
//
// Absence after maxAttempts snapshots is reported via found=false, not an
// error: a missing widget is an expected outcome the caller handles with its
// own fallback policy.
func (l *Locator) FindByScroll(ctx context.Context, target string, dir ScrollDirection, maxAttempts int) (entities.ScreenElement, bool, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		snap, err := l.Capture(ctx)
		if err != nil {
			return entities.ScreenElement{}, false, err
		}

		for _, el := range FindByText(snap, target, l.cfg.Mode) {
			if el.Label == target {
				return el, true, nil
			}
		}

		l.log.WithFields(logrus.Fields{
			"target":  target,
			"attempt": attempt + 1,
		}).Info("element not visible, scrolling")

		if err := l.scroll(ctx, dir); err != nil {
			return entities.ScreenElement{}, false, err
		}
		l.wait(ctx)
	}

	return entities.ScreenElement{}, false, nil
}

func (l *Locator) scroll(ctx context.Context, dir ScrollDirection) error {
	if dir == ScrollUp {
		return l.device.Swipe(ctx, swipeColumn, swipeTo, swipeColumn, swipeFrom)
	}
	return l.device.Swipe(ctx, swipeColumn, swipeFrom, swipeColumn, swipeTo)
}

func (l *Locator) wait(ctx context.Context) {
	if l.cfg.Settle <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(l.cfg.Settle):
	}
}

// BoundsFilter restricts elements by coordinate ranges. Nil fields are
// unconstrained.
type BoundsFilter struct {
	MinX1, MaxX1 *int
	MinY1, MaxY1 *int
	MinX2, MaxX2 *int
	MinY2, MaxY2 *int
}

// WithinBounds returns the elements whose bounds satisfy every set limit.
func WithinBounds(els []entities.ScreenElement, f BoundsFilter) []entities.ScreenElement {
	var out []entities.ScreenElement
	for _, el := range els {
		b := el.Bounds
		if outside(b.X1, f.MinX1, f.MaxX1) ||
			outside(b.Y1, f.MinY1, f.MaxY1) ||
			outside(b.X2, f.MinX2, f.MaxX2) ||
			outside(b.Y2, f.MinY2, f.MaxY2) {
			continue
		}
		out = append(out, el)
	}
	return out
}

func outside(v int, min, max *int) bool {
	if min != nil && v < *min {
		return true
	}
	if max != nil && v > *max {
		return true
	}
	return false
}
