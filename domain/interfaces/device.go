package interfaces

import "context"

// Device defines the automation surface of a connected Android device.
// Actions return as soon as the transport confirms them; any settle delay
// before the next snapshot is trustworthy belongs to the caller.
type Device interface {
	// DumpUITree dumps the current UI hierarchy as XML text
	DumpUITree(ctx context.Context) (string, error)

	// Screenshot captures the current screen as PNG bytes
	Screenshot(ctx context.Context) ([]byte, error)

	// Tap taps the given physical coordinates
	Tap(ctx context.Context, x, y int) error

	// Swipe performs one swipe gesture between two points
	Swipe(ctx context.Context, x1, y1, x2, y2 int) error

	// InputText types text into the focused field. Words are transmitted
	// one at a time because the input primitive drops literal spaces.
	InputText(ctx context.Context, text string) error

	// KeyEvent sends a single key event, e.g. "KEYCODE_BACK"
	KeyEvent(ctx context.Context, code string) error

	// StartApp launches an activity of the given package
	StartApp(ctx context.Context, pkg, activity string) error

	// ForceStop force-stops the package and returns to the launcher
	ForceStop(ctx context.Context, pkg string) error
}
