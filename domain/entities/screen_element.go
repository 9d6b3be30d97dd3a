package entities

import "fmt"

// ElementSource identifies where a ScreenElement was read from.
type ElementSource string

const (
	SourceTree ElementSource = "tree"
	SourceOCR  ElementSource = "ocr"
)

// Rect is a bounding box in the device's physical pixel grid.
type Rect struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Center returns the midpoint of the rectangle, the point used for taps.
func (r Rect) Center() (int, int) {
	return (r.X1 + r.X2) / 2, (r.Y1 + r.Y2) / 2
}

func (r Rect) String() string {
	return fmt.Sprintf("[%d,%d][%d,%d]", r.X1, r.Y1, r.X2, r.Y2)
}

// ScreenElement is one readable or interactive unit on the rendered screen.
// Elements are built fresh from each snapshot and never mutated.
type ScreenElement struct {
	Label  string        `json:"label"`
	Bounds Rect          `json:"bounds"`
	Source ElementSource `json:"source"`

	// Node is the raw hierarchy node for tree-sourced elements so later
	// attribute lookups stay possible. Always nil for OCR elements.
	Node *UINode `json:"-"`
}

// Equal reports identity by label and bounds. The raw node is deliberately
// ignored: the same widget can be reached via both text and content-desc.
func (e ScreenElement) Equal(other ScreenElement) bool {
	return e.Label == other.Label && e.Bounds == other.Bounds
}

// UINode mirrors one node of a uiautomator window dump.
type UINode struct {
	Index       string   `xml:"index,attr"`
	Text        string   `xml:"text,attr"`
	ContentDesc string   `xml:"content-desc,attr"`
	Bounds      string   `xml:"bounds,attr"`
	Clickable   string   `xml:"clickable,attr"`
	Focused     string   `xml:"focused,attr"`
	Children    []UINode `xml:"node"`
}

// OCRFragment is one recognized text fragment with its bounding box as
// reported by the OCR service.
type OCRFragment struct {
	Text   string `json:"text"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
