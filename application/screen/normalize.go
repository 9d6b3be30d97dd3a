package screen

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"bank_automation/domain/entities"
)

// Snapshot is one point-in-time capture of the screen, normalized into
// element sequences in document order. Callers needing geometric ordering
// must sort explicitly.
type Snapshot struct {
	// Texts holds every element exposing visible text or an accessibility
	// description, de-duplicated by label and bounds.
	Texts []entities.ScreenElement

	// Clickables holds every element flagged clickable, with the
	// accessibility description as label fallback.
	Clickables []entities.ScreenElement
}

// ParseUITree parses a uiautomator window dump into its root node.
func ParseUITree(xmlText string) (*entities.UINode, error) {
	var root entities.UINode
	if err := xml.Unmarshal([]byte(strings.TrimSpace(xmlText)), &root); err != nil {
		return nil, fmt.Errorf("parse ui dump: %w", err)
	}
	return &root, nil
}

// ParseBounds parses the fixed uiautomator bounds format "[x1,y1][x2,y2]".
// A malformed value is an error, never a silently zeroed rectangle.
func ParseBounds(raw string) (entities.Rect, error) {
	parts := strings.SplitN(raw, "][", 2)
	if len(parts) != 2 ||
		!strings.HasPrefix(parts[0], "[") ||
		!strings.HasSuffix(parts[1], "]") {
		return entities.Rect{}, fmt.Errorf("malformed bounds %q", raw)
	}

	x1, y1, err := parsePoint(strings.TrimPrefix(parts[0], "["))
	if err != nil {
		return entities.Rect{}, fmt.Errorf("malformed bounds %q: %w", raw, err)
	}
	x2, y2, err := parsePoint(strings.TrimSuffix(parts[1], "]"))
	if err != nil {
		return entities.Rect{}, fmt.Errorf("malformed bounds %q: %w", raw, err)
	}

	return entities.Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}, nil
}

func parsePoint(s string) (int, int, error) {
	coords := strings.SplitN(s, ",", 2)
	if len(coords) != 2 {
		return 0, 0, fmt.Errorf("expected x,y pair in %q", s)
	}
	x, err := strconv.Atoi(coords[0])
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.Atoi(coords[1])
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// Normalize flattens a UI tree into the snapshot element sequences.
// Text-attribute nodes are collected first, then content-desc nodes that are
// not already present with equal label and bounds, then clickable nodes into
// their own sequence. Empty-label nodes are dropped.
func Normalize(root *entities.UINode) (Snapshot, error) {
	var flat []*entities.UINode
	flatten(root, &flat)

	var snap Snapshot

	for _, node := range flat {
		if node.Text == "" {
			continue
		}
		el, err := elementFromNode(node, node.Text)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Texts = appendUnique(snap.Texts, el)
	}

	for _, node := range flat {
		if node.ContentDesc == "" {
			continue
		}
		el, err := elementFromNode(node, node.ContentDesc)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Texts = appendUnique(snap.Texts, el)
	}

	for _, node := range flat {
		if node.Clickable != "true" {
			continue
		}
		label := node.Text
		if label == "" {
			label = node.ContentDesc
		}
		if label == "" {
			continue
		}
		el, err := elementFromNode(node, label)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Clickables = appendUnique(snap.Clickables, el)
	}

	return snap, nil
}

// NormalizeOCR converts recognized fragments into ocr-sourced elements.
// Blank fragments are dropped; OCR carries no clickable information, so the
// text sequence doubles as the clickable one.
func NormalizeOCR(fragments []entities.OCRFragment) Snapshot {
	var snap Snapshot
	for _, frag := range fragments {
		text := strings.TrimSpace(frag.Text)
		if text == "" {
			continue
		}
		el := entities.ScreenElement{
			Label: text,
			Bounds: entities.Rect{
				X1: frag.X,
				Y1: frag.Y,
				X2: frag.X + frag.Width,
				Y2: frag.Y + frag.Height,
			},
			Source: entities.SourceOCR,
		}
		snap.Texts = appendUnique(snap.Texts, el)
	}
	snap.Clickables = snap.Texts
	return snap
}

func elementFromNode(node *entities.UINode, label string) (entities.ScreenElement, error) {
	bounds, err := ParseBounds(node.Bounds)
	if err != nil {
		return entities.ScreenElement{}, err
	}
	return entities.ScreenElement{
		Label:  label,
		Bounds: bounds,
		Source: entities.SourceTree,
		Node:   node,
	}, nil
}

func appendUnique(els []entities.ScreenElement, el entities.ScreenElement) []entities.ScreenElement {
	for _, existing := range els {
		if existing.Equal(el) {
			return els
		}
	}
	return append(els, el)
}

func flatten(node *entities.UINode, out *[]*entities.UINode) {
	*out = append(*out, node)
	for i := range node.Children {
		flatten(&node.Children[i], out)
	}
}
