// Package mapping defines the typed records a fill operation consumes: per
// field, a view-space bounding box with a font descriptor (TemplateMapping)
// and the current text content in its original and translated forms
// (WorkflowField). The upstream store ships these as loosely typed JSON;
// decoding validates them once so the rest of the pipeline can trust the
// invariants instead of re-checking at every call site.
package mapping

import (
	"fmt"
	"strconv"
	"strings"
)

// Rect is a view-space rectangle: pixel coordinates, origin top-left,
// y increasing downward. X1 > X0 and Y1 > Y0 always hold for a validated
// rectangle.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// NewRect validates and returns a view-space rectangle.
func NewRect(x0, y0, x1, y1 float64) (Rect, error) {
	r := Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}
	return r, r.validate()
}

func (r Rect) validate() error {
	if r.X1 <= r.X0 {
		return fmt.Errorf("rect: x1 (%g) must exceed x0 (%g)", r.X1, r.X0)
	}
	if r.Y1 <= r.Y0 {
		return fmt.Errorf("rect: y1 (%g) must exceed y0 (%g)", r.Y1, r.Y0)
	}
	return nil
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// FontSpec carries the nominal font used both for the on-screen overlay and
// for PDF drawing. Color is a "#rrggbb" string; empty means black.
type FontSpec struct {
	Name  string  `json:"name"`
	Size  float64 `json:"size"`
	Color string  `json:"color"`
}

// RGB parses the color into components in [0,1]. Unparseable or empty colors
// resolve to black.
func (f FontSpec) RGB() (r, g, b float64) {
	s := strings.TrimPrefix(f.Color, "#")
	if len(s) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return float64(v>>16&0xff) / 255, float64(v>>8&0xff) / 255, float64(v&0xff) / 255
}

// Alignment is the horizontal placement hint carried by a mapping. It is
// advisory: values are rendered centered to match the on-screen overlay, and
// the hint is surfaced in reports only.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
)

// Status tags the lifecycle of a field value.
type Status string

const (
	StatusPending    Status = "pending"
	StatusEdited     Status = "edited"
	StatusOCR        Status = "ocr"
	StatusTranslated Status = "translated"
)

// TemplateMapping places one field on the template: where the value is
// rendered, with which font, on which page.
type TemplateMapping struct {
	Key        string    `json:"-"`
	Label      string    `json:"label"`
	Position   Rect      `json:"position"`
	Font       FontSpec  `json:"font"`
	PageNumber int       `json:"page_number"`
	Alignment  Alignment `json:"alignment"`
	// Format is an optional value-formatter script applied before the value
	// is measured and drawn. See the scripting package.
	Format string `json:"format"`
}

// Validate checks the invariants the fill pipeline relies on.
func (m TemplateMapping) Validate() error {
	if m.Key == "" {
		return fmt.Errorf("mapping: empty field key")
	}
	if err := m.Position.validate(); err != nil {
		return fmt.Errorf("mapping %q: %w", m.Key, err)
	}
	if m.Font.Size <= 0 {
		return fmt.Errorf("mapping %q: font size must be positive, got %g", m.Key, m.Font.Size)
	}
	if m.PageNumber < 1 {
		return fmt.Errorf("mapping %q: page_number is 1-based, got %d", m.Key, m.PageNumber)
	}
	return nil
}

// WorkflowField is the current content of one field.
type WorkflowField struct {
	Key              string `json:"-"`
	Value            string `json:"value"`
	TranslatedValue  string `json:"translated_value"`
	ValueStatus      Status `json:"value_status"`
	TranslatedStatus Status `json:"translated_status"`
}

// View selects which value a fill uses.
type View int

const (
	ViewOriginal View = iota
	ViewTranslated
)

func (v View) String() string {
	if v == ViewTranslated {
		return "translated"
	}
	return "original"
}

// ValueFor returns the field's text for the given view. Either may be empty.
func (f WorkflowField) ValueFor(v View) string {
	if v == ViewTranslated {
		return f.TranslatedValue
	}
	return f.Value
}
