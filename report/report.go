// Package report produces diagnostics for a finished export: per-field
// placement accuracy against the mapped boxes, text extraction checks on the
// produced bytes, and structural validation.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/wudi/fieldfill/coords"
	"github.com/wudi/fieldfill/fill"
	"github.com/wudi/fieldfill/mapping"
)

// Entry is the placement diagnosis of one drawn field.
type Entry struct {
	Key      string
	Expected coords.Point // mapped box center in PDF space
	Actual   coords.Point // draw origin
	DeltaX   float64
	DeltaY   float64
	Accurate bool
}

// Report summarizes placement across an export.
type Report struct {
	Entries    []Entry
	Accurate   int
	Inaccurate int
	Drawn      int
	Skipped    int
	Failed     int
}

// Horizontal tolerance floor in points; the box-relative fraction takes
// over for wide boxes. Vertical placement varies with font metrics, so its
// tolerance is deliberately loose.
const (
	minHorizontalTolerance = 5.0
	horizontalBoxFraction  = 0.10
	verticalTolerance      = 100.0
)

// Placement compares each drawn field's origin with the center of its
// mapped box transformed to PDF space. Skipped and failed fields are
// counted but produce no entry.
func Placement(mappings []mapping.TemplateMapping, results []fill.FieldResult, pageHeight, scale float64) Report {
	if scale == 0 {
		scale = 1
	}
	byKey := make(map[string]mapping.TemplateMapping, len(mappings))
	for _, m := range mappings {
		byKey[m.Key] = m
	}
	view := coords.ViewToPDF(scale, pageHeight*scale)

	var r Report
	for _, fr := range results {
		switch fr.Status {
		case fill.StatusDrawn:
			r.Drawn++
		case fill.StatusFailed:
			r.Failed++
			continue
		default:
			r.Skipped++
			continue
		}
		m, ok := byKey[fr.Key]
		if !ok {
			continue
		}
		expected := view.Apply(coords.Point{
			X: (m.Position.X0 + m.Position.X1) / 2,
			Y: (m.Position.Y0 + m.Position.Y1) / 2,
		})
		actual := coords.Point{X: fr.Position.X, Y: fr.Position.Y}
		dx := math.Abs(actual.X - expected.X)
		dy := math.Abs(actual.Y - expected.Y)
		hTol := math.Max(minHorizontalTolerance, horizontalBoxFraction*m.Position.Width()*scale)
		e := Entry{
			Key:      fr.Key,
			Expected: expected,
			Actual:   actual,
			DeltaX:   dx,
			DeltaY:   dy,
			Accurate: dx <= hTol && dy <= verticalTolerance,
		}
		if e.Accurate {
			r.Accurate++
		} else {
			r.Inaccurate++
		}
		r.Entries = append(r.Entries, e)
	}
	return r
}

// String renders a human-readable summary.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "placement: %d drawn (%d accurate, %d off), %d skipped, %d failed\n",
		r.Drawn, r.Accurate, r.Inaccurate, r.Skipped, r.Failed)
	for _, e := range r.Entries {
		mark := "ok"
		if !e.Accurate {
			mark = "OFF"
		}
		fmt.Fprintf(&b, "  %-4s %s dx=%.1f dy=%.1f (expected %.1f,%.1f actual %.1f,%.1f)\n",
			mark, e.Key, e.DeltaX, e.DeltaY,
			e.Expected.X, e.Expected.Y, e.Actual.X, e.Actual.Y)
	}
	return b.String()
}
