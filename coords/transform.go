package coords

import (
	"github.com/wudi/fieldfill/mapping"
)

// Measurer measures rendered text width in points at a given size. An error
// (missing glyph, unparsable font) triggers the width approximation instead
// of failing the transform.
type Measurer interface {
	WidthOfTextAtSize(text string, size float64) (float64, error)
}

// Position is a computed text-drawing origin in PDF space: x/y locate the
// baseline start, both in points from the bottom-left page corner.
type Position struct {
	X        float64
	Y        float64
	FontSize float64
}

// approxWidthFactor estimates per-rune advance as a fraction of the font
// size when real measurement is unavailable.
const approxWidthFactor = 0.6

// Transformer computes PDF text positions for view-space boxes. The overlay
// centers its content vertically inside the box, so the transform replicates
// that with ratio-based font metrics: visual text height is approximated as
// AscentRatio+DescentRatio of the font size. The defaults match common Latin
// fonts; fonts with unusual metrics may warrant different ratios.
type Transformer struct {
	AscentRatio  float64
	DescentRatio float64
}

// NewTransformer returns a Transformer with the standard 0.75/0.25 ratios.
func NewTransformer() Transformer {
	return Transformer{AscentRatio: 0.75, DescentRatio: 0.25}
}

// Position computes the drawing origin for text inside the mapped box.
//
// The box is given in unscaled view pixels; scale is the view-to-PDF factor
// (1.0 for final export, the current zoom for live preview) and pageHeight is
// the PDF page height in the same scaled space. Text is always horizontally
// centered, matching the centered on-screen overlay; the mapping's alignment
// hint does not change placement. The function never fails: if measurement
// errors, the width is approximated from the rune count.
func (t Transformer) Position(box mapping.Rect, text string, m Measurer, fontSize, pageHeight, scale float64) Position {
	if scale == 0 {
		scale = 1
	}
	x0 := box.X0 * scale
	y0 := box.Y0 * scale
	boxWidth := box.Width() * scale
	boxHeight := box.Height() * scale

	textWidth := t.measure(text, m, fontSize)
	x := x0 + (boxWidth-textWidth)/2

	boxCenterY := y0 + boxHeight/2
	pdfCenterY := pageHeight - boxCenterY
	fontHeight := fontSize * (t.AscentRatio + t.DescentRatio)
	y := pdfCenterY - fontHeight/2 + fontSize*t.DescentRatio

	return Position{X: x, Y: y, FontSize: fontSize}
}

func (t Transformer) measure(text string, m Measurer, fontSize float64) float64 {
	if m != nil {
		if w, err := m.WidthOfTextAtSize(text, fontSize); err == nil {
			return w
		}
	}
	return float64(len([]rune(text))) * fontSize * approxWidthFactor
}
