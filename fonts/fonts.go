// Package fonts resolves and measures the fonts used to draw field values: a
// Unicode-capable TrueType primary loaded from configured asset paths, and a
// standard core font that every draw can fall back to. One resolution happens
// per export; the resulting fonts are reused for all fields on all pages.
package fonts

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrMissingGlyph reports that a font cannot render one of the runes in a
// string. Callers either retry with the fallback font or approximate.
var ErrMissingGlyph = errors.New("fonts: missing glyph")

// Font measures and encodes text for one typeface. A Font is either an
// embedded TrueType (Type0, Identity-H, CIDs equal glyph IDs) or the
// non-embedded standard core font (WinAnsi).
type Font struct {
	Name     string
	Standard bool

	// TrueType state, nil for the standard font.
	tt *trueTypeFont

	mu   sync.Mutex
	used map[uint16]rune // glyphs drawn so far, for subsetted W/ToUnicode
}

// WidthOfTextAtSize measures text in points. It returns ErrMissingGlyph (or a
// parse error) when the font cannot represent the text; callers fall back to
// an approximation rather than failing placement.
func (f *Font) WidthOfTextAtSize(text string, size float64) (float64, error) {
	if f.Standard {
		return f.standardWidth(text, size)
	}
	if needsShaping(text) {
		if w, err := f.tt.shapedWidth(text, size); err == nil {
			return w, nil
		}
	}
	return f.tt.advanceWidth(text, size)
}

// Encode converts text to the byte form the content stream needs: WinAnsi
// bytes for the standard font, big-endian glyph IDs for embedded TrueType.
// Runes the font cannot represent make the whole string fail so the caller
// can retry with another font.
func (f *Font) Encode(text string) ([]byte, error) {
	if f.Standard {
		return encodeWinAnsi(text)
	}
	buf := make([]byte, 0, len(text)*2)
	for _, r := range text {
		gid, ok := f.tt.glyphID(r)
		if !ok {
			return nil, fmt.Errorf("%w: %q has no glyph for %q", ErrMissingGlyph, f.Name, r)
		}
		f.markUsed(gid, r)
		buf = append(buf, byte(gid>>8), byte(gid))
	}
	return buf, nil
}

func (f *Font) markUsed(gid uint16, r rune) {
	f.mu.Lock()
	if f.used == nil {
		f.used = make(map[uint16]rune)
	}
	if _, ok := f.used[gid]; !ok {
		f.used[gid] = r
	}
	f.mu.Unlock()
}

// UsedGlyph pairs a glyph ID with the rune it was first drawn for.
type UsedGlyph struct {
	GID  uint16
	Rune rune
}

// UsedGlyphs returns the glyph IDs drawn so far in ascending order. The
// writer builds the W array and ToUnicode map from this.
func (f *Font) UsedGlyphs() []UsedGlyph {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]UsedGlyph, 0, len(f.used))
	for gid, r := range f.used {
		out = append(out, UsedGlyph{GID: gid, Rune: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GID < out[j].GID })
	return out
}

// Metrics describes the font for a PDF FontDescriptor, in 1/1000 em units.
type Metrics struct {
	PostScriptName string
	Ascent         float64
	Descent        float64
	CapHeight      float64
	ItalicAngle    float64
	BBox           [4]float64
}

// Metrics returns descriptor metrics. The standard font reports the published
// core-font values.
func (f *Font) Metrics() Metrics {
	if f.Standard {
		return Metrics{
			PostScriptName: f.Name,
			Ascent:         718,
			Descent:        -207,
			CapHeight:      718,
			BBox:           [4]float64{-166, -225, 1000, 931},
		}
	}
	return f.tt.metrics
}

// GlyphWidth returns the advance width of a glyph in 1/1000 em units.
func (f *Font) GlyphWidth(gid uint16) float64 {
	if f.Standard || f.tt == nil {
		return 0
	}
	return f.tt.widthForGID(gid)
}

// FontData returns the raw TrueType bytes for embedding, nil for the
// standard font.
func (f *Font) FontData() []byte {
	if f.tt == nil {
		return nil
	}
	return f.tt.data
}

func (f *Font) standardWidth(text string, size float64) (float64, error) {
	var total float64
	for _, r := range text {
		b, ok := winAnsiByte(r)
		if !ok {
			return 0, fmt.Errorf("%w: %q not in WinAnsi", ErrMissingGlyph, r)
		}
		total += float64(helveticaWidths[b])
	}
	return total / 1000 * size, nil
}
