package fonts

import (
	"fmt"
	"math"
	"strings"
	"sync"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// trueTypeFont wraps a parsed sfnt face with the lookups the fill pipeline
// needs. sfnt.Buffer is not safe for concurrent use, so lookups share one
// buffer under a mutex.
type trueTypeFont struct {
	data       []byte
	font       *sfnt.Font
	unitsPerEm sfnt.Units
	metrics    Metrics

	mu     sync.Mutex
	buf    sfnt.Buffer
	gids   map[rune]uint16
	widths map[uint16]float64
}

// ParseTrueType parses a TrueType/OpenType font for Type0 Identity-H
// embedding and measurement. The full font file is embedded; the W array is
// limited to glyphs actually drawn.
func ParseTrueType(name string, data []byte) (*Font, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("truetype font data is empty")
	}
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse truetype: %w", err)
	}
	unitsPerEm := f.UnitsPerEm()
	if unitsPerEm == 0 {
		return nil, fmt.Errorf("invalid unitsPerEm")
	}

	tt := &trueTypeFont{
		data:       data,
		font:       f,
		unitsPerEm: unitsPerEm,
		gids:       make(map[rune]uint16),
		widths:     make(map[uint16]float64),
	}

	ppem := fixed.Int26_6(int32(unitsPerEm) << 6)
	baseName := strings.TrimSpace(name)
	if ps, err := f.Name(&tt.buf, sfnt.NameIDPostScript); err == nil && ps != "" {
		baseName = ps
	}
	if baseName == "" {
		baseName = "CustomTT"
	}

	m, err := f.Metrics(&tt.buf, ppem, xfont.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("font metrics: %w", err)
	}
	bounds, _ := f.Bounds(&tt.buf, ppem, xfont.HintingNone)
	var italic float64
	if post := f.PostTable(); post != nil {
		italic = post.ItalicAngle
	}
	tt.metrics = Metrics{
		PostScriptName: baseName,
		Ascent:         tt.toThousandths(m.Ascent),
		Descent:        -tt.toThousandths(m.Descent),
		CapHeight:      tt.toThousandths(m.CapHeight),
		ItalicAngle:    italic,
		BBox: [4]float64{
			tt.toThousandths(bounds.Min.X),
			tt.toThousandths(bounds.Min.Y),
			tt.toThousandths(bounds.Max.X),
			tt.toThousandths(bounds.Max.Y),
		},
	}

	return &Font{Name: baseName, tt: tt}, nil
}

func (tt *trueTypeFont) toThousandths(v fixed.Int26_6) float64 {
	return float64(v) * 1000 / (64 * float64(tt.unitsPerEm))
}

// glyphID resolves a rune through the cmap, caching results. GID 0 (.notdef)
// counts as missing.
func (tt *trueTypeFont) glyphID(r rune) (uint16, bool) {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	if gid, ok := tt.gids[r]; ok {
		return gid, gid != 0
	}
	idx, err := tt.font.GlyphIndex(&tt.buf, r)
	if err != nil {
		idx = 0
	}
	tt.gids[r] = uint16(idx)
	return uint16(idx), idx != 0
}

// widthForGID returns the advance width in 1/1000 em, cached per glyph.
func (tt *trueTypeFont) widthForGID(gid uint16) float64 {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	return tt.widthForGIDLocked(gid)
}

func (tt *trueTypeFont) widthForGIDLocked(gid uint16) float64 {
	if w, ok := tt.widths[gid]; ok {
		return w
	}
	ppem := fixed.Int26_6(int32(tt.unitsPerEm) << 6)
	adv, err := tt.font.GlyphAdvance(&tt.buf, sfnt.GlyphIndex(gid), ppem, xfont.HintingNone)
	if err != nil {
		return 0
	}
	w := math.Round(tt.toThousandths(adv))
	tt.widths[gid] = w
	return w
}

// advanceWidth sums per-glyph advances. Fails on the first missing glyph so
// the caller can fall back to the approximation.
func (tt *trueTypeFont) advanceWidth(text string, size float64) (float64, error) {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	var total float64
	for _, r := range text {
		gid, ok := tt.gids[r]
		if !ok {
			idx, err := tt.font.GlyphIndex(&tt.buf, r)
			if err != nil {
				idx = 0
			}
			gid = uint16(idx)
			tt.gids[r] = gid
		}
		if gid == 0 {
			return 0, fmt.Errorf("%w: no glyph for %q", ErrMissingGlyph, r)
		}
		total += tt.widthForGIDLocked(gid)
	}
	return total / 1000 * size, nil
}
