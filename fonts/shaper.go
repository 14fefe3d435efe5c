package fonts

import (
	"bytes"
	"unicode"

	"github.com/go-text/typesetting/di"
	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// shapingScripts are scripts where summing cmap advances mismeasures the
// rendered width (joining, reordering, mandatory ligatures).
var shapingScripts = []*unicode.RangeTable{
	unicode.Arabic,
	unicode.Syriac,
	unicode.Devanagari,
	unicode.Bengali,
	unicode.Tamil,
	unicode.Thai,
	unicode.Khmer,
	unicode.Myanmar,
	unicode.Hebrew,
}

// needsShaping reports whether the text should be measured through the
// shaper rather than by advance summing.
func needsShaping(text string) bool {
	for _, r := range text {
		if r == '\u200d' { // zero-width joiner
			return true
		}
		if unicode.IsOneOf(shapingScripts, r) {
			return true
		}
	}
	return false
}

// shapedWidth measures text with HarfBuzz shaping at an em size of 1000, so
// advances come out directly in 1/1000 em units.
func (tt *trueTypeFont) shapedWidth(text string, size float64) (float64, error) {
	face, err := gofont.ParseTTF(bytes.NewReader(tt.data))
	if err != nil {
		return 0, err
	}

	runes := []rune(text)
	shaper := &shaping.HarfbuzzShaper{}
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      face,
		Size:      fixed.Int26_6(1000 * 64),
		Script:    language.LookupScript(runes[0]),
		Language:  language.DefaultLanguage(),
	}
	output := shaper.Shape(input)

	var units float64
	for _, g := range output.Glyphs {
		units += float64(g.XAdvance) / 64
	}
	return units / 1000 * size, nil
}
