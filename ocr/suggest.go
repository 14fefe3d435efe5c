package ocr

import (
	"fmt"
	"strings"

	"github.com/wudi/fieldfill/mapping"
)

// Suggestion pairs a candidate mapping with the recognized value that
// produced it. The value carries OCR provenance so downstream review can
// tell machine-read content from human-entered content.
type Suggestion struct {
	Mapping    mapping.TemplateMapping
	Field      mapping.WorkflowField
	Confidence float64
}

// minSuggestionConfidence filters out noise tokens.
const minSuggestionConfidence = 0.30

// SuggestMappings scales recognized word boxes from image pixels into view
// space and proposes one mapping per word. Words below the confidence floor
// or with degenerate boxes are dropped. The suggested font size tracks the
// box height so the drawn value roughly matches the scanned original.
func SuggestMappings(res Result, imageW, imageH, viewW, viewH float64, page int) []Suggestion {
	if imageW <= 0 || imageH <= 0 || viewW <= 0 || viewH <= 0 || page < 1 {
		return nil
	}
	sx := viewW / imageW
	sy := viewH / imageH

	var out []Suggestion
	for _, w := range res.Words {
		text := strings.TrimSpace(w.Text)
		if text == "" || w.Confidence < minSuggestionConfidence || w.Bounds.IsEmpty() {
			continue
		}
		rect, err := mapping.NewRect(
			w.Bounds.X*sx,
			w.Bounds.Y*sy,
			(w.Bounds.X+w.Bounds.Width)*sx,
			(w.Bounds.Y+w.Bounds.Height)*sy,
		)
		if err != nil {
			continue
		}
		size := rect.Height() * 0.7
		if size < 6 {
			size = 6
		}
		key := fmt.Sprintf("ocr-%02d", len(out)+1)
		out = append(out, Suggestion{
			Mapping: mapping.TemplateMapping{
				Key:        key,
				Label:      text,
				Position:   rect,
				Font:       mapping.FontSpec{Size: size},
				PageNumber: page,
				Alignment:  mapping.AlignCenter,
			},
			Field: mapping.WorkflowField{
				Key:         key,
				Value:       text,
				ValueStatus: mapping.StatusOCR,
			},
			Confidence: w.Confidence,
		})
	}
	return out
}
