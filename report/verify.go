package report

import (
	"bytes"
	"fmt"

	ltpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// TextCheck is the extraction result for one expected value.
type TextCheck struct {
	Value string
	Found bool
}

// VerifyText extracts the document's plain text and reports which of the
// expected values appear in it. Values drawn with an embedded font are only
// findable when the export wrote a usable ToUnicode map, which makes this a
// useful end-to-end check.
func VerifyText(data []byte, values []string) ([]TextCheck, error) {
	r, err := ltpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("report: open pdf: %w", err)
	}
	var text bytes.Buffer
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			// Pages with exotic content still leave other pages checkable.
			continue
		}
		text.WriteString(content)
	}
	all := text.String()
	checks := make([]TextCheck, 0, len(values))
	for _, v := range values {
		checks = append(checks, TextCheck{Value: v, Found: bytes.Contains([]byte(all), []byte(v))})
	}
	return checks, nil
}

// ValidateStructure runs a full structural validation over the produced
// bytes, catching malformed cross-reference data or object syntax that a
// viewer might tolerate silently.
func ValidateStructure(data []byte) error {
	conf := model.NewDefaultConfiguration()
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return fmt.Errorf("report: structural validation: %w", err)
	}
	return nil
}
