package report

import (
	"strings"
	"testing"

	"github.com/wudi/fieldfill/coords"
	"github.com/wudi/fieldfill/fill"
	"github.com/wudi/fieldfill/mapping"
)

func mustRect(t *testing.T, x0, y0, x1, y1 float64) mapping.Rect {
	t.Helper()
	r, err := mapping.NewRect(x0, y0, x1, y1)
	if err != nil {
		t.Fatalf("NewRect: %v", err)
	}
	return r
}

func TestPlacementAccurate(t *testing.T) {
	// Box center in view space is (200, 120); on a 792pt page the PDF-space
	// center is (200, 672). A draw at x=160 (centered 80pt text) and the
	// worked baseline y=668.5 is within tolerance.
	mappings := []mapping.TemplateMapping{
		{Key: "name", Position: mustRect(t, 100, 100, 300, 140), Font: mapping.FontSpec{Size: 14}, PageNumber: 1},
	}
	results := []fill.FieldResult{
		{Key: "name", Status: fill.StatusDrawn, Position: coords.Position{X: 190, Y: 668.5, FontSize: 14}},
	}
	r := Placement(mappings, results, 792, 1)
	if r.Drawn != 1 || r.Accurate != 1 || r.Inaccurate != 0 {
		t.Fatalf("report: %+v", r)
	}
	e := r.Entries[0]
	if e.Expected.X != 200 || e.Expected.Y != 672 {
		t.Fatalf("expected center = %+v", e.Expected)
	}
	if e.DeltaY != 3.5 {
		t.Fatalf("dy = %g", e.DeltaY)
	}
}

func TestPlacementFlagsWideMiss(t *testing.T) {
	mappings := []mapping.TemplateMapping{
		{Key: "name", Position: mustRect(t, 100, 100, 140, 140), Font: mapping.FontSpec{Size: 14}, PageNumber: 1},
	}
	// Box is 40pt wide: horizontal tolerance is max(5, 4) = 5. A draw 60pt
	// off center must be flagged.
	results := []fill.FieldResult{
		{Key: "name", Status: fill.StatusDrawn, Position: coords.Position{X: 180, Y: 670}},
	}
	r := Placement(mappings, results, 792, 1)
	if r.Inaccurate != 1 {
		t.Fatalf("wide miss not flagged: %+v", r)
	}
}

func TestPlacementCountsNonDrawn(t *testing.T) {
	results := []fill.FieldResult{
		{Key: "a", Status: fill.StatusSkippedEmpty},
		{Key: "b", Status: fill.StatusFailed},
	}
	r := Placement(nil, results, 792, 1)
	if r.Skipped != 1 || r.Failed != 1 || len(r.Entries) != 0 {
		t.Fatalf("report: %+v", r)
	}
}

func TestReportString(t *testing.T) {
	mappings := []mapping.TemplateMapping{
		{Key: "name", Position: mustRect(t, 100, 100, 300, 140), Font: mapping.FontSpec{Size: 14}, PageNumber: 1},
	}
	results := []fill.FieldResult{
		{Key: "name", Status: fill.StatusDrawn, Position: coords.Position{X: 200, Y: 670}},
	}
	s := Placement(mappings, results, 792, 1).String()
	if !strings.Contains(s, "1 drawn (1 accurate, 0 off)") {
		t.Fatalf("summary missing counts:\n%s", s)
	}
	if !strings.Contains(s, "name") {
		t.Fatalf("summary missing field key:\n%s", s)
	}
}

func TestVerifyTextRejectsGarbage(t *testing.T) {
	if _, err := VerifyText([]byte("not a pdf"), []string{"x"}); err == nil {
		t.Fatal("garbage accepted")
	}
}

func TestValidateStructureRejectsGarbage(t *testing.T) {
	if err := ValidateStructure([]byte("not a pdf")); err == nil {
		t.Fatal("garbage accepted")
	}
}
