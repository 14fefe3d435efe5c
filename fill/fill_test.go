package fill

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/wudi/fieldfill/coords"
	"github.com/wudi/fieldfill/mapping"
	"github.com/wudi/fieldfill/scripting"
	"github.com/wudi/fieldfill/template"
)

func letterTemplate(t *testing.T) *template.Document {
	t.Helper()
	var buf bytes.Buffer
	offsets := map[int]int{}
	obj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}
	buf.WriteString("%PDF-1.4\n")
	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 612 792] >>")
	obj(3, "<< /Type /Page /Parent 2 0 R >>")
	start := buf.Len()
	buf.WriteString("xref\n0 4\n0000000000 65535 f \n")
	for i := 1; i <= 3; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 4 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", start)
	doc, err := template.Load(buf.Bytes())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return doc
}

func box(t *testing.T, x0, y0, x1, y1 float64) mapping.Rect {
	t.Helper()
	r, err := mapping.NewRect(x0, y0, x1, y1)
	if err != nil {
		t.Fatalf("NewRect: %v", err)
	}
	return r
}

func TestFillMixedOutcomes(t *testing.T) {
	doc := letterTemplate(t)
	mappings := []mapping.TemplateMapping{
		{Key: "name", Position: box(t, 100, 100, 300, 140), Font: mapping.FontSpec{Size: 14}, PageNumber: 1},
		{Key: "empty", Position: box(t, 100, 200, 300, 240), Font: mapping.FontSpec{Size: 12}, PageNumber: 1},
		{Key: "offpage", Position: box(t, 9000, 100, 9200, 140), Font: mapping.FontSpec{Size: 12}, PageNumber: 1},
		{Key: "badpage", Position: box(t, 100, 300, 300, 340), Font: mapping.FontSpec{Size: 12}, PageNumber: 7},
		{Key: "cjk", Position: box(t, 100, 400, 300, 440), Font: mapping.FontSpec{Size: 12}, PageNumber: 1},
	}
	fields := map[string]mapping.WorkflowField{
		"name":    {Value: "Maria Garcia"},
		"empty":   {Value: ""},
		"offpage": {Value: "far away"},
		"badpage": {Value: "nowhere"},
		"cjk":     {Value: "日本語"}, // not drawable with the standard font
	}

	res, err := New(doc, nil).Fill(context.Background(), mappings, fields, Options{})
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if res.Drawn != 1 || res.Skipped != 2 || res.Failed != 2 {
		t.Fatalf("counts drawn/skipped/failed = %d/%d/%d", res.Drawn, res.Skipped, res.Failed)
	}
	want := map[string]Status{
		"name":    StatusDrawn,
		"empty":   StatusSkippedEmpty,
		"offpage": StatusSkippedBounds,
		"badpage": StatusFailed,
		"cjk":     StatusFailed,
	}
	for _, fr := range res.Fields {
		if fr.Status != want[fr.Key] {
			t.Fatalf("%s: status %q, want %q (err: %v)", fr.Key, fr.Status, want[fr.Key], fr.Err)
		}
	}
	if res.FontEmbedded {
		t.Fatal("no font asset configured but FontEmbedded is true")
	}

	// The output parses and carries the overlay on page 1.
	out, err := template.Load(res.Output)
	if err != nil {
		t.Fatalf("output does not parse: %v", err)
	}
	p, err := out.Page(1)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if _, ok := p.Dict[template.Name("Contents")]; !ok {
		t.Fatal("filled page has no content")
	}
}

func TestFillWorkedPlacement(t *testing.T) {
	doc := letterTemplate(t)
	mappings := []mapping.TemplateMapping{
		{Key: "name", Position: box(t, 100, 100, 300, 140), Font: mapping.FontSpec{Size: 14}, PageNumber: 1},
	}
	fields := map[string]mapping.WorkflowField{"name": {Value: "Maria Garcia"}}

	res, err := New(doc, nil).Fill(context.Background(), mappings, fields, Options{})
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	fr := res.Fields[0]
	if fr.Status != StatusDrawn {
		t.Fatalf("status %q, err %v", fr.Status, fr.Err)
	}
	// Vertical placement for a 14pt font in this box on a 792pt page.
	if fr.Position.Y != 668.5 {
		t.Fatalf("y = %g, want 668.5", fr.Position.Y)
	}
	if fr.Position.X <= 100 || fr.Position.X >= 300 {
		t.Fatalf("x = %g not inside box", fr.Position.X)
	}
}

func TestFillTranslatedView(t *testing.T) {
	doc := letterTemplate(t)
	mappings := []mapping.TemplateMapping{
		{Key: "name", Position: box(t, 100, 100, 300, 140), Font: mapping.FontSpec{Size: 14}, PageNumber: 1},
	}
	fields := map[string]mapping.WorkflowField{
		"name": {Value: "original", TranslatedValue: ""},
	}
	res, err := New(doc, nil).Fill(context.Background(), mappings, fields, Options{View: mapping.ViewTranslated})
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	// The translated view has no value for the field.
	if res.Fields[0].Status != StatusSkippedEmpty {
		t.Fatalf("status = %q", res.Fields[0].Status)
	}
}

func TestFillFormatScript(t *testing.T) {
	doc := letterTemplate(t)
	mappings := []mapping.TemplateMapping{
		{Key: "name", Position: box(t, 100, 100, 300, 140), Font: mapping.FontSpec{Size: 14},
			PageNumber: 1, Format: "value.toUpperCase()"},
		{Key: "broken", Position: box(t, 100, 200, 300, 240), Font: mapping.FontSpec{Size: 14},
			PageNumber: 1, Format: "value.(("},
	}
	fields := map[string]mapping.WorkflowField{
		"name":   {Value: "maria"},
		"broken": {Value: "kept"},
	}
	res, err := New(doc, nil).Fill(context.Background(), mappings, fields, Options{
		Formatter: scripting.NewGojaEngine(),
	})
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if res.Fields[0].Text != "MARIA" {
		t.Fatalf("formatted text = %q", res.Fields[0].Text)
	}
	// A failing script degrades to the raw value instead of failing the field.
	if res.Fields[1].Status != StatusDrawn || res.Fields[1].Text != "kept" {
		t.Fatalf("broken-script field: %+v", res.Fields[1])
	}
}

func TestFillCancelledContext(t *testing.T) {
	doc := letterTemplate(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(doc, nil).Fill(ctx, []mapping.TemplateMapping{
		{Key: "name", Position: box(t, 0, 0, 10, 10), Font: mapping.FontSpec{Size: 10}, PageNumber: 1},
	}, nil, Options{})
	if err == nil {
		t.Fatal("cancelled fill succeeded")
	}
}

func TestValidatePosition(t *testing.T) {
	cases := []struct {
		x, y float64
		want bool
	}{
		{0, 0, true},
		{612, 792, true},
		{306, 400, true},
		{-0.1, 400, false},
		{612.1, 400, false},
		{306, -1, false},
		{306, 792.5, false},
	}
	for _, tc := range cases {
		p := coords.Position{X: tc.x, Y: tc.y}
		if got := ValidatePosition(p, 612, 792); got != tc.want {
			t.Fatalf("ValidatePosition(%g, %g) = %v, want %v", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestOutputName(t *testing.T) {
	if got := OutputName(mapping.ViewOriginal); got != "filled-template.pdf" {
		t.Fatalf("original name = %q", got)
	}
	if got := OutputName(mapping.ViewTranslated); got != "translated-template.pdf" {
		t.Fatalf("translated name = %q", got)
	}
}
