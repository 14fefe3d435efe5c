// Package fill drives one export: it takes a parsed template, the field
// mappings and the workflow values, draws every non-empty value into its
// mapped box and returns the updated PDF bytes. Individual fields may fail
// without aborting the batch; the Result records what happened to each.
package fill

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wudi/fieldfill/coords"
	"github.com/wudi/fieldfill/fonts"
	"github.com/wudi/fieldfill/mapping"
	"github.com/wudi/fieldfill/observability"
	"github.com/wudi/fieldfill/overlay"
	"github.com/wudi/fieldfill/scripting"
	"github.com/wudi/fieldfill/template"
	"github.com/wudi/fieldfill/writer"
)

// Status classifies the outcome of one field.
type Status string

const (
	StatusDrawn         Status = "drawn"
	StatusSkippedEmpty  Status = "skipped-empty"
	StatusSkippedBounds Status = "skipped-bounds"
	StatusFailed        Status = "failed"
)

// FieldResult records what happened to one field.
type FieldResult struct {
	Key      string
	Status   Status
	Page     int
	Text     string
	Position coords.Position
	Err      error
}

// Result is the outcome of one export.
type Result struct {
	Fields  []FieldResult
	Drawn   int
	Skipped int
	Failed  int

	// FontName is the face values were drawn with; FontEmbedded reports
	// whether a TrueType asset loaded or everything fell back to the
	// standard font.
	FontName     string
	FontEmbedded bool

	Output []byte
}

// Options tune one export.
type Options struct {
	View  mapping.View
	Scale float64 // 0 means 1

	// DebugBoxes strokes each mapped box so placement can be inspected.
	DebugBoxes bool

	// Formatter runs mapping Format scripts. Nil disables formatting.
	Formatter scripting.Engine

	// Resolver loads the drawing fonts. Nil falls back to the standard font.
	Resolver *fonts.Resolver

	// Ratios override the vertical-centering transform. Nil uses defaults.
	Ratios *coords.Transformer
}

// Filler owns a loaded template for the duration of one export.
type Filler struct {
	doc    *template.Document
	logger observability.Logger
}

// New returns a Filler over doc. A nil logger discards output.
func New(doc *template.Document, logger observability.Logger) *Filler {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Filler{doc: doc, logger: logger}
}

// OutputName is the conventional file name for an export of the given view.
func OutputName(v mapping.View) string {
	if v == mapping.ViewTranslated {
		return "translated-template.pdf"
	}
	return "filled-template.pdf"
}

// ValidatePosition reports whether a computed origin lands on the page.
func ValidatePosition(p coords.Position, pageWidth, pageHeight float64) bool {
	return p.X >= 0 && p.X <= pageWidth && p.Y >= 0 && p.Y <= pageHeight
}

// Fill draws every mapped field and returns the updated document. Fields
// are processed in mapping order; a field that cannot be drawn is recorded
// and the batch continues. Only document-level failures return an error.
func (f *Filler) Fill(ctx context.Context, mappings []mapping.TemplateMapping, fields map[string]mapping.WorkflowField, opts Options) (*Result, error) {
	start := time.Now()
	load := f.resolveFonts(ctx, opts)
	transformer := coords.NewTransformer()
	if opts.Ratios != nil {
		transformer = *opts.Ratios
	}
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}

	res := &Result{FontName: load.FontName, FontEmbedded: load.Success}
	overlays := map[int]*overlay.Content{}
	resNames := map[*fonts.Font]string{}

	for _, m := range mappings {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fr := f.fillField(m, fields, opts, load, transformer, scale, overlays, resNames)
		res.Fields = append(res.Fields, fr)
		switch fr.Status {
		case StatusDrawn:
			res.Drawn++
		case StatusFailed:
			res.Failed++
			f.logger.Warn("field failed",
				observability.String("key", fr.Key),
				observability.Error(fr.Err))
		default:
			res.Skipped++
		}
	}

	u := writer.NewUpdater(f.doc)
	pageNums := make([]int, 0, len(overlays))
	for n := range overlays {
		pageNums = append(pageNums, n)
	}
	sort.Ints(pageNums)
	for _, n := range pageNums {
		page, err := f.doc.Page(n)
		if err != nil {
			return nil, err
		}
		if err := u.AddPageOverlay(page, overlays[n]); err != nil {
			return nil, err
		}
	}
	out, err := u.Bytes()
	if err != nil {
		return nil, err
	}
	res.Output = out

	f.logger.Info("fill finished",
		observability.String("view", opts.View.String()),
		observability.Int(observability.MetricFieldsDrawn, res.Drawn),
		observability.Int(observability.MetricFieldsSkipped, res.Skipped),
		observability.Int(observability.MetricFieldsFailed, res.Failed),
		observability.Int(observability.MetricOutputBytes, len(out)),
		observability.Duration(observability.MetricFillDuration, time.Since(start)))
	return res, nil
}

func (f *Filler) fillField(m mapping.TemplateMapping, fields map[string]mapping.WorkflowField, opts Options, load fonts.LoadResult, transformer coords.Transformer, scale float64, overlays map[int]*overlay.Content, resNames map[*fonts.Font]string) FieldResult {
	fr := FieldResult{Key: m.Key, Page: m.PageNumber}

	value := fields[m.Key].ValueFor(opts.View)
	if value == "" {
		fr.Status = StatusSkippedEmpty
		return fr
	}

	page, err := f.doc.Page(m.PageNumber)
	if err != nil {
		fr.Status = StatusFailed
		fr.Err = err
		return fr
	}

	text := value
	if m.Format != "" && opts.Formatter != nil {
		formatted, err := opts.Formatter.Format(context.Background(), m.Format, m.Key, value)
		if err != nil {
			// Format scripts are advisory: draw the raw value.
			f.logger.Warn("format script failed",
				observability.String("key", m.Key),
				observability.Error(err))
		} else {
			text = formatted
		}
	}
	fr.Text = text

	pos := transformer.Position(m.Position, text, load.Primary, m.Font.Size, page.Height()*scale, scale)
	fr.Position = pos
	if !ValidatePosition(pos, page.Width()*scale, page.Height()*scale) {
		fr.Status = StatusSkippedBounds
		f.logger.Warn("position off page",
			observability.String("key", m.Key),
			observability.Float64("x", pos.X),
			observability.Float64("y", pos.Y))
		return fr
	}

	c, ok := overlays[m.PageNumber]
	if !ok {
		c = overlay.NewContent()
		overlays[m.PageNumber] = c
	}
	r, g, b := m.Font.RGB()
	if opts.DebugBoxes {
		c.DrawBox(
			m.Position.X0*scale,
			page.Height()*scale-m.Position.Y1*scale,
			m.Position.Width()*scale,
			m.Position.Height()*scale,
			1, 0, 0)
	}

	err = c.DrawText(load.Primary, f.resName(load.Primary, resNames), text, pos.X, pos.Y, pos.FontSize, r, g, b)
	if err != nil && load.Fallback != load.Primary {
		f.logger.Debug("retrying with fallback font",
			observability.String("key", m.Key),
			observability.Error(err))
		err = c.DrawText(load.Fallback, f.resName(load.Fallback, resNames), text, pos.X, pos.Y, pos.FontSize, r, g, b)
	}
	if err != nil {
		fr.Status = StatusFailed
		fr.Err = fmt.Errorf("draw %q: %w", m.Key, err)
		return fr
	}
	fr.Status = StatusDrawn
	return fr
}

func (f *Filler) resolveFonts(ctx context.Context, opts Options) fonts.LoadResult {
	start := time.Now()
	r := opts.Resolver
	if r == nil {
		r = &fonts.Resolver{Logger: f.logger}
	}
	load := r.Load(ctx)
	f.logger.Debug("fonts resolved",
		observability.String("font", load.FontName),
		observability.Bool("embedded", load.Success),
		observability.Duration(observability.MetricFontLoadTime, time.Since(start)))
	return load
}

// resName assigns a stable page-resource name per font within one export.
func (f *Filler) resName(font *fonts.Font, names map[*fonts.Font]string) string {
	if n, ok := names[font]; ok {
		return n
	}
	n := fmt.Sprintf("FF%d", len(names)+1)
	names[font] = n
	return n
}
