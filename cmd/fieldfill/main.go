// Command fieldfill fills mapped template fields into a PDF, or suggests
// mappings for a scanned template page via OCR.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wudi/fieldfill/fill"
	"github.com/wudi/fieldfill/fonts"
	"github.com/wudi/fieldfill/mapping"
	"github.com/wudi/fieldfill/observability"
	"github.com/wudi/fieldfill/ocr"
	"github.com/wudi/fieldfill/ocr/tesseract"
	"github.com/wudi/fieldfill/report"
	"github.com/wudi/fieldfill/scripting"
	"github.com/wudi/fieldfill/template"
)

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type options struct {
	templatePath string
	mappingsPath string
	fieldsPath   string
	outPath      string
	view         mapping.View
	fontPaths    []string
	scale        float64
	debugBoxes   bool
	placement    bool
	verify       bool
	verbose      bool

	// suggest mode
	suggestImage string
	suggestPage  int
	imageW       float64
	imageH       float64
	viewW        float64
	viewH        float64
	languages    []string
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fieldfill: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "fieldfill: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: fieldfill -template in.pdf -mappings m.json -fields f.json [flags]\n")
		fmt.Fprintf(flag.CommandLine.Output(), "       fieldfill -suggest page.png -suggest-page 1 [flags]\n")
		flag.PrintDefaults()
	}
	templatePath := flag.String("template", "", "Template PDF to fill")
	mappingsPath := flag.String("mappings", "", "Field mappings JSON")
	fieldsPath := flag.String("fields", "", "Workflow field values JSON")
	outPath := flag.String("out", "", "Output path (default: conventional name next to the template)")
	view := flag.String("view", "original", "Which values to draw: original or translated")
	var fontPaths stringList
	flag.Var(&fontPaths, "font", "Font asset path or URL, first loadable wins (repeatable)")
	scale := flag.Float64("scale", 1, "View-to-PDF scale factor")
	debugBoxes := flag.Bool("debug-boxes", false, "Stroke mapped boxes in the output")
	placement := flag.Bool("report", false, "Print a placement report after filling")
	verify := flag.Bool("verify", false, "Extract text back and validate structure after filling")
	verbose := flag.Bool("v", false, "Debug logging")

	suggestImage := flag.String("suggest", "", "Page image to OCR for mapping suggestions")
	suggestPage := flag.Int("suggest-page", 1, "Page number the suggestions target")
	imageW := flag.Float64("image-w", 0, "Suggest: image width in pixels (default: autodetect not attempted, required)")
	imageH := flag.Float64("image-h", 0, "Suggest: image height in pixels")
	viewW := flag.Float64("view-w", 0, "Suggest: view width the mappings are edited in")
	viewH := flag.Float64("view-h", 0, "Suggest: view height")
	var languages stringList
	flag.Var(&languages, "lang", "Suggest: OCR language hint (repeatable)")
	flag.Parse()

	opts.templatePath = *templatePath
	opts.mappingsPath = *mappingsPath
	opts.fieldsPath = *fieldsPath
	opts.outPath = *outPath
	opts.fontPaths = fontPaths
	opts.scale = *scale
	opts.debugBoxes = *debugBoxes
	opts.placement = *placement
	opts.verify = *verify
	opts.verbose = *verbose
	opts.suggestImage = *suggestImage
	opts.suggestPage = *suggestPage
	opts.imageW = *imageW
	opts.imageH = *imageH
	opts.viewW = *viewW
	opts.viewH = *viewH
	opts.languages = languages

	switch *view {
	case "original":
		opts.view = mapping.ViewOriginal
	case "translated":
		opts.view = mapping.ViewTranslated
	default:
		return options{}, fmt.Errorf("unknown -view %q", *view)
	}

	if opts.suggestImage != "" {
		if opts.imageW <= 0 || opts.imageH <= 0 || opts.viewW <= 0 || opts.viewH <= 0 {
			return options{}, fmt.Errorf("-suggest requires -image-w, -image-h, -view-w and -view-h")
		}
		return opts, nil
	}
	if opts.templatePath == "" || opts.mappingsPath == "" || opts.fieldsPath == "" {
		flag.Usage()
		return options{}, fmt.Errorf("-template, -mappings and -fields are required")
	}
	return opts, nil
}

func run(opts options) error {
	logger := newLogger(opts.verbose)
	ctx := context.Background()
	if opts.suggestImage != "" {
		return runSuggest(ctx, opts)
	}
	return runFill(ctx, opts, logger)
}

func newLogger(verbose bool) observability.Logger {
	l := observability.NewTextLogger(os.Stderr)
	if verbose {
		l.MinLvl = observability.LevelDebug
	}
	return l
}

func runFill(ctx context.Context, opts options, logger observability.Logger) error {
	templateData, err := os.ReadFile(opts.templatePath)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}
	mappingsData, err := os.ReadFile(opts.mappingsPath)
	if err != nil {
		return fmt.Errorf("read mappings: %w", err)
	}
	fieldsData, err := os.ReadFile(opts.fieldsPath)
	if err != nil {
		return fmt.Errorf("read fields: %w", err)
	}

	doc, err := template.Load(templateData)
	if err != nil {
		return err
	}
	mappings, err := mapping.DecodeMappings(mappingsData)
	if err != nil {
		return err
	}
	fields, err := mapping.DecodeFields(fieldsData)
	if err != nil {
		return err
	}

	res, err := fill.New(doc, logger).Fill(ctx, mappings, fields, fill.Options{
		View:       opts.view,
		Scale:      opts.scale,
		DebugBoxes: opts.debugBoxes,
		Formatter:  scripting.NewGojaEngine(),
		Resolver:   &fonts.Resolver{Paths: opts.fontPaths, Logger: logger},
	})
	if err != nil {
		return err
	}

	outPath := opts.outPath
	if outPath == "" {
		outPath = filepath.Join(filepath.Dir(opts.templatePath), fill.OutputName(opts.view))
	}
	if err := os.WriteFile(outPath, res.Output, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("%s: %d drawn, %d skipped, %d failed (font %s)\n",
		outPath, res.Drawn, res.Skipped, res.Failed, res.FontName)

	if opts.placement {
		page, err := doc.Page(1)
		if err != nil {
			return err
		}
		fmt.Print(report.Placement(mappings, res.Fields, page.Height(), opts.scale).String())
	}
	if opts.verify {
		if err := report.ValidateStructure(res.Output); err != nil {
			return err
		}
		var drawn []string
		for _, fr := range res.Fields {
			if fr.Status == fill.StatusDrawn {
				drawn = append(drawn, fr.Text)
			}
		}
		checks, err := report.VerifyText(res.Output, drawn)
		if err != nil {
			return err
		}
		for _, c := range checks {
			if !c.Found {
				fmt.Printf("verify: %q not found in extracted text\n", c.Value)
			}
		}
	}
	return nil
}

func runSuggest(ctx context.Context, opts options) error {
	image, err := os.ReadFile(opts.suggestImage)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	format := ocr.ImageFormatPNG
	if ext := strings.ToLower(filepath.Ext(opts.suggestImage)); ext == ".jpg" || ext == ".jpeg" {
		format = ocr.ImageFormatJPEG
	}
	in := ocr.NewInput(filepath.Base(opts.suggestImage), image, format,
		ocr.WithLanguages(opts.languages...))

	res, err := tesseract.NewEngine().Recognize(ctx, in)
	if err != nil {
		return err
	}
	suggestions := ocr.SuggestMappings(res, opts.imageW, opts.imageH, opts.viewW, opts.viewH, opts.suggestPage)

	out := make(map[string]mapping.TemplateMapping, len(suggestions))
	for _, s := range suggestions {
		out[s.Mapping.Key] = s.Mapping
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
