// Package ocr recognizes text on scanned template images so field mappings
// can be bootstrapped instead of drawn by hand. The Engine contract keeps
// the Tesseract dependency behind an interface; SuggestMappings turns
// recognized words into candidate mappings in view space.
package ocr

import "context"

// ImageFormat identifies the content type of an OCR input image.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "image/png"
	ImageFormatJPEG ImageFormat = "image/jpeg"
)

// Region is a rectangle in image pixel coordinates, origin upper-left.
type Region struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// IsEmpty reports whether the region has non-positive dimensions.
func (r Region) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Input is one image submitted for recognition.
type Input struct {
	// ID is echoed back in the Result for correlation.
	ID string
	// Image is the encoded payload in the format given by Format.
	Image  []byte
	Format ImageFormat
	// DPI helps the engine's layout heuristics; zero means unknown.
	DPI int
	// Languages lists trained-data hints such as "eng" or "spa".
	Languages []string
	// Metadata passes engine-specific knobs (e.g. "tessedit_pageseg_mode")
	// without widening the API.
	Metadata map[string]string
}

// Word is one recognized token with its bounding box.
type Word struct {
	Text       string
	Bounds     Region
	Confidence float64 // 0..1
}

// Result is the recognition output for one input.
type Result struct {
	InputID   string
	PlainText string
	Words     []Word
}

// Engine recognizes one image. Implementations must honor ctx.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}

// InputOption mutates an Input under construction.
type InputOption func(*Input)

// WithLanguages sets language hints.
func WithLanguages(langs ...string) InputOption {
	return func(in *Input) { in.Languages = append([]string(nil), langs...) }
}

// WithDPI sets the effective dots-per-inch.
func WithDPI(dpi int) InputOption {
	return func(in *Input) { in.DPI = dpi }
}

// WithMetadata copies engine-specific settings onto the input.
func WithMetadata(metadata map[string]string) InputOption {
	return func(in *Input) {
		if len(metadata) == 0 {
			in.Metadata = nil
			return
		}
		in.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			in.Metadata[k] = v
		}
	}
}

// NewInput builds an input for an encoded image.
func NewInput(id string, image []byte, format ImageFormat, opts ...InputOption) Input {
	in := Input{ID: id, Image: image, Format: format}
	for _, opt := range opts {
		opt(&in)
	}
	return in
}
