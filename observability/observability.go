// Package observability provides the logging and metric hooks used by the
// fill pipeline. The library stays quiet unless a Logger is supplied; all
// types here are safe for concurrent use.
package observability

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Field is a structured logging attribute.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field      { return Field{Key: key, Value: value} }
func Int(key string, value int) Field     { return Field{Key: key, Value: value} }
func Float64(key string, v float64) Field { return Field{Key: key, Value: v} }
func Bool(key string, v bool) Field       { return Field{Key: key, Value: v} }
func Error(err error) Field               { return Field{Key: "error", Value: err} }
func Duration(key string, d time.Duration) Field {
	return Field{Key: key, Value: d}
}

// Logger is the logging contract accepted throughout the module.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// Level filters TextLogger output.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// TextLogger writes one line per entry to an io.Writer. Used by the CLI.
type TextLogger struct {
	mu     sync.Mutex
	w      io.Writer
	bound  []Field
	MinLvl Level
}

// NewTextLogger returns a logger writing at Info level and above.
func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{w: w, MinLvl: LevelInfo}
}

func (l *TextLogger) Debug(msg string, fields ...Field) { l.emit(LevelDebug, "DEBUG", msg, fields) }
func (l *TextLogger) Info(msg string, fields ...Field)  { l.emit(LevelInfo, "INFO", msg, fields) }
func (l *TextLogger) Warn(msg string, fields ...Field)  { l.emit(LevelWarn, "WARN", msg, fields) }
func (l *TextLogger) Error(msg string, fields ...Field) { l.emit(LevelError, "ERROR", msg, fields) }

func (l *TextLogger) With(fields ...Field) Logger {
	child := &TextLogger{w: l.w, MinLvl: l.MinLvl}
	child.bound = append(append([]Field(nil), l.bound...), fields...)
	return child
}

func (l *TextLogger) emit(lvl Level, tag, msg string, fields []Field) {
	if lvl < l.MinLvl {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "%s %s", tag, msg)
	for _, f := range l.bound {
		fmt.Fprintf(l.w, " %s=%v", f.Key, f.Value)
	}
	for _, f := range fields {
		fmt.Fprintf(l.w, " %s=%v", f.Key, f.Value)
	}
	fmt.Fprintln(l.w)
}

// Standard metric names emitted by the fill pipeline.
const (
	MetricFillDuration   = "fill.duration"
	MetricFieldsDrawn    = "fill.fields.drawn"
	MetricFieldsSkipped  = "fill.fields.skipped"
	MetricFieldsFailed   = "fill.fields.failed"
	MetricFontLoadTime   = "fonts.load.duration"
	MetricFontCacheHits  = "fonts.cache.hits"
	MetricTemplateParse  = "template.parse.duration"
	MetricOutputBytes    = "fill.output.bytes"
	MetricOCRSuggestions = "ocr.suggestions.count"
)
