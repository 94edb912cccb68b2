package log

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// noisyKeys contains attribute keys that commonly carry raw scan
// payloads. Values under these keys are cut to a short preview even
// when they fit under the general limit, because their content is bulk
// data rather than a diagnostic.
var noisyKeys = map[string]bool{
	"probe":        true,
	"probes":       true,
	"probe_text":   true,
	"fingerprint":  true,
	"fingerprints": true,
	"document":     true,
	"payload":      true,
	"raw":          true,
}

const (
	// MaxValueLen is the rune limit applied to every string attribute
	// value before it reaches the underlying handler.
	MaxValueLen = 256

	// PreviewLen is the tighter rune limit applied to values under
	// noisy keys.
	PreviewLen = 64

	// TruncationMarker is appended to every value the handler cut.
	TruncationMarker = "...[truncated]"
)

// lineBreaks collapses the CR/LF variants scan payloads embed, so one
// log record stays on one output line.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// TrimHandler wraps an slog.Handler to keep records line-oriented and
// bounded. It intercepts log records and rewrites string attribute
// values that embed line breaks or exceed the length limits before
// passing them to the underlying handler.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Call sites keep logging values verbatim; the policy lives in one
//     place instead of at every call
type TrimHandler struct {
	// handler is the underlying slog handler that receives trimmed records.
	handler slog.Handler
}

// NewTrimHandler creates a new TrimHandler wrapping the given handler.
// All string attribute values are trimmed before being passed to the
// underlying handler. If handler is nil, the returned TrimHandler will
// use slog.Default().Handler().
func NewTrimHandler(handler slog.Handler) *TrimHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &TrimHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *TrimHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle trims the record's attributes and passes it to the underlying handler.
func (h *TrimHandler) Handle(ctx context.Context, r slog.Record) error {
	trimmed := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		trimmed.AddAttrs(h.trimAttr(a))
		return true
	})

	return h.handler.Handle(ctx, trimmed)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are trimmed before being added.
func (h *TrimHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	trimmedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		trimmedAttrs[i] = h.trimAttr(a)
	}
	return &TrimHandler{handler: h.handler.WithAttrs(trimmedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *TrimHandler) WithGroup(name string) slog.Handler {
	return &TrimHandler{handler: h.handler.WithGroup(name)}
}

// trimAttr trims a single attribute, recursively handling groups.
func (h *TrimHandler) trimAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		trimmedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			trimmedAttrs[i] = h.trimAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(trimmedAttrs...)}
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}

	limit := MaxValueLen
	if noisyKeys[strings.ToLower(a.Key)] {
		limit = PreviewLen
	}

	value := lineBreaks.Replace(a.Value.String())
	return slog.String(a.Key, truncate(value, limit))
}

// truncate cuts value to limit runes and marks the cut. Values at or
// under the limit pass through untouched.
func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + TruncationMarker
}

// NewLogger creates a new slog.Logger with trimmed text output.
// Bulky attribute values are cut to a preview in all log output.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
//
// Returns a *slog.Logger that can be used with slog.SetDefault() or
// passed to components that accept *slog.Logger.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	trimHandler := NewTrimHandler(textHandler)

	return slog.New(trimHandler)
}

// NewJSONLogger creates a new slog.Logger with trimmed JSON output.
// Useful for structured log aggregation.
//
// Parameters:
//   - w: The io.Writer to write log output to
//   - verbose: If true, sets log level to Debug; otherwise Warn
//
// Returns a *slog.Logger configured for JSON output with trimming.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	jsonHandler := slog.NewJSONHandler(w, opts)
	trimHandler := NewTrimHandler(jsonHandler)

	return slog.New(trimHandler)
}
