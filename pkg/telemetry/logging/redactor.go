package logging

import (
	"context"
	"log/slog"
	"strings"
)

// redactedKeys are attribute keys whose values are masked. Matching is
// case-insensitive and applies inside groups as well.
var redactedKeys = map[string]struct{}{
	"patient_id":  {},
	"patient_ids": {},
	"ssn":         {},
	"member_id":   {},
}

// RedactingHandler masks protected identifiers in log attributes before
// delegating to the wrapped handler.
type RedactingHandler struct {
	inner slog.Handler
}

// NewRedactingHandler wraps a handler with identifier redaction.
func NewRedactingHandler(inner slog.Handler) *RedactingHandler {
	return &RedactingHandler{inner: inner}
}

// Enabled reports whether the wrapped handler handles the level.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle masks protected attributes and delegates.
func (h *RedactingHandler) Handle(ctx context.Context, record slog.Record) error {
	masked := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(redactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, masked)
}

// WithAttrs returns a redacting handler over the wrapped handler's WithAttrs.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = redactAttr(a)
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(out)}
}

// WithGroup returns a redacting handler over the wrapped handler's WithGroup.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, g := range group {
			out[i] = redactAttr(g)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	if _, ok := redactedKeys[strings.ToLower(a.Key)]; !ok {
		return a
	}
	return slog.String(a.Key, Mask(a.Value.String()))
}

// Mask replaces all but the first two characters of an identifier with
// asterisks. Short identifiers are masked entirely.
func Mask(s string) string {
	if len(s) <= 2 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-2)
}
