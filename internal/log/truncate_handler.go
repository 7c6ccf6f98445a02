package log

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultMaxValueLen is the attribute value length cap applied when no
// explicit limit is configured.
const DefaultMaxValueLen = 256

// truncationMark is appended to values that were cut short.
const truncationMark = "...(truncated)"

// TruncateHandler wraps an slog.Handler and caps the rendered length of
// every attribute value. String values are cut at the limit; non-string
// values whose rendering exceeds the limit are stringified and cut.
// Group attributes are handled recursively.
type TruncateHandler struct {
	handler slog.Handler
	maxLen  int
}

// NewTruncateHandler creates a TruncateHandler wrapping handler.
// If handler is nil, slog.Default().Handler() is used. A maxLen of
// zero or less selects DefaultMaxValueLen.
func NewTruncateHandler(handler slog.Handler, maxLen int) *TruncateHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxValueLen
	}
	return &TruncateHandler{handler: handler, maxLen: maxLen}
}

// Enabled reports whether the handler handles records at the given
// level. It delegates to the underlying handler.
func (h *TruncateHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle truncates the record's attribute values and passes the record
// to the underlying handler.
func (h *TruncateHandler) Handle(ctx context.Context, r slog.Record) error {
	truncated := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		truncated.AddAttrs(h.truncateAttr(a))
		return true
	})
	return h.handler.Handle(ctx, truncated)
}

// WithAttrs returns a new handler with the given attributes added,
// truncated first.
func (h *TruncateHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = h.truncateAttr(a)
	}
	return &TruncateHandler{handler: h.handler.WithAttrs(out), maxLen: h.maxLen}
}

// WithGroup returns a new handler with the given group name.
func (h *TruncateHandler) WithGroup(name string) slog.Handler {
	return &TruncateHandler{handler: h.handler.WithGroup(name), maxLen: h.maxLen}
}

func (h *TruncateHandler) truncateAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			out[i] = h.truncateAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if len(s) > h.maxLen {
			return slog.String(a.Key, s[:h.maxLen]+truncationMark)
		}
		return a
	case slog.KindAny:
		s := fmt.Sprintf("%v", a.Value.Any())
		if len(s) > h.maxLen {
			return slog.String(a.Key, s[:h.maxLen]+truncationMark)
		}
		return a
	default:
		return a
	}
}
