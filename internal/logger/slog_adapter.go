package logger

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"
)

// NewSlogHandler returns a slog.Handler that writes through l.
// If l is nil, it returns nil.
func NewSlogHandler(l *Logger) slog.Handler {
	if l == nil {
		return nil
	}
	return &slogHandler{log: l}
}

// StdLogger adapts l to a *log.Logger at the given level, for APIs such as
// http.Server.ErrorLog that only accept the standard logger.
func StdLogger(l *Logger, level slog.Level) *log.Logger {
	return slog.NewLogLogger(NewSlogHandler(l), level)
}

type slogHandler struct {
	log    *Logger
	groups []string
	// attributes added through WithAttrs, already qualified by the groups
	// that were open at the time
	preformatted string
}

func (h *slogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.log.Enabled(fromSlogLevel(level))
}

func (h *slogHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := make([]slog.Attr, 0, record.NumAttrs())
	record.Attrs(func(attr slog.Attr) bool {
		attrs = append(attrs, attr)
		return true
	})

	message := record.Message
	if text := joinNonEmpty(h.preformatted, formatAttrs(attrs, h.groups)); text != "" {
		if message == "" {
			message = text
		} else {
			message += " " + text
		}
	}

	h.log.log(fromSlogLevel(record.Level), "%s", message)
	return nil
}

func (h *slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &slogHandler{
		log:          h.log,
		groups:       append([]string(nil), h.groups...),
		preformatted: joinNonEmpty(h.preformatted, formatAttrs(attrs, h.groups)),
	}
}

func (h *slogHandler) WithGroup(name string) slog.Handler {
	groups := append([]string(nil), h.groups...)
	if name != "" {
		groups = append(groups, name)
	}
	return &slogHandler{
		log:          h.log,
		groups:       groups,
		preformatted: h.preformatted,
	}
}

func fromSlogLevel(level slog.Level) Level {
	switch {
	case level >= slog.LevelError:
		return LevelError
	case level >= slog.LevelWarn:
		return LevelWarn
	case level >= slog.LevelInfo:
		return LevelInfo
	default:
		return LevelDebug
	}
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

func formatAttrs(attrs []slog.Attr, groups []string) string {
	var b strings.Builder
	for _, attr := range attrs {
		writeAttr(&b, attr, groups)
	}
	return b.String()
}

func writeAttr(b *strings.Builder, attr slog.Attr, groups []string) {
	if attr.Equal(slog.Attr{}) {
		return
	}

	if attr.Value.Kind() == slog.KindGroup {
		nested := append(append([]string(nil), groups...), attr.Key)
		for _, child := range attr.Value.Group() {
			writeAttr(b, child, nested)
		}
		return
	}

	key := attr.Key
	if key == "" {
		key = "attr"
	}
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}

	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	fmt.Fprintf(b, "%s=%v", key, attr.Value)
}
