package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset  = "\033[0m"
	ansiDim    = "\033[2m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

// TerminalHandler formats log records as human-readable lines. Colours are
// only emitted when writing to a character device.
//
// Output format:
//
//	15:04:05.000 INF server started port=8080 request_id=host/abc-000001
type TerminalHandler struct {
	writer io.Writer
	level  slog.Leveler
	color  bool
	attrs  []slog.Attr
	groups []string
	mu     *sync.Mutex
}

func newTerminalHandler(w io.Writer, opts *slog.HandlerOptions) *TerminalHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &TerminalHandler{
		writer: w,
		level:  level,
		color:  isTerminal(w),
		mu:     &sync.Mutex{},
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// Enabled reports whether the handler handles records at the given level.
func (h *TerminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes one line per record.
func (h *TerminalHandler) Handle(ctx context.Context, r slog.Record) error {
	var buf bytes.Buffer
	buf.Grow(256)

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	h.styled(&buf, ansiDim, ts.Format("15:04:05.000"))
	buf.WriteByte(' ')

	color, label := levelStyle(r.Level)
	h.styled(&buf, color, label)
	buf.WriteByte(' ')
	h.styled(&buf, ansiBold, r.Message)

	for _, a := range h.attrs {
		h.appendAttr(&buf, a, nil)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&buf, a, h.groups)
		return true
	})
	// Correlation IDs are never grouped.
	for _, a := range contextAttrs(ctx) {
		h.appendAttr(&buf, a, nil)
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

// WithAttrs returns a new handler that also writes attrs.
func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), qualify(attrs, h.groups)...)
	return &clone
}

// WithGroup returns a new handler that prefixes subsequent keys with name.
func (h *TerminalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func (h *TerminalHandler) styled(buf *bytes.Buffer, style, s string) {
	if !h.color {
		buf.WriteString(s)
		return
	}
	buf.WriteString(style)
	buf.WriteString(s)
	buf.WriteString(ansiReset)
}

func levelStyle(level slog.Level) (string, string) {
	switch {
	case level < slog.LevelInfo:
		return ansiCyan, "DBG"
	case level < slog.LevelWarn:
		return ansiGreen, "INF"
	case level < slog.LevelError:
		return ansiYellow, "WRN"
	default:
		return ansiRed, "ERR"
	}
}

func (h *TerminalHandler) appendAttr(buf *bytes.Buffer, a slog.Attr, groups []string) {
	walkAttr(a, groups, func(key string, v slog.Value) {
		buf.WriteByte(' ')
		h.styled(buf, ansiDim, key+"=")
		buf.WriteString(formatAttrValue(v))
	})
}

func formatAttrValue(v slog.Value) string {
	s := v.String()
	if v.Kind() == slog.KindString && strings.ContainsAny(s, " \t\n\"\\=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// qualify binds attrs added under open groups to those groups, so later
// WithGroup calls do not rename them.
func qualify(attrs []slog.Attr, groups []string) []slog.Attr {
	if len(groups) == 0 {
		return attrs
	}
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		walkAttr(a, groups, func(key string, v slog.Value) {
			out = append(out, slog.Attr{Key: key, Value: v})
		})
	}
	return out
}

// walkAttr flattens a possibly grouped attribute into dotted keys.
func walkAttr(a slog.Attr, groups []string, fn func(key string, v slog.Value)) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		prefix := groups
		if a.Key != "" {
			prefix = append(append([]string(nil), groups...), a.Key)
		}
		for _, ga := range a.Value.Group() {
			walkAttr(ga, prefix, fn)
		}
		return
	}

	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + a.Key
	}
	fn(key, a.Value)
}
