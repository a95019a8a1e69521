package log

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/rs/zerolog"
)

// ZerologHandler is a slog.Handler that writes JSON lines through zerolog.
// Grouped keys are flattened with dots.
type ZerologHandler struct {
	logger zerolog.Logger
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewZerologHandler creates a JSON handler writing to w.
func NewZerologHandler(w io.Writer, opts *slog.HandlerOptions) *ZerologHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &ZerologHandler{
		// Level filtering is done by slog.
		logger: zerolog.New(w).Level(zerolog.TraceLevel),
		level:  level,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *ZerologHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes the record as one JSON object.
func (h *ZerologHandler) Handle(ctx context.Context, r slog.Record) error {
	e := h.logger.WithLevel(zerologLevel(r.Level))
	if e == nil {
		return nil
	}

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	e = e.Time(zerolog.TimestampFieldName, ts)

	for _, a := range h.attrs {
		e = appendEventAttr(e, a, nil)
	}
	r.Attrs(func(a slog.Attr) bool {
		e = appendEventAttr(e, a, h.groups)
		return true
	})
	for _, a := range contextAttrs(ctx) {
		e = appendEventAttr(e, a, nil)
	}

	e.Msg(r.Message)
	return nil
}

// WithAttrs returns a new handler that also writes attrs.
func (h *ZerologHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), qualify(attrs, h.groups)...)
	return &clone
}

// WithGroup returns a new handler that prefixes subsequent keys with name.
func (h *ZerologHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func zerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level < slog.LevelInfo:
		return zerolog.DebugLevel
	case level < slog.LevelWarn:
		return zerolog.InfoLevel
	case level < slog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

func appendEventAttr(e *zerolog.Event, a slog.Attr, groups []string) *zerolog.Event {
	walkAttr(a, groups, func(key string, v slog.Value) {
		switch v.Kind() {
		case slog.KindString:
			e = e.Str(key, v.String())
		case slog.KindInt64:
			e = e.Int64(key, v.Int64())
		case slog.KindUint64:
			e = e.Uint64(key, v.Uint64())
		case slog.KindFloat64:
			e = e.Float64(key, v.Float64())
		case slog.KindBool:
			e = e.Bool(key, v.Bool())
		case slog.KindDuration:
			e = e.Dur(key, v.Duration())
		case slog.KindTime:
			e = e.Time(key, v.Time())
		default:
			if err, ok := v.Any().(error); ok {
				e = e.AnErr(key, err)
				return
			}
			e = e.Interface(key, v.Any())
		}
	})
	return e
}
