package backends

import (
	"context"
	"fmt"
	"log/slog"

	"pkt.systems/logbench"
)

const (
	slogTrace = slog.LevelDebug - 4
	slogFatal = slog.LevelError + 4
)

type slogAdapter struct {
	base
	handler slog.Handler
}

// NewSlog returns an adapter driving the standard library JSON handler.
func NewSlog(opts logbench.AdapterOptions) logbench.Adapter {
	return &slogAdapter{base: newBase("slog", opts)}
}

func (a *slogAdapter) Configure(path string) error {
	if err := a.open(path); err != nil {
		return err
	}
	a.handler = slog.NewJSONHandler(a.out, &slog.HandlerOptions{
		Level:       slogTrace,
		ReplaceAttr: replaceSlogAttr,
	})
	a.ready()
	return nil
}

// Emit hands a prebuilt slog.Record to the handler so the record's own
// timestamp is kept.
func (a *slogAdapter) Emit(rec logbench.Record) error {
	if err := a.usable(); err != nil {
		return err
	}
	level := slogLevel(rec.Level())
	ctx := context.Background()
	if !a.handler.Enabled(ctx, level) {
		return nil
	}
	r := slog.NewRecord(rec.Time(), level, rec.Message(), 0)
	r.AddAttrs(slog.String("logger", rec.Logger()))
	rec.EachField(func(f logbench.Field) {
		r.AddAttrs(slogAttr(f))
	})
	before := a.mark()
	if err := a.handler.Handle(ctx, r); err != nil {
		return fmt.Errorf("%w: %w", logbench.ErrEmitFailed, err)
	}
	return a.emitted(before)
}

func slogAttr(f logbench.Field) slog.Attr {
	switch f.Value.Kind() {
	case logbench.KindInt:
		return slog.Int64(f.Key, f.Value.Int64())
	case logbench.KindFloat:
		return slog.Float64(f.Key, f.Value.Float64())
	case logbench.KindBool:
		return slog.Bool(f.Key, f.Value.Bool())
	default:
		return slog.String(f.Key, f.Value.Str())
	}
}

func replaceSlogAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return attr
	}
	switch attr.Key {
	case slog.MessageKey:
		attr.Key = "message"
	case slog.LevelKey:
		if level, ok := attr.Value.Any().(slog.Level); ok {
			attr.Value = slog.StringValue(slogLevelName(level))
		}
	}
	return attr
}

func slogLevel(level logbench.Level) slog.Level {
	switch level {
	case logbench.TraceLevel:
		return slogTrace
	case logbench.DebugLevel:
		return slog.LevelDebug
	case logbench.WarnLevel:
		return slog.LevelWarn
	case logbench.ErrorLevel:
		return slog.LevelError
	case logbench.FatalLevel:
		return slogFatal
	default:
		return slog.LevelInfo
	}
}

func slogLevelName(level slog.Level) string {
	switch {
	case level <= slogTrace:
		return logbench.TraceLevel.String()
	case level <= slog.LevelDebug:
		return logbench.DebugLevel.String()
	case level <= slog.LevelInfo:
		return logbench.InfoLevel.String()
	case level <= slog.LevelWarn:
		return logbench.WarnLevel.String()
	case level <= slog.LevelError:
		return logbench.ErrorLevel.String()
	default:
		return logbench.FatalLevel.String()
	}
}
