package backends

import (
	"time"

	"github.com/rs/zerolog"

	"pkt.systems/logbench"
)

type zerologAdapter struct {
	base
	logger zerolog.Logger
}

// NewZerolog returns an adapter writing zerolog events.
func NewZerolog(opts logbench.AdapterOptions) logbench.Adapter {
	return &zerologAdapter{base: newBase("zerolog", opts)}
}

func (a *zerologAdapter) Configure(path string) error {
	if err := a.open(path); err != nil {
		return err
	}
	a.logger = zerolog.New(a.out).Level(zerolog.TraceLevel)
	a.ready()
	return nil
}

// Emit uses WithLevel, which never exits or panics on fatal records. The
// timestamp is formatted here so the global TimeFieldFormat stays untouched.
func (a *zerologAdapter) Emit(rec logbench.Record) error {
	if err := a.usable(); err != nil {
		return err
	}
	before := a.mark()
	ev := a.logger.WithLevel(zerologLevel(rec.Level()))
	if ev == nil {
		return nil
	}
	ev = ev.Str(zerolog.TimestampFieldName, rec.Time().Format(time.RFC3339Nano)).
		Str("logger", rec.Logger())
	rec.EachField(func(f logbench.Field) {
		switch f.Value.Kind() {
		case logbench.KindInt:
			ev = ev.Int64(f.Key, f.Value.Int64())
		case logbench.KindFloat:
			ev = ev.Float64(f.Key, f.Value.Float64())
		case logbench.KindBool:
			ev = ev.Bool(f.Key, f.Value.Bool())
		default:
			ev = ev.Str(f.Key, f.Value.Str())
		}
	})
	ev.Msg(rec.Message())
	return a.emitted(before)
}

func zerologLevel(level logbench.Level) zerolog.Level {
	switch level {
	case logbench.TraceLevel:
		return zerolog.TraceLevel
	case logbench.DebugLevel:
		return zerolog.DebugLevel
	case logbench.WarnLevel:
		return zerolog.WarnLevel
	case logbench.ErrorLevel:
		return zerolog.ErrorLevel
	case logbench.FatalLevel:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
