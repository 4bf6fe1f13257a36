package backends

import (
	"time"

	"github.com/francoispqt/onelog"

	"pkt.systems/logbench"
)

type onelogAdapter struct {
	base
	logger *onelog.Logger
}

// NewOnelog returns an adapter writing onelog JSON through its *WithFields
// callbacks.
func NewOnelog(opts logbench.AdapterOptions) logbench.Adapter {
	return &onelogAdapter{base: newBase("onelog", opts)}
}

func (a *onelogAdapter) Configure(path string) error {
	if err := a.open(path); err != nil {
		return err
	}
	a.logger = onelog.New(a.out, onelog.ALL)
	a.ready()
	return nil
}

func (a *onelogAdapter) Emit(rec logbench.Record) error {
	if err := a.usable(); err != nil {
		return err
	}
	before := a.mark()
	fields := func(e onelog.Entry) {
		e.String("time", rec.Time().Format(time.RFC3339Nano))
		e.String("logger", rec.Logger())
		rec.EachField(func(f logbench.Field) {
			switch f.Value.Kind() {
			case logbench.KindInt:
				e.Int64(f.Key, f.Value.Int64())
			case logbench.KindFloat:
				e.Float(f.Key, f.Value.Float64())
			case logbench.KindBool:
				e.Bool(f.Key, f.Value.Bool())
			default:
				e.String(f.Key, f.Value.Str())
			}
		})
	}
	msg := rec.Message()
	switch rec.Level() {
	case logbench.TraceLevel, logbench.DebugLevel:
		a.logger.DebugWithFields(msg, fields)
	case logbench.WarnLevel:
		a.logger.WarnWithFields(msg, fields)
	case logbench.ErrorLevel, logbench.FatalLevel:
		a.logger.ErrorWithFields(msg, fields)
	default:
		a.logger.InfoWithFields(msg, fields)
	}
	return a.emitted(before)
}
