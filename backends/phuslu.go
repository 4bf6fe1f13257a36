package backends

import (
	"time"

	plog "github.com/phuslu/log"

	"pkt.systems/logbench"
)

type phusluAdapter struct {
	base
	logger *plog.Logger
	// context holds the preset logger name; rebuilt when a record carries a
	// different one.
	context string
}

// NewPhuslu returns an adapter writing phuslu/log JSON.
func NewPhuslu(opts logbench.AdapterOptions) logbench.Adapter {
	return &phusluAdapter{base: newBase("phuslu", opts)}
}

func (a *phusluAdapter) Configure(path string) error {
	if err := a.open(path); err != nil {
		return err
	}
	a.logger = &plog.Logger{
		Level:      plog.TraceLevel,
		TimeFormat: time.RFC3339Nano,
		Writer:     plog.IOWriter{Writer: a.out},
	}
	a.ready()
	return nil
}

// Emit stamps records with phuslu's own clock; the library has no per-entry
// time override.
func (a *phusluAdapter) Emit(rec logbench.Record) error {
	if err := a.usable(); err != nil {
		return err
	}
	if name := rec.Logger(); name != a.context || a.logger.Context == nil {
		a.logger.Context = plog.NewContext(nil).Str("logger", name).Value()
		a.context = name
	}
	before := a.mark()
	var e *plog.Entry
	switch rec.Level() {
	case logbench.TraceLevel:
		e = a.logger.Trace()
	case logbench.DebugLevel:
		e = a.logger.Debug()
	case logbench.WarnLevel:
		e = a.logger.Warn()
	case logbench.ErrorLevel, logbench.FatalLevel:
		// phuslu's fatal entry exits the process.
		e = a.logger.Error()
	default:
		e = a.logger.Info()
	}
	if e == nil {
		return nil
	}
	rec.EachField(func(f logbench.Field) {
		switch f.Value.Kind() {
		case logbench.KindInt:
			e = e.Int64(f.Key, f.Value.Int64())
		case logbench.KindFloat:
			e = e.Float64(f.Key, f.Value.Float64())
		case logbench.KindBool:
			e = e.Bool(f.Key, f.Value.Bool())
		default:
			e = e.Str(f.Key, f.Value.Str())
		}
	})
	e.Msg(rec.Message())
	return a.emitted(before)
}
