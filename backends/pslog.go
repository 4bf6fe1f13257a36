package backends

import (
	"time"

	"pkt.systems/logbench"
	"pkt.systems/pslog"
)

type pslogAdapter struct {
	base
	logger pslog.Logger
}

// NewPslog returns an adapter writing pslog's structured mode with verbose
// field names.
func NewPslog(opts logbench.AdapterOptions) logbench.Adapter {
	return &pslogAdapter{base: newBase("pslog", opts)}
}

func (a *pslogAdapter) Configure(path string) error {
	if err := a.open(path); err != nil {
		return err
	}
	a.logger = pslog.NewWithOptions(a.out, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		VerboseFields: true,
		MinLevel:      pslog.TraceLevel,
		TimeFormat:    time.RFC3339Nano,
	})
	a.ready()
	return nil
}

// Emit goes through Log, which writes fatal records without exiting.
func (a *pslogAdapter) Emit(rec logbench.Record) error {
	if err := a.usable(); err != nil {
		return err
	}
	before := a.mark()
	keyvals := make([]any, 0, 2+2*rec.Len())
	keyvals = append(keyvals, "logger", rec.Logger())
	rec.EachField(func(f logbench.Field) {
		keyvals = append(keyvals, f.Key, f.Value.Any())
	})
	a.logger.Log(pslogLevel(rec.Level()), rec.Message(), keyvals...)
	return a.emitted(before)
}

func pslogLevel(level logbench.Level) pslog.Level {
	switch level {
	case logbench.TraceLevel:
		return pslog.TraceLevel
	case logbench.DebugLevel:
		return pslog.DebugLevel
	case logbench.WarnLevel:
		return pslog.WarnLevel
	case logbench.ErrorLevel:
		return pslog.ErrorLevel
	case logbench.FatalLevel:
		return pslog.FatalLevel
	default:
		return pslog.InfoLevel
	}
}
