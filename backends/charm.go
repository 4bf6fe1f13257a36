package backends

import (
	"time"

	charm "github.com/charmbracelet/log"

	"pkt.systems/logbench"
)

type charmAdapter struct {
	base
	logger *charm.Logger
}

// NewCharm returns an adapter writing charmbracelet/log's JSON formatter.
func NewCharm(opts logbench.AdapterOptions) logbench.Adapter {
	return &charmAdapter{base: newBase("charm", opts)}
}

func (a *charmAdapter) Configure(path string) error {
	if err := a.open(path); err != nil {
		return err
	}
	a.logger = charm.NewWithOptions(a.out, charm.Options{
		Formatter:       charm.JSONFormatter,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		Level:           charm.DebugLevel,
	})
	a.ready()
	return nil
}

// Emit goes through Log, which writes fatal records without exiting.
func (a *charmAdapter) Emit(rec logbench.Record) error {
	if err := a.usable(); err != nil {
		return err
	}
	before := a.mark()
	keyvals := make([]any, 0, 2+2*rec.Len())
	keyvals = append(keyvals, "logger", rec.Logger())
	rec.EachField(func(f logbench.Field) {
		keyvals = append(keyvals, f.Key, f.Value.Any())
	})
	a.logger.Log(charmLevel(rec.Level()), rec.Message(), keyvals...)
	return a.emitted(before)
}

func charmLevel(level logbench.Level) charm.Level {
	switch level {
	case logbench.TraceLevel, logbench.DebugLevel:
		return charm.DebugLevel
	case logbench.WarnLevel:
		return charm.WarnLevel
	case logbench.ErrorLevel:
		return charm.ErrorLevel
	case logbench.FatalLevel:
		return charm.FatalLevel
	default:
		return charm.InfoLevel
	}
}
