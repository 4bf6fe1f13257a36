package backends

import (
	apexlog "github.com/apex/log"
	apexjson "github.com/apex/log/handlers/json"

	"pkt.systems/logbench"
)

type apexAdapter struct {
	base
	logger *apexlog.Logger
}

// NewApex returns an adapter writing apex/log's JSON handler output. apex
// nests user fields, the logger name included, under "fields" and stamps
// entries with its own clock.
func NewApex(opts logbench.AdapterOptions) logbench.Adapter {
	return &apexAdapter{base: newBase("apex", opts)}
}

func (a *apexAdapter) Configure(path string) error {
	if err := a.open(path); err != nil {
		return err
	}
	a.logger = &apexlog.Logger{
		Handler: apexjson.New(a.out),
		Level:   apexlog.DebugLevel,
	}
	a.ready()
	return nil
}

func (a *apexAdapter) Emit(rec logbench.Record) error {
	if err := a.usable(); err != nil {
		return err
	}
	before := a.mark()
	fields := make(apexlog.Fields, rec.Len()+1)
	fields["logger"] = rec.Logger()
	rec.EachField(func(f logbench.Field) {
		fields[f.Key] = f.Value.Any()
	})
	entry := a.logger.WithFields(fields)
	switch rec.Level() {
	case logbench.TraceLevel, logbench.DebugLevel:
		entry.Debug(rec.Message())
	case logbench.WarnLevel:
		entry.Warn(rec.Message())
	case logbench.ErrorLevel, logbench.FatalLevel:
		// apex's Fatal exits the process.
		entry.Error(rec.Message())
	default:
		entry.Info(rec.Message())
	}
	return a.emitted(before)
}
