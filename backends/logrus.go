package backends

import (
	"time"

	"github.com/sirupsen/logrus"

	"pkt.systems/logbench"
)

type logrusAdapter struct {
	base
	logger *logrus.Logger
}

// NewLogrus returns an adapter writing logrus' JSONFormatter output.
func NewLogrus(opts logbench.AdapterOptions) logbench.Adapter {
	return &logrusAdapter{base: newBase("logrus", opts)}
}

func (a *logrusAdapter) Configure(path string) error {
	if err := a.open(path); err != nil {
		return err
	}
	logger := logrus.New()
	logger.SetOutput(a.out)
	logger.SetLevel(logrus.TraceLevel)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "time",
			logrus.FieldKeyMsg:  "message",
		},
	})
	logger.ExitFunc = func(int) {}
	a.logger = logger
	a.ready()
	return nil
}

func (a *logrusAdapter) Emit(rec logbench.Record) error {
	if err := a.usable(); err != nil {
		return err
	}
	before := a.mark()
	fields := make(logrus.Fields, rec.Len()+1)
	fields["logger"] = rec.Logger()
	rec.EachField(func(f logbench.Field) {
		fields[f.Key] = f.Value.Any()
	})
	a.logger.WithFields(fields).WithTime(rec.Time()).Log(logrusLevel(rec.Level()), rec.Message())
	return a.emitted(before)
}

func logrusLevel(level logbench.Level) logrus.Level {
	switch level {
	case logbench.TraceLevel:
		return logrus.TraceLevel
	case logbench.DebugLevel:
		return logrus.DebugLevel
	case logbench.WarnLevel:
		return logrus.WarnLevel
	case logbench.ErrorLevel:
		return logrus.ErrorLevel
	case logbench.FatalLevel:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}
