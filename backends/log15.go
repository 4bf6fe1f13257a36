package backends

import (
	"github.com/inconshreveable/log15"

	"pkt.systems/logbench"
)

type log15Adapter struct {
	base
	logger log15.Logger
}

// NewLog15 returns an adapter writing log15's JsonFormat through a stream
// handler.
func NewLog15(opts logbench.AdapterOptions) logbench.Adapter {
	return &log15Adapter{base: newBase("log15", opts)}
}

func (a *log15Adapter) Configure(path string) error {
	if err := a.open(path); err != nil {
		return err
	}
	logger := log15.New()
	logger.SetHandler(log15.StreamHandler(a.out, log15.JsonFormat()))
	a.logger = logger
	a.ready()
	return nil
}

func (a *log15Adapter) Emit(rec logbench.Record) error {
	if err := a.usable(); err != nil {
		return err
	}
	before := a.mark()
	ctx := make([]any, 0, 2+2*rec.Len())
	ctx = append(ctx, "logger", rec.Logger())
	rec.EachField(func(f logbench.Field) {
		ctx = append(ctx, f.Key, f.Value.Any())
	})
	msg := rec.Message()
	switch rec.Level() {
	case logbench.TraceLevel, logbench.DebugLevel:
		a.logger.Debug(msg, ctx...)
	case logbench.WarnLevel:
		a.logger.Warn(msg, ctx...)
	case logbench.ErrorLevel:
		a.logger.Error(msg, ctx...)
	case logbench.FatalLevel:
		a.logger.Crit(msg, ctx...)
	default:
		a.logger.Info(msg, ctx...)
	}
	return a.emitted(before)
}
