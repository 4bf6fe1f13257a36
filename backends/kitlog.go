package backends

import (
	"fmt"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"pkt.systems/logbench"
)

type kitlogAdapter struct {
	base
	logger kitlog.Logger
}

// NewKitlog returns an adapter writing go-kit's JSON logger.
func NewKitlog(opts logbench.AdapterOptions) logbench.Adapter {
	return &kitlogAdapter{base: newBase("kitlog", opts)}
}

func (a *kitlogAdapter) Configure(path string) error {
	if err := a.open(path); err != nil {
		return err
	}
	a.logger = kitlog.NewJSONLogger(a.out)
	a.ready()
	return nil
}

func (a *kitlogAdapter) Emit(rec logbench.Record) error {
	if err := a.usable(); err != nil {
		return err
	}
	keyvals := make([]any, 0, 8+2*rec.Len())
	keyvals = append(keyvals,
		"time", rec.Time().Format(time.RFC3339Nano),
		level.Key(), kitlogLevel(rec.Level()),
		"logger", rec.Logger(),
		"message", rec.Message(),
	)
	rec.EachField(func(f logbench.Field) {
		keyvals = append(keyvals, f.Key, f.Value.Any())
	})
	before := a.mark()
	if err := a.logger.Log(keyvals...); err != nil {
		return fmt.Errorf("%w: %w", logbench.ErrEmitFailed, err)
	}
	return a.emitted(before)
}

// kitlogLevel returns go-kit's level values where it has one and the plain
// name for trace and fatal.
func kitlogLevel(lvl logbench.Level) any {
	switch lvl {
	case logbench.DebugLevel:
		return level.DebugValue()
	case logbench.InfoLevel:
		return level.InfoValue()
	case logbench.WarnLevel:
		return level.WarnValue()
	case logbench.ErrorLevel:
		return level.ErrorValue()
	default:
		return lvl.String()
	}
}
