package backends

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pkt.systems/logbench"
)

type zapAdapter struct {
	base
	core zapcore.Core
}

// NewZap returns an adapter writing zap's JSON encoding.
func NewZap(opts logbench.AdapterOptions) logbench.Adapter {
	return &zapAdapter{base: newBase("zap", opts)}
}

func (a *zapAdapter) Configure(path string) error {
	if err := a.open(path); err != nil {
		return err
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.MessageKey = "message"
	encoderCfg.NameKey = "logger"
	encoderCfg.CallerKey = zapcore.OmitKey
	encoderCfg.StacktraceKey = zapcore.OmitKey
	encoderCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	a.core = zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(a.out), zapcore.DebugLevel)
	a.ready()
	return nil
}

// Emit goes through the core rather than a zap.Logger so fatal records are
// written without zap's exit hook.
func (a *zapAdapter) Emit(rec logbench.Record) error {
	if err := a.usable(); err != nil {
		return err
	}
	before := a.mark()
	ent := zapcore.Entry{
		Level:      zapLevel(rec.Level()),
		Time:       rec.Time(),
		LoggerName: rec.Logger(),
		Message:    rec.Message(),
	}
	if ce := a.core.Check(ent, nil); ce != nil {
		fields := make([]zap.Field, 0, rec.Len())
		rec.EachField(func(f logbench.Field) {
			fields = append(fields, zapField(f))
		})
		ce.Write(fields...)
	}
	return a.emitted(before)
}

func (a *zapAdapter) Flush(ctx context.Context) error {
	if err := a.usable(); err != nil {
		return err
	}
	return errors.Join(a.core.Sync(), a.async.Flush(ctx))
}

func zapField(f logbench.Field) zap.Field {
	switch f.Value.Kind() {
	case logbench.KindInt:
		return zap.Int64(f.Key, f.Value.Int64())
	case logbench.KindFloat:
		return zap.Float64(f.Key, f.Value.Float64())
	case logbench.KindBool:
		return zap.Bool(f.Key, f.Value.Bool())
	default:
		return zap.String(f.Key, f.Value.Str())
	}
}

func zapLevel(level logbench.Level) zapcore.Level {
	switch level {
	case logbench.TraceLevel, logbench.DebugLevel:
		return zapcore.DebugLevel
	case logbench.WarnLevel:
		return zapcore.WarnLevel
	case logbench.ErrorLevel:
		return zapcore.ErrorLevel
	case logbench.FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
