package backends

import (
	"io"
	"log/slog"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"pkt.systems/logbench"
)

// lineSink adapts funcr's string callback to an io.Writer, one line per call.
type lineSink struct {
	w   io.Writer
	buf []byte
}

func (s *lineSink) write(obj string) {
	s.buf = append(s.buf[:0], obj...)
	s.buf = append(s.buf, '\n')
	_, _ = s.w.Write(s.buf)
}

func newFuncrJSON(w io.Writer) logr.Logger {
	sink := &lineSink{w: w}
	return funcr.NewJSON(sink.write, funcr.Options{
		LogTimestamp:    true,
		TimestampFormat: time.RFC3339Nano,
		Verbosity:       2,
	})
}

// newSlogrJSON puts logr in front of the standard library JSON handler.
// V(n) becomes slog level -n.
func newSlogrJSON(w io.Writer) logr.Logger {
	return logr.FromSlogHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogTrace}))
}

type logrAdapter struct {
	base
	sink func(io.Writer) logr.Logger
	// tagErrors adds a level key to error entries for sinks that write none.
	tagErrors bool

	root   logr.Logger
	named  logr.Logger
	prefix string
}

// NewLogr returns an adapter writing through logr's funcr JSON sink. Trace
// and debug map to V(2) and V(1); funcr stamps entries itself.
func NewLogr(opts logbench.AdapterOptions) logbench.Adapter {
	return &logrAdapter{base: newBase("logr", opts), sink: newFuncrJSON, tagErrors: true}
}

// NewLogrSlog returns an adapter logging through the logr API into log/slog's
// JSON handler.
func NewLogrSlog(opts logbench.AdapterOptions) logbench.Adapter {
	return &logrAdapter{base: newBase("logr-slog", opts), sink: newSlogrJSON}
}

func (a *logrAdapter) Configure(path string) error {
	if err := a.open(path); err != nil {
		return err
	}
	a.root = a.sink(a.out)
	a.named = a.root
	a.prefix = ""
	a.ready()
	return nil
}

func (a *logrAdapter) logger(name string) logr.Logger {
	if name != a.prefix {
		a.named = a.root.WithName(name)
		a.prefix = name
	}
	return a.named
}

func (a *logrAdapter) Emit(rec logbench.Record) error {
	if err := a.usable(); err != nil {
		return err
	}
	before := a.mark()
	logger := a.logger(rec.Logger())
	switch rec.Level() {
	case logbench.ErrorLevel, logbench.FatalLevel:
		var prefix []any
		if a.tagErrors {
			prefix = []any{"level", rec.Level().String()}
		}
		keyvals := logrKeyvals(rec, prefix...)
		logger.Error(nil, rec.Message(), keyvals...)
	default:
		logger.V(logrVerbosity(rec.Level())).Info(rec.Message(), logrKeyvals(rec)...)
	}
	return a.emitted(before)
}

func logrKeyvals(rec logbench.Record, prefix ...any) []any {
	keyvals := make([]any, 0, len(prefix)+2*rec.Len())
	keyvals = append(keyvals, prefix...)
	rec.EachField(func(f logbench.Field) {
		keyvals = append(keyvals, f.Key, f.Value.Any())
	})
	return keyvals
}

func logrVerbosity(level logbench.Level) int {
	switch level {
	case logbench.TraceLevel:
		return 2
	case logbench.DebugLevel:
		return 1
	default:
		return 0
	}
}
