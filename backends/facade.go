package backends

import (
	"context"
	"io"
	"log/slog"
	"time"

	charm "github.com/charmbracelet/log"
	plog "github.com/phuslu/log"

	"pkt.systems/logbench"
)

// slogFacadeAdapter measures a library behind log/slog's front end: records
// go through *slog.Logger.LogAttrs and the library only supplies the
// slog.Handler. slog stamps the time.
type slogFacadeAdapter struct {
	base
	handler func(io.Writer) slog.Handler

	root   *slog.Logger
	named  *slog.Logger
	prefix string
	attrs  []slog.Attr
}

// NewSlogPhuslu returns an adapter logging through slog into phuslu/log's
// JSON handler.
func NewSlogPhuslu(opts logbench.AdapterOptions) logbench.Adapter {
	return &slogFacadeAdapter{
		base: newBase("slog-phuslu", opts),
		handler: func(w io.Writer) slog.Handler {
			return plog.SlogNewJSONHandler(w, &slog.HandlerOptions{Level: slogTrace})
		},
	}
}

// NewSlogCharm returns an adapter logging through slog into a
// charmbracelet/log JSON logger, which implements slog.Handler.
func NewSlogCharm(opts logbench.AdapterOptions) logbench.Adapter {
	return &slogFacadeAdapter{
		base: newBase("slog-charm", opts),
		handler: func(w io.Writer) slog.Handler {
			return charm.NewWithOptions(w, charm.Options{
				Formatter:       charm.JSONFormatter,
				ReportTimestamp: true,
				TimeFormat:      time.RFC3339Nano,
				Level:           charm.Level(slogTrace),
			})
		},
	}
}

func (a *slogFacadeAdapter) Configure(path string) error {
	if err := a.open(path); err != nil {
		return err
	}
	a.root = slog.New(a.handler(a.out))
	a.named = nil
	a.prefix = ""
	a.ready()
	return nil
}

func (a *slogFacadeAdapter) logger(name string) *slog.Logger {
	if a.named == nil || name != a.prefix {
		a.named = a.root.With("logger", name)
		a.prefix = name
	}
	return a.named
}

func (a *slogFacadeAdapter) Emit(rec logbench.Record) error {
	if err := a.usable(); err != nil {
		return err
	}
	logger := a.logger(rec.Logger())
	attrs := a.attrs[:0]
	rec.EachField(func(f logbench.Field) {
		attrs = append(attrs, slogAttr(f))
	})
	a.attrs = attrs
	before := a.mark()
	logger.LogAttrs(context.Background(), slogLevel(rec.Level()), rec.Message(), attrs...)
	return a.emitted(before)
}
