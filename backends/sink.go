package backends

import (
	"context"
	"errors"
	"fmt"
	"io"

	"pkt.systems/logbench"
	"pkt.systems/logbench/internal/asyncsink"
	"pkt.systems/pslog"
)

type lifecycle uint8

const (
	stateConstructed lifecycle = iota
	stateConfigured
	stateDisposed
)

// base carries the sink and the configure/dispose state machine shared by
// every adapter. Adapters embed it and implement Configure and Emit.
type base struct {
	name  string
	opts  logbench.AdapterOptions
	state lifecycle

	async    *asyncsink.Writer
	observed *pslog.ObservedWriter
	// out is what the logging library writes to.
	out io.Writer
}

func newBase(name string, opts logbench.AdapterOptions) base {
	return base{name: name, opts: opts}
}

func (b *base) Name() string { return b.name }

// open creates the output file. The adapter stays unconfigured when the
// backend setup that follows fails; Dispose still closes the file.
func (b *base) open(path string) error {
	switch b.state {
	case stateConfigured:
		return logbench.ErrAlreadyConfigured
	case stateDisposed:
		return logbench.ErrDisposed
	}
	if b.async != nil {
		return logbench.ErrAlreadyConfigured
	}
	async, err := asyncsink.Open(path, asyncsink.Options{
		Policy:      b.opts.Backpressure,
		QueueSize:   b.opts.QueueSize,
		SyncOnFlush: b.opts.SyncOnFlush,
	})
	if err != nil {
		return err
	}
	b.async = async
	b.observed = pslog.NewObservedWriter(async, nil)
	b.out = dropTolerant{w: b.observed}
	return nil
}

// dropTolerant reports a dropped write as a full write once the observed
// writer has counted it. zerolog, logrus and apex print every write error to
// stderr.
type dropTolerant struct {
	w io.Writer
}

func (d dropTolerant) Write(p []byte) (int, error) {
	n, err := d.w.Write(p)
	if errors.Is(err, asyncsink.ErrDropped) {
		return len(p), nil
	}
	return n, err
}

func (b *base) ready() {
	b.state = stateConfigured
}

// usable reports why Emit cannot run, or nil.
func (b *base) usable() error {
	switch b.state {
	case stateConfigured:
		return nil
	case stateDisposed:
		return logbench.ErrDisposed
	default:
		return logbench.ErrNotConfigured
	}
}

// writeMark snapshots the counters an Emit call is judged by.
type writeMark struct {
	failures uint64
	dropped  uint64
}

func (b *base) mark() writeMark {
	return writeMark{
		failures: b.observed.Stats().Failures,
		dropped:  b.async.Stats().Dropped,
	}
}

// emitted turns write failures observed since before into an emit error.
// A record the sink dropped is a failed emission.
func (b *base) emitted(before writeMark) error {
	now := b.mark()
	failed := now.failures - before.failures
	if failed == 0 {
		return nil
	}
	if dropped := now.dropped - before.dropped; dropped == failed {
		return fmt.Errorf("%w: %w", logbench.ErrEmitFailed, asyncsink.ErrDropped)
	}
	return fmt.Errorf("%w: %d write failures", logbench.ErrEmitFailed, failed)
}

// Flush waits for the async sink to hand every queued byte to the file.
func (b *base) Flush(ctx context.Context) error {
	if err := b.usable(); err != nil {
		return err
	}
	return b.async.Flush(ctx)
}

// Dispose closes the sink. Later calls are no-ops.
func (b *base) Dispose() error {
	if b.state == stateDisposed {
		return nil
	}
	b.state = stateDisposed
	if b.async == nil {
		return nil
	}
	return b.async.Close()
}

// SinkStats implements logbench.SinkStatser.
func (b *base) SinkStats() logbench.SinkStats {
	if b.async == nil {
		return logbench.SinkStats{}
	}
	stats := b.async.Stats()
	// The observed writer counts drops as failures too.
	rejected := b.observed.Stats().Failures - stats.Dropped
	return logbench.SinkStats{
		BytesWritten:  stats.BytesWritten,
		Dropped:       stats.Dropped,
		WriteFailures: stats.Failures + rejected,
		HighWater:     stats.HighWater,
	}
}
