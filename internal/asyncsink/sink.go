// Package asyncsink is a buffered file writer that moves disk I/O onto a
// background goroutine. Callers append bytes to an in-memory queue; the
// goroutine swaps the queue out and writes it through a bufio.Writer.
//
// What happens when the queue is full is decided by the backpressure policy:
// grow extends the queue, block waits for the writer, drop discards the
// record and counts it.
package asyncsink

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"pkt.systems/logbench"
)

var (
	// ErrClosed is returned by Write after Close.
	ErrClosed = errors.New("asyncsink: closed")
	// ErrDropped is returned by Write when the drop policy discarded p.
	ErrDropped = errors.New("asyncsink: queue full, write dropped")
)

const (
	defaultQueueSize = logbench.DefaultQueueSize
	bufferSize       = 64 << 10
)

// Options configure a Writer.
type Options struct {
	Policy logbench.Backpressure
	// QueueSize is the queue bound in bytes for block and drop and the
	// initial queue capacity for grow.
	QueueSize int
	// SyncOnFlush calls Sync on the destination after every flush when it
	// implements it (*os.File does).
	SyncOnFlush bool
}

// Stats are cumulative counters.
type Stats struct {
	BytesWritten uint64
	Writes       uint64
	Dropped      uint64
	Failures     uint64
	HighWater    uint64
}

type syncer interface {
	Sync() error
}

// Writer is safe for concurrent use.
type Writer struct {
	policy logbench.Backpressure
	limit  int
	sync   bool

	dst    *bufio.Writer
	raw    io.Writer
	closer io.Closer

	mu       sync.Mutex
	cond     *sync.Cond
	pending  []byte
	spare    []byte
	flushers []chan error
	closing  bool
	err      error

	bytesWritten atomic.Uint64
	writes       atomic.Uint64
	dropped      atomic.Uint64
	failures     atomic.Uint64
	highWater    atomic.Uint64

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Open creates path exclusively and returns a Writer owning the file. An
// existing file is an error; the sink never appends.
func Open(path string, opts Options) (*Writer, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("asyncsink: open %q: %w", path, err)
	}
	return New(file, file, opts), nil
}

// New wraps dst. closer, when non-nil, is closed by Close after the final
// flush.
func New(dst io.Writer, closer io.Closer, opts Options) *Writer {
	if dst == nil {
		dst = io.Discard
	}
	limit := opts.QueueSize
	if limit <= 0 {
		limit = defaultQueueSize
	}
	w := &Writer{
		policy:  opts.Policy,
		limit:   limit,
		sync:    opts.SyncOnFlush,
		dst:     bufio.NewWriterSize(dst, bufferSize),
		raw:     dst,
		closer:  closer,
		pending: make([]byte, 0, limit),
		done:    make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	go w.run()
	return w
}

// Write queues a copy of p. It never reports a background I/O error; those
// surface from Flush and Close. Under the drop policy a write that does not
// fit returns 0 and ErrDropped.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	if w.closing {
		w.mu.Unlock()
		return 0, ErrClosed
	}
	switch w.policy {
	case logbench.BackpressureBlock:
		for !w.closing && len(w.pending) > 0 && len(w.pending)+len(p) > w.limit {
			w.cond.Wait()
		}
		if w.closing {
			w.mu.Unlock()
			return 0, ErrClosed
		}
	case logbench.BackpressureDrop:
		if len(w.pending) > 0 && len(w.pending)+len(p) > w.limit {
			w.mu.Unlock()
			w.dropped.Add(1)
			return 0, ErrDropped
		}
	}
	w.pending = append(w.pending, p...)
	if n := uint64(len(w.pending)); n > w.highWater.Load() {
		w.highWater.Store(n)
	}
	w.cond.Broadcast()
	w.mu.Unlock()
	w.writes.Add(1)
	return len(p), nil
}

// Flush blocks until every byte queued before the call has been handed to
// the destination, or ctx is done. It returns the first background write
// error, if any.
func (w *Writer) Flush(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	w.mu.Lock()
	if w.closing {
		err := w.err
		w.mu.Unlock()
		return err
	}
	ch := make(chan error, 1)
	w.flushers = append(w.flushers, ch)
	w.cond.Broadcast()
	w.mu.Unlock()
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue, flushes, and closes the owned destination. It is
// idempotent and returns the same error on every call.
func (w *Writer) Close() error {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closing = true
		w.cond.Broadcast()
		w.mu.Unlock()
		<-w.done
		w.mu.Lock()
		err := w.err
		w.mu.Unlock()
		if w.closer != nil {
			err = errors.Join(err, w.closer.Close())
		}
		w.closeErr = err
	})
	return w.closeErr
}

// Stats returns cumulative counters.
func (w *Writer) Stats() Stats {
	return Stats{
		BytesWritten: w.bytesWritten.Load(),
		Writes:       w.writes.Load(),
		Dropped:      w.dropped.Load(),
		Failures:     w.failures.Load(),
		HighWater:    w.highWater.Load(),
	}
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		w.mu.Lock()
		for len(w.pending) == 0 && len(w.flushers) == 0 && !w.closing {
			w.cond.Wait()
		}
		batch := w.pending
		w.pending = w.spare[:0]
		w.spare = nil
		flushers := w.flushers
		w.flushers = nil
		closing := w.closing
		w.cond.Broadcast()
		w.mu.Unlock()

		var err error
		if len(batch) > 0 {
			var n int
			n, err = w.dst.Write(batch)
			w.bytesWritten.Add(uint64(n))
		}
		if len(flushers) > 0 || closing {
			err = errors.Join(err, w.dst.Flush())
			if w.sync {
				if s, ok := w.raw.(syncer); ok {
					err = errors.Join(err, s.Sync())
				}
			}
		}

		w.mu.Lock()
		if cap(batch) <= 4*w.limit {
			w.spare = batch[:0]
		}
		if err != nil {
			w.failures.Add(1)
			if w.err == nil {
				w.err = err
			}
		}
		sticky := w.err
		drained := len(w.pending) == 0
		w.mu.Unlock()

		for _, ch := range flushers {
			ch <- sticky
		}
		if closing && drained {
			return
		}
	}
}
