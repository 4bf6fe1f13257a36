package logbench

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"pkt.systems/pslog"
)

// Runner drives the fixed workload against one adapter at a time.
type Runner struct {
	workload Workload
	now      func() time.Time
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithWorkload replaces DefaultWorkload.
func WithWorkload(w Workload) RunnerOption {
	return func(r *Runner) {
		r.workload = w
	}
}

// WithClock replaces time.Now for record timestamps and the measurement
// window.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner returns a Runner using DefaultWorkload unless overridden.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{workload: DefaultWorkload(), now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Workload returns the workload every run emits.
func (r *Runner) Workload() Workload { return r.workload }

// Run configures adapter, emits the warm-up and the measured iterations,
// flushes and disposes it. Every failure is folded into the returned result;
// Run never returns early without a RunResult.
func (r *Runner) Run(ctx context.Context, adapter Adapter, cfg RunConfig) RunResult {
	if ctx == nil {
		ctx = context.Background()
	}
	name := cfg.AdapterName
	if name == "" {
		name = adapter.Name()
	}
	timeout := cfg.FlushTimeout
	if timeout <= 0 {
		timeout = DefaultFlushTimeout
	}
	logger := pslog.Ctx(ctx).With("adapter", name)
	path := cfg.OutputPath(name)
	result := RunResult{
		Adapter:       name,
		OutputPath:    path,
		Iterations:    cfg.IterationCount,
		FlushInWindow: cfg.Flush == FlushInside,
		Records:       -1,
	}

	if err := adapter.Configure(path); err != nil {
		result.fail(newAdapterError(name, ErrConfigurationFailed, err))
		logger.Warn("runner.configure.failed", "path", path, "err", err)
		if err := r.dispose(ctx, adapter, timeout); err != nil {
			result.fail(newAdapterError(name, ErrDisposeFailed, err))
		}
		return result
	}
	logger.Debug("runner.configured", "path", path)

	proto := r.workload.Record(r.now())
	var firstEmitErr error
	emit := func() bool {
		if err := safeEmit(adapter, proto.WithTime(r.now())); err != nil {
			result.EmitFailures++
			if firstEmitErr == nil {
				firstEmitErr = err
			}
			return false
		}
		return true
	}

	if cfg.WarmupCount > 0 {
		for i := 0; i < cfg.WarmupCount; i++ {
			if emit() {
				result.Warmup++
			}
		}
		if err := bounded(ctx, timeout, adapter.Flush); err != nil {
			result.fail(flushError(name, err))
		}
		logger.Debug("runner.warmup.done", "records", result.Warmup)
	}

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	start := r.now()
	for i := 0; i < cfg.IterationCount; i++ {
		if emit() {
			result.Emitted++
		}
	}
	var flushErr error
	if cfg.Flush == FlushInside {
		flushErr = bounded(ctx, timeout, adapter.Flush)
	}
	result.Elapsed = r.now().Sub(start)
	runtime.ReadMemStats(&after)
	if cfg.Flush == FlushOutside {
		flushErr = bounded(ctx, timeout, adapter.Flush)
	}
	result.BytesAllocated = after.TotalAlloc - before.TotalAlloc
	result.Allocs = after.Mallocs - before.Mallocs

	if firstEmitErr != nil {
		total := cfg.WarmupCount + cfg.IterationCount
		err := fmt.Errorf("%d of %d emissions failed, first: %w", result.EmitFailures, total, firstEmitErr)
		result.fail(newAdapterError(name, ErrEmitFailed, err))
	}
	if flushErr != nil {
		result.fail(flushError(name, flushErr))
		logger.Warn("runner.flush.failed", "err", flushErr)
	}
	if err := r.dispose(ctx, adapter, timeout); err != nil {
		result.fail(newAdapterError(name, ErrDisposeFailed, err))
		logger.Warn("runner.dispose.failed", "err", err)
	}
	if s, ok := adapter.(SinkStatser); ok {
		result.Sink = s.SinkStats()
	}
	if info, err := os.Stat(path); err == nil {
		result.OutputBytes = info.Size()
	}
	logger.Debug("runner.done",
		"emitted", result.Emitted,
		"elapsed", result.Elapsed,
		"bytes_allocated", result.BytesAllocated,
	)
	return result
}

func (r *Runner) dispose(ctx context.Context, adapter Adapter, timeout time.Duration) error {
	return bounded(ctx, timeout, func(context.Context) error {
		return adapter.Dispose()
	})
}

func flushError(name string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newAdapterError(name, ErrFlushTimeout, err)
	}
	return newAdapterError(name, ErrFlushFailed, err)
}

func safeEmit(adapter Adapter, rec Record) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return adapter.Emit(rec)
}

// bounded runs fn and gives up once timeout elapses. A goroutine stuck in fn
// is abandoned; the returned error then wraps context.DeadlineExceeded.
func bounded(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- fmt.Errorf("panic: %v", p)
			}
		}()
		done <- fn(ctx)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("gave up after %s: %w", timeout, ctx.Err())
	}
}
