package logbench

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"pkt.systems/pslog"
)

// State is the phase the harness is in.
type State uint8

const (
	StateIdle State = iota
	StatePreparing
	StateRunningAdapter
	StateCollected
	StateReporting
)

// String names the phase for logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreparing:
		return "preparing"
	case StateRunningAdapter:
		return "running"
	case StateCollected:
		return "collected"
	case StateReporting:
		return "reporting"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// ErrBusy is returned when RunAll is called while another RunAll is active.
var ErrBusy = errors.New("harness is busy")

// Harness prepares the scratch directory, runs backends one at a time and
// collects their results.
type Harness struct {
	runner        *Runner
	verify        bool
	verifyWorkers int

	mu      sync.Mutex
	state   State
	current int
	runs    int
}

// Option customizes a Harness.
type Option func(*Harness)

// WithRunner replaces the default Runner.
func WithRunner(r *Runner) Option {
	return func(h *Harness) {
		if r != nil {
			h.runner = r
		}
	}
}

// WithVerify toggles post-run verification of every output file.
func WithVerify(enabled bool) Option {
	return func(h *Harness) {
		h.verify = enabled
	}
}

// WithVerifyWorkers bounds how many output files are verified concurrently.
func WithVerifyWorkers(n int) Option {
	return func(h *Harness) {
		h.verifyWorkers = n
	}
}

// New returns an idle Harness. Verification is on by default.
func New(opts ...Option) *Harness {
	h := &Harness{runner: NewRunner(), verify: true}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// State returns the current phase and, while running, the index of the
// adapter being measured.
func (h *Harness) State() (State, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state, h.current
}

func (h *Harness) transition(ctx context.Context, to State, index int) {
	h.mu.Lock()
	from := h.state
	h.state = to
	h.current = index
	h.mu.Unlock()
	pslog.Ctx(ctx).Trace("harness.state", "from", from.String(), "to", to.String(), "index", index)
}

// Prepare removes dir if it exists and recreates it empty.
func (h *Harness) Prepare(ctx context.Context, dir string) error {
	if dir == "" {
		return errors.New("prepare: output directory is empty")
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("prepare: remove %q: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("prepare: create %q: %w", dir, err)
	}
	pslog.Ctx(ctx).Debug("harness.prepared", "dir", dir)
	return nil
}

// RunAll prepares template.OutputDirectory and measures every backend in the
// given order with a fresh adapter. Adapter failures end up in the report; an
// error is returned only when the template is invalid or the directory cannot
// be prepared.
func (h *Harness) RunAll(ctx context.Context, backends []Backend, template RunConfig) (Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := template.Validate(); err != nil {
		return Report{}, err
	}
	h.mu.Lock()
	if h.state != StateIdle {
		h.mu.Unlock()
		return Report{}, ErrBusy
	}
	h.state = StatePreparing
	run := h.runs
	h.runs++
	h.mu.Unlock()
	defer h.transition(ctx, StateIdle, 0)

	logger := pslog.Ctx(ctx)
	report := Report{
		ID:        uuid.NewString(),
		Run:       run,
		Started:   time.Now(),
		Directory: template.OutputDirectory,
		Config:    template,
		Workload:  h.runner.Workload().Record(time.Time{}).Message(),
		Results:   make([]RunResult, 0, len(backends)),
	}
	logger.Trace("harness.state", "from", StateIdle.String(), "to", StatePreparing.String(), "index", 0)
	if err := h.Prepare(ctx, template.OutputDirectory); err != nil {
		return Report{}, err
	}

	opts := template.AdapterOptions()
	for i, backend := range backends {
		h.transition(ctx, StateRunningAdapter, i)
		cfg := template
		cfg.AdapterName = backend.Name
		result := h.runOne(ctx, backend, opts, cfg)
		result.Run = run
		if result.Failed() {
			logger.Warn("harness.adapter.failed", "adapter", backend.Name, "err", result.Err())
		} else {
			logger.Info("harness.adapter.done",
				"adapter", backend.Name,
				"elapsed", result.Elapsed,
				"ns_per_op", result.NsPerOp(),
				"bytes_allocated", result.BytesAllocated,
			)
		}
		report.Results = append(report.Results, result)
		h.transition(ctx, StateCollected, i)
	}

	h.transition(ctx, StateReporting, len(backends))
	if h.verify {
		if err := VerifyResults(ctx, report.Results, h.runner.Workload().Expectation(), h.verifyWorkers); err != nil {
			logger.Warn("harness.verify.failed", "err", err)
		}
	}
	report.Finished = time.Now()
	return report, nil
}

func (h *Harness) runOne(ctx context.Context, backend Backend, opts AdapterOptions, cfg RunConfig) (result RunResult) {
	defer func() {
		if p := recover(); p != nil {
			result = RunResult{
				Adapter:    backend.Name,
				OutputPath: cfg.OutputPath(backend.Name),
				Iterations: cfg.IterationCount,
				Records:    -1,
			}
			result.fail(newAdapterError(backend.Name, ErrConfigurationFailed, fmt.Errorf("panic: %v", p)))
		}
	}()
	adapter := backend.New(opts)
	if adapter == nil {
		return RunResult{
			Adapter:    backend.Name,
			OutputPath: cfg.OutputPath(backend.Name),
			Iterations: cfg.IterationCount,
			Records:    -1,
			Failures: []Failure{newFailure(newAdapterError(backend.Name, ErrConfigurationFailed,
				errors.New("constructor returned nil")))},
		}
	}
	return h.runner.Run(ctx, adapter, cfg)
}
