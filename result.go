package logbench

import (
	"errors"
	"time"
)

// Failure annotates a RunResult with one error kind and its reason.
type Failure struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

func newFailure(err error) Failure {
	kind := err
	var adapterErr *AdapterError
	if errors.As(err, &adapterErr) {
		kind = adapterErr.Kind
	}
	return Failure{Kind: KindName(kind), Reason: err.Error(), Err: err}
}

// SinkStats are the async sink counters an adapter can expose.
type SinkStats struct {
	BytesWritten  uint64 `json:"bytesWritten"`
	Dropped       uint64 `json:"dropped"`
	WriteFailures uint64 `json:"writeFailures"`
	HighWater     uint64 `json:"highWater"`
}

// SinkStatser is implemented by adapters that report sink counters.
type SinkStatser interface {
	SinkStats() SinkStats
}

// RunResult is the outcome of one (adapter, run) pair.
type RunResult struct {
	Adapter        string        `json:"adapter"`
	Run            int           `json:"run"`
	Elapsed        time.Duration `json:"elapsedNs"`
	BytesAllocated uint64        `json:"bytesAllocated"`
	Allocs         uint64        `json:"allocs"`
	OutputPath     string        `json:"outputPath"`
	OutputBytes    int64         `json:"outputBytes"`
	Iterations     int           `json:"iterations"`
	Warmup         int           `json:"warmup"`
	Emitted        int           `json:"emitted"`
	EmitFailures   int           `json:"emitFailures"`
	FlushInWindow  bool          `json:"flushInWindow"`
	Sink           SinkStats     `json:"sink"`
	// Records is the number of lines the verifier found, or -1 when the
	// output was not verified.
	Records  int       `json:"records"`
	Failures []Failure `json:"failures,omitempty"`
}

// Failed reports whether any failure was recorded.
func (r RunResult) Failed() bool { return len(r.Failures) > 0 }

// Measured reports whether the timed window ran at all.
func (r RunResult) Measured() bool {
	for _, f := range r.Failures {
		if f.Kind == KindName(ErrConfigurationFailed) || errors.Is(f.Err, ErrConfigurationFailed) {
			return false
		}
	}
	return true
}

// Err joins every recorded failure.
func (r RunResult) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f.Err
	}
	return errors.Join(errs...)
}

// ExpectedRecords is how many lines the output file should hold.
func (r RunResult) ExpectedRecords() int {
	return r.Warmup + r.Emitted
}

// NsPerOp is the elapsed time divided by the number of measured emissions.
func (r RunResult) NsPerOp() float64 {
	if r.Iterations <= 0 {
		return 0
	}
	return float64(r.Elapsed.Nanoseconds()) / float64(r.Iterations)
}

// BytesPerOp is the allocation delta divided by the measured emissions.
func (r RunResult) BytesPerOp() float64 {
	if r.Iterations <= 0 {
		return 0
	}
	return float64(r.BytesAllocated) / float64(r.Iterations)
}

// AllocsPerOp is the malloc delta divided by the measured emissions.
func (r RunResult) AllocsPerOp() float64 {
	if r.Iterations <= 0 {
		return 0
	}
	return float64(r.Allocs) / float64(r.Iterations)
}

// RecordsPerSecond is the measured throughput.
func (r RunResult) RecordsPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Emitted) / r.Elapsed.Seconds()
}

func (r *RunResult) fail(err error) {
	r.Failures = append(r.Failures, newFailure(err))
}
