package logbench

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FlushPolicy decides whether the final flush is part of the timed window.
type FlushPolicy uint8

const (
	// FlushInside includes the final flush in the measurement window, so the
	// reported time covers durability-inclusive throughput. This is the
	// default.
	FlushInside FlushPolicy = iota
	// FlushOutside stops the clock after the last Emit and flushes afterwards.
	FlushOutside
)

// String returns the policy name accepted by ParseFlushPolicy.
func (p FlushPolicy) String() string {
	switch p {
	case FlushInside:
		return "inside"
	case FlushOutside:
		return "outside"
	default:
		return fmt.Sprintf("flushpolicy(%d)", uint8(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p FlushPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler via ParseFlushPolicy.
func (p *FlushPolicy) UnmarshalText(text []byte) error {
	parsed, ok := ParseFlushPolicy(string(text))
	if !ok {
		return fmt.Errorf("unknown flush policy %q", text)
	}
	*p = parsed
	return nil
}

// ParseFlushPolicy accepts inside and outside (case insensitive).
func ParseFlushPolicy(value string) (FlushPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "inside", "in":
		return FlushInside, true
	case "outside", "out":
		return FlushOutside, true
	default:
		return FlushInside, false
	}
}

const (
	// DefaultIterations matches the emission count of the reference benchmark.
	DefaultIterations = 100_000
	// DefaultFlushTimeout bounds every flush and dispose.
	DefaultFlushTimeout = 30 * time.Second
)

// DefaultOutputDirectory is the scratch directory used when none is given.
func DefaultOutputDirectory() string {
	return filepath.Join(os.TempDir(), "logbench")
}

// RunConfig parameterises one run of the Scenario Runner. The harness uses it
// as a template and fills in AdapterName per backend.
type RunConfig struct {
	AdapterName     string        `yaml:"adapter,omitempty" json:"adapter,omitempty"`
	OutputDirectory string        `yaml:"dir" json:"dir"`
	IterationCount  int           `yaml:"iterations" json:"iterations"`
	WarmupCount     int           `yaml:"warmup" json:"warmup"`
	Flush           FlushPolicy   `yaml:"flush" json:"flush"`
	FlushTimeout    time.Duration `yaml:"flushTimeout" json:"flushTimeout"`
	Backpressure    Backpressure  `yaml:"backpressure" json:"backpressure"`
	QueueSize       int           `yaml:"queueSize" json:"queueSize"`
	SyncOnFlush     bool          `yaml:"sync" json:"sync"`
}

// DefaultRunConfig returns the configuration used when nothing overrides it.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		OutputDirectory: DefaultOutputDirectory(),
		IterationCount:  DefaultIterations,
		Flush:           FlushInside,
		FlushTimeout:    DefaultFlushTimeout,
		Backpressure:    BackpressureGrow,
		QueueSize:       DefaultQueueSize,
	}
}

// Validate reports every invalid setting at once.
func (c RunConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.OutputDirectory) == "" {
		errs = append(errs, errors.New("output directory is empty"))
	}
	if c.IterationCount < 0 {
		errs = append(errs, fmt.Errorf("iteration count %d is negative", c.IterationCount))
	}
	if c.WarmupCount < 0 {
		errs = append(errs, fmt.Errorf("warmup count %d is negative", c.WarmupCount))
	}
	if c.FlushTimeout <= 0 {
		errs = append(errs, fmt.Errorf("flush timeout %s must be positive", c.FlushTimeout))
	}
	if c.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("queue size %d is negative", c.QueueSize))
	}
	if c.Flush > FlushOutside {
		errs = append(errs, fmt.Errorf("unknown flush policy %d", c.Flush))
	}
	if c.Backpressure > BackpressureDrop {
		errs = append(errs, fmt.Errorf("unknown backpressure policy %d", c.Backpressure))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid run config: %w", errors.Join(errs...))
}

// AdapterOptions extracts the sink settings handed to adapter constructors.
func (c RunConfig) AdapterOptions() AdapterOptions {
	queue := c.QueueSize
	if queue == 0 {
		queue = DefaultQueueSize
	}
	return AdapterOptions{
		Backpressure: c.Backpressure,
		QueueSize:    queue,
		SyncOnFlush:  c.SyncOnFlush,
	}
}

// OutputPath is where the adapter named name writes under this config.
func (c RunConfig) OutputPath(name string) string {
	return filepath.Join(c.OutputDirectory, FileName(name))
}
