package logbench

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, iterations int) RunConfig {
	t.Helper()
	cfg := DefaultRunConfig()
	cfg.OutputDirectory = t.TempDir()
	cfg.IterationCount = iterations
	cfg.FlushTimeout = 5 * time.Second
	return cfg
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Count(string(data), "\n")
}

func TestRunnerEmitsWarmupAndIterations(t *testing.T) {
	cfg := testConfig(t, 100)
	cfg.WarmupCount = 5
	fake := newFake("fake")

	res := NewRunner().Run(context.Background(), fake, cfg)

	require.False(t, res.Failed(), "unexpected failures: %v", res.Err())
	require.Equal(t, "fake", res.Adapter)
	require.Equal(t, 100, res.Emitted)
	require.Equal(t, 5, res.Warmup)
	require.Equal(t, 105, res.ExpectedRecords())
	require.True(t, res.FlushInWindow)
	require.Equal(t, -1, res.Records)
	require.Equal(t, cfg.OutputPath("fake"), res.OutputPath)
	require.Equal(t, 105, countLines(t, res.OutputPath))
	require.Positive(t, res.OutputBytes)

	_, flushes, disposes := fake.counts()
	require.Equal(t, 2, flushes, "warmup flush plus final flush")
	require.Equal(t, 1, disposes)
}

func TestRunnerZeroIterations(t *testing.T) {
	cfg := testConfig(t, 0)
	fake := newFake("empty")

	res := NewRunner().Run(context.Background(), fake, cfg)

	require.False(t, res.Failed(), "unexpected failures: %v", res.Err())
	require.Zero(t, res.Emitted)
	require.Zero(t, res.NsPerOp())
	require.Zero(t, res.BytesPerOp())
	require.Zero(t, res.AllocsPerOp())
	require.FileExists(t, res.OutputPath)
	require.Zero(t, res.OutputBytes)
}

func TestRunnerConfigureFailureStillDisposes(t *testing.T) {
	cfg := testConfig(t, 10)
	fake := newFake("broken")
	fake.configureErr = errors.New("no sink for you")

	res := NewRunner().Run(context.Background(), fake, cfg)

	require.True(t, res.Failed())
	require.False(t, res.Measured())
	require.Len(t, res.Failures, 1)
	require.Equal(t, "ConfigurationFailed", res.Failures[0].Kind)
	require.ErrorIs(t, res.Err(), ErrConfigurationFailed)
	require.Contains(t, res.Failures[0].Reason, "no sink for you")

	emits, _, disposes := fake.counts()
	require.Zero(t, emits)
	require.Equal(t, 1, disposes)
}

func TestRunnerContinuesAfterEmitFailures(t *testing.T) {
	cfg := testConfig(t, 100)
	fake := newFake("flaky")
	fake.failEvery = 2

	res := NewRunner().Run(context.Background(), fake, cfg)

	require.Equal(t, 50, res.Emitted)
	require.Equal(t, 50, res.EmitFailures)
	require.True(t, res.Measured())
	require.ErrorIs(t, res.Err(), ErrEmitFailed)
	require.Equal(t, "EmitFailed", res.Failures[0].Kind)
	require.Equal(t, 50, countLines(t, res.OutputPath))
}

func TestRunnerRecoversEmitPanics(t *testing.T) {
	cfg := testConfig(t, 10)
	fake := newFake("panicky")
	fake.panicEmit = true

	res := NewRunner().Run(context.Background(), fake, cfg)

	require.Equal(t, 10, res.EmitFailures)
	require.Zero(t, res.Emitted)
	require.ErrorIs(t, res.Err(), ErrEmitFailed)
	require.Contains(t, res.Failures[0].Reason, "emit exploded")
}

func TestRunnerFlushTimeout(t *testing.T) {
	cfg := testConfig(t, 10)
	cfg.FlushTimeout = 20 * time.Millisecond
	fake := newFake("stuck")
	fake.hangFlush = make(chan struct{})
	t.Cleanup(func() { close(fake.hangFlush) })

	start := time.Now()
	res := NewRunner().Run(context.Background(), fake, cfg)

	require.Less(t, time.Since(start), 5*time.Second)
	require.ErrorIs(t, res.Err(), ErrFlushTimeout)
	require.Equal(t, "FlushTimeout", res.Failures[0].Kind)
	_, _, disposes := fake.counts()
	require.Equal(t, 1, disposes, "dispose runs after a flush timeout")
}

func TestRunnerFlushAndDisposeErrors(t *testing.T) {
	cfg := testConfig(t, 10)
	fake := newFake("leaky")
	fake.flushErr = errors.New("fsync refused")
	fake.disposeErr = errors.New("close refused")

	res := NewRunner().Run(context.Background(), fake, cfg)

	var kinds []string
	for _, f := range res.Failures {
		kinds = append(kinds, f.Kind)
	}
	require.Equal(t, []string{"FlushFailed", "DisposeFailed"}, kinds)
	require.ErrorIs(t, res.Err(), ErrFlushFailed)
	require.ErrorIs(t, res.Err(), ErrDisposeFailed)
}

func TestRunnerFlushOutsideWindow(t *testing.T) {
	cfg := testConfig(t, 10)
	cfg.Flush = FlushOutside
	fake := newFake("outside")

	res := NewRunner().Run(context.Background(), fake, cfg)

	require.False(t, res.Failed(), "unexpected failures: %v", res.Err())
	require.False(t, res.FlushInWindow)
	require.Equal(t, 10, countLines(t, res.OutputPath))
	_, flushes, _ := fake.counts()
	require.Equal(t, 1, flushes)
}

func TestRunnerStampsEveryRecordWithTheClock(t *testing.T) {
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Millisecond)
	}
	cfg := testConfig(t, 10)
	fake := newFake("clocked")

	res := NewRunner(WithClock(clock)).Run(context.Background(), fake, cfg)

	require.False(t, res.Failed(), "unexpected failures: %v", res.Err())
	// prototype, window start, ten records, window end
	require.Equal(t, 11*time.Millisecond, res.Elapsed)
	require.Len(t, fake.timestamps, 10)
	for i := 1; i < len(fake.timestamps); i++ {
		require.True(t, fake.timestamps[i].After(fake.timestamps[i-1]))
	}
}

func TestRunnerCustomWorkload(t *testing.T) {
	workload := Workload{
		Level:    WarnLevel,
		Logger:   "custom",
		Template: "user {Name} retried {Count} times",
		Fields:   []Field{String("name", "ada"), Int("count", 3)},
	}
	cfg := testConfig(t, 3)
	fake := newFake("custom")

	res := NewRunner(WithWorkload(workload)).Run(context.Background(), fake, cfg)

	require.False(t, res.Failed(), "unexpected failures: %v", res.Err())
	v, err := VerifyFile(res.OutputPath, workload.Expectation())
	require.NoError(t, err)
	require.Equal(t, 3, v.Lines)
	require.True(t, v.OK(), v.Problem)
}

func TestBoundedAbandonsStuckWork(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	err := bounded(context.Background(), 10*time.Millisecond, func(context.Context) error {
		<-release
		return nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	err = bounded(context.Background(), time.Second, func(context.Context) error {
		panic("boom")
	})
	require.ErrorContains(t, err, "boom")
}
