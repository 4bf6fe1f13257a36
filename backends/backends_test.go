package backends

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pkt.systems/logbench"
	"pkt.systems/logbench/internal/asyncsink"
)

func emitWorkload(t *testing.T, a logbench.Adapter, n int) {
	t.Helper()
	rec := logbench.DefaultWorkload().Record(time.Now())
	for i := 0; i < n; i++ {
		if err := a.Emit(rec.WithTime(time.Now())); err != nil {
			t.Fatalf("%s emit %d: %v", a.Name(), i, err)
		}
	}
}

func TestBackendsWriteVerifiableJSON(t *testing.T) {
	want := logbench.DefaultWorkload().Expectation()
	for _, backend := range DefaultBackends() {
		t.Run(backend.Name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), logbench.FileName(backend.Name))
			a := backend.New(logbench.AdapterOptions{})
			if got := a.Name(); got != backend.Name {
				t.Fatalf("adapter name %q, want %q", got, backend.Name)
			}
			if err := a.Configure(path); err != nil {
				t.Fatalf("configure: %v", err)
			}
			emitWorkload(t, a, 25)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := a.Flush(ctx); err != nil {
				t.Fatalf("flush: %v", err)
			}
			if err := a.Dispose(); err != nil {
				t.Fatalf("dispose: %v", err)
			}
			if err := a.Dispose(); err != nil {
				t.Fatalf("second dispose: %v", err)
			}
			v, err := logbench.VerifyFile(path, want)
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if v.Lines != 25 || !v.OK() {
				data, _ := os.ReadFile(path)
				t.Fatalf("verification %+v\n%s", v, firstLine(data))
			}
			stats := a.(logbench.SinkStatser).SinkStats()
			if stats.BytesWritten == 0 || stats.WriteFailures != 0 {
				t.Fatalf("unexpected sink stats %+v", stats)
			}
		})
	}
}

func TestBackendsLevels(t *testing.T) {
	levels := []logbench.Level{
		logbench.TraceLevel,
		logbench.DebugLevel,
		logbench.InfoLevel,
		logbench.WarnLevel,
		logbench.ErrorLevel,
		logbench.FatalLevel,
	}
	want := logbench.Expectation{Message: "level check"}
	for _, backend := range DefaultBackends() {
		t.Run(backend.Name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "levels.log")
			a := backend.New(logbench.AdapterOptions{})
			if err := a.Configure(path); err != nil {
				t.Fatalf("configure: %v", err)
			}
			defer a.Dispose()
			for _, level := range levels {
				rec := logbench.NewRecord(time.Now(), level, "levels", "level check")
				if err := a.Emit(rec); err != nil {
					t.Fatalf("emit %s: %v", level, err)
				}
			}
			if err := a.Dispose(); err != nil {
				t.Fatalf("dispose: %v", err)
			}
			v, err := logbench.VerifyFile(path, want)
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if v.Lines != len(levels) || !v.OK() {
				t.Fatalf("verification %+v", v)
			}
		})
	}
}

func TestBackendsRejectExistingFile(t *testing.T) {
	for _, backend := range DefaultBackends() {
		t.Run(backend.Name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "taken.log")
			if err := os.WriteFile(path, []byte("keep\n"), 0o644); err != nil {
				t.Fatalf("seed file: %v", err)
			}
			a := backend.New(logbench.AdapterOptions{})
			if err := a.Configure(path); err == nil {
				t.Fatalf("expected configure to fail on existing file")
			}
			if err := a.Emit(logbench.DefaultWorkload().Record(time.Now())); !errors.Is(err, logbench.ErrNotConfigured) {
				t.Fatalf("emit after failed configure: %v", err)
			}
			if err := a.Dispose(); err != nil {
				t.Fatalf("dispose after failed configure: %v", err)
			}
			data, err := os.ReadFile(path)
			if err != nil || string(data) != "keep\n" {
				t.Fatalf("existing file modified: %q %v", data, err)
			}
		})
	}
}

func TestBackendsLifecycleErrors(t *testing.T) {
	rec := logbench.DefaultWorkload().Record(time.Now())
	for _, backend := range DefaultBackends() {
		t.Run(backend.Name, func(t *testing.T) {
			a := backend.New(logbench.AdapterOptions{})
			if err := a.Emit(rec); !errors.Is(err, logbench.ErrNotConfigured) {
				t.Fatalf("emit before configure: %v", err)
			}
			if err := a.Flush(context.Background()); !errors.Is(err, logbench.ErrNotConfigured) {
				t.Fatalf("flush before configure: %v", err)
			}
			dir := t.TempDir()
			if err := a.Configure(filepath.Join(dir, "a.log")); err != nil {
				t.Fatalf("configure: %v", err)
			}
			if err := a.Configure(filepath.Join(dir, "b.log")); !errors.Is(err, logbench.ErrAlreadyConfigured) {
				t.Fatalf("second configure: %v", err)
			}
			if err := a.Dispose(); err != nil {
				t.Fatalf("dispose: %v", err)
			}
			if err := a.Emit(rec); !errors.Is(err, logbench.ErrDisposed) {
				t.Fatalf("emit after dispose: %v", err)
			}
			if err := a.Configure(filepath.Join(dir, "c.log")); err == nil {
				t.Fatalf("configure after dispose succeeded")
			}
		})
	}
}

func TestEmitReportsSinkFailure(t *testing.T) {
	cases := []struct {
		name  string
		build func() (logbench.Adapter, *base)
	}{
		{"zap", func() (logbench.Adapter, *base) { a := NewZap(logbench.AdapterOptions{}).(*zapAdapter); return a, &a.base }},
		{"zerolog", func() (logbench.Adapter, *base) {
			a := NewZerolog(logbench.AdapterOptions{}).(*zerologAdapter)
			return a, &a.base
		}},
		{"slog", func() (logbench.Adapter, *base) { a := NewSlog(logbench.AdapterOptions{}).(*slogAdapter); return a, &a.base }},
		{"pslog", func() (logbench.Adapter, *base) { a := NewPslog(logbench.AdapterOptions{}).(*pslogAdapter); return a, &a.base }},
		{"kitlog", func() (logbench.Adapter, *base) {
			a := NewKitlog(logbench.AdapterOptions{}).(*kitlogAdapter)
			return a, &a.base
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, b := tc.build()
			if err := a.Configure(filepath.Join(t.TempDir(), "closed.log")); err != nil {
				t.Fatalf("configure: %v", err)
			}
			defer a.Dispose()
			if err := b.async.Close(); err != nil {
				t.Fatalf("close sink: %v", err)
			}
			err := a.Emit(logbench.DefaultWorkload().Record(time.Now()))
			if !errors.Is(err, logbench.ErrEmitFailed) {
				t.Fatalf("expected ErrEmitFailed, got %v", err)
			}
			if stats := a.(logbench.SinkStatser).SinkStats(); stats.WriteFailures == 0 {
				t.Fatalf("write failure not counted: %+v", stats)
			}
		})
	}
}

func TestKlogIsExclusive(t *testing.T) {
	dir := t.TempDir()
	first := NewKlog(logbench.AdapterOptions{})
	if err := first.Configure(filepath.Join(dir, "first.log")); err != nil {
		t.Fatalf("configure first: %v", err)
	}
	second := NewKlog(logbench.AdapterOptions{})
	if err := second.Configure(filepath.Join(dir, "second.log")); err == nil {
		t.Fatalf("second klog adapter configured while first is active")
	}
	if err := second.Dispose(); err != nil {
		t.Fatalf("dispose second: %v", err)
	}
	if err := first.Dispose(); err != nil {
		t.Fatalf("dispose first: %v", err)
	}
	third := NewKlog(logbench.AdapterOptions{})
	if err := third.Configure(filepath.Join(dir, "third.log")); err != nil {
		t.Fatalf("configure after release: %v", err)
	}
	if err := third.Dispose(); err != nil {
		t.Fatalf("dispose third: %v", err)
	}
}

func TestRegistryOrder(t *testing.T) {
	reg := NewRegistry()
	names := reg.Names()
	want := []string{"zap", "zerolog", "logrus", "phuslu", "slog", "pslog", "kitlog", "apex", "log15", "charm", "onelog", "logr", "klog", "slog-phuslu", "slog-charm", "logr-slog"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("registry order %v, want %v", names, want)
	}
	trio := OriginalTrio()
	if len(trio) != 3 || trio[0].Name != "zap" || trio[1].Name != "zerolog" || trio[2].Name != "logrus" {
		t.Fatalf("unexpected trio %v", trio)
	}
	for _, b := range DefaultBackends() {
		if b.Description == "" {
			t.Fatalf("backend %q has no description", b.Name)
		}
	}
}

func TestHarnessRunsOriginalTrio(t *testing.T) {
	cfg := logbench.DefaultRunConfig()
	cfg.OutputDirectory = filepath.Join(t.TempDir(), "scratch")
	cfg.IterationCount = 1000
	cfg.FlushTimeout = 10 * time.Second
	report, err := logbench.New().RunAll(context.Background(), OriginalTrio(), cfg)
	if err != nil {
		t.Fatalf("run all: %v", err)
	}
	if len(report.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(report.Results))
	}
	for i, name := range []string{"zap", "zerolog", "logrus"} {
		res := report.Results[i]
		if res.Adapter != name {
			t.Fatalf("result %d is %q, want %q", i, res.Adapter, name)
		}
		if res.Failed() {
			t.Fatalf("%s failed: %v", name, res.Err())
		}
		if res.Records != 1000 || res.Emitted != 1000 {
			t.Fatalf("%s records %d emitted %d", name, res.Records, res.Emitted)
		}
		data, err := os.ReadFile(res.OutputPath)
		if err != nil {
			t.Fatalf("read %s: %v", res.OutputPath, err)
		}
		lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
		if len(lines) != 1000 {
			t.Fatalf("%s wrote %d lines", name, len(lines))
		}
		for _, field := range []string{`"x":100`, `"y":200`, `"z":300`} {
			if !strings.Contains(lines[len(lines)-1], field) {
				t.Fatalf("%s last line lacks %s: %s", name, field, lines[len(lines)-1])
			}
		}
		if res.Elapsed <= 0 || res.OutputBytes <= 0 {
			t.Fatalf("%s elapsed %s bytes %d", name, res.Elapsed, res.OutputBytes)
		}
	}
}

func TestHarnessVerifiesEveryBackend(t *testing.T) {
	cfg := logbench.DefaultRunConfig()
	cfg.OutputDirectory = filepath.Join(t.TempDir(), "scratch")
	cfg.IterationCount = 50
	cfg.WarmupCount = 5
	cfg.FlushTimeout = 10 * time.Second
	report, err := logbench.New().RunAll(context.Background(), DefaultBackends(), cfg)
	if err != nil {
		t.Fatalf("run all: %v", err)
	}
	for _, res := range report.Results {
		if res.Failed() {
			t.Fatalf("%s failed: %v", res.Adapter, res.Err())
		}
		if res.Records != 55 {
			t.Fatalf("%s verified %d records, want 55", res.Adapter, res.Records)
		}
	}
	klogOut, err := os.ReadFile(filepath.Join(cfg.OutputDirectory, "klog.log"))
	if err != nil {
		t.Fatalf("read klog output: %v", err)
	}
	line := firstLine(klogOut)
	if strings.Count(line, `"logger":`) != 1 || !strings.Contains(line, `"logger":"logbench"`) {
		t.Fatalf("klog line should carry the logger name once: %s", line)
	}
}

func TestHarnessCountsDroppedRecordsAsEmitFailures(t *testing.T) {
	cfg := logbench.DefaultRunConfig()
	cfg.OutputDirectory = filepath.Join(t.TempDir(), "scratch")
	cfg.IterationCount = 200000
	cfg.Backpressure = logbench.BackpressureDrop
	cfg.QueueSize = 256
	cfg.FlushTimeout = 30 * time.Second
	backend, ok := NewRegistry().Lookup("zerolog")
	if !ok {
		t.Fatalf("zerolog not registered")
	}
	report, err := logbench.New().RunAll(context.Background(), []logbench.Backend{backend}, cfg)
	if err != nil {
		t.Fatalf("run all: %v", err)
	}
	res := report.Results[0]
	if res.Emitted+res.EmitFailures != cfg.IterationCount {
		t.Fatalf("emitted %d + failures %d != %d", res.Emitted, res.EmitFailures, cfg.IterationCount)
	}
	if uint64(res.EmitFailures) != res.Sink.Dropped {
		t.Fatalf("emit failures %d, sink dropped %d", res.EmitFailures, res.Sink.Dropped)
	}
	if res.Sink.WriteFailures != 0 {
		t.Fatalf("drops counted as write failures: %+v", res.Sink)
	}
	if res.Records != res.Emitted {
		t.Fatalf("file holds %d records, %d emits succeeded", res.Records, res.Emitted)
	}
	for _, f := range res.Failures {
		if f.Kind != logbench.KindName(logbench.ErrEmitFailed) || !errors.Is(f.Err, asyncsink.ErrDropped) {
			t.Fatalf("unexpected failure %s: %s", f.Kind, f.Reason)
		}
	}
	if res.Sink.Dropped == 0 {
		t.Skip("the writer kept up; nothing was dropped")
	}
}

type droppingWriter struct{}

func (droppingWriter) Write([]byte) (int, error) { return 0, asyncsink.ErrDropped }

func TestDropTolerantHidesOnlyDrops(t *testing.T) {
	n, err := dropTolerant{w: droppingWriter{}}.Write([]byte("line\n"))
	if err != nil || n != 5 {
		t.Fatalf("dropped write surfaced as %d, %v", n, err)
	}
	_, err = dropTolerant{w: failingWriter{}}.Write([]byte("line\n"))
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("expected other errors to pass through, got %v", err)
	}
}

var errDiskFull = errors.New("disk full")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errDiskFull }

func firstLine(data []byte) string {
	line, _, _ := strings.Cut(string(data), "\n")
	return line
}
