package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"pkt.systems/logbench"
	"pkt.systems/pslog"
)

type runFlags struct {
	dir          string
	iterations   int
	warmup       int
	runs         int
	flush        logbench.FlushPolicy
	flushTimeout time.Duration
	backpressure logbench.Backpressure
	queueSize    int
	sync         bool
	config       string
	format       string
	verify       bool
	archive      string
}

// settings is the fully resolved input of one `logbench run`.
type settings struct {
	cfg      logbench.RunConfig
	backends []string
	runs     int
	verify   bool
	archive  string
	format   string
}

func defaultRunFlags() runFlags {
	return runFlags{
		dir:          logbench.DefaultOutputDirectory(),
		iterations:   logbench.DefaultIterations,
		runs:         1,
		flush:        logbench.FlushInside,
		flushTimeout: logbench.DefaultFlushTimeout,
		backpressure: logbench.BackpressureGrow,
		queueSize:    logbench.DefaultQueueSize,
		format:       formatAuto,
		verify:       true,
	}
}

func bindRunFlags(flags *pflag.FlagSet, f *runFlags) {
	flags.StringVar(&f.dir, "dir", f.dir, "scratch directory, deleted and recreated before each run")
	flags.IntVar(&f.iterations, "iterations", f.iterations, "measured emissions per backend")
	flags.IntVar(&f.warmup, "warmup", f.warmup, "untimed emissions before the measurement window")
	flags.IntVar(&f.runs, "runs", f.runs, "repeat the whole run and aggregate the results")
	flags.Var(textValue{v: &f.flush, typ: "inside|outside"}, "flush", "whether the final flush is timed")
	flags.DurationVar(&f.flushTimeout, "flush-timeout", f.flushTimeout, "bound on every flush and dispose")
	flags.Var(textValue{v: &f.backpressure, typ: "grow|block|drop"}, "backpressure", "async sink policy when its queue is full")
	flags.IntVar(&f.queueSize, "queue-size", f.queueSize, "async sink queue bound in bytes")
	flags.BoolVar(&f.sync, "sync", f.sync, "fsync the output file on every flush")
	flags.StringVar(&f.config, "config", f.config, "YAML configuration file")
	flags.StringVar(&f.format, "format", f.format, "report format: auto, table or json")
	flags.BoolVar(&f.verify, "verify", f.verify, "verify every output file after the run")
	flags.StringVar(&f.archive, "archive", f.archive, "write a zstd-compressed tar of the output files to this path")
}

func (a *app) runCommand() *cobra.Command {
	f := defaultRunFlags()
	cmd := &cobra.Command{
		Use:   "run [backend...]",
		Short: "Measure backends against the fixed workload",
		Long: "Deletes and recreates the scratch directory, then measures each backend in turn,\n" +
			"writing <dir>/<backend>.log. Backends run in the order given; none means all.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.resolve(cmd.Flags(), args, &f)
			if err != nil {
				return err
			}
			return a.run(cmd.Context(), cmd.OutOrStdout(), s)
		},
	}
	bindRunFlags(cmd.Flags(), &f)
	return cmd
}

// resolve applies defaults, the config file, the environment and changed
// flags, in that order.
func (a *app) resolve(flags *pflag.FlagSet, args []string, f *runFlags) (settings, error) {
	s := settings{cfg: logbench.DefaultRunConfig(), runs: 1, verify: true}
	if f.config != "" {
		file, err := logbench.LoadConfigFile(f.config, s.cfg)
		if err != nil {
			return s, err
		}
		s.cfg = file.Run
		if len(file.Backends) > 0 {
			s.backends = file.Backends
		}
		if file.Runs > 0 {
			s.runs = file.Runs
		}
		if file.Verify != nil {
			s.verify = *file.Verify
		}
	}
	cfg, env, err := logbench.ConfigFromEnv(logbench.WithEnvBase(s.cfg), logbench.WithEnvLookup(a.lookupEnv))
	if err != nil {
		return s, err
	}
	s.cfg = cfg
	if len(env.Backends) > 0 {
		s.backends = env.Backends
	}
	if env.Runs > 0 {
		s.runs = env.Runs
	}

	if flags.Changed("dir") {
		s.cfg.OutputDirectory = f.dir
	}
	if flags.Changed("iterations") {
		s.cfg.IterationCount = f.iterations
	}
	if flags.Changed("warmup") {
		s.cfg.WarmupCount = f.warmup
	}
	if flags.Changed("runs") {
		s.runs = f.runs
	}
	if flags.Changed("flush") {
		s.cfg.Flush = f.flush
	}
	if flags.Changed("flush-timeout") {
		s.cfg.FlushTimeout = f.flushTimeout
	}
	if flags.Changed("backpressure") {
		s.cfg.Backpressure = f.backpressure
	}
	if flags.Changed("queue-size") {
		s.cfg.QueueSize = f.queueSize
	}
	if flags.Changed("sync") {
		s.cfg.SyncOnFlush = f.sync
	}
	if flags.Changed("verify") {
		s.verify = f.verify
	}
	if len(args) > 0 {
		s.backends = args
	}
	s.archive = f.archive
	s.format = f.format

	if s.runs < 1 {
		return s, fmt.Errorf("runs must be at least 1, got %d", s.runs)
	}
	if err := s.cfg.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

type multiReport struct {
	Reports   []logbench.Report        `json:"reports"`
	Aggregate []logbench.AggregateStat `json:"aggregate"`
}

func (a *app) run(ctx context.Context, out io.Writer, s settings) error {
	format, err := resolveFormat(s.format, out)
	if err != nil {
		return err
	}
	selected, err := a.registry.Select(s.backends...)
	if err != nil {
		return err
	}
	logger := pslog.Ctx(ctx)
	h := logbench.New(logbench.WithVerify(s.verify))
	if s.runs > 1 {
		// Each run prepares its own run-N; clear what earlier invocations left
		// beside them.
		if err := h.Prepare(ctx, s.cfg.OutputDirectory); err != nil {
			return err
		}
	}
	reports := make([]logbench.Report, 0, s.runs)
	for i := 0; i < s.runs; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		cfg := s.cfg
		if s.runs > 1 {
			cfg.OutputDirectory = filepath.Join(s.cfg.OutputDirectory, fmt.Sprintf("run-%d", i))
		}
		logger.Info("run.start", "run", i, "backends", len(selected), "iterations", cfg.IterationCount, "dir", cfg.OutputDirectory)
		report, err := h.RunAll(ctx, selected, cfg)
		if err != nil {
			return err
		}
		reports = append(reports, report)
	}

	switch format {
	case formatJSON:
		if len(reports) == 1 {
			err = reports[0].WriteJSON(out)
		} else {
			err = writeJSON(out, multiReport{Reports: reports, Aggregate: logbench.Aggregate(reports...)})
		}
	default:
		err = writeTables(out, reports)
	}
	if err != nil {
		return err
	}

	if s.archive != "" {
		if err := logbench.ArchiveOutputs(ctx, s.archive, reports...); err != nil {
			return err
		}
	}

	failed := 0
	for _, report := range reports {
		failed += len(report.Failed())
	}
	if failed > 0 {
		return fmt.Errorf("%d adapter runs recorded failures", failed)
	}
	return nil
}

func writeTables(out io.Writer, reports []logbench.Report) error {
	for i, report := range reports {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if err := report.WriteTable(out); err != nil {
			return err
		}
	}
	if len(reports) < 2 {
		return nil
	}
	fmt.Fprintf(out, "\naggregate over %d runs\n", len(reports))
	return logbench.WriteAggregateTable(out, logbench.Aggregate(reports...))
}

func writeJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')
	_, err = out.Write(data)
	return err
}
