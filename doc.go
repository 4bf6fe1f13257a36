// Package logbench measures structured logging backends by having each one
// write the same workload as JSON lines to a local file.
//
// # Model
//
//   - Record: an immutable log event (time, level, logger name, message
//     template, ordered fields). The rendered message substitutes {Name}
//     placeholders with field values.
//   - Adapter: one backend bound to one output file. Its lifecycle is
//     Configure, Emit (any number of times), Flush, Dispose. Dispose is
//     always called once Configure has been attempted.
//   - Runner: drives one adapter through warmup, a timed measurement window
//     and the final flush, and turns the outcome into a RunResult. A failing
//     or panicking adapter yields a result with Failures, never an error.
//   - Harness: deletes and recreates the scratch directory, then runs the
//     selected backends strictly one after another in the order given and
//     returns a Report in that same order.
//
// # Usage
//
//	reg := backends.NewRegistry()
//	selected, err := reg.Select("zap", "zerolog", "logrus")
//	if err != nil {
//		return err
//	}
//	report, err := logbench.New().RunAll(ctx, selected, logbench.DefaultRunConfig())
//	if err != nil {
//		return err
//	}
//	report.WriteTable(os.Stdout)
//
// Adapters write through an asynchronous sink whose behaviour under a full
// queue is chosen with RunConfig.Backpressure: grow never blocks the caller,
// block waits for the writer to drain, drop discards the write and reports
// the record as a failed emission.
//
// # Verification
//
// After a run the harness re-reads every output file and checks that each
// line is a JSON object carrying a timestamp, a level, the logger name, the
// rendered message and the workload fields. Backends spell these keys
// differently (time/ts, message/msg, level/lvl); VerifyFile accepts the
// common spellings.
//
// The cmd/logbench command wraps all of this with YAML and LOGBENCH_*
// environment configuration, repeated runs and a compressed archive of the
// output files.
package logbench
