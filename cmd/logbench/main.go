// Command logbench measures structured logging backends writing the same
// workload to local files.
//
//	logbench run                      # every backend, 100000 records each
//	logbench run zap zerolog logrus   # selected backends, in this order
//	logbench list
//	logbench verify --dir /tmp/logbench
//
// Settings resolve as defaults < --config YAML < LOGBENCH_* environment <
// flags. Diagnostics go to stderr through pslog, configured with
// LOGBENCH_LOG_* variables (LOGBENCH_LOG_LEVEL=debug, LOGBENCH_LOG_MODE=json).
package main

import (
	"context"
	"os"
	"os/signal"

	"pkt.systems/pslog"
)

var osExit = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvPrefix("LOGBENCH_LOG_"),
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{MinLevel: pslog.InfoLevel}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)

	err := newApp(os.Stdout, os.Stderr).rootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Error("logbench.failed", "err", err)
		osExit(1)
	}
}
