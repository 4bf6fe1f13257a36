// Package backends holds one logbench.Adapter per measured logging library,
// plus facade variants that reach a library through log/slog or logr
// instead of its native API.
//
// Every adapter writes newline-delimited JSON through a pslog.ObservedWriter
// wrapped around an asynchronous file sink. A write failure observed while a
// record is emitted is reported as logbench.ErrEmitFailed. No adapter
// terminates the process on fatal records.
package backends

import "pkt.systems/logbench"

// DefaultBackends returns every adapter in a fixed order.
func DefaultBackends() []logbench.Backend {
	return []logbench.Backend{
		{Name: "zap", Description: "go.uber.org/zap core with the JSON encoder", New: NewZap},
		{Name: "zerolog", Description: "github.com/rs/zerolog event chain", New: NewZerolog},
		{Name: "logrus", Description: "github.com/sirupsen/logrus JSONFormatter", New: NewLogrus},
		{Name: "phuslu", Description: "github.com/phuslu/log entry chain", New: NewPhuslu},
		{Name: "slog", Description: "log/slog JSONHandler", New: NewSlog},
		{Name: "pslog", Description: "pkt.systems/pslog structured mode", New: NewPslog},
		{Name: "kitlog", Description: "github.com/go-kit/log JSON logger", New: NewKitlog},
		{Name: "apex", Description: "github.com/apex/log JSON handler", New: NewApex},
		{Name: "log15", Description: "github.com/inconshreveable/log15 JsonFormat", New: NewLog15},
		{Name: "charm", Description: "github.com/charmbracelet/log JSONFormatter", New: NewCharm},
		{Name: "onelog", Description: "github.com/francoispqt/onelog field callbacks", New: NewOnelog},
		{Name: "logr", Description: "github.com/go-logr/logr funcr JSON", New: NewLogr},
		{Name: "klog", Description: "k8s.io/klog/v2 structured calls into funcr JSON", New: NewKlog},
		{Name: "slog-phuslu", Description: "log/slog front end over phuslu/log's JSON handler", New: NewSlogPhuslu},
		{Name: "slog-charm", Description: "log/slog front end over a charmbracelet/log JSON logger", New: NewSlogCharm},
		{Name: "logr-slog", Description: "logr front end over the log/slog JSONHandler", New: NewLogrSlog},
	}
}

// OriginalTrio returns the zap, zerolog and logrus backends.
func OriginalTrio() []logbench.Backend {
	all := DefaultBackends()
	return []logbench.Backend{all[0], all[1], all[2]}
}

// NewRegistry returns a registry holding DefaultBackends.
func NewRegistry() *logbench.Registry {
	return logbench.NewRegistry(DefaultBackends()...)
}
