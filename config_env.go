package logbench

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultEnvPrefix is prepended to every variable ConfigFromEnv reads.
const DefaultEnvPrefix = "LOGBENCH_"

// EnvOption customizes ConfigFromEnv behavior.
type EnvOption func(*envConfig)

type envConfig struct {
	prefix string
	base   RunConfig
	seeded bool
	lookup func(string) (string, bool)
}

// WithEnvPrefix overrides the environment variable prefix.
func WithEnvPrefix(prefix string) EnvOption {
	return func(cfg *envConfig) {
		cfg.prefix = prefix
	}
}

// WithEnvBase seeds ConfigFromEnv with explicit values that the environment
// then overrides.
func WithEnvBase(base RunConfig) EnvOption {
	return func(cfg *envConfig) {
		cfg.base = base
		cfg.seeded = true
	}
}

// WithEnvLookup replaces os.LookupEnv.
func WithEnvLookup(lookup func(string) (string, bool)) EnvOption {
	return func(cfg *envConfig) {
		cfg.lookup = lookup
	}
}

// EnvSettings is what ConfigFromEnv resolved besides the RunConfig.
type EnvSettings struct {
	Backends []string
	Runs     int
}

// ConfigFromEnv builds a RunConfig from environment variables. Environment
// values override the base (DefaultRunConfig unless WithEnvBase is given).
//
// Recognised variables are: {prefix}DIR, ITERATIONS, WARMUP, FLUSH
// (inside|outside), FLUSH_TIMEOUT, BACKPRESSURE (grow|block|drop),
// QUEUE_SIZE, SYNC, BACKENDS (comma separated) and RUNS. Unparseable values
// are reported and leave the base value in place.
func ConfigFromEnv(opts ...EnvOption) (RunConfig, EnvSettings, error) {
	cfg := envConfig{prefix: DefaultEnvPrefix, lookup: os.LookupEnv}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	resolved := cfg.base
	if !cfg.seeded {
		resolved = DefaultRunConfig()
	}
	var settings EnvSettings
	var problems []string
	lookup := func(key string) (string, bool) {
		value, ok := cfg.lookup(cfg.prefix + key)
		if !ok {
			return "", false
		}
		value = strings.TrimSpace(value)
		return value, value != ""
	}
	bad := func(key, value string) {
		problems = append(problems, fmt.Sprintf("%s%s=%q", cfg.prefix, key, value))
	}

	if value, ok := lookup("DIR"); ok {
		resolved.OutputDirectory = value
	}
	if value, ok := lookup("ITERATIONS"); ok {
		if n, ok := parseEnvInt(value); ok {
			resolved.IterationCount = n
		} else {
			bad("ITERATIONS", value)
		}
	}
	if value, ok := lookup("WARMUP"); ok {
		if n, ok := parseEnvInt(value); ok {
			resolved.WarmupCount = n
		} else {
			bad("WARMUP", value)
		}
	}
	if value, ok := lookup("FLUSH"); ok {
		if policy, ok := ParseFlushPolicy(value); ok {
			resolved.Flush = policy
		} else {
			bad("FLUSH", value)
		}
	}
	if value, ok := lookup("FLUSH_TIMEOUT"); ok {
		if d, err := time.ParseDuration(value); err == nil {
			resolved.FlushTimeout = d
		} else {
			bad("FLUSH_TIMEOUT", value)
		}
	}
	if value, ok := lookup("BACKPRESSURE"); ok {
		if policy, ok := ParseBackpressure(value); ok {
			resolved.Backpressure = policy
		} else {
			bad("BACKPRESSURE", value)
		}
	}
	if value, ok := lookup("QUEUE_SIZE"); ok {
		if n, ok := parseEnvInt(value); ok {
			resolved.QueueSize = n
		} else {
			bad("QUEUE_SIZE", value)
		}
	}
	if value, ok := lookup("SYNC"); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			resolved.SyncOnFlush = parsed
		} else {
			bad("SYNC", value)
		}
	}
	if value, ok := lookup("BACKENDS"); ok {
		settings.Backends = splitList(value)
	}
	if value, ok := lookup("RUNS"); ok {
		if n, ok := parseEnvInt(value); ok {
			settings.Runs = n
		} else {
			bad("RUNS", value)
		}
	}
	if len(problems) > 0 {
		return resolved, settings, fmt.Errorf("invalid environment: %s", strings.Join(problems, ", "))
	}
	return resolved, settings, nil
}

func parseEnvInt(value string) (int, bool) {
	n, err := strconv.Atoi(strings.ReplaceAll(value, "_", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

func splitList(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
