package logbench

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML layout accepted by LoadConfigFile:
//
//	run:
//	  dir: /tmp/logbench
//	  iterations: 100000
//	  warmup: 1000
//	  flush: inside
//	  flushTimeout: 30s
//	  backpressure: grow
//	backends: [zap, zerolog, logrus]
//	runs: 3
//	verify: true
type FileConfig struct {
	Run      RunConfig `yaml:"run"`
	Backends []string  `yaml:"backends"`
	Runs     int       `yaml:"runs"`
	Verify   *bool     `yaml:"verify"`
}

// LoadConfigFile parses the YAML file at path on top of base. Keys absent
// from the file keep their base values; unknown keys are an error.
func LoadConfigFile(path string, base RunConfig) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("read config %q: %w", path, err)
	}
	return ParseConfig(data, base)
}

// ParseConfig is LoadConfigFile for an in-memory document.
func ParseConfig(data []byte, base RunConfig) (FileConfig, error) {
	cfg := FileConfig{Run: base}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return FileConfig{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Runs < 0 {
		return FileConfig{}, fmt.Errorf("parse config: runs %d is negative", cfg.Runs)
	}
	return cfg, nil
}
