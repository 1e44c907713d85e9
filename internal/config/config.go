package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"connwatch/internal/analysis"
	"connwatch/internal/listing"
)

// DefaultFileName is looked up in the working directory and next to the executable.
const DefaultFileName = "connwatch.yml"

// Config is the root configuration.
type Config struct {
	ConnWatch ConnWatchConfig `yaml:"connwatch"`
}

// ConnWatchConfig is the project configuration.
type ConnWatchConfig struct {
	Sampler SamplerConfig `yaml:"sampler"`
	Rules   RulesConfig   `yaml:"rules"`
	Export  ExportConfig  `yaml:"export"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// SamplerConfig controls the sampling loop and the listing strategies.
type SamplerConfig struct {
	Interval        time.Duration `yaml:"interval"`
	PrimaryTimeout  time.Duration `yaml:"primary_timeout"`
	FallbackTimeout time.Duration `yaml:"fallback_timeout"`
	ResolveTimeout  time.Duration `yaml:"resolve_timeout"`
	HeaderLines     int           `yaml:"header_lines"`
	Strategies      []string      `yaml:"strategies"`
}

// RulesConfig overrides the classifier tables.
type RulesConfig struct {
	SuspiciousPorts  []int    `yaml:"suspicious_ports"`
	UnusualProcesses []string `yaml:"unusual_processes"`
}

// ExportConfig controls report export.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	Path    string `yaml:"path"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Pretty bool   `yaml:"pretty"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &cfg, nil
}

// Load finds the config file and loads it with defaults applied. A missing
// file is not an error; it yields the defaults. The returned path is empty
// when no file was read.
func Load(configArg string) (*Config, string, error) {
	path := FindConfigFile(configArg)

	cfg, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) && configArg == "" {
		cfg, path = &Config{}, ""
	} else if err != nil {
		return nil, "", err
	}

	ApplyDefaults(cfg)
	return cfg, path, nil
}

// FindConfigFile resolves the config path: explicit argument, working
// directory, then the executable's directory.
func FindConfigFile(configArg string) string {
	if configArg != "" {
		return configArg
	}

	if _, err := os.Stat(DefaultFileName); err == nil {
		return DefaultFileName
	}

	exePath, err := os.Executable()
	if err == nil {
		path := filepath.Join(filepath.Dir(exePath), DefaultFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return DefaultFileName
}

// ApplyDefaults fills every zero value.
func ApplyDefaults(cfg *Config) {
	s := &cfg.ConnWatch.Sampler
	if s.Interval <= 0 {
		s.Interval = 5 * time.Second
	}
	if s.PrimaryTimeout <= 0 {
		s.PrimaryTimeout = listing.DefaultPrimaryTimeout
	}
	if s.FallbackTimeout <= 0 {
		s.FallbackTimeout = listing.DefaultFallbackTimeout
	}
	if s.ResolveTimeout <= 0 {
		s.ResolveTimeout = listing.DefaultResolveTimeout
	}
	if s.HeaderLines <= 0 {
		s.HeaderLines = listing.DefaultHeaderLines
	}
	if len(s.Strategies) == 0 {
		s.Strategies = listing.DefaultStrategies()
	}

	r := &cfg.ConnWatch.Rules
	def := analysis.DefaultConfig()
	if len(r.SuspiciousPorts) == 0 {
		r.SuspiciousPorts = def.SuspiciousPorts
	}
	if len(r.UnusualProcesses) == 0 {
		r.UnusualProcesses = def.UnusualProcesses
	}

	if cfg.ConnWatch.Export.Dir == "" {
		cfg.ConnWatch.Export.Dir = "."
	}

	if cfg.ConnWatch.Metrics.Listen == "" {
		cfg.ConnWatch.Metrics.Listen = "127.0.0.1:9717"
	}
	if cfg.ConnWatch.Metrics.Path == "" {
		cfg.ConnWatch.Metrics.Path = "/metrics"
	}

	if cfg.ConnWatch.Logging.Level == "" {
		cfg.ConnWatch.Logging.Level = "info"
	}
}

// Validate rejects values that defaults cannot repair.
func Validate(cfg *Config) error {
	for _, p := range cfg.ConnWatch.Rules.SuspiciousPorts {
		if p < 0 || p > 65535 {
			return fmt.Errorf("rules.suspicious_ports: port %d out of range", p)
		}
	}
	if _, err := listing.BuildSources(cfg.ConnWatch.Sampler.Strategies, listing.Options{}); err != nil {
		return fmt.Errorf("sampler.strategies: %w", err)
	}
	return nil
}
