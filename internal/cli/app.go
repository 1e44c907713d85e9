package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"connwatch/internal/analysis"
	"connwatch/internal/config"
	"connwatch/internal/listing"
	"connwatch/internal/logging"
	"connwatch/internal/monitor"
	"connwatch/internal/sampler"
)

// app is the wired object graph shared by the commands.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	chain   *listing.Chain
	sampler *sampler.Sampler
	monitor *monitor.Monitor
	closers []io.Closer
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts *globalOptions) (*config.Config, string, error) {
	cfg, path, err := config.Load(opts.configPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}

	if opts.logLevel != "" {
		cfg.ConnWatch.Logging.Level = opts.logLevel
	}
	if opts.interval > 0 {
		cfg.ConnWatch.Sampler.Interval = opts.interval
	}
	if opts.metricsAddr != "" {
		cfg.ConnWatch.Metrics.Enabled = true
		cfg.ConnWatch.Metrics.Listen = opts.metricsAddr
	}

	if err := config.Validate(cfg); err != nil {
		return nil, "", fmt.Errorf("invalid config: %w", err)
	}
	return cfg, path, nil
}

// newApp wires config, logging, listing, sampling and the monitor. logOut
// receives log output; a configured log file is added alongside it.
func newApp(opts *globalOptions, logOut io.Writer, noColor bool) (*app, error) {
	cfg, path, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}

	lc := cfg.ConnWatch.Logging
	out := logOut
	if lc.File != "" {
		f, err := logging.OpenFile(lc.File)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, f)
		out = io.MultiWriter(logOut, f)
	}
	a.logger = logging.New(logging.Config{
		Level:   lc.Level,
		Pretty:  lc.Pretty || lc.File == "",
		NoColor: noColor || lc.File != "",
		Output:  out,
	})

	if path != "" {
		a.logger.Debug().Str("path", path).Msg("Loaded config")
	}

	sc := cfg.ConnWatch.Sampler
	sources, err := listing.BuildSources(sc.Strategies, listing.Options{
		PrimaryTimeout:  sc.PrimaryTimeout,
		FallbackTimeout: sc.FallbackTimeout,
		HeaderLines:     sc.HeaderLines,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.chain = listing.NewChain(a.logger, sources...)

	classifier := analysis.NewClassifier(analysis.Config{
		SuspiciousPorts:  cfg.ConnWatch.Rules.SuspiciousPorts,
		UnusualProcesses: cfg.ConnWatch.Rules.UnusualProcesses,
	})
	a.sampler = sampler.New(a.chain, listing.DefaultResolver(sc.ResolveTimeout), classifier, a.logger)
	a.monitor = monitor.New(a.sampler, sc.Interval, a.logger)

	a.logger.Debug().
		Strs("strategies", a.chain.Sources()).
		Dur("interval", sc.Interval).
		Msg("Sampler configured")
	return a, nil
}

// newCLIApp logs to stderr.
func newCLIApp(opts *globalOptions) (*app, error) {
	return newApp(opts, os.Stderr, false)
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}
