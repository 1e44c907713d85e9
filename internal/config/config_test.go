package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "connwatch.yml")
	content := `connwatch:
  sampler:
    interval: 2s
    strategies: [netstat, gopsutil]
  rules:
    suspicious_ports: [6667]
  export:
    dir: /tmp/reports
  metrics:
    enabled: true
    listen: ":9999"
  logging:
    level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, used, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	cw := cfg.ConnWatch
	assert.Equal(t, 2*time.Second, cw.Sampler.Interval)
	assert.Equal(t, 10*time.Second, cw.Sampler.PrimaryTimeout)
	assert.Equal(t, 15*time.Second, cw.Sampler.FallbackTimeout)
	assert.Equal(t, 2*time.Second, cw.Sampler.ResolveTimeout)
	assert.Equal(t, 4, cw.Sampler.HeaderLines)
	assert.Equal(t, []string{"netstat", "gopsutil"}, cw.Sampler.Strategies)
	assert.Equal(t, []int{6667}, cw.Rules.SuspiciousPorts)
	assert.Equal(t, []string{"notepad", "calc", "mspaint", "wordpad"}, cw.Rules.UnusualProcesses)
	assert.Equal(t, "/tmp/reports", cw.Export.Dir)
	assert.True(t, cw.Metrics.Enabled)
	assert.Equal(t, ":9999", cw.Metrics.Listen)
	assert.Equal(t, "/metrics", cw.Metrics.Path)
	assert.Equal(t, "debug", cw.Logging.Level)

	require.NoError(t, Validate(cfg))
}

func TestLoad_MissingDefaultFileYieldsDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, used, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, 5*time.Second, cfg.ConnWatch.Sampler.Interval)
	assert.NotEmpty(t, cfg.ConnWatch.Sampler.Strategies)
	assert.Equal(t, ".", cfg.ConnWatch.Export.Dir)
	assert.Equal(t, "info", cfg.ConnWatch.Logging.Level)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("connwatch: [unterminated"), 0o600))

	_, _, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	require.NoError(t, Validate(cfg))

	cfg.ConnWatch.Rules.SuspiciousPorts = []int{70000}
	assert.Error(t, Validate(cfg))

	cfg.ConnWatch.Rules.SuspiciousPorts = []int{4444}
	cfg.ConnWatch.Sampler.Strategies = []string{"ss"}
	assert.Error(t, Validate(cfg))
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
