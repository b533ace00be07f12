package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"pyward/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pyward.toml", `
[scan]
paths = ["src"]
extensions = ["py", ".PYI"]
workers = 3
files_per_second = 50

[exclude]
patterns = ["build/", "*.pyc"]

[policy]
allowed = ["os"]
prohibited = ["requests", "subprocess"]

[style]
max_line_length = 120

[output]
log = "out/pyward.log"
sarif = "out/pyward.sarif"
color = false

[history]
enabled = true

[watch]
debounce = "1s"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "src")}, cfg.Scan.Paths)
	assert.Equal(t, []string{".py", ".pyi"}, cfg.Scan.Extensions)
	assert.Equal(t, 3, cfg.Scan.Workers)
	assert.Equal(t, 50.0, cfg.Scan.FilesPerSecond)
	assert.Equal(t, int64(defaultMaxFileBytes), cfg.Scan.MaxFileBytes)
	assert.Equal(t, []string{".gitignore"}, cfg.Scan.IgnoreFiles)
	assert.Equal(t, []string{"build/", "*.pyc"}, cfg.Exclude.Patterns)
	assert.Equal(t, []string{"requests", "subprocess"}, cfg.Policy.Prohibited)
	assert.Equal(t, 120, cfg.Style.MaxLineLength)
	assert.Equal(t, 400, cfg.Style.MaxFileLines)
	assert.Equal(t, 4, cfg.Style.IndentWidth)
	assert.Equal(t, filepath.Join(dir, "out/pyward.log"), cfg.Output.Log)
	assert.Equal(t, filepath.Join(dir, "out/pyward.sarif"), cfg.Output.SARIF)
	assert.Empty(t, cfg.Output.JSON)
	assert.False(t, cfg.ColorEnabled())
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, filepath.Join(dir, defaultHistoryFile), cfg.History.Path)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, []string{"."}, cfg.Scan.Paths)
	assert.Equal(t, []string{".py"}, cfg.Scan.Extensions)
	assert.Positive(t, cfg.Scan.Workers)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.True(t, cfg.ColorEnabled())
	assert.False(t, cfg.History.Enabled)
	assert.NoError(t, Validate(cfg))
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.toml"))
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	bad := writeFile(t, dir, "bad.toml", "[scan\npaths = 1")
	_, err = Load(bad)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative rate", func(c *Config) { c.Scan.FilesPerSecond = -1 }},
		{"blank path", func(c *Config) { c.Scan.Paths = []string{" "} }},
		{"bad call name", func(c *Config) { c.Policy.DisallowedCalls = []string{"os.system"} }},
		{"huge indent", func(c *Config) { c.Style.IndentWidth = 32 }},
		{"same output file", func(c *Config) { c.Output.SARIF = c.Output.Log }},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeValidationError))
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PYWARD_SCAN_WORKERS", "7")
	t.Setenv("PYWARD_POLICY_PROHIBITED", "requests, urllib3")
	t.Setenv("PYWARD_WATCH_DEBOUNCE", "2s")
	t.Setenv("PYWARD_HISTORY_ENABLED", "not-a-bool")

	cfg := DefaultConfig()
	ApplyEnvOverrides(cfg)

	assert.Equal(t, 7, cfg.Scan.Workers)
	assert.Equal(t, []string{"requests", "urllib3"}, cfg.Policy.Prohibited)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.False(t, cfg.History.Enabled)
}
