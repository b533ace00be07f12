package config

import (
	"runtime"
	"time"
)

const DefaultFileName = "pyward.toml"

type Config struct {
	Scan          Scan          `toml:"scan"`
	Exclude       Exclude       `toml:"exclude"`
	Policy        Policy        `toml:"policy"`
	Style         Style         `toml:"style"`
	Output        Output        `toml:"output"`
	History       History       `toml:"history"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Scan struct {
	Paths          []string `toml:"paths"`
	Extensions     []string `toml:"extensions"`
	IgnoreFiles    []string `toml:"ignore_files"`
	Workers        int      `toml:"workers"`
	FilesPerSecond float64  `toml:"files_per_second"`
	MaxFileBytes   int64    `toml:"max_file_bytes"`
}

type Exclude struct {
	Patterns []string `toml:"patterns"`
}

// Policy lists are merged with the lists from PolicyFile, if set.
type Policy struct {
	Allowed         []string `toml:"allowed"`
	Prohibited      []string `toml:"prohibited"`
	DisallowedCalls []string `toml:"disallowed_calls"`
	PolicyFile      string   `toml:"policy_file"`
}

type Style struct {
	MaxLineLength int `toml:"max_line_length"`
	MaxFileLines  int `toml:"max_file_lines"`
	IndentWidth   int `toml:"indent_width"`
}

type Output struct {
	Log   string `toml:"log"`
	SARIF string `toml:"sarif"`
	JSON  string `toml:"json"`
	Color *bool  `toml:"color"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

// DefaultConfig is used by the flag-only commands.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// ColorEnabled reports whether console output may use ANSI colour.
func (c *Config) ColorEnabled() bool {
	return c.Output.Color == nil || *c.Output.Color
}

func defaultWorkers() int {
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}
