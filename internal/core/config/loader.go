package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"pyward/internal/core/errors"

	"github.com/BurntSushi/toml"
)

const (
	defaultMaxFileBytes = 4 << 20
	defaultLogFile      = "pyward.log"
	defaultHistoryFile  = ".pyward/history.db"
)

// Load reads a TOML config file. Relative paths inside the file are resolved
// against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "config file not found"), errors.CtxPath, path)
		}
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "read config"), errors.CtxPath, path)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "decode config"), errors.CtxPath, path)
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)
	resolvePaths(&cfg, filepath.Dir(path))

	if err := Validate(&cfg); err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.Scan.Paths) == 0 {
		cfg.Scan.Paths = []string{"."}
	}
	if len(cfg.Scan.Extensions) == 0 {
		cfg.Scan.Extensions = []string{".py"}
	}
	if len(cfg.Scan.IgnoreFiles) == 0 {
		cfg.Scan.IgnoreFiles = []string{".gitignore"}
	}
	if cfg.Scan.Workers <= 0 {
		cfg.Scan.Workers = defaultWorkers()
	}
	if cfg.Scan.MaxFileBytes <= 0 {
		cfg.Scan.MaxFileBytes = defaultMaxFileBytes
	}

	if cfg.Style.MaxLineLength <= 0 {
		cfg.Style.MaxLineLength = 100
	}
	if cfg.Style.MaxFileLines <= 0 {
		cfg.Style.MaxFileLines = 400
	}
	if cfg.Style.IndentWidth <= 0 {
		cfg.Style.IndentWidth = 4
	}

	if strings.TrimSpace(cfg.Output.Log) == "" {
		cfg.Output.Log = defaultLogFile
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = defaultHistoryFile
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}

	for i, ext := range cfg.Scan.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Scan.Extensions[i] = ext
	}
}

func resolvePaths(cfg *Config, base string) {
	if base == "" || base == "." {
		return
	}
	for i, p := range cfg.Scan.Paths {
		cfg.Scan.Paths[i] = resolve(base, p)
	}
	cfg.Policy.PolicyFile = resolve(base, cfg.Policy.PolicyFile)
	cfg.Output.Log = resolve(base, cfg.Output.Log)
	cfg.Output.SARIF = resolve(base, cfg.Output.SARIF)
	cfg.Output.JSON = resolve(base, cfg.Output.JSON)
	cfg.History.Path = resolve(base, cfg.History.Path)
}

func resolve(base, p string) string {
	if strings.TrimSpace(p) == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
