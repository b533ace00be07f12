package config

import (
	"fmt"
	"strings"

	"pyward/internal/core/errors"
)

// Validate checks a defaulted config. Empty policy lists are valid.
func Validate(cfg *Config) error {
	for _, check := range []func(*Config) error{
		validateScan,
		validatePolicy,
		validateStyle,
		validateOutput,
		validateWatch,
	} {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.CodeValidationError, fmt.Sprintf(format, args...))
}

func validateScan(cfg *Config) error {
	for i, p := range cfg.Scan.Paths {
		if strings.TrimSpace(p) == "" {
			return invalid("scan.paths[%d] must not be empty", i)
		}
	}
	for i, ext := range cfg.Scan.Extensions {
		if ext == "" || ext == "." {
			return invalid("scan.extensions[%d] must not be empty", i)
		}
	}
	if cfg.Scan.FilesPerSecond < 0 {
		return invalid("scan.files_per_second must be >= 0, got %v", cfg.Scan.FilesPerSecond)
	}
	return nil
}

func validatePolicy(cfg *Config) error {
	for i, name := range cfg.Policy.DisallowedCalls {
		if !isIdentifier(strings.TrimSpace(name)) {
			return invalid("policy.disallowed_calls[%d] %q is not a valid identifier", i, name)
		}
	}
	return nil
}

func validateStyle(cfg *Config) error {
	if cfg.Style.IndentWidth > 16 {
		return invalid("style.indent_width must be <= 16, got %d", cfg.Style.IndentWidth)
	}
	return nil
}

func validateOutput(cfg *Config) error {
	seen := make(map[string]string, 3)
	for key, p := range map[string]string{
		"output.log":   cfg.Output.Log,
		"output.sarif": cfg.Output.SARIF,
		"output.json":  cfg.Output.JSON,
	} {
		if p == "" {
			continue
		}
		if other, ok := seen[p]; ok {
			return invalid("%s and %s point to the same file %q", other, key, p)
		}
		seen[p] = key
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return invalid("watch.debounce must not be negative")
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
