package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies PYWARD_[SECTION]_[KEY] environment overrides.
func ApplyEnvOverrides(cfg *Config) {
	setEnvInt(&cfg.Scan.Workers, "PYWARD_SCAN_WORKERS")
	setEnvFloat64(&cfg.Scan.FilesPerSecond, "PYWARD_SCAN_FILES_PER_SECOND")

	setEnvList(&cfg.Policy.Allowed, "PYWARD_POLICY_ALLOWED")
	setEnvList(&cfg.Policy.Prohibited, "PYWARD_POLICY_PROHIBITED")

	setEnvBool(&cfg.History.Enabled, "PYWARD_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "PYWARD_HISTORY_PATH")

	setEnvDuration(&cfg.Watch.Debounce, "PYWARD_WATCH_DEBOUNCE")

	setEnvString(&cfg.Observability.MetricsAddr, "PYWARD_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "PYWARD_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

// Comma separated.
func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = SplitList([]string{val})
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
