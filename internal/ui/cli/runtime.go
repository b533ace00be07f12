package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"pyward/internal/core/app"
	"pyward/internal/core/config"
	coreerrors "pyward/internal/core/errors"
	"pyward/internal/engine/parser"
	"pyward/internal/engine/rules"
	"pyward/internal/shared/version"
	"pyward/internal/ui/report"
)

// Run executes one command and returns the process exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return run(ctx, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	g, rest, err := parseGlobal(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitClean
		}
		return ExitError
	}
	if len(rest) == 0 {
		fmt.Fprint(stderr, usage)
		return ExitError
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "version":
		fmt.Fprintf(stdout, "pyward %s\n", version.Version)
		return ExitClean
	case "policy":
		opts, err := parsePolicyOptions(cmdArgs, stderr, &g)
		if err != nil {
			return usageError(stderr, err)
		}
		configureLogging(g.verbose, stderr)
		return runPolicy(ctx, g, opts, stdout, stderr)
	case "style":
		opts, err := parseStyleOptions(cmdArgs, stderr, &g)
		if err != nil {
			return usageError(stderr, err)
		}
		configureLogging(g.verbose, stderr)
		return runStyle(ctx, g, opts, stdout, stderr)
	case "scan", "watch", "history":
		opts, err := parseConfigOptions(cmd, cmdArgs, stderr, &g)
		if err != nil {
			return usageError(stderr, err)
		}
		configureLogging(g.verbose, stderr)
		cfg, err := loadConfig(opts.configPath)
		if err != nil {
			return fail(stderr, "failed to load config", err)
		}
		switch cmd {
		case "scan":
			return runScan(ctx, g, cfg, opts, stdout, stderr)
		case "watch":
			return runWatch(ctx, g, cfg, opts, stdout, stderr)
		default:
			return runHistory(ctx, cfg, opts, stdout, stderr)
		}
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return ExitError
	}
}

func usageError(stderr io.Writer, err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return ExitClean
	}
	fmt.Fprintln(stderr, err.Error())
	return ExitError
}

// fail reports a fatal error and returns the matching exit code.
func fail(stderr io.Writer, msg string, err error) int {
	slog.Error(msg, "error", err, "code", string(coreerrors.CodeOf(err)))
	fmt.Fprintf(stderr, "error: %s: %v\n", msg, err)
	return ExitError
}

// Logs go to stderr so the console report on stdout stays clean.
func configureLogging(verbose bool, w io.Writer) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadConfig falls back to defaults when the default config file is absent.
// An explicitly named config file must exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if path == config.DefaultFileName && coreerrors.IsCode(err, coreerrors.CodeNotFound) {
		slog.Debug("no config file found, using defaults", "path", path)
		return flagConfig()
	}
	return nil, err
}

// flagConfig is the configuration used by the flag-driven commands:
// defaults plus environment overrides.
func flagConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	config.ApplyEnvOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withDefaultCalls extends the built-in disallowed set rather than replacing it.
func withDefaultCalls(extra []string) []string {
	calls := append([]string(nil), parser.DefaultDisallowedCalls...)
	return append(calls, extra...)
}

func newConsole(w io.Writer, g globalOptions, cfg *config.Config) *report.Console {
	color := !g.noColor && cfg.ColorEnabled() && strings.TrimSpace(os.Getenv("NO_COLOR")) == ""
	return report.NewConsole(w, color)
}

// exitCode maps a finished scan onto the process exit code.
func exitCode(g globalOptions, result *app.ScanResult) int {
	switch {
	case result.Partial:
		return ExitInterrupted
	case result.Failed() && !g.exitZero:
		return ExitViolations
	default:
		return ExitClean
	}
}

func policyFromConfig(cfg *config.Config) (rules.PolicyConfig, error) {
	allowed, prohibited, calls, err := cfg.ResolvePolicy()
	if err != nil {
		return rules.PolicyConfig{}, err
	}
	return rules.NewPolicyConfig(allowed, prohibited, withDefaultCalls(calls)), nil
}
