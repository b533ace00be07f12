package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"pyward/internal/core/app"
	"pyward/internal/core/config"
	coreerrors "pyward/internal/core/errors"
	"pyward/internal/data/history"
	"pyward/internal/engine/rules"
	"pyward/internal/ui/report"
)

func runPolicy(ctx context.Context, g globalOptions, opts policyOptions, stdout, stderr io.Writer) int {
	if _, err := os.Stat(opts.root); err != nil {
		return fail(stderr, "invalid root", coreerrors.AddContext(
			coreerrors.Wrap(err, coreerrors.CodeNotFound, "root does not exist"), coreerrors.CtxPath, opts.root))
	}
	if info, err := os.Stat(opts.logFile); err == nil && info.IsDir() {
		return fail(stderr, "invalid log file", coreerrors.AddContext(
			coreerrors.New(coreerrors.CodeValidationError, "log file is a directory"), coreerrors.CtxPath, opts.logFile))
	}

	cfg, err := flagConfig()
	if err != nil {
		return fail(stderr, "invalid configuration", err)
	}
	if opts.workers > 0 {
		cfg.Scan.Workers = opts.workers
	}

	allowed := append([]string(nil), opts.allowed...)
	prohibited := append([]string(nil), opts.prohibited...)
	calls := append([]string(nil), opts.disallowCall...)
	if opts.policyFile != "" {
		pf, err := config.LoadPolicyFile(opts.policyFile)
		if err != nil {
			return fail(stderr, "failed to load policy file", err)
		}
		allowed = append(allowed, pf.Allowed...)
		prohibited = append(prohibited, pf.Prohibited...)
		calls = append(calls, pf.DisallowedCalls...)
	}

	a, err := app.New(cfg, app.Options{
		Command:  "policy",
		Families: rules.Families{Semantic: true},
		Policy:   rules.NewPolicyConfig(allowed, prohibited, withDefaultCalls(calls)),
	})
	if err != nil {
		return fail(stderr, "failed to initialize", err)
	}
	defer a.Close()

	result, err := a.Scan(ctx, []string{opts.root})
	if err != nil {
		return fail(stderr, "scan failed", err)
	}

	console := newConsole(stdout, g, cfg)
	for _, r := range result.Reports {
		console.PrintPolicy(r)
	}
	if err := report.WritePolicyLog(opts.logFile, result.Reports); err != nil {
		return fail(stderr, "failed to write log", coreerrors.Wrap(err, coreerrors.CodeIO, "write policy log"))
	}
	console.Completed(opts.logFile)
	return exitCode(g, result)
}

func runStyle(ctx context.Context, g globalOptions, opts styleOptions, stdout, stderr io.Writer) int {
	cfg, err := flagConfig()
	if err != nil {
		return fail(stderr, "invalid configuration", err)
	}
	if opts.maxLineLength > 0 {
		cfg.Style.MaxLineLength = opts.maxLineLength
	}
	if opts.maxFileLines > 0 {
		cfg.Style.MaxFileLines = opts.maxFileLines
	}
	if opts.workers > 0 {
		cfg.Scan.Workers = opts.workers
	}

	a, err := app.New(cfg, app.Options{
		Command:  "style",
		Families: rules.Families{Style: true},
		Policy:   rules.NewPolicyConfig(nil, nil, nil),
	})
	if err != nil {
		return fail(stderr, "failed to initialize", err)
	}
	defer a.Close()

	roots := []string{opts.path}
	targets, err := a.Select(roots)
	if err != nil {
		return fail(stderr, "invalid path", err)
	}
	console := newConsole(stdout, g, cfg)
	if len(targets) == 0 {
		console.Info("No Python files found in %s", opts.path)
		return ExitClean
	}

	result, err := a.ScanTargets(ctx, roots, targets)
	if err != nil {
		return fail(stderr, "scan failed", err)
	}

	styleCfg := a.Engine().StyleConfig()
	if opts.outDir == "" {
		for _, r := range result.Reports {
			console.PrintStyle(r, styleCfg)
		}
		console.PrintSummary(result.Summary())
		return exitCode(g, result)
	}

	path, err := report.WriteStyleLog(opts.outDir, result.Reports, styleCfg)
	if err != nil {
		return fail(stderr, "failed to write log", coreerrors.Wrap(err, coreerrors.CodeIO, "write style log"))
	}
	console.PrintSummary(result.Summary())
	console.Completed(path)
	return exitCode(g, result)
}

func scanRoots(cfg *config.Config, opts configOptions) []string {
	if len(opts.args) > 0 {
		return opts.args
	}
	return cfg.Scan.Paths
}

func newConfiguredApp(cfg *config.Config, command string) (*app.App, error) {
	policy, err := policyFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return app.New(cfg, app.Options{
		Command:  command,
		Families: rules.AllFamilies,
		Policy:   policy,
	})
}

func runScan(ctx context.Context, g globalOptions, cfg *config.Config, opts configOptions, stdout, stderr io.Writer) int {
	a, err := newConfiguredApp(cfg, "scan")
	if err != nil {
		return fail(stderr, "failed to initialize", err)
	}
	defer a.Close()

	stopObservability, err := a.StartObservability(ctx)
	if err != nil {
		return fail(stderr, "failed to start observability", err)
	}
	defer stopObservability()

	result, err := a.Scan(ctx, scanRoots(cfg, opts))
	if err != nil {
		return fail(stderr, "scan failed", err)
	}

	console := newConsole(stdout, g, cfg)
	printFindings(console, result, a.Engine().StyleConfig())
	console.PrintSummary(result.Summary())

	// The history row and outputs are written even for an interrupted scan.
	if err := a.Record(context.WithoutCancel(ctx), result); err != nil {
		slog.Warn("failed to record scan history", "run_id", result.RunID, "error", err)
	}
	paths, err := a.WriteOutputs(result)
	if err != nil {
		return fail(stderr, "failed to write outputs", err)
	}
	printOutputs(console, paths)
	return exitCode(g, result)
}

func runWatch(ctx context.Context, g globalOptions, cfg *config.Config, opts configOptions, stdout, stderr io.Writer) int {
	a, err := newConfiguredApp(cfg, "watch")
	if err != nil {
		return fail(stderr, "failed to initialize", err)
	}
	defer a.Close()

	stopObservability, err := a.StartObservability(ctx)
	if err != nil {
		return fail(stderr, "failed to start observability", err)
	}
	defer stopObservability()

	console := newConsole(stdout, g, cfg)
	err = a.Watch(ctx, scanRoots(cfg, opts), func(result *app.ScanResult) {
		console.Info("[%s] run %s", result.FinishedAt.Format(time.TimeOnly), result.RunID)
		printFindings(console, result, a.Engine().StyleConfig())
		console.PrintSummary(result.Summary())
		if _, err := a.WriteOutputs(result); err != nil {
			slog.Error("failed to write outputs", "run_id", result.RunID, "error", err)
		}
	})
	if err != nil {
		return fail(stderr, "watch failed", err)
	}
	return ExitClean
}

func printFindings(console *report.Console, result *app.ScanResult, styleCfg rules.StyleConfig) {
	for _, r := range result.Reports {
		if r.Status().Failed() {
			console.PrintFindings(r, styleCfg)
		}
	}
}

func printOutputs(console *report.Console, paths app.OutputPaths) {
	if paths.SARIF != "" {
		console.Info("SARIF report: %s", paths.SARIF)
	}
	if paths.JSON != "" {
		console.Info("JSON report: %s", paths.JSON)
	}
	if paths.Log != "" {
		console.Completed(paths.Log)
	}
}

func runHistory(ctx context.Context, cfg *config.Config, opts configOptions, stdout, stderr io.Writer) int {
	if _, err := os.Stat(cfg.History.Path); err != nil {
		fmt.Fprintf(stdout, "No scan history at %s\n", cfg.History.Path)
		return ExitClean
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return fail(stderr, "failed to open history", err)
	}
	defer store.Close()

	runs, err := store.RecentRuns(ctx, opts.limit)
	if err != nil {
		return fail(stderr, "failed to read history", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "No scan runs recorded")
		return ExitClean
	}
	writeHistory(stdout, history.BuildTrends(runs))
	return ExitClean
}

func writeHistory(w io.Writer, trends []history.Trend) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRUN\tCOMMAND\tFILES\tFAILED\tVIOLATIONS\tPARTIAL")
	for _, t := range trends {
		r := t.Run
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d (%+d)\t%d (%+d)\t%v\n",
			r.StartedAt.Local().Format(time.DateTime),
			shortID(r.ID),
			r.Command,
			r.FileCount,
			r.FailedCount, t.DeltaFailed,
			r.ViolationCount, t.DeltaViolation,
			r.Partial,
		)
	}
	_ = tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
