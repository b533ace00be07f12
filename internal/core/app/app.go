package app

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"pyward/internal/core/config"
	"pyward/internal/core/errors"
	"pyward/internal/data/history"
	"pyward/internal/engine/rules"
	"pyward/internal/shared/util"
	"pyward/internal/ui/report"

	"github.com/google/uuid"
)

// Options selects what one invocation evaluates.
type Options struct {
	Command  string
	Families rules.Families
	Policy   rules.PolicyConfig
}

type App struct {
	Config *config.Config

	command  string
	engine   *rules.Engine
	scanner  *Scanner
	selector *Selector
	history  *history.Store
}

// ScanResult is the ordered outcome of one scan invocation.
type ScanResult struct {
	RunID      string
	Command    string
	Roots      []string
	StartedAt  time.Time
	FinishedAt time.Time
	Families   rules.Families
	Reports    []rules.FileReport
	Partial    bool
}

func (r *ScanResult) Summary() report.Summary {
	return report.Summarize(r.Reports, r.Partial)
}

// Failed reports whether any file has a violation of a family that ran.
func (r *ScanResult) Failed() bool {
	for _, rep := range r.Reports {
		if rep.Status().Failed() {
			return true
		}
	}
	return false
}

// scanRoot is a selected root with the ignore rules loaded from it.
type scanRoot struct {
	path    string
	abs     string
	matcher *IgnoreMatcher
}

func New(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	styleCfg := StyleConfig(cfg)
	engine := rules.NewEngine(opts.Policy, styleCfg, opts.Families)

	a := &App{
		Config:  cfg,
		command: opts.Command,
		engine:  engine,
		scanner: NewScanner(engine, ScanOptions{
			Workers:        cfg.Scan.Workers,
			MaxFileBytes:   cfg.Scan.MaxFileBytes,
			FilesPerSecond: cfg.Scan.FilesPerSecond,
		}),
		selector: NewSelector(cfg.Scan.Extensions, cfg.Scan.IgnoreFiles, cfg.Exclude.Patterns),
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "open history store"), errors.CtxPath, cfg.History.Path)
		}
		a.history = store
	}
	return a, nil
}

func (a *App) Close() error {
	return a.history.Close()
}

func (a *App) Engine() *rules.Engine {
	return a.engine
}

func (a *App) History() *history.Store {
	return a.history
}

// StyleConfig maps the [style] section onto the lexical thresholds.
func StyleConfig(cfg *config.Config) rules.StyleConfig {
	return rules.StyleConfig{
		MaxLineLength: cfg.Style.MaxLineLength,
		MaxFileLines:  cfg.Style.MaxFileLines,
		IndentWidth:   cfg.Style.IndentWidth,
	}
}

// Select resolves every root to its files. A missing root fails before any
// file is analysed. With several roots, relative paths keep the root prefix
// so they stay distinguishable. A file reached from two roots is scanned once.
func (a *App) Select(roots []string) ([]Target, error) {
	targets, _, err := a.selectRoots(roots)
	return targets, err
}

func (a *App) selectRoots(roots []string) ([]Target, []scanRoot, error) {
	var (
		targets  []Target
		selected []scanRoot
		seen     = make(map[string]bool)
	)
	for _, root := range roots {
		files, matcher, err := a.selector.Select(root)
		if err != nil {
			return nil, nil, err
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			abs = root
		}
		selected = append(selected, scanRoot{path: root, abs: abs, matcher: matcher})

		for _, f := range files {
			key, err := filepath.Abs(f.Path)
			if err != nil {
				key = f.Path
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			if len(roots) > 1 {
				f.RelPath = util.NormalizePatternPath(f.Path)
			}
			targets = append(targets, f)
		}
		slog.Debug("selected files", "root", root, "files", len(files), "ignore_rules", matcher.Len())
	}
	return targets, selected, nil
}

// Scan selects and analyses every file under roots.
func (a *App) Scan(ctx context.Context, roots []string) (*ScanResult, error) {
	targets, err := a.Select(roots)
	if err != nil {
		return nil, err
	}
	return a.ScanTargets(ctx, roots, targets)
}

func (a *App) ScanTargets(ctx context.Context, roots []string, targets []Target) (*ScanResult, error) {
	result := &ScanResult{
		RunID:     uuid.NewString(),
		Command:   a.command,
		Roots:     roots,
		StartedAt: time.Now(),
		Families:  a.engine.Families(),
	}
	reports, partial, err := a.scanner.Scan(ctx, targets)
	if err != nil {
		return nil, err
	}
	result.Reports = reports
	result.Partial = partial
	result.FinishedAt = time.Now()

	slog.Info("scan complete",
		"run_id", result.RunID,
		"files", len(reports),
		"partial", partial,
		"duration", result.FinishedAt.Sub(result.StartedAt),
	)
	return result, nil
}

// Record persists a scan in the history store, when enabled.
func (a *App) Record(ctx context.Context, result *ScanResult) error {
	if a.history == nil || result == nil {
		return nil
	}
	summary := result.Summary()
	run := history.Run{
		ID:             result.RunID,
		Command:        result.Command,
		Roots:          result.Roots,
		StartedAt:      result.StartedAt,
		FinishedAt:     result.FinishedAt,
		FileCount:      summary.Files,
		FailedCount:    summary.Failed,
		ViolationCount: summary.Violations,
		Partial:        result.Partial,
		KindCounts:     summary.KindCounts(),
	}
	files := make([]history.FileResult, 0, len(result.Reports))
	for _, r := range result.Reports {
		files = append(files, history.FileResult{
			Path:           r.RelPath,
			Status:         r.Status().String(),
			ViolationCount: len(r.Violations()),
		})
	}
	if err := a.history.SaveRun(ctx, run, files); err != nil {
		return errors.Wrap(err, errors.CodeIO, "save scan history")
	}
	return nil
}
