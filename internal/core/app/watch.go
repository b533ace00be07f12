package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"pyward/internal/core/watcher"
	"pyward/internal/engine/rules"
	"pyward/internal/shared/util"

	"github.com/google/uuid"
)

// Watch runs an initial scan, then re-analyses changed files after each
// debounced batch of file system events. onResult receives the merged
// result after every scan. Watch returns when ctx is cancelled.
func (a *App) Watch(ctx context.Context, roots []string, onResult func(*ScanResult)) error {
	targets, selected, err := a.selectRoots(roots)
	if err != nil {
		return err
	}
	initial, err := a.ScanTargets(ctx, roots, targets)
	if err != nil {
		return err
	}
	a.emit(ctx, initial, onResult)
	if ctx.Err() != nil {
		return nil
	}

	state := newWatchState(initial.Reports)
	batches := make(chan []string, 16)

	w, err := watcher.NewWatcher(a.Config.Watch.Debounce, a.watchExclude(selected), func(paths []string) {
		select {
		case batches <- paths:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}
	w.SetExtensions(a.Config.Scan.Extensions)
	defer w.Close()

	watchPaths := make([]string, 0, len(selected))
	for _, r := range selected {
		if info, statErr := os.Stat(r.abs); statErr == nil && info.IsDir() {
			watchPaths = append(watchPaths, r.abs)
		} else {
			watchPaths = append(watchPaths, filepath.Dir(r.abs))
		}
	}
	if err := w.Watch(watchPaths); err != nil {
		return err
	}
	slog.Info("watching for changes", "roots", roots, "debounce", a.Config.Watch.Debounce)

	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-batches:
			changed := a.resolveChanged(paths, selected, len(roots) > 1)
			var rescan []Target
			for _, c := range changed {
				if c.removed {
					state.remove(c.target.Path)
					continue
				}
				rescan = append(rescan, c.target)
			}

			started := time.Now()
			reports, partial, err := a.scanner.Scan(ctx, rescan)
			if err != nil {
				return err
			}
			for _, r := range reports {
				state.put(r)
			}
			result := &ScanResult{
				RunID:      uuid.NewString(),
				Command:    a.command,
				Roots:      roots,
				StartedAt:  started,
				FinishedAt: time.Now(),
				Families:   a.engine.Families(),
				Reports:    state.reports(),
				Partial:    partial,
			}
			slog.Info("rescanned changed files", "run_id", result.RunID, "changed", len(changed), "files", len(result.Reports))
			a.emit(ctx, result, onResult)
		}
	}
}

func (a *App) emit(ctx context.Context, result *ScanResult, onResult func(*ScanResult)) {
	if err := a.Record(ctx, result); err != nil {
		slog.Warn("failed to record scan", "run_id", result.RunID, "error", err)
	}
	if onResult != nil {
		onResult(result)
	}
}

// watchExclude applies the same ignore rules the initial selection used.
// Paths outside every root, such as siblings of a single-file root, are
// excluded.
func (a *App) watchExclude(roots []scanRoot) watcher.ExcludeFunc {
	return func(path string, isDir bool) bool {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		for _, r := range roots {
			if !util.HasPathPrefix(abs, r.abs) {
				continue
			}
			return r.matcher.Ignored(util.RelSlash(r.abs, abs), isDir)
		}
		return true
	}
}

type changedFile struct {
	target  Target
	removed bool
}

func (a *App) resolveChanged(paths []string, roots []scanRoot, multi bool) []changedFile {
	out := make([]changedFile, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		var (
			target Target
			found  bool
		)
		for _, r := range roots {
			if abs == r.abs {
				target = Target{Path: r.path, RelPath: filepath.Base(r.path)}
				if multi {
					target.RelPath = util.NormalizePatternPath(r.path)
				}
				found = true
				break
			}
			if !util.HasPathPrefix(abs, r.abs) {
				continue
			}
			rel := util.RelSlash(r.abs, abs)
			if r.matcher.Ignored(rel, false) {
				break
			}
			target = Target{Path: filepath.Join(r.path, filepath.FromSlash(rel)), RelPath: rel}
			if multi {
				target.RelPath = util.NormalizePatternPath(target.Path)
			}
			found = true
			break
		}
		if !found || !util.HasExtension(abs, a.selector.Extensions) {
			continue
		}

		info, err := os.Stat(abs)
		removed := err != nil || !info.Mode().IsRegular()
		out = append(out, changedFile{target: target, removed: removed})
	}
	return out
}

// watchState holds the latest report for every file, keyed by path.
type watchState struct {
	byPath map[string]rules.FileReport
}

func newWatchState(reports []rules.FileReport) *watchState {
	s := &watchState{byPath: make(map[string]rules.FileReport, len(reports))}
	for _, r := range reports {
		s.put(r)
	}
	return s
}

func (s *watchState) put(r rules.FileReport) {
	s.byPath[watchKey(r.Path)] = r
}

func (s *watchState) remove(path string) {
	delete(s.byPath, watchKey(path))
}

// reports returns the current reports sorted by relative path.
func (s *watchState) reports() []rules.FileReport {
	out := make([]rules.FileReport, 0, len(s.byPath))
	for _, r := range s.byPath {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RelPath < out[j].RelPath
	})
	return out
}

func watchKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
