package app

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"pyward/internal/core/errors"
	"pyward/internal/shared/util"
)

// Target is one file selected for analysis.
type Target struct {
	Path    string
	RelPath string
}

// Selector discovers source files under a root.
type Selector struct {
	Extensions  []string
	IgnoreFiles []string
	Exclude     []string
}

func NewSelector(extensions, ignoreFiles, exclude []string) *Selector {
	if len(extensions) == 0 {
		extensions = []string{".py"}
	}
	return &Selector{Extensions: extensions, IgnoreFiles: ignoreFiles, Exclude: exclude}
}

// Select walks root in lexical order and returns the matching files. A root
// that is a single file yields at most that file. Ignored directories are
// pruned and never descended into.
func (s *Selector) Select(root string) ([]Target, *IgnoreMatcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, rootError(err, root)
	}

	if !info.IsDir() {
		if !util.HasExtension(root, s.Extensions) {
			return nil, nil, nil
		}
		return []Target{{Path: root, RelPath: filepath.Base(root)}}, nil, nil
	}

	matcher, err := LoadIgnoreMatcher(root, s.IgnoreFiles, s.Exclude)
	if err != nil {
		return nil, nil, err
	}

	var files []Target
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			slog.Warn("skipping unreadable path", "path", p, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if p == root {
			return nil
		}

		rel := util.RelSlash(root, p)
		if d.IsDir() {
			if matcher.Match(rel, true) {
				slog.Debug("pruning ignored directory", "path", rel)
				return filepath.SkipDir
			}
			return nil
		}
		if !util.HasExtension(p, s.Extensions) || !isRegularFile(p, d) {
			return nil
		}
		if matcher.Match(rel, false) {
			return nil
		}
		files = append(files, Target{Path: p, RelPath: rel})
		return nil
	})
	if err != nil {
		return nil, nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "walk scan root"), errors.CtxPath, root)
	}
	return files, matcher, nil
}

func rootError(err error, root string) error {
	code, msg := errors.CodeIO, "stat scan root"
	switch {
	case os.IsNotExist(err):
		code, msg = errors.CodeNotFound, "scan root does not exist"
	case os.IsPermission(err):
		code, msg = errors.CodePermissionDenied, "scan root is not accessible"
	}
	return errors.AddContext(errors.Wrap(err, code, msg), errors.CtxPath, root)
}

// Symlinks count when they resolve to a regular file.
func isRegularFile(p string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
