package app

import (
	"bufio"
	"bytes"
	"os"
	"path"
	"path/filepath"
	"strings"

	"pyward/internal/core/errors"
	"pyward/internal/shared/util"

	"github.com/gobwas/glob"
)

// IgnoreMatcher applies gitignore-style patterns to slash-separated paths
// relative to a scan root. Later rules override earlier ones.
type IgnoreMatcher struct {
	rules []ignoreRule
}

type ignoreRule struct {
	source   string
	globs    []glob.Glob
	negate   bool
	dirOnly  bool
	anchored bool
}

// NewIgnoreMatcher compiles patterns in order. Blank lines and comments are
// skipped.
func NewIgnoreMatcher(patterns []string) (*IgnoreMatcher, error) {
	m := &IgnoreMatcher{}
	for _, p := range patterns {
		if err := m.add(p); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// LoadIgnoreMatcher reads each ignore file found directly under root, then
// appends extra patterns. Missing ignore files are not an error.
func LoadIgnoreMatcher(root string, ignoreFiles, extra []string) (*IgnoreMatcher, error) {
	var patterns []string
	for _, name := range ignoreFiles {
		p := filepath.Join(root, name)
		data, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "read ignore file"), errors.CtxPath, p)
		}
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			patterns = append(patterns, sc.Text())
		}
	}
	patterns = append(patterns, extra...)
	return NewIgnoreMatcher(patterns)
}

func (m *IgnoreMatcher) add(line string) error {
	line = strings.TrimSuffix(line, "\r")
	line = trimTrailingSpaces(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	rule := ignoreRule{source: line}
	switch {
	case strings.HasPrefix(line, `\#`), strings.HasPrefix(line, `\!`):
		line = line[1:]
	case strings.HasPrefix(line, "!"):
		rule.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		rule.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	if line == "" {
		return nil
	}
	if strings.Contains(line, "/") {
		rule.anchored = true
		line = strings.TrimPrefix(line, "/")
	}

	for _, variant := range expandDoubleStar(line) {
		g, err := glob.Compile(variant, '/')
		if err != nil {
			return errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "invalid ignore pattern"), errors.CtxRule, rule.source)
		}
		rule.globs = append(rule.globs, g)
	}
	m.rules = append(m.rules, rule)
	return nil
}

// Match reports whether rel itself is ignored, without looking at its parent
// directories.
func (m *IgnoreMatcher) Match(rel string, isDir bool) bool {
	if m == nil {
		return false
	}
	rel = util.NormalizePatternPath(rel)
	if rel == "" {
		return false
	}
	base := path.Base(rel)

	ignored := false
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		target := base
		if r.anchored {
			target = rel
		}
		if r.matches(target) {
			ignored = !r.negate
		}
	}
	return ignored
}

// Ignored reports whether rel or any of its parent directories is ignored. A
// file inside an ignored directory cannot be re-included.
func (m *IgnoreMatcher) Ignored(rel string, isDir bool) bool {
	rel = util.NormalizePatternPath(rel)
	parts := strings.Split(rel, "/")
	for i := 1; i < len(parts); i++ {
		if m.Match(strings.Join(parts[:i], "/"), true) {
			return true
		}
	}
	return m.Match(rel, isDir)
}

func (m *IgnoreMatcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}

func (r ignoreRule) matches(target string) bool {
	for _, g := range r.globs {
		if g.Match(target) {
			return true
		}
	}
	return false
}

// expandDoubleStar adds the variants where a "**/" segment matches zero
// directories, since the glob library requires at least the separator.
func expandDoubleStar(pattern string) []string {
	seen := map[string]bool{pattern: true}
	queue := []string{pattern}
	for i := 0; i < len(queue); i++ {
		p := queue[i]
		var next []string
		if strings.HasPrefix(p, "**/") {
			next = append(next, p[3:])
		}
		if idx := strings.Index(p, "/**/"); idx >= 0 {
			next = append(next, p[:idx]+p[idx+3:])
		}
		for _, n := range next {
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return queue
}

func trimTrailingSpaces(line string) string {
	for strings.HasSuffix(line, " ") && !strings.HasSuffix(line, `\ `) {
		line = line[:len(line)-1]
	}
	return line
}
