package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnoreMatcher(t *testing.T) {
	m, err := NewIgnoreMatcher([]string{
		"# comment",
		"",
		"*.gen.py",
		"!keep.gen.py",
		"build/",
		"/top.py",
		"docs/*.py",
		"**/fixtures/**",
		`\#hash.py`,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, m.Len())

	tests := []struct {
		rel   string
		isDir bool
		want  bool
	}{
		{"a.gen.py", false, true},
		{"pkg/a.gen.py", false, true},
		{"keep.gen.py", false, false},
		{"build", true, true},
		{"build", false, false},
		{"pkg/build", true, true},
		{"top.py", false, true},
		{"pkg/top.py", false, false},
		{"docs/a.py", false, true},
		{"docs/sub/a.py", false, false},
		{"fixtures/a.py", false, true},
		{"pkg/fixtures/deep/a.py", false, true},
		{"#hash.py", false, true},
		{"main.py", false, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.Match(tt.rel, tt.isDir), "rel=%s dir=%v", tt.rel, tt.isDir)
	}
}

func TestIgnoreMatcher_IgnoredChecksParents(t *testing.T) {
	m, err := NewIgnoreMatcher([]string{"vendor/", "!vendor/keep.py"})
	require.NoError(t, err)

	assert.False(t, m.Match("vendor/keep.py", false))
	assert.True(t, m.Ignored("vendor/keep.py", false))
	assert.True(t, m.Ignored("vendor/other.py", false))
	assert.False(t, m.Ignored("src/main.py", false))
}

func TestIgnoreMatcher_NilIsEmpty(t *testing.T) {
	var m *IgnoreMatcher
	assert.False(t, m.Match("a.py", false))
	assert.False(t, m.Ignored("dir/a.py", false))
	assert.Zero(t, m.Len())
}

func TestLoadIgnoreMatcher(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("venv/\r\n*.tmp.py  \n"), 0o644))

	m, err := LoadIgnoreMatcher(root, []string{".gitignore", ".missingignore"}, []string{"generated.py"})
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())
	assert.True(t, m.Match("venv", true))
	assert.True(t, m.Match("x.tmp.py", false))
	assert.True(t, m.Match("generated.py", false))
}
