package config

import (
	"testing"

	"pyward/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPolicyFile(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "policy.toml", "allowed = [\"os\"]\nprohibited = [\"requests,socket\"]\ndisallowed_calls = [\"compile\"]\n"},
		{"yaml", "policy.yaml", "allowed:\n  - os\nprohibited:\n  - requests\n  - socket\ndisallowed_calls: [compile]\n"},
		{"yml", "policy.yml", "allowed: [os]\nprohibited: [\"requests, socket\"]\ndisallowed_calls: [compile]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf, err := LoadPolicyFile(writeFile(t, dir, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, []string{"os"}, pf.Allowed)
			assert.Equal(t, []string{"requests", "socket"}, pf.Prohibited)
			assert.Equal(t, []string{"compile"}, pf.DisallowedCalls)
		})
	}
}

func TestLoadPolicyFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadPolicyFile(writeFile(t, dir, "policy.json", "{}"))
	assert.True(t, errors.IsCode(err, errors.CodeNotSupported))

	_, err = LoadPolicyFile(dir + "/absent.toml")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	_, err = LoadPolicyFile(writeFile(t, dir, "broken.yaml", "allowed: [os\n"))
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestResolvePolicy(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Policy.Allowed = []string{"os,sys"}
	cfg.Policy.Prohibited = []string{"requests"}

	allowed, prohibited, calls, err := cfg.ResolvePolicy()
	require.NoError(t, err)
	assert.Equal(t, []string{"os", "sys"}, allowed)
	assert.Equal(t, []string{"requests"}, prohibited)
	assert.Empty(t, calls)

	cfg.Policy.PolicyFile = writeFile(t, dir, "p.yaml", "prohibited: [socket]\n")
	_, prohibited, _, err = cfg.ResolvePolicy()
	require.NoError(t, err)
	assert.Equal(t, []string{"requests", "socket"}, prohibited)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitList([]string{"a,b", " c ", ",", ""}))
	assert.Nil(t, SplitList(nil))
}
