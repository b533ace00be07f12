package config

import (
	"os"
	"path/filepath"
	"strings"

	"pyward/internal/core/errors"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// PolicyFile is the on-disk shape of a standalone policy file.
type PolicyFile struct {
	Allowed         []string `toml:"allowed" yaml:"allowed"`
	Prohibited      []string `toml:"prohibited" yaml:"prohibited"`
	DisallowedCalls []string `toml:"disallowed_calls" yaml:"disallowed_calls"`
}

// LoadPolicyFile decodes a TOML or YAML policy file, chosen by extension.
func LoadPolicyFile(path string) (*PolicyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := errors.CodeIO
		if os.IsNotExist(err) {
			code = errors.CodeNotFound
		}
		return nil, errors.AddContext(errors.Wrap(err, code, "read policy file"), errors.CtxPath, path)
	}

	var pf PolicyFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err = toml.Decode(string(data), &pf)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &pf)
	default:
		return nil, errors.AddContext(
			errors.New(errors.CodeNotSupported, "policy file must be .toml, .yaml or .yml"),
			errors.CtxPath, path)
	}
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "decode policy file"), errors.CtxPath, path)
	}

	pf.Allowed = SplitList(pf.Allowed)
	pf.Prohibited = SplitList(pf.Prohibited)
	pf.DisallowedCalls = SplitList(pf.DisallowedCalls)
	return &pf, nil
}

// ResolvePolicy merges the inline [policy] lists with the policy file, if any.
func (c *Config) ResolvePolicy() (allowed, prohibited, calls []string, err error) {
	allowed = SplitList(c.Policy.Allowed)
	prohibited = SplitList(c.Policy.Prohibited)
	calls = SplitList(c.Policy.DisallowedCalls)
	if strings.TrimSpace(c.Policy.PolicyFile) == "" {
		return allowed, prohibited, calls, nil
	}
	pf, err := LoadPolicyFile(c.Policy.PolicyFile)
	if err != nil {
		return nil, nil, nil, err
	}
	return append(allowed, pf.Allowed...), append(prohibited, pf.Prohibited...), append(calls, pf.DisallowedCalls...), nil
}

// SplitList flattens comma-separated entries and drops blanks, so
// ["a,b", " c "] becomes ["a", "b", "c"].
func SplitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
