package rules

import (
	"sort"
	"strings"

	"pyward/internal/engine/parser"
)

// PolicyConfig is the read-only import and call policy for one scan. Build it
// with NewPolicyConfig; the zero value allows everything and flags the
// default disallowed calls.
type PolicyConfig struct {
	allowed    []string
	prohibited []string
	disallowed map[string]bool
}

// NewPolicyConfig normalises the name lists (trimmed, de-duplicated, sorted).
// Empty lists are valid and match nothing. An empty disallowedCalls list
// selects parser.DefaultDisallowedCalls.
func NewPolicyConfig(allowed, prohibited, disallowedCalls []string) PolicyConfig {
	if len(normalizeNames(disallowedCalls)) == 0 {
		disallowedCalls = parser.DefaultDisallowedCalls
	}
	calls := normalizeNames(disallowedCalls)
	disallowed := make(map[string]bool, len(calls))
	for _, name := range calls {
		disallowed[name] = true
	}
	return PolicyConfig{
		allowed:    normalizeNames(allowed),
		prohibited: normalizeNames(prohibited),
		disallowed: disallowed,
	}
}

func (p PolicyConfig) Allowed() []string {
	return append([]string(nil), p.allowed...)
}

func (p PolicyConfig) Prohibited() []string {
	return append([]string(nil), p.prohibited...)
}

func (p PolicyConfig) DisallowedCalls() []string {
	if p.disallowed == nil {
		return append([]string(nil), parser.DefaultDisallowedCalls...)
	}
	out := make([]string, 0, len(p.disallowed))
	for name := range p.disallowed {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (p PolicyConfig) IsAllowed(name string) bool {
	return matchesAny(name, p.allowed)
}

func (p PolicyConfig) IsProhibited(name string) bool {
	return matchesAny(name, p.prohibited)
}

func (p PolicyConfig) IsDisallowedCall(name string) bool {
	if p.disallowed == nil {
		for _, def := range parser.DefaultDisallowedCalls {
			if def == name {
				return true
			}
		}
		return false
	}
	return p.disallowed[name]
}

// MatchesRule reports whether a dotted module name equals rule or lies
// beneath it: "a.b" matches "a.b" and "a.b.c" but not "a.bc".
func MatchesRule(name, rule string) bool {
	if rule == "" {
		return false
	}
	return name == rule || strings.HasPrefix(name, rule+".")
}

func matchesAny(name string, rules []string) bool {
	for _, rule := range rules {
		if MatchesRule(name, rule) {
			return true
		}
	}
	return false
}

func normalizeNames(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
