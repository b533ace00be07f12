// # internal/ui/report/formats/sarif_test.go
package formats

import (
	"encoding/json"
	"testing"

	"pyward/internal/engine/parser"
	"pyward/internal/engine/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReports() []rules.FileReport {
	semantic := rules.SemanticResult{
		DisallowedCalls:   []rules.Violation{{Kind: rules.KindDisallowedCall, Name: "eval", Lines: []int{3}}},
		ProhibitedImports: []rules.Violation{{Kind: rules.KindProhibitedImport, Name: "requests", Lines: []int{1}}},
	}
	style := []rules.CheckResult{
		{Rule: rules.RuleSemicolon, Violated: true, Lines: []int{2, 5}},
		{Rule: rules.RuleFileLength, Violated: true, Count: 512},
	}
	broken := rules.SemanticResult{ParseError: &parser.ParseError{Line: 4, Column: 1, Message: "invalid syntax"}}
	return []rules.FileReport{
		rules.Aggregate("/abs/pkg/a.py", "pkg/a.py", &semantic, style),
		rules.Aggregate("/abs/b.py", "b.py", &broken, nil),
		rules.Aggregate("/abs/c.py", "c.py", &rules.SemanticResult{}, nil),
	}
}

func TestGenerateSARIF_EmptyResults(t *testing.T) {
	data, err := GenerateSARIF(nil)
	require.NoError(t, err)

	var report sarifReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, sarifSchema, report.Schema)
	assert.Equal(t, sarifVersion, report.Version)
	require.Len(t, report.Runs, 1)
	assert.Empty(t, report.Runs[0].Results)
	assert.Len(t, report.Runs[0].Tool.Driver.Rules, len(rules.Catalogue()))
}

func TestGenerateSARIF_OneResultPerLine(t *testing.T) {
	data, err := GenerateSARIF(sampleReports())
	require.NoError(t, err)

	var report sarifReport
	require.NoError(t, json.Unmarshal(data, &report))
	results := report.Runs[0].Results

	// eval, requests, two semicolon lines, file length, parse error
	require.Len(t, results, 6)

	assert.Equal(t, "PYW003", results[0].RuleID)
	assert.Equal(t, "error", results[0].Level)
	assert.Equal(t, "pkg/a.py", results[0].Locations[0].PhysicalLocation.ArtifactLocation.URI)
	assert.Equal(t, 3, results[0].Locations[0].PhysicalLocation.Region.StartLine)

	assert.Equal(t, "PYW004", results[1].RuleID)
	assert.Contains(t, results[1].Message.Text, "requests")

	assert.Equal(t, RuleCode(rules.StyleKind(rules.RuleSemicolon)), results[2].RuleID)
	assert.Equal(t, 2, results[2].Locations[0].PhysicalLocation.Region.StartLine)
	assert.Equal(t, 5, results[3].Locations[0].PhysicalLocation.Region.StartLine)
	assert.Equal(t, "warning", results[2].Level)

	assert.Equal(t, "PYW107", results[4].RuleID)
	assert.Nil(t, results[4].Locations[0].PhysicalLocation.Region)
	assert.Contains(t, results[4].Message.Text, "512")

	assert.Equal(t, "PYW002", results[5].RuleID)
	assert.Equal(t, "b.py", results[5].Locations[0].PhysicalLocation.ArtifactLocation.URI)

	for _, res := range results {
		rule := report.Runs[0].Tool.Driver.Rules[res.RuleIndex]
		assert.Equal(t, res.RuleID, rule.ID)
	}
}

func TestRuleCode(t *testing.T) {
	assert.Equal(t, "PYW001", RuleCode(rules.KindReadError))
	assert.Equal(t, "PYW101", RuleCode(rules.StyleKind(rules.RuleLineLength)))
	assert.Equal(t, "PYW000", RuleCode(rules.Kind("unknown")))
}
