// # internal/ui/report/formats/sarif.go
package formats

import (
	"encoding/json"
	"fmt"
	"strings"

	"pyward/internal/engine/rules"
	"pyward/internal/shared/version"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"
)

// sarifReport is the top-level SARIF document.
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	FullDescription  sarifMessage           `json:"fullDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	RuleIndex int             `json:"ruleIndex"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine int `json:"startLine,omitempty"`
}

// RuleCode returns the stable SARIF rule id for a violation kind.
func RuleCode(kind rules.Kind) string {
	switch kind {
	case rules.KindReadError:
		return "PYW001"
	case rules.KindParseError:
		return "PYW002"
	case rules.KindDisallowedCall:
		return "PYW003"
	case rules.KindProhibitedImport:
		return "PYW004"
	}
	for i, id := range rules.StyleRuleIDs {
		if kind.Rule() == id {
			return fmt.Sprintf("PYW1%02d", i+1)
		}
	}
	return "PYW000"
}

// GenerateSARIF builds a SARIF v2.1.0 document with one rule per violation
// kind and one result per offending line. URIs are the reports' relative
// paths, never absolute ones.
func GenerateSARIF(reports []rules.FileReport) ([]byte, error) {
	catalogue := rules.Catalogue()
	sarifRules := make([]sarifRule, 0, len(catalogue))
	index := make(map[rules.Kind]int, len(catalogue))
	levels := make(map[rules.Kind]string, len(catalogue))
	for i, info := range catalogue {
		index[info.Kind] = i
		levels[info.Kind] = info.Level
		sarifRules = append(sarifRules, sarifRule{
			ID:               RuleCode(info.Kind),
			Name:             string(info.Kind),
			ShortDescription: sarifMessage{Text: info.Title},
			FullDescription:  sarifMessage{Text: info.Summary},
			DefaultConfig:    sarifRuleDefaultConfig{Level: info.Level},
		})
	}

	results := make([]sarifResult, 0)
	for _, r := range reports {
		uri := relativeURI(r.RelPath, r.Path)
		for _, v := range r.Violations() {
			base := sarifResult{
				RuleID:    RuleCode(v.Kind),
				RuleIndex: index[v.Kind],
				Level:     levels[v.Kind],
				Message:   sarifMessage{Text: resultMessage(v)},
			}
			if len(v.Lines) == 0 {
				base.Locations = []sarifLocation{location(uri, 0)}
				results = append(results, base)
				continue
			}
			for _, line := range v.Lines {
				res := base
				res.Locations = []sarifLocation{location(uri, line)}
				results = append(results, res)
			}
		}
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "pyward",
						Version: version.Version,
						Rules:   sarifRules,
					},
				},
				Results: results,
			},
		},
	}
	return json.MarshalIndent(report, "", "  ")
}

func location(uri string, line int) sarifLocation {
	loc := sarifLocation{
		PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{
				URI:       uri,
				URIBaseID: "%SRCROOT%",
			},
		},
	}
	if line > 0 {
		loc.PhysicalLocation.Region = &sarifRegion{StartLine: line}
	}
	return loc
}

func resultMessage(v rules.Violation) string {
	switch v.Kind {
	case rules.KindReadError:
		return "Could not read file: " + strings.Join(v.Evidence, "; ")
	case rules.KindParseError:
		return "Syntax error in file: " + strings.Join(v.Evidence, "; ")
	case rules.KindDisallowedCall:
		return fmt.Sprintf("Uses prohibited built-in %q", v.Name)
	case rules.KindProhibitedImport:
		return fmt.Sprintf("Imports prohibited module %q", v.Name)
	}
	switch v.Kind.Rule() {
	case rules.RuleFileLength:
		return fmt.Sprintf("File too long: %d lines", v.Count)
	case rules.RuleWildcardImport:
		return "Wildcard import: " + strings.Join(v.Evidence, "; ")
	}
	for _, info := range rules.Catalogue() {
		if info.Kind == v.Kind {
			return info.Summary
		}
	}
	return string(v.Kind)
}
