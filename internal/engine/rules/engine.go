package rules

import (
	"context"
	"time"

	"pyward/internal/engine/parser"
	"pyward/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Families selects which rule families run.
type Families struct {
	Semantic bool
	Style    bool
}

var AllFamilies = Families{Semantic: true, Style: true}

// Engine runs the syntax extractor and both rule engines over one file's
// content. It holds only read-only state and is safe for concurrent use.
type Engine struct {
	parser   *parser.Parser
	policy   PolicyConfig
	lexical  *LexicalEngine
	families Families
}

func NewEngine(policy PolicyConfig, style StyleConfig, families Families) *Engine {
	return &Engine{
		parser:   parser.NewParser(policy.DisallowedCalls()),
		policy:   policy,
		lexical:  NewLexicalEngine(style),
		families: families,
	}
}

func (e *Engine) Policy() PolicyConfig {
	return e.policy
}

func (e *Engine) StyleConfig() StyleConfig {
	return e.lexical.Config()
}

func (e *Engine) Families() Families {
	return e.families
}

// Analyze evaluates content and returns the aggregated report. The error is
// reserved for internal parser failures; malformed source is a report.
func (e *Engine) Analyze(ctx context.Context, path, relPath string, content []byte) (FileReport, error) {
	_, span := observability.Tracer.Start(ctx, "rules.Analyze", trace.WithAttributes(
		attribute.String("path", relPath),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.FileAnalysisDuration.Observe(time.Since(start).Seconds())
	}()

	var semantic *SemanticResult
	if e.families.Semantic {
		file, err := e.parser.ParseFile(path, content)
		if err != nil {
			span.RecordError(err)
			return FileReport{}, err
		}
		res := EvaluateSemantic(file, e.policy)
		semantic = &res
	}

	var style []CheckResult
	if e.families.Style && (semantic == nil || semantic.ParseError == nil) {
		style = e.lexical.Evaluate(content)
	}

	report := Aggregate(path, relPath, semantic, style)
	span.SetAttributes(attribute.String("status", report.Status().String()))
	return report, nil
}
