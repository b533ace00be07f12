package app

import (
	"strings"

	"pyward/internal/core/errors"
	"pyward/internal/shared/util"
	"pyward/internal/ui/report"
	"pyward/internal/ui/report/formats"
)

// OutputPaths lists the files WriteOutputs produced.
type OutputPaths struct {
	Log   string
	SARIF string
	JSON  string
}

// RenderLog renders the plain-text log for the families that ran: the policy
// section first, then the style section.
func (a *App) RenderLog(result *ScanResult) string {
	var sections []string
	if result.Families.Semantic {
		sections = append(sections, report.PolicyLog(result.Reports))
	}
	if result.Families.Style {
		sections = append(sections, strings.TrimRight(report.StyleLog(result.Reports, a.engine.StyleConfig()), "\n"))
	}
	return strings.Join(sections, "\n\n") + "\n"
}

// WriteOutputs writes the configured log, SARIF and JSON files.
func (a *App) WriteOutputs(result *ScanResult) (OutputPaths, error) {
	var out OutputPaths
	cfg := a.Config.Output

	if p := strings.TrimSpace(cfg.Log); p != "" {
		if err := util.WriteStringWithDirs(p, a.RenderLog(result), 0o644); err != nil {
			return out, errors.AddContext(errors.Wrap(err, errors.CodeIO, "write log"), errors.CtxPath, p)
		}
		out.Log = p
	}
	if p := strings.TrimSpace(cfg.SARIF); p != "" {
		data, err := formats.GenerateSARIF(result.Reports)
		if err != nil {
			return out, errors.Wrap(err, errors.CodeInternal, "render sarif")
		}
		if err := util.WriteFileWithDirs(p, data, 0o644); err != nil {
			return out, errors.AddContext(errors.Wrap(err, errors.CodeIO, "write sarif"), errors.CtxPath, p)
		}
		out.SARIF = p
	}
	if p := strings.TrimSpace(cfg.JSON); p != "" {
		data, err := formats.GenerateJSON(formats.JSONMeta{
			RunID:      result.RunID,
			Command:    result.Command,
			StartedAt:  result.StartedAt,
			FinishedAt: result.FinishedAt,
			Partial:    result.Partial,
		}, result.Reports)
		if err != nil {
			return out, errors.Wrap(err, errors.CodeInternal, "render json")
		}
		if err := util.WriteFileWithDirs(p, data, 0o644); err != nil {
			return out, errors.AddContext(errors.Wrap(err, errors.CodeIO, "write json"), errors.CtxPath, p)
		}
		out.JSON = p
	}
	return out, nil
}
