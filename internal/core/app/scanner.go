package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"pyward/internal/engine/rules"
	"pyward/internal/shared/observability"
	"pyward/internal/shared/util"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const defaultMaxFileBytes = 4 << 20

type ScanOptions struct {
	Workers        int
	MaxFileBytes   int64
	FilesPerSecond float64
}

// Scanner analyses files concurrently. Reports come back in input order
// regardless of which worker finished first.
type Scanner struct {
	engine       *rules.Engine
	workers      int
	maxFileBytes int64
	limiter      *util.Limiter
}

func NewScanner(engine *rules.Engine, opts ScanOptions) *Scanner {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	maxBytes := opts.MaxFileBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxFileBytes
	}
	return &Scanner{
		engine:       engine,
		workers:      workers,
		maxFileBytes: maxBytes,
		limiter:      util.NewDispatchLimiter(opts.FilesPerSecond),
	}
}

func (s *Scanner) Engine() *rules.Engine {
	return s.engine
}

// Scan analyses every target. When ctx is cancelled no new files are
// dispatched, in-flight files finish, and partial is true. The error is
// reserved for internal failures.
func (s *Scanner) Scan(ctx context.Context, files []Target) (reports []rules.FileReport, partial bool, err error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Scan", trace.WithAttributes(
		attribute.Int("files", len(files)),
		attribute.Int("workers", s.workers),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.ScanDuration.Observe(time.Since(start).Seconds())
	}()

	results := make([]rules.FileReport, len(files))
	done := make([]bool, len(files))
	var completed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, target := range files {
		if err := s.limiter.Wait(ctx, 1); err != nil {
			break
		}
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			observability.WorkersBusy.Inc()
			defer observability.WorkersBusy.Dec()

			report, err := s.scanFile(gctx, target)
			if err != nil {
				return err
			}
			results[i] = report
			done[i] = true
			completed.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, false, err
	}

	reports = make([]rules.FileReport, 0, completed.Load())
	for i, ok := range done {
		if ok {
			reports = append(reports, results[i])
		}
	}
	partial = len(reports) < len(files)
	span.SetAttributes(attribute.Bool("partial", partial))
	slog.Debug("scan finished",
		"files", len(files),
		"completed", len(reports),
		"partial", partial,
		"duration", time.Since(start),
		"heap_mb", util.HeapAllocMB(),
	)
	return reports, partial, nil
}

func (s *Scanner) scanFile(ctx context.Context, target Target) (rules.FileReport, error) {
	content, err := s.readFile(target.Path)
	if err != nil {
		slog.Warn("failed to read file", "path", target.Path, "error", err)
		report := rules.ReadFailure(target.Path, target.RelPath, err)
		record(report)
		return report, nil
	}

	report, err := s.engine.Analyze(ctx, target.Path, target.RelPath, content)
	if err != nil {
		return rules.FileReport{}, err
	}
	slog.Debug("file analysed", "path", target.RelPath, "status", report.Status().String())
	record(report)
	return report, nil
}

func (s *Scanner) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.maxFileBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxFileBytes {
		return nil, fmt.Errorf("file exceeds %d bytes", s.maxFileBytes)
	}
	return data, nil
}

func record(report rules.FileReport) {
	observability.FilesScannedTotal.Inc()
	observability.FileStatusTotal.WithLabelValues(report.Status().String()).Inc()
	for _, v := range report.Violations() {
		observability.ViolationsTotal.WithLabelValues(string(v.Kind)).Inc()
	}
}
