package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts while watch mode keeps saving runs.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun stores a run and its file results atomically. Saving the same run
// id again replaces the earlier rows.
func (s *Store) SaveRun(ctx context.Context, run Run, files []FileResult) error {
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("run id must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withRetry("save run", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM scan_runs WHERE id = ?`, run.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO scan_runs (
  id, command, roots, started_at_utc, finished_at_utc, file_count, failed_count, violation_count, partial
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.Command,
			strings.Join(run.Roots, "\n"),
			formatTime(run.StartedAt),
			formatTime(run.FinishedAt),
			run.FileCount,
			run.FailedCount,
			run.ViolationCount,
			boolToInt(run.Partial),
		); err != nil {
			return err
		}

		for _, f := range files {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO file_results (run_id, path, status, violation_count) VALUES (?, ?, ?, ?)`,
				run.ID, f.Path, f.Status, f.ViolationCount,
			); err != nil {
				return err
			}
		}
		for kind, count := range run.KindCounts {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO run_kind_counts (run_id, kind, count) VALUES (?, ?, ?)`,
				run.ID, kind, count,
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, `
SELECT id, command, roots, started_at_utc, finished_at_utc, file_count, failed_count, violation_count, partial
FROM scan_runs
ORDER BY started_at_utc DESC, id ASC
LIMIT ?`, limit)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0, limit)
	for rows.Next() {
		var (
			run                 Run
			roots               string
			startRaw, finishRaw string
			partial             int
		)
		if err := rows.Scan(
			&run.ID,
			&run.Command,
			&roots,
			&startRaw,
			&finishRaw,
			&run.FileCount,
			&run.FailedCount,
			&run.ViolationCount,
			&partial,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		if roots != "" {
			run.Roots = strings.Split(roots, "\n")
		}
		run.Partial = partial != 0
		if run.StartedAt, err = parseTime(startRaw); err != nil {
			return nil, err
		}
		if run.FinishedAt, err = parseTime(finishRaw); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	for i := range runs {
		counts, err := s.kindCounts(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].KindCounts = counts
	}
	return runs, nil
}

func (s *Store) kindCounts(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, count FROM run_kind_counts WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("load kind counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			kind  string
			count int
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scan kind count row: %w", err)
		}
		counts[kind] = count
	}
	return counts, rows.Err()
}

// RunFiles returns the stored file results of one run ordered by path.
func (s *Store) RunFiles(ctx context.Context, runID string) ([]FileResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT path, status, violation_count FROM file_results WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("load file results: %w", err)
	}
	defer rows.Close()

	var out []FileResult
	for rows.Next() {
		var f FileResult
		if err := rows.Scan(&f.Path, &f.Status, &f.ViolationCount); err != nil {
			return nil, fmt.Errorf("scan file result row: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file result rows: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t.UTC(), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
