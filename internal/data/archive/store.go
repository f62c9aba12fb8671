// Package archive keeps past ingestion runs in a local sqlite database so
// command usage can be compared over time.
package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"histop/internal/shared/util"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Run is one archived ingestion.
type Run struct {
	ID         string
	RecordedAt time.Time
	SourcePath string
	Dialect    string
	Total      int
	Distinct   int
	Counts     map[string]int
}

// TrendPoint is the count of one command in one run.
type TrendPoint struct {
	RunID      string
	RecordedAt time.Time
	Count      int
	Share      float64
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("archive path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("archive path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create archive directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL keep a watching process and a one-shot --runs
	// from tripping over each other.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite archive %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite archive %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun stores run and its counts in one transaction. Missing ID,
// timestamp and totals are filled in and the stored run is returned.
func (s *Store) SaveRun(run Run) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.RecordedAt.IsZero() {
		run.RecordedAt = time.Now().UTC()
	}
	run.RecordedAt = run.RecordedAt.UTC()
	run.Distinct = len(run.Counts)
	run.Total = 0
	for _, n := range run.Counts {
		run.Total += n
	}

	err := s.withRetry("save run", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.Exec(
			`INSERT INTO runs (id, recorded_at_utc, source_path, dialect, total, distinct_commands) VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.RecordedAt.Format(time.RFC3339Nano),
			run.SourcePath,
			run.Dialect,
			run.Total,
			run.Distinct,
		); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`INSERT INTO run_counts (run_id, command, count) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, command := range util.SortedStringKeys(run.Counts) {
			if _, err := stmt.Exec(run.ID, command, run.Counts[command]); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// LoadRuns returns runs recorded at or after since, newest first. Counts
// are not loaded. A non-positive limit returns every run.
func (s *Store) LoadRuns(since time.Time, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT id, recorded_at_utc, source_path, dialect, total, distinct_commands FROM runs`
	args := make([]any, 0, 2)
	if !since.IsZero() {
		query += " WHERE recorded_at_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY recorded_at_utc DESC, id ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			run   Run
			tsRaw string
		)
		if err := rows.Scan(&run.ID, &tsRaw, &run.SourcePath, &run.Dialect, &run.Total, &run.Distinct); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		run.RecordedAt = ts.UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

// LoadCounts returns the command counts stored for runID.
func (s *Store) LoadCounts(runID string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load run counts", func() error {
		var qErr error
		rows, qErr = s.db.Query(`SELECT command, count FROM run_counts WHERE run_id = ?`, runID)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			command string
			count   int
		)
		if err := rows.Scan(&command, &count); err != nil {
			return nil, fmt.Errorf("scan run count row: %w", err)
		}
		counts[command] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run count rows: %w", err)
	}
	return counts, nil
}

// LoadTrend returns the count and share of command in every run recorded
// at or after since, oldest first. Runs where the command is absent report
// zero.
func (s *Store) LoadTrend(command string, since time.Time) ([]TrendPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT r.id, r.recorded_at_utc, r.total, COALESCE(c.count, 0)
FROM runs r
LEFT JOIN run_counts c ON c.run_id = r.id AND c.command = ?
`
	args := []any{command}
	if !since.IsZero() {
		query += " WHERE r.recorded_at_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY r.recorded_at_utc ASC, r.id ASC"

	var rows *sql.Rows
	err := s.withRetry("load trend", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]TrendPoint, 0)
	for rows.Next() {
		var (
			p     TrendPoint
			tsRaw string
			total int
		)
		if err := rows.Scan(&p.RunID, &tsRaw, &total, &p.Count); err != nil {
			return nil, fmt.Errorf("scan trend row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		p.RecordedAt = ts.UTC()
		if total > 0 {
			p.Share = float64(p.Count) / float64(total) * 100
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trend rows: %w", err)
	}
	return points, nil
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
