// Package history persists one record per accepted coverage snapshot so
// the UI can show a trend across runs.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one recorded snapshot build.
type Run struct {
	ID        int64
	Hash      string // content hash of the snapshot
	Covered   int
	Total     int
	CreatedAt time.Time
}

// Percent returns the run's coverage fraction.
func (r Run) Percent() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Covered) / float64(r.Total)
}

// Store handles run persistence. The database lives in the covview state
// directory (.covview/history.db by default).
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hash TEXT NOT NULL,
		covered INTEGER NOT NULL,
		total INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Record inserts a run. Consecutive duplicates (same hash as the latest
// run) are skipped so re-parses of an unchanged profile do not pollute the
// trend.
func (s *Store) Record(hash string, covered, total int) error {
	var lastHash string
	err := s.db.QueryRow(`SELECT hash FROM runs ORDER BY id DESC LIMIT 1`).Scan(&lastHash)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("read latest run: %w", err)
	}
	if err == nil && lastHash == hash {
		return nil
	}

	_, err = s.db.Exec(`
		INSERT INTO runs (hash, covered, total, created_at)
		VALUES (?, ?, ?, ?)
	`, hash, covered, total, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns up to n runs, newest first.
func (s *Store) Recent(n int) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, hash, covered, total, created_at
		FROM runs ORDER BY id DESC LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Hash, &r.Covered, &r.Total, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Trend compares the two most recent runs. Returns +1 if coverage went up,
// -1 if it went down, 0 if flat or not enough history.
func (s *Store) Trend() (int, error) {
	runs, err := s.Recent(2)
	if err != nil {
		return 0, err
	}
	if len(runs) < 2 {
		return 0, nil
	}
	cur, prev := runs[0].Percent(), runs[1].Percent()
	switch {
	case cur > prev:
		return 1, nil
	case cur < prev:
		return -1, nil
	default:
		return 0, nil
	}
}
