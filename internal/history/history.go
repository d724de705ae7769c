// Package history persists analyzer state across runs in a SQLite
// database, grounded on the teacher's internal/storage package: a
// negative cache of resolution misses (so repeated builds in a tight
// edit loop skip the vendored-library stat for bare specifiers already
// known not to live under it) and a row
// per completed URL-match run for CI debugging.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite connection with the analyzer's history tables.
type Store struct {
	conn   *sql.DB
	dbPath string
}

// Open opens or creates a SQLite database at .depgraph/history.db under
// repoRoot, initializing the schema on first use.
func Open(repoRoot string) (*Store, error) {
	dir := filepath.Join(repoRoot, ".depgraph")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create .depgraph directory: %w", err)
	}

	dbPath := filepath.Join(dir, "history.db")
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	store := &Store{conn: conn, dbPath: dbPath}
	if err := store.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS resolution_misses (
	specifier TEXT NOT NULL,
	from_file TEXT NOT NULL,
	run_id TEXT NOT NULL,
	PRIMARY KEY (specifier, from_file)
);

CREATE TABLE IF NOT EXISTS match_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	golden_path TEXT NOT NULL,
	passed INTEGER NOT NULL,
	offending_urls TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
	_, err := s.conn.Exec(schema)
	return err
}

// RecordResolutionMiss records that specifier, referenced from fromFile,
// was found not to live under the vendored-library root during run runID —
// a negative cache entry so a future run in the same tree state can skip
// that check.
func (s *Store) RecordResolutionMiss(specifier, fromFile, runID string) error {
	_, err := s.conn.Exec(
		`INSERT OR REPLACE INTO resolution_misses (specifier, from_file, run_id) VALUES (?, ?, ?)`,
		specifier, fromFile, runID,
	)
	return err
}

// IsKnownMiss reports whether specifier (from fromFile) was already
// recorded by a previous run as not living under the vendored-library
// root, letting Resolver skip re-checking the filesystem for it.
func (s *Store) IsKnownMiss(specifier, fromFile string) (bool, error) {
	var count int
	err := s.conn.QueryRow(
		`SELECT COUNT(*) FROM resolution_misses WHERE specifier = ? AND from_file = ?`,
		specifier, fromFile,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ClearResolutionMisses drops every recorded negative-cache entry, for use
// after a tree-wide change invalidates all prior misses.
func (s *Store) ClearResolutionMisses() error {
	_, err := s.conn.Exec(`DELETE FROM resolution_misses`)
	return err
}

// RecordMatchRun appends one compareAndOutputModules outcome.
func (s *Store) RecordMatchRun(runID, goldenPath string, passed bool, offendingURLs string) error {
	_, err := s.conn.Exec(
		`INSERT INTO match_runs (run_id, golden_path, passed, offending_urls) VALUES (?, ?, ?, ?)`,
		runID, goldenPath, passed, offendingURLs,
	)
	return err
}

// MatchRun is one recorded row from RecordMatchRun.
type MatchRun struct {
	RunID         string
	GoldenPath    string
	Passed        bool
	OffendingURLs string
	CreatedAt     string
}

// RecentMatchRuns returns the most recent limit match runs for goldenPath,
// newest first.
func (s *Store) RecentMatchRuns(goldenPath string, limit int) ([]MatchRun, error) {
	rows, err := s.conn.Query(
		`SELECT run_id, golden_path, passed, offending_urls, created_at
		 FROM match_runs WHERE golden_path = ? ORDER BY id DESC LIMIT ?`,
		goldenPath, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []MatchRun
	for rows.Next() {
		var r MatchRun
		if err := rows.Scan(&r.RunID, &r.GoldenPath, &r.Passed, &r.OffendingURLs, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
