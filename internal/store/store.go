// Package store persists experiment reports in a local SQLite database so
// runs can be listed and re-inspected after the fact.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"collectsim/internal/experiment"
)

// DefaultDBPath is the default relative path for the SQLite DB.
// Open() creates the parent dir (e.g. .collectsim).
const DefaultDBPath = ".collectsim/history.db"

// ErrNotFound is returned when a requested report does not exist.
var ErrNotFound = errors.New("report not found")

// Row is one saved experiment, as shown in listings.
type Row struct {
	ID        int64
	ReportID  string
	Scenario  string
	Policies  string
	Runs      int
	BaseSeed  uint64
	CreatedAt time.Time
}

// Store persists experiment reports. The full report travels as a JSON
// blob; the indexed columns exist only for listings and lookups.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS experiments (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	report_id  TEXT NOT NULL UNIQUE,
	scenario   TEXT NOT NULL,
	policies   TEXT NOT NULL,
	runs       INTEGER NOT NULL,
	base_seed  INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	report     BLOB NOT NULL
);
`

// Open opens or creates a SQLite DB at path and applies the schema.
// Creates the parent directory if it does not exist.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// SaveReport stores one experiment report and returns its row id.
func (s *Store) SaveReport(rep *experiment.Report) (int64, error) {
	blob, err := json.Marshal(rep)
	if err != nil {
		return 0, fmt.Errorf("encode report: %w", err)
	}
	policies := ""
	for i, pr := range rep.Policies {
		if i > 0 {
			policies += ","
		}
		policies += pr.Policy
	}
	res, err := s.db.Exec(
		`INSERT INTO experiments(report_id, scenario, policies, runs, base_seed, created_at, report)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`,
		rep.ID, rep.Scenario, policies, rep.Runs, int64(rep.BaseSeed),
		time.Now().UTC().Format(time.RFC3339), blob,
	)
	if err != nil {
		return 0, fmt.Errorf("insert report: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("report row id: %w", err)
	}
	return id, nil
}

// GetReport loads a saved report by row id.
func (s *Store) GetReport(id int64) (*experiment.Report, error) {
	var blob []byte
	err := s.db.QueryRow("SELECT report FROM experiments WHERE id = ?", id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("experiment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	var rep experiment.Report
	if err := json.Unmarshal(blob, &rep); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &rep, nil
}

// List returns all saved experiments, newest first.
func (s *Store) List() ([]Row, error) {
	rows, err := s.db.Query(
		`SELECT id, report_id, scenario, policies, runs, base_seed, created_at
		 FROM experiments ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var seed int64
		var created string
		if err := rows.Scan(&r.ID, &r.ReportID, &r.Scenario, &r.Policies, &r.Runs, &seed, &created); err != nil {
			return nil, fmt.Errorf("scan experiment row: %w", err)
		}
		r.BaseSeed = uint64(seed)
		r.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Delete removes a saved experiment by row id.
func (s *Store) Delete(id int64) error {
	res, err := s.db.Exec("DELETE FROM experiments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete experiment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("experiment %d: %w", id, ErrNotFound)
	}
	return nil
}
