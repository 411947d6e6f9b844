// Package report persists finished runs to a SQLite database so different
// topologies and seeds can be compared after the fact.
package report

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/canteen-sim/canteen/pkg/canteen"
)

// Store handles the SQLite database holding run results.
type Store struct {
	db *sql.DB
}

// Run is one simulation run record.
type Run struct {
	ID             string
	Seed           int64
	HorizonMinutes float64
	Capacity       int
	Served         int
	StartedAt      time.Time
}

// Open opens (and if needed creates) the report database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open report database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate report database: %w", err)
	}

	return store, nil
}

// migrate creates the schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		horizon_minutes REAL NOT NULL,
		capacity INTEGER NOT NULL,
		served INTEGER NOT NULL,
		started_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		t REAL NOT NULL,
		type TEXT NOT NULL,
		customer TEXT,
		station TEXT,
		product TEXT,
		message TEXT,
		warning INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id);
	CREATE INDEX IF NOT EXISTS idx_events_run_t ON events(run_id, t);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores one run and its full event timeline, returning the run id.
func (s *Store) SaveRun(run Run, events []canteen.Event) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, seed, horizon_minutes, capacity, served, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Seed, run.HorizonMinutes, run.Capacity, run.Served, run.StartedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO events (run_id, t, type, customer, station, product, message, warning) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return "", fmt.Errorf("prepare event insert: %w", err)
	}
	defer stmt.Close()

	for _, event := range events {
		warning := 0
		if event.IsWarning {
			warning = 1
		}
		if _, err := stmt.Exec(run.ID, event.Time, string(event.Type),
			event.Customer, event.Station, event.Product, event.Message, warning); err != nil {
			return "", fmt.Errorf("insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return run.ID, nil
}

// CountEvents returns how many events a run recorded.
func (s *Store) CountEvents(runID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM events WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

// Runs lists all stored runs, newest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(`SELECT id, seed, horizon_minutes, capacity, served, started_at FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Seed, &run.HorizonMinutes, &run.Capacity, &run.Served, &run.StartedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
