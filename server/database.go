package main

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// RunRow describes one simulation run.
type RunRow struct {
	ID        string
	Seed      uint64
	Workers   int
	TickRate  int
	StartedAt time.Time
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL lets /stats read while the analytics writer commits
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		workers INTEGER NOT NULL,
		tick_rate INTEGER NOT NULL,
		started_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sim_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		kind TEXT NOT NULL,
		agent INTEGER NOT NULL,
		x REAL NOT NULL DEFAULT 0,
		z REAL NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sim_events_run ON sim_events(run_id, kind);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		log.Error("db migration failed", "err", err)
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// RecordRun stores the parameters a run was started with. Seeds are stored
// as their two's complement bit pattern since SQLite integers are signed.
func (db *DB) RecordRun(r RunRow) error {
	_, err := db.conn.Exec(
		"INSERT INTO runs (id, seed, workers, tick_rate, started_at) VALUES (?, ?, ?, ?, ?)",
		r.ID, int64(r.Seed), r.Workers, r.TickRate, r.StartedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// GetRun returns a run by id, or nil when it does not exist.
func (db *DB) GetRun(id string) (*RunRow, error) {
	row := db.conn.QueryRow("SELECT id, seed, workers, tick_rate, started_at FROM runs WHERE id = ?", id)
	r := &RunRow{}
	var seed int64
	var started string
	err := row.Scan(&r.ID, &seed, &r.Workers, &r.TickRate, &started)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.Seed = uint64(seed)
	r.StartedAt, _ = time.Parse(time.RFC3339, started)
	return r, nil
}
