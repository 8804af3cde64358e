// Package persistence provides SQLite-based save storage: opaque blobs by key
// plus an append-only log of session checkpoints.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection for save storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		key TEXT PRIMARY KEY,
		blob BLOB NOT NULL,
		saved_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS checkpoints (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session TEXT NOT NULL,
		reason TEXT NOT NULL,
		tick INTEGER NOT NULL,
		stress REAL NOT NULL,
		money INTEGER NOT NULL,
		shift_elapsed INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_checkpoints_session ON checkpoints(session);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Save stores blob under key, replacing any previous value.
func (db *DB) Save(key string, blob []byte) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO saves (key, blob, saved_at) VALUES (?, ?, ?)",
		key, blob, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	return nil
}

// Load returns the blob stored under key. ok is false when nothing is saved.
func (db *DB) Load(key string) (blob []byte, ok bool, err error) {
	err = db.conn.Get(&blob, "SELECT blob FROM saves WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %q: %w", key, err)
	}
	return blob, true, nil
}

// Checkpoint is one row of the checkpoint log.
type Checkpoint struct {
	Session      string  `db:"session" json:"session"`
	Reason       string  `db:"reason" json:"reason"`
	Tick         uint64  `db:"tick" json:"tick"`
	Stress       float64 `db:"stress" json:"stress"`
	Money        int     `db:"money" json:"money"`
	ShiftElapsed uint64  `db:"shift_elapsed" json:"shift_elapsed"`
	CreatedAt    int64   `db:"created_at" json:"created_at"`
}

// Record appends a checkpoint to the log.
func (db *DB) Record(c Checkpoint) error {
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().Unix()
	}
	_, err := db.conn.NamedExec(`INSERT INTO checkpoints
		(session, reason, tick, stress, money, shift_elapsed, created_at)
		VALUES (:session, :reason, :tick, :stress, :money, :shift_elapsed, :created_at)`, c)
	if err != nil {
		return fmt.Errorf("record checkpoint: %w", err)
	}
	slog.Debug("checkpoint recorded", "session", c.Session, "reason", c.Reason)
	return nil
}

// RecentCheckpoints returns the most recent N checkpoints, newest first.
func (db *DB) RecentCheckpoints(limit int) ([]Checkpoint, error) {
	var cps []Checkpoint
	err := db.conn.Select(&cps,
		`SELECT session, reason, tick, stress, money, shift_elapsed, created_at
		 FROM checkpoints ORDER BY id DESC LIMIT ?`,
		limit,
	)
	return cps, err
}
