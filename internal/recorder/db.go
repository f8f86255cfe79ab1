// Package recorder persists decoded acquisition streams to SQLite and
// computes per-channel summary statistics over recorded sessions.
package recorder

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/samuelgarcia/pyacq/internal/openbci"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps the recording database.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) a recording database at path and brings
// its schema up to date.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open recording database: %w", err)
	}

	if err := migrateUp(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &DB{sqlDB}, nil
}

// migrateUp applies all pending schema migrations from the embedded set.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("prepare migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("prepare migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Session describes one recording run.
type Session struct {
	ID           string
	BoardName    string
	ChannelCount int
	AuxCount     int
	SampleRate   float64
	StartedAt    time.Time
}

// NewSession registers a recording session for the given board
// configuration and returns a Recorder whose sinks persist under it.
func (db *DB) NewSession(cfg openbci.Config) (*Recorder, error) {
	id := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO sessions (session_id, board_name, channel_count, aux_count, sample_rate)
		 VALUES (?, ?, ?, ?, ?)`,
		id, cfg.BoardName, cfg.ChannelCount, cfg.AuxCount, cfg.SampleRate,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &Recorder{db: db.DB, sessionID: id}, nil
}

// Sessions lists all recording sessions, newest first.
func (db *DB) Sessions() ([]Session, error) {
	rows, err := db.Query(
		`SELECT session_id, board_name, channel_count, aux_count, sample_rate, started_at
		 FROM sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.BoardName, &s.ChannelCount, &s.AuxCount, &s.SampleRate, &s.StartedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
