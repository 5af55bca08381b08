package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// DB wraps sqlx.DB; the same store code runs over Postgres (pgx) or SQLite.
type DB struct {
	Client *sqlx.DB
}

// NewPostgres creates a Postgres connection with sane defaults.
func NewPostgres(connString string) (*DB, error) {
	db, err := sqlx.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return &DB{Client: db}, db.PingContext(context.Background())
}

// NewSQLite opens a file-backed SQLite database, creating the directory if
// needed. WAL keeps concurrent readers from blocking the writer.
func NewSQLite(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection keeps SQLite writes serialized.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &DB{Client: db}, nil
}

// schema uses only type names both Postgres and SQLite accept, so one
// migration serves both backends.
const schema = `
CREATE TABLE IF NOT EXISTS attendance_records (
	id          TEXT PRIMARY KEY,
	student_id  TEXT NOT NULL,
	date        TIMESTAMP NOT NULL,
	period      TEXT NOT NULL,
	status      TEXT NOT NULL,
	marked_by   TEXT NOT NULL DEFAULT '',
	method      TEXT NOT NULL DEFAULT 'manual',
	department  TEXT NOT NULL DEFAULT '',
	section     TEXT NOT NULL DEFAULT '',
	timestamp   TIMESTAMP NOT NULL,
	notes       TEXT NOT NULL DEFAULT '',
	UNIQUE (student_id, date, period)
);

CREATE INDEX IF NOT EXISTS idx_attendance_date       ON attendance_records(date);
CREATE INDEX IF NOT EXISTS idx_attendance_student    ON attendance_records(student_id);
CREATE INDEX IF NOT EXISTS idx_attendance_timestamp  ON attendance_records(timestamp);

CREATE TABLE IF NOT EXISTS students (
	student_id  TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	department  TEXT NOT NULL DEFAULT '',
	section     TEXT NOT NULL DEFAULT '',
	is_active   BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS departments (
	code        TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	sections    INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS users (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	email          TEXT UNIQUE NOT NULL,
	role           TEXT NOT NULL,
	password_hash  TEXT NOT NULL,
	created_at     TIMESTAMP NOT NULL
);
`

// Migrate applies the schema. Idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	_, err := d.Client.ExecContext(ctx, schema)
	return err
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
