// Package sqlite implements the repository interfaces on an embedded
// SQLite database.
//
// modernc.org/sqlite is a pure-Go translation of SQLite. No cgo, no C
// toolchain, works everywhere Go works. Use ":memory:" for tests.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and carries the repository methods
// (spread over user.go and profile.go).
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress, which a
	// web server needs. Foreign keys are off by default in SQLite.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Defer this wherever New is called.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	// Usernames and emails are unique case-insensitively, hence the
	// COLLATE NOCASE on the columns themselves.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                 TEXT PRIMARY KEY,
			username           TEXT NOT NULL COLLATE NOCASE UNIQUE,
			email              TEXT NOT NULL COLLATE NOCASE UNIQUE,
			password_hash      TEXT NOT NULL DEFAULT '',
			first_name         TEXT NOT NULL DEFAULT '',
			last_name          TEXT NOT NULL DEFAULT '',
			tagline            TEXT NOT NULL DEFAULT '',
			about              TEXT NOT NULL DEFAULT '',
			theme_code         TEXT NOT NULL DEFAULT 'default',
			show_avatar        INTEGER NOT NULL DEFAULT 1,
			under_construction INTEGER NOT NULL DEFAULT 1,
			new_user           INTEGER NOT NULL DEFAULT 0,
			setup_step         INTEGER NOT NULL DEFAULT 1,
			login_types        TEXT NOT NULL DEFAULT '{"password":true}',
			social_links       TEXT NOT NULL DEFAULT '{}',
			registered_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS contact_info (
			user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			email   TEXT NOT NULL DEFAULT '',
			phone   TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT ''
		);
	`)
	if err != nil {
		return fmt.Errorf("creating contact_info table: %w", err)
	}

	// One row per (provider, username) pair; deleting a user cascades to
	// their profiles, and deleting a profile cascades to its emails.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS profiles (
			id           TEXT PRIMARY KEY,
			provider     TEXT NOT NULL,
			username     TEXT NOT NULL,
			provider_uid INTEGER NOT NULL,
			access_token TEXT NOT NULL,
			user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (provider, username)
		);
		CREATE INDEX IF NOT EXISTS idx_profiles_user_id ON profiles(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating profiles table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS email_addresses (
			id         TEXT PRIMARY KEY,
			email      TEXT NOT NULL,
			profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			is_primary INTEGER NOT NULL DEFAULT 0,
			verified   INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_email_addresses_profile_id ON email_addresses(profile_id);
	`)
	if err != nil {
		return fmt.Errorf("creating email_addresses table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS deleted_users (
			id            TEXT PRIMARY KEY,
			old_user_id   TEXT NOT NULL,
			username      TEXT NOT NULL,
			email         TEXT NOT NULL,
			first_name    TEXT NOT NULL DEFAULT '',
			last_name     TEXT NOT NULL DEFAULT '',
			tagline       TEXT NOT NULL DEFAULT '',
			setup_step    INTEGER NOT NULL DEFAULT 1,
			registered_at DATETIME NOT NULL,
			deleted_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating deleted_users table: %w", err)
	}

	return nil
}
