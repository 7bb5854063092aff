// Package store persists flat key/value settings sections in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	section TEXT NOT NULL,
	key     TEXT NOT NULL,
	value   TEXT NOT NULL,
	PRIMARY KEY (section, key)
)`

// Store is a SQLite backed settings store. Every value is kept as JSON text.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the settings database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}

	return &Store{db: db}, nil
}

// Load returns every key of section. A section never saved yields an empty map.
func (s *Store) Load(ctx context.Context, section string) (map[string]any, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM settings WHERE section = ? ORDER BY key`, section)
	if err != nil {
		return nil, fmt.Errorf("failed to query section %q: %w", section, err)
	}
	defer rows.Close()

	values := make(map[string]any)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan setting row: %w", err)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("setting %s/%s holds invalid JSON: %w", section, key, err)
		}
		values[key] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read section %q: %w", section, err)
	}
	return values, nil
}

// Save upserts every key of values into section in one transaction. Keys
// absent from values are left untouched.
func (s *Store) Save(ctx context.Context, section string, values map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO settings (section, key, value) VALUES (?, ?, ?)
		ON CONFLICT(section, key) DO UPDATE SET value = excluded.value`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for key, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode setting %s/%s: %w", section, key, err)
		}
		if _, err := stmt.ExecContext(ctx, section, key, string(raw)); err != nil {
			return fmt.Errorf("failed to save setting %s/%s: %w", section, key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit section %q: %w", section, err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
