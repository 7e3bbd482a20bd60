package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps room documents in a single-file SQLite database. The
// conditional write is an UPDATE guarded by the stored etag, checked via
// RowsAffected.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS rooms (
	id         TEXT PRIMARY KEY,
	doc        BLOB NOT NULL,
	etag       TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("store: empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Single writer keeps SQLITE_BUSY out of the conditional-write path.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) ([]byte, string, error) {
	var doc []byte
	var etag string
	err := s.db.QueryRowContext(ctx, `SELECT doc, etag FROM rooms WHERE id = ?`, id).Scan(&doc, &etag)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("store: get %s: %w", id, err)
	}
	return doc, etag, nil
}

func (s *SQLiteStore) Put(ctx context.Context, id string, doc []byte, expectedEtag string) (string, error) {
	etag := newEtag()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	if expectedEtag == "" {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO rooms (id, doc, etag, updated_at) VALUES (?, ?, ?, ?)`,
			id, doc, etag, now)
		if err != nil {
			// Unique-constraint failure means the room already exists.
			var exists bool
			if scanErr := s.db.QueryRowContext(ctx,
				`SELECT COUNT(1) > 0 FROM rooms WHERE id = ?`, id).Scan(&exists); scanErr == nil && exists {
				return "", ErrExists
			}
			return "", fmt.Errorf("store: create %s: %w", id, err)
		}
		return etag, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE rooms SET doc = ?, etag = ?, updated_at = ? WHERE id = ? AND etag = ?`,
		doc, etag, now, id, expectedEtag)
	if err != nil {
		return "", fmt.Errorf("store: put %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("store: put %s: %w", id, err)
	}
	if n == 0 {
		// Distinguish a lost race from a missing document.
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(1) > 0 FROM rooms WHERE id = ?`, id).Scan(&exists); err != nil {
			return "", fmt.Errorf("store: put %s: %w", id, err)
		}
		if !exists {
			return "", ErrNotFound
		}
		return "", ErrStale
	}
	return etag, nil
}
