// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/idemflow/internal/persistence/sqlite"
)

const sqliteSchemaVersion = 1

// SqliteDB owns the shared database handle; one SqliteStore per aggregate
// kind is derived from it.
type SqliteDB struct {
	DB   *sql.DB
	path string
}

// OpenSqlite opens (and migrates) the aggregate database at dbPath.
func OpenSqlite(dbPath string) (*SqliteDB, error) {
	db, err := sqlite.Open(dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	s := &SqliteDB{DB: db, path: dbPath}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("aggregate store: migration failed: %w", err)
	}
	return s, nil
}

func (s *SqliteDB) Close() error { return s.DB.Close() }

// Path returns the database file path.
func (s *SqliteDB) Path() string { return s.path }

func (s *SqliteDB) migrate() error {
	var currentVersion int
	if err := s.DB.QueryRow("PRAGMA user_version").Scan(&currentVersion); err != nil {
		return err
	}
	if currentVersion >= sqliteSchemaVersion {
		return nil
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS aggregates (
		kind TEXT NOT NULL,
		key TEXT NOT NULL,
		version INTEGER NOT NULL,
		state_json TEXT NOT NULL,
		updated_at_ms INTEGER NOT NULL,
		PRIMARY KEY (kind, key)
	);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", sqliteSchemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// SqliteStore is a Store backed by one row per (kind, key).
type SqliteStore[T Entity[T]] struct {
	db    *sql.DB
	kind  string
	codec Codec[T]
}

func NewSqliteStore[T Entity[T]](db *SqliteDB, kind string, codec Codec[T]) *SqliteStore[T] {
	return &SqliteStore[T]{db: db.DB, kind: kind, codec: codec}
}

func (s *SqliteStore[T]) FindByID(ctx context.Context, key string) (T, bool, error) {
	var zero T
	var version uint64
	var state string
	err := s.db.QueryRowContext(ctx,
		"SELECT version, state_json FROM aggregates WHERE kind = ? AND key = ?", s.kind, key,
	).Scan(&version, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("sqlite find %s %s: %w", s.kind, key, err)
	}
	v, err := s.codec.Decode([]byte(state))
	if err != nil {
		return zero, false, err
	}
	v.SetVersion(version)
	return v, true, nil
}

// Save relies on the upsert guard: the UPDATE branch only fires when the
// stored version still equals the incoming one, so zero affected rows means
// someone else committed first.
func (s *SqliteStore[T]) Save(ctx context.Context, value T) error {
	next, incoming := prepare(value)
	state, err := s.codec.Encode(next)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO aggregates (kind, key, version, state_json, updated_at_ms)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(kind, key) DO UPDATE SET
		version = excluded.version,
		state_json = excluded.state_json,
		updated_at_ms = excluded.updated_at_ms
	WHERE aggregates.version = ?
	`
	res, err := s.db.ExecContext(ctx, query,
		s.kind, next.Key(), next.Version(), string(state), time.Now().UnixMilli(), incoming)
	if err != nil {
		return fmt.Errorf("sqlite save %s %s: %w", s.kind, next.Key(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var actual uint64
	_ = s.db.QueryRowContext(ctx,
		"SELECT version FROM aggregates WHERE kind = ? AND key = ?", s.kind, next.Key(),
	).Scan(&actual)
	return &ConflictError{Kind: s.kind, Key: next.Key(), Expected: incoming, Actual: actual}
}
