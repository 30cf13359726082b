// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package sqlite opens SQLite databases with the PRAGMAs every store expects.
package sqlite

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite"
)

type Config struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
	// QueryOnly rejects writes on every pooled connection and leaves the
	// journal mode untouched. Used by offline inspection.
	QueryOnly bool
}

// DefaultConfig is what the aggregate store runs with: WAL, and a busy
// timeout long enough that concurrent CAS writers queue instead of failing
// with SQLITE_BUSY.
func DefaultConfig() Config {
	return Config{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 16,
	}
}

// InspectConfig is DefaultConfig for a database that must not be modified.
func InspectConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxOpenConns = 1
	cfg.QueryOnly = true
	return cfg
}

func (c Config) dsn(path string) string {
	pragmas := url.Values{}
	pragmas.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	pragmas.Add("_pragma", "foreign_keys(ON)")
	if c.QueryOnly {
		pragmas.Add("_pragma", "query_only(ON)")
	} else {
		pragmas.Add("_pragma", "journal_mode(WAL)")
		pragmas.Add("_pragma", "synchronous(NORMAL)")
	}
	return "file:" + path + "?" + pragmas.Encode()
}

// Open returns a pooled handle. PRAGMAs travel in the DSN so each new pooled
// connection gets them, not only the first.
func Open(dbPath string, cfg Config) (*sql.DB, error) {
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 1
	}

	db, err := sql.Open("sqlite", cfg.dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping %s: %w", dbPath, err)
	}
	return db, nil
}
