// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/ManuGH/idemflow/internal/persistence/sqlite"
)

const defaultCheckTimeout = 2 * time.Second

// PingChecker reports a dependency unhealthy when its ping fails.
type PingChecker struct {
	name     string
	ping     func(ctx context.Context) error
	timeout  time.Duration
	optional bool
}

// NewPingChecker wraps ping. A failing optional dependency only degrades.
func NewPingChecker(name string, ping func(ctx context.Context) error, optional bool) *PingChecker {
	return &PingChecker{name: name, ping: ping, timeout: defaultCheckTimeout, optional: optional}
}

func (c *PingChecker) Name() string {
	return c.name
}

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.ping(ctx); err != nil {
		status := StatusUnhealthy
		if c.optional {
			status = StatusDegraded
		}
		return CheckResult{Status: status, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: "reachable"}
}

// SqliteIntegrityChecker runs PRAGMA quick_check against the aggregate database.
type SqliteIntegrityChecker struct {
	db *sql.DB
}

func NewSqliteIntegrityChecker(db *sql.DB) *SqliteIntegrityChecker {
	return &SqliteIntegrityChecker{db: db}
}

func (c *SqliteIntegrityChecker) Name() string {
	return "sqlite_integrity"
}

func (c *SqliteIntegrityChecker) Check(ctx context.Context) CheckResult {
	if c.db == nil {
		return CheckResult{Status: StatusHealthy, Message: "not configured (optional)"}
	}
	issues, err := sqlite.VerifyIntegrity(ctx, c.db, sqlite.ModeQuick)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	if len(issues) > 0 {
		return CheckResult{
			Status:  StatusUnhealthy,
			Error:   "integrity check failed",
			Message: strings.Join(issues, "; "),
		}
	}
	return CheckResult{Status: StatusHealthy, Message: "ok"}
}
