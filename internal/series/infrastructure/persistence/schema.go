// Package persistence implements the §6.2 adapter (domain.Adapter) the
// reflow façade reads a snapshot through. A single implementation works
// against either backend via the shared database.Connection abstraction
// (internal/shared/infrastructure/database), matching the pattern the
// teacher's newest bounded context (internal/productivity) already uses
// instead of hand-duplicating a sqlc-generated querier per driver.
package persistence

import (
	"context"

	"github.com/motioneffector/autoplanner/internal/shared/infrastructure/database"
)

// schemaStatements are idempotent DDL, portable across SQLite and
// Postgres (TEXT/INTEGER cover every column this adapter needs). Each
// aggregate/entity from spec §3 gets one table; patterns are stored
// inline under their owning series row set, matching "a series
// exclusively owns its patterns" (spec §9).
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS series (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		adaptive_duration INTEGER NOT NULL DEFAULT 0,
		archived INTEGER NOT NULL DEFAULT 0,
		locked INTEGER NOT NULL DEFAULT 0,
		version INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS series_tags (
		series_id TEXT NOT NULL,
		tag TEXT NOT NULL,
		PRIMARY KEY (series_id, tag)
	)`,
	`CREATE TABLE IF NOT EXISTS patterns (
		id TEXT PRIMARY KEY,
		series_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		days_of_week TEXT,
		day_of_month INTEGER,
		time_of_day TEXT,
		duration_minutes INTEGER NOT NULL,
		fixed INTEGER NOT NULL DEFAULT 0,
		all_day INTEGER NOT NULL DEFAULT 0,
		window_start TEXT,
		window_end TEXT,
		days_before INTEGER NOT NULL DEFAULT 0,
		days_after INTEGER NOT NULL DEFAULT 0,
		condition_json TEXT,
		cycling_json TEXT,
		sort_order INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS chain_links (
		child_id TEXT PRIMARY KEY,
		parent_id TEXT NOT NULL,
		distance_min INTEGER NOT NULL,
		early_wobble_min INTEGER NOT NULL,
		late_wobble_min INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS series_constraints (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		a_series_id TEXT,
		a_tag TEXT,
		b_series_id TEXT,
		b_tag TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS completions (
		id TEXT PRIMARY KEY,
		series_id TEXT NOT NULL,
		instance_date TEXT NOT NULL,
		start_time TEXT,
		end_time TEXT,
		logged_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS instance_exceptions (
		series_id TEXT NOT NULL,
		original_date TEXT NOT NULL,
		kind TEXT NOT NULL,
		new_time TEXT,
		PRIMARY KEY (series_id, original_date)
	)`,
	`CREATE TABLE IF NOT EXISTS reminders (
		id TEXT PRIMARY KEY,
		series_id TEXT NOT NULL,
		minutes_before INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reminder_acks (
		reminder_id TEXT NOT NULL,
		instance_date TEXT NOT NULL,
		acknowledged_at TEXT NOT NULL,
		PRIMARY KEY (reminder_id, instance_date)
	)`,
}

// EnsureSchema creates every table this adapter needs if it does not
// already exist. Safe to call on every process start.
func EnsureSchema(ctx context.Context, conn database.Connection) error {
	for _, stmt := range schemaStatements {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
