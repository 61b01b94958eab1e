package db

import (
	"context"
	"fmt"
)

// schemaStatements is the full crewboard schema, applied idempotently at
// startup. The assigned_workers column holds a JSON array of phone numbers;
// the engine, not the database, enforces the cross-record invariants.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS workers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL UNIQUE,
		skill TEXT NOT NULL,
		location TEXT NOT NULL,
		language TEXT NOT NULL,
		available INTEGER NOT NULL DEFAULT 1,
		registered_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_workers_skill ON workers(skill);`,
	`CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		skill_required TEXT NOT NULL,
		location TEXT NOT NULL,
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		contact_number TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		assigned_workers TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_skill ON jobs(skill_required);`,
	`CREATE TABLE IF NOT EXISTS operators (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		updated INTEGER NOT NULL,
		password_hash TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS audit_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		payload TEXT,
		status TEXT NOT NULL DEFAULT 'queued',
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		next_try_at INTEGER,
		last_error TEXT,
		created INTEGER NOT NULL,
		updated INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_audit_events_status ON audit_events(status, next_try_at);`,
}

// EnsureSchema creates all crewboard tables and indexes if they do not
// already exist.
func EnsureSchema(ctx context.Context, d *DB) error {
	for _, stmt := range schemaStatements {
		if _, err := d.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
