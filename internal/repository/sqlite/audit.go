package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/garnizeh/crewboard/internal/models"
)

// Enqueue inserts an audit event into the queue and returns the new ID
func (r *SQLiteRepo) Enqueue(ctx context.Context, e *models.AuditEvent) (int64, error) {
	if e == nil {
		return 0, fmt.Errorf("event is nil")
	}
	if e.MaxAttempts == 0 {
		e.MaxAttempts = 5
	}

	ts := now()
	res, err := r.conn.Exec(ctx,
		`INSERT INTO audit_events (type, payload, status, attempts, max_attempts, created, updated) VALUES (?, ?, 'queued', ?, ?, ?, ?)`,
		e.Type, string(e.Payload), e.Attempts, e.MaxAttempts, ts, ts)
	if err != nil {
		return 0, fmt.Errorf("enqueue audit event: %w", err)
	}

	return res.LastInsertId()
}

// FetchNext fetches the next queued or retry-due event, oldest first
func (r *SQLiteRepo) FetchNext(ctx context.Context) (*models.AuditEvent, error) {
	q := `SELECT id, type, payload, status, attempts, max_attempts, next_try_at, last_error, created, updated FROM audit_events WHERE (status = 'queued' OR status = 'retry') AND (next_try_at IS NULL OR next_try_at <= ?) ORDER BY created ASC LIMIT 1`
	row := r.conn.QueryRow(ctx, q, now())

	e, err := scanAuditEvent(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("fetch next audit event: %w", err)
	}

	return e, nil
}

// UpdateEvent updates status, attempts, next_try_at and last_error
func (r *SQLiteRepo) UpdateEvent(ctx context.Context, e *models.AuditEvent) error {
	if e == nil {
		return fmt.Errorf("event is nil")
	}

	var nextTry any
	if e.NextTryAt != nil {
		nextTry = e.NextTryAt.UTC().UnixMilli()
	}
	_, err := r.conn.Exec(ctx,
		`UPDATE audit_events SET status = ?, attempts = ?, next_try_at = ?, last_error = ?, updated = ? WHERE id = ?`,
		e.Status, e.Attempts, nextTry, e.LastError, now(), e.ID)
	return err
}

// ListRecent returns the newest processed events for the activity feed
func (r *SQLiteRepo) ListRecent(ctx context.Context, limit int) ([]models.AuditEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	rows, err := r.conn.QueryRows(ctx,
		`SELECT id, type, payload, status, attempts, max_attempts, next_try_at, last_error, created, updated FROM audit_events WHERE status = 'done' ORDER BY created DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AuditEvent
	for rows.Next() {
		e, err := scanAuditEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func scanAuditEvent(scan func(...any) error) (*models.AuditEvent, error) {
	var (
		e       models.AuditEvent
		payload sql.NullString
		nextTry sql.NullInt64
		lastErr sql.NullString
		created int64
		updated int64
	)
	if err := scan(&e.ID, &e.Type, &payload, &e.Status, &e.Attempts, &e.MaxAttempts, &nextTry, &lastErr, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	if payload.Valid {
		e.Payload = json.RawMessage(payload.String)
	}
	if nextTry.Valid {
		t := time.UnixMilli(nextTry.Int64).UTC()
		e.NextTryAt = &t
	}
	if lastErr.Valid {
		e.LastError = lastErr.String
	}
	e.Created = time.UnixMilli(created).UTC()
	e.Updated = time.UnixMilli(updated).UTC()

	return &e, nil
}
