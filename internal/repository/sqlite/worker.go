package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garnizeh/crewboard/internal/models"
)

func (r *SQLiteRepo) CreateWorker(ctx context.Context, w *models.Worker) error {
	if w == nil {
		return fmt.Errorf("worker is nil")
	}

	_, err := r.conn.Exec(ctx,
		`INSERT INTO workers (id, name, phone, skill, location, language, available, registered_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.Name, w.Phone, w.Skill, w.Location, w.Language, boolToInt(w.Available), w.RegisteredAt.UTC().UnixMilli())
	return err
}

func (r *SQLiteRepo) GetWorkerByID(ctx context.Context, id string) (*models.Worker, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, name, phone, skill, location, language, available, registered_at FROM workers WHERE id = ?`, id)
	return scanWorker(row.Scan)
}

func (r *SQLiteRepo) GetWorkerByPhone(ctx context.Context, phone string) (*models.Worker, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, name, phone, skill, location, language, available, registered_at FROM workers WHERE phone = ?`, phone)
	return scanWorker(row.Scan)
}

func (r *SQLiteRepo) ListWorkers(ctx context.Context) ([]models.Worker, error) {
	return r.listWorkers(ctx, `SELECT id, name, phone, skill, location, language, available, registered_at FROM workers ORDER BY registered_at ASC, id ASC`)
}

func (r *SQLiteRepo) ListWorkersBySkill(ctx context.Context, skill string) ([]models.Worker, error) {
	return r.listWorkers(ctx, `SELECT id, name, phone, skill, location, language, available, registered_at FROM workers WHERE skill = ? ORDER BY registered_at ASC, id ASC`, skill)
}

func (r *SQLiteRepo) listWorkers(ctx context.Context, query string, args ...any) ([]models.Worker, error) {
	rows, err := r.conn.QueryRows(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Worker
	for rows.Next() {
		w, err := scanWorker(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateWorker(ctx context.Context, w *models.Worker) error {
	if w == nil {
		return fmt.Errorf("worker is nil")
	}

	_, err := r.conn.Exec(ctx,
		`UPDATE workers SET name = ?, phone = ?, skill = ?, location = ?, language = ?, available = ? WHERE id = ?`,
		w.Name, w.Phone, w.Skill, w.Location, w.Language, boolToInt(w.Available), w.ID)
	return err
}

func (r *SQLiteRepo) UpdateWorkerProfile(ctx context.Context, w *models.Worker) error {
	if w == nil {
		return fmt.Errorf("worker is nil")
	}

	_, err := r.conn.Exec(ctx,
		`UPDATE workers SET name = ?, phone = ?, skill = ?, location = ?, language = ? WHERE id = ?`,
		w.Name, w.Phone, w.Skill, w.Location, w.Language, w.ID)
	return err
}

func (r *SQLiteRepo) DeleteWorker(ctx context.Context, id string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM workers WHERE id = ?`, id)
	return err
}

func scanWorker(scan func(...any) error) (*models.Worker, error) {
	var (
		w          models.Worker
		available  int64
		registered int64
	)
	if err := scan(&w.ID, &w.Name, &w.Phone, &w.Skill, &w.Location, &w.Language, &available, &registered); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	w.Available = available != 0
	w.RegisteredAt = time.UnixMilli(registered).UTC()

	return &w, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
