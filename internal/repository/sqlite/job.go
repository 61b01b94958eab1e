package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/garnizeh/crewboard/internal/models"
)

func (r *SQLiteRepo) CreateJob(ctx context.Context, j *models.Job) error {
	if j == nil {
		return fmt.Errorf("job is nil")
	}

	assigned, err := marshalAssigned(j.AssignedWorkers)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx,
		`INSERT INTO jobs (id, title, description, skill_required, location, date, time, contact_number, status, assigned_workers, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.Title, j.Description, j.SkillRequired, j.Location, j.Date, j.Time, j.ContactNumber, j.Status, assigned, j.CreatedAt.UTC().UnixMilli())
	return err
}

func (r *SQLiteRepo) GetJobByID(ctx context.Context, id string) (*models.Job, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, title, description, skill_required, location, date, time, contact_number, status, assigned_workers, created_at FROM jobs WHERE id = ?`, id)
	return scanJob(row.Scan)
}

func (r *SQLiteRepo) ListJobs(ctx context.Context) ([]models.Job, error) {
	return r.listJobs(ctx, `SELECT id, title, description, skill_required, location, date, time, contact_number, status, assigned_workers, created_at FROM jobs ORDER BY created_at ASC, id ASC`)
}

func (r *SQLiteRepo) ListJobsBySkill(ctx context.Context, skill string) ([]models.Job, error) {
	return r.listJobs(ctx, `SELECT id, title, description, skill_required, location, date, time, contact_number, status, assigned_workers, created_at FROM jobs WHERE skill_required = ? ORDER BY created_at ASC, id ASC`, skill)
}

func (r *SQLiteRepo) listJobs(ctx context.Context, query string, args ...any) ([]models.Job, error) {
	rows, err := r.conn.QueryRows(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Job
	for rows.Next() {
		j, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateJob(ctx context.Context, j *models.Job) error {
	if j == nil {
		return fmt.Errorf("job is nil")
	}

	assigned, err := marshalAssigned(j.AssignedWorkers)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx,
		`UPDATE jobs SET title = ?, description = ?, skill_required = ?, location = ?, date = ?, time = ?, contact_number = ?, status = ?, assigned_workers = ? WHERE id = ?`,
		j.Title, j.Description, j.SkillRequired, j.Location, j.Date, j.Time, j.ContactNumber, j.Status, assigned, j.ID)
	return err
}

func (r *SQLiteRepo) UpdateJobProfile(ctx context.Context, j *models.Job) error {
	if j == nil {
		return fmt.Errorf("job is nil")
	}

	_, err := r.conn.Exec(ctx,
		`UPDATE jobs SET title = ?, description = ?, skill_required = ?, location = ?, date = ?, time = ?, contact_number = ? WHERE id = ?`,
		j.Title, j.Description, j.SkillRequired, j.Location, j.Date, j.Time, j.ContactNumber, j.ID)
	return err
}

func (r *SQLiteRepo) DeleteJob(ctx context.Context, id string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	return err
}

func marshalAssigned(phones []string) (string, error) {
	if phones == nil {
		phones = []string{}
	}
	b, err := json.Marshal(phones)
	if err != nil {
		return "", fmt.Errorf("marshal assigned workers: %w", err)
	}
	return string(b), nil
}

func scanJob(scan func(...any) error) (*models.Job, error) {
	var (
		j        models.Job
		assigned string
		created  int64
	)
	if err := scan(&j.ID, &j.Title, &j.Description, &j.SkillRequired, &j.Location, &j.Date, &j.Time, &j.ContactNumber, &j.Status, &assigned, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	if err := json.Unmarshal([]byte(assigned), &j.AssignedWorkers); err != nil {
		return nil, fmt.Errorf("unmarshal assigned workers for job %s: %w", j.ID, err)
	}
	if j.AssignedWorkers == nil {
		j.AssignedWorkers = []string{}
	}
	j.CreatedAt = time.UnixMilli(created).UTC()

	return &j, nil
}
