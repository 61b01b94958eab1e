package repository

import (
	"context"

	"github.com/garnizeh/crewboard/internal/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.
//
// Get methods return (nil, nil) when no record exists; callers translate
// that into their own not-found condition.

type WorkerRepo interface {
	CreateWorker(ctx context.Context, w *models.Worker) error
	GetWorkerByID(ctx context.Context, id string) (*models.Worker, error)
	GetWorkerByPhone(ctx context.Context, phone string) (*models.Worker, error)
	ListWorkers(ctx context.Context) ([]models.Worker, error)
	ListWorkersBySkill(ctx context.Context, skill string) ([]models.Worker, error)
	UpdateWorker(ctx context.Context, w *models.Worker) error
	// UpdateWorkerProfile writes profile columns only. Available is never
	// touched; it stays under the assignment engine's control.
	UpdateWorkerProfile(ctx context.Context, w *models.Worker) error
	DeleteWorker(ctx context.Context, id string) error
}

type JobRepo interface {
	CreateJob(ctx context.Context, j *models.Job) error
	GetJobByID(ctx context.Context, id string) (*models.Job, error)
	ListJobs(ctx context.Context) ([]models.Job, error)
	ListJobsBySkill(ctx context.Context, skill string) ([]models.Job, error)
	UpdateJob(ctx context.Context, j *models.Job) error
	// UpdateJobProfile writes posting columns only. Status and the assigned
	// set are never touched; they stay under the assignment engine's control.
	UpdateJobProfile(ctx context.Context, j *models.Job) error
	DeleteJob(ctx context.Context, id string) error
}

type OperatorRepo interface {
	CreateOperator(ctx context.Context, o *models.Operator) (int64, error)
	GetOperatorByID(ctx context.Context, id int64) (*models.Operator, error)
	GetOperatorByEmail(ctx context.Context, email string) (*models.Operator, error)
}

type AuditRepo interface {
	Enqueue(ctx context.Context, e *models.AuditEvent) (int64, error)
	FetchNext(ctx context.Context) (*models.AuditEvent, error)
	UpdateEvent(ctx context.Context, e *models.AuditEvent) error
	ListRecent(ctx context.Context, limit int) ([]models.AuditEvent, error)
}
