package registry

import (
	"context"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/garnizeh/crewboard/internal/audit"
	"github.com/garnizeh/crewboard/internal/fault"
	"github.com/garnizeh/crewboard/internal/models"
	"github.com/garnizeh/crewboard/pkg/repository"
)

// WorkerRegistry owns worker profile CRUD. It enforces phone uniqueness and
// field validation; the availability flag belongs to the assignment engine
// and a direct write to it is rejected here.
type WorkerRegistry struct {
	workers repository.WorkerRepo
	logger  *slog.Logger
	sink    audit.Sink
}

func NewWorkerRegistry(workers repository.WorkerRepo, logger *slog.Logger, sink audit.Sink) *WorkerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkerRegistry{workers: workers, logger: logger, sink: sink}
}

type WorkerInput struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Skill    string `json:"skill"`
	Location string `json:"location"`
	Language string `json:"language"`
}

// WorkerPatch is a partial profile update. Available is present only so a
// direct write attempt can be rejected explicitly rather than dropped.
type WorkerPatch struct {
	Name      *string `json:"name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Skill     *string `json:"skill,omitempty"`
	Location  *string `json:"location,omitempty"`
	Language  *string `json:"language,omitempty"`
	Available *bool   `json:"available,omitempty"`
}

func validateWorkerFields(in WorkerInput) error {
	if err := requireBounded("name", in.Name, 100); err != nil {
		return err
	}
	if err := requirePhone("phone", in.Phone); err != nil {
		return err
	}
	if err := requireBounded("skill", in.Skill, 50); err != nil {
		return err
	}
	if err := requireBounded("location", in.Location, 100); err != nil {
		return err
	}
	return requireBounded("language", in.Language, 30)
}

// RegisterWorker validates the input, enforces phone uniqueness and stores a
// new worker, available by construction.
func (r *WorkerRegistry) RegisterWorker(ctx context.Context, in WorkerInput) (*models.Worker, error) {
	if err := validateWorkerFields(in); err != nil {
		return nil, err
	}

	existing, err := r.workers.GetWorkerByPhone(ctx, in.Phone)
	if err != nil {
		return nil, fault.Storage("get worker by phone", err)
	}
	if existing != nil {
		return nil, fault.Conflict("a worker with this phone number already exists")
	}

	w := &models.Worker{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Phone:        in.Phone,
		Skill:        in.Skill,
		Location:     in.Location,
		Language:     in.Language,
		Available:    true,
		RegisteredAt: time.Now().UTC(),
	}
	if err := r.workers.CreateWorker(ctx, w); err != nil {
		return nil, fault.Storage("create worker", err)
	}

	r.logger.Info("worker registered", slog.String("id", w.ID), slog.String("skill", w.Skill))
	if r.sink != nil {
		r.sink.Record(ctx, audit.EventWorkerRegistered, map[string]any{"worker_id": w.ID, "phone": w.Phone})
	}

	return w, nil
}

func (r *WorkerRegistry) GetWorker(ctx context.Context, id string) (*models.Worker, error) {
	w, err := r.workers.GetWorkerByID(ctx, id)
	if err != nil {
		return nil, fault.Storage("get worker", err)
	}
	if w == nil {
		return nil, fault.NotFound("worker", id)
	}
	return w, nil
}

// ListWorkers returns all workers, or only those with the given skill when
// skill is non-empty.
func (r *WorkerRegistry) ListWorkers(ctx context.Context, skill string) ([]models.Worker, error) {
	var (
		out []models.Worker
		err error
	)
	if skill == "" {
		out, err = r.workers.ListWorkers(ctx)
	} else {
		out, err = r.workers.ListWorkersBySkill(ctx, skill)
	}
	if err != nil {
		return nil, fault.Storage("list workers", err)
	}
	return out, nil
}

// UpdateWorker merges the patch into the stored profile. The availability
// flag is engine-owned and its presence in the patch is a validation error.
func (r *WorkerRegistry) UpdateWorker(ctx context.Context, id string, patch WorkerPatch) (*models.Worker, error) {
	if patch.Available != nil {
		return nil, fault.Validation("available", "is managed by the assignment engine")
	}

	w, err := r.workers.GetWorkerByID(ctx, id)
	if err != nil {
		return nil, fault.Storage("get worker", err)
	}
	if w == nil {
		return nil, fault.NotFound("worker", id)
	}

	merged := *w
	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.Phone != nil {
		merged.Phone = *patch.Phone
	}
	if patch.Skill != nil {
		merged.Skill = *patch.Skill
	}
	if patch.Location != nil {
		merged.Location = *patch.Location
	}
	if patch.Language != nil {
		merged.Language = *patch.Language
	}

	if err := validateWorkerFields(WorkerInput{
		Name:     merged.Name,
		Phone:    merged.Phone,
		Skill:    merged.Skill,
		Location: merged.Location,
		Language: merged.Language,
	}); err != nil {
		return nil, err
	}

	if merged.Phone != w.Phone {
		// The phone is the cross-reference key in assigned sets; changing it
		// while a job holds the old value would orphan the assignment.
		if !w.Available {
			return nil, fault.Conflict("phone cannot change while the worker is assigned")
		}
		other, err := r.workers.GetWorkerByPhone(ctx, merged.Phone)
		if err != nil {
			return nil, fault.Storage("get worker by phone", err)
		}
		if other != nil && other.ID != id {
			return nil, fault.Conflict("a worker with this phone number already exists")
		}
	}

	// Only profile columns are written. A concurrent engine write to the
	// availability flag cannot be clobbered by this merge.
	if err := r.workers.UpdateWorkerProfile(ctx, &merged); err != nil {
		return nil, fault.Storage("update worker", err)
	}

	return &merged, nil
}
