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

// JobRegistry owns job posting CRUD. Status and the assigned-worker set are
// engine-owned; direct writes to them are rejected here and job deletion
// goes through the engine's release path, not this registry.
type JobRegistry struct {
	jobs   repository.JobRepo
	logger *slog.Logger
	sink   audit.Sink
}

func NewJobRegistry(jobs repository.JobRepo, logger *slog.Logger, sink audit.Sink) *JobRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobRegistry{jobs: jobs, logger: logger, sink: sink}
}

type JobInput struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	SkillRequired string `json:"skill_required"`
	Location      string `json:"location"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	ContactNumber string `json:"contact_number"`
}

// JobPatch is a partial posting update. Status and AssignedWorkers are
// present only so a direct write attempt can be rejected explicitly.
type JobPatch struct {
	Title           *string  `json:"title,omitempty"`
	Description     *string  `json:"description,omitempty"`
	SkillRequired   *string  `json:"skill_required,omitempty"`
	Location        *string  `json:"location,omitempty"`
	Date            *string  `json:"date,omitempty"`
	Time            *string  `json:"time,omitempty"`
	ContactNumber   *string  `json:"contact_number,omitempty"`
	Status          *string  `json:"status,omitempty"`
	AssignedWorkers []string `json:"assigned_workers,omitempty"`
}

func validateJobFields(in JobInput) error {
	if err := requireBounded("title", in.Title, 200); err != nil {
		return err
	}
	if err := requireBounded("description", in.Description, 1000); err != nil {
		return err
	}
	if err := requireBounded("skill_required", in.SkillRequired, 50); err != nil {
		return err
	}
	if err := requireBounded("location", in.Location, 100); err != nil {
		return err
	}
	if err := requireBounded("date", in.Date, 20); err != nil {
		return err
	}
	if err := requireBounded("time", in.Time, 10); err != nil {
		return err
	}
	return requirePhone("contact_number", in.ContactNumber)
}

// CreateJob validates the input and stores a new open job with an empty
// assigned set.
func (r *JobRegistry) CreateJob(ctx context.Context, in JobInput) (*models.Job, error) {
	if err := validateJobFields(in); err != nil {
		return nil, err
	}

	j := &models.Job{
		ID:              uuid.NewString(),
		Title:           in.Title,
		Description:     in.Description,
		SkillRequired:   in.SkillRequired,
		Location:        in.Location,
		Date:            in.Date,
		Time:            in.Time,
		ContactNumber:   in.ContactNumber,
		Status:          models.JobStatusOpen,
		AssignedWorkers: []string{},
		CreatedAt:       time.Now().UTC(),
	}
	if err := r.jobs.CreateJob(ctx, j); err != nil {
		return nil, fault.Storage("create job", err)
	}

	r.logger.Info("job created", slog.String("id", j.ID), slog.String("skill", j.SkillRequired))
	if r.sink != nil {
		r.sink.Record(ctx, audit.EventJobCreated, map[string]any{"job_id": j.ID, "title": j.Title})
	}

	return j, nil
}

func (r *JobRegistry) GetJob(ctx context.Context, id string) (*models.Job, error) {
	j, err := r.jobs.GetJobByID(ctx, id)
	if err != nil {
		return nil, fault.Storage("get job", err)
	}
	if j == nil {
		return nil, fault.NotFound("job", id)
	}
	return j, nil
}

// ListJobs returns all jobs in insertion order, or only those requiring the
// given skill when skill is non-empty.
func (r *JobRegistry) ListJobs(ctx context.Context, skill string) ([]models.Job, error) {
	var (
		out []models.Job
		err error
	)
	if skill == "" {
		out, err = r.jobs.ListJobs(ctx)
	} else {
		out, err = r.jobs.ListJobsBySkill(ctx, skill)
	}
	if err != nil {
		return nil, fault.Storage("list jobs", err)
	}
	return out, nil
}

// UpdateJob merges the patch into the stored posting. Status and the
// assigned set are engine-owned and their presence is a validation error.
func (r *JobRegistry) UpdateJob(ctx context.Context, id string, patch JobPatch) (*models.Job, error) {
	if patch.Status != nil {
		return nil, fault.Validation("status", "is managed by the assignment engine")
	}
	if patch.AssignedWorkers != nil {
		return nil, fault.Validation("assigned_workers", "is managed by the assignment engine")
	}

	j, err := r.jobs.GetJobByID(ctx, id)
	if err != nil {
		return nil, fault.Storage("get job", err)
	}
	if j == nil {
		return nil, fault.NotFound("job", id)
	}

	merged := *j
	if patch.Title != nil {
		merged.Title = *patch.Title
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	if patch.SkillRequired != nil {
		merged.SkillRequired = *patch.SkillRequired
	}
	if patch.Location != nil {
		merged.Location = *patch.Location
	}
	if patch.Date != nil {
		merged.Date = *patch.Date
	}
	if patch.Time != nil {
		merged.Time = *patch.Time
	}
	if patch.ContactNumber != nil {
		merged.ContactNumber = *patch.ContactNumber
	}

	if err := validateJobFields(JobInput{
		Title:         merged.Title,
		Description:   merged.Description,
		SkillRequired: merged.SkillRequired,
		Location:      merged.Location,
		Date:          merged.Date,
		Time:          merged.Time,
		ContactNumber: merged.ContactNumber,
	}); err != nil {
		return nil, err
	}

	// Only posting columns are written. A concurrent engine write to status
	// or the assigned set cannot be clobbered by this merge.
	if err := r.jobs.UpdateJobProfile(ctx, &merged); err != nil {
		return nil, fault.Storage("update job", err)
	}

	return &merged, nil
}
