// Package engine implements the assignment consistency engine: the only
// component allowed to touch both the worker and job collections in one
// logical operation. It owns Worker.Available and Job.Status /
// Job.AssignedWorkers, and serializes every mutation per affected job id
// and worker phone through a keyed lock table with sorted acquisition
// order.
//
// Write ordering inside a critical section always prefers the harmless
// failure mode: a worker flips unavailable before its phone joins a job,
// and a phone leaves a job before its worker flips available. A storage
// failure can therefore strand a worker as unavailable (recovered by a
// compensating write, logged if that also fails) but can never let two
// jobs hold the same phone.
package engine

import (
	"context"

	"log/slog"

	"github.com/garnizeh/crewboard/internal/audit"
	"github.com/garnizeh/crewboard/internal/fault"
	"github.com/garnizeh/crewboard/internal/models"
	"github.com/garnizeh/crewboard/pkg/repository"
)

type Engine struct {
	workers repository.WorkerRepo
	jobs    repository.JobRepo
	locks   *keyedLocks
	logger  *slog.Logger
	sink    audit.Sink
}

// New creates an Engine. The sink may be nil, in which case no audit
// events are recorded.
func New(workers repository.WorkerRepo, jobs repository.JobRepo, logger *slog.Logger, sink audit.Sink) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		workers: workers,
		jobs:    jobs,
		locks:   newKeyedLocks(),
		logger:  logger,
		sink:    sink,
	}
}

func (e *Engine) record(ctx context.Context, eventType string, payload any) {
	if e.sink != nil {
		e.sink.Record(ctx, eventType, payload)
	}
}

// AssignWorkers assigns the given phones to the job. The whole call fails
// only when the job is missing or terminal; otherwise every requested phone
// is judged independently and the result carries the per-phone outcome.
func (e *Engine) AssignWorkers(ctx context.Context, jobID string, phones []string) (*models.AssignmentResult, error) {
	keys := make([]string, 0, len(phones)+1)
	keys = append(keys, jobKey(jobID))
	for _, p := range phones {
		keys = append(keys, workerKey(p))
	}
	unlock := e.locks.acquire(keys...)
	defer unlock()

	job, err := e.jobs.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, fault.Storage("get job", err)
	}
	if job == nil {
		return nil, fault.NotFound("job", jobID)
	}
	if models.TerminalStatus(job.Status) {
		return nil, fault.InvalidState(jobID, job.Status)
	}

	res := &models.AssignmentResult{JobID: jobID, Assigned: []string{}}

	// De-duplicate the request, then judge each phone on its own.
	seen := make(map[string]bool, len(phones))
	var commit []*models.Worker
	for _, phone := range phones {
		if seen[phone] {
			continue
		}
		seen[phone] = true

		if job.Holds(phone) {
			res.Skipped = append(res.Skipped, phone)
			continue
		}

		w, err := e.workers.GetWorkerByPhone(ctx, phone)
		if err != nil {
			return nil, fault.Storage("get worker by phone", err)
		}
		if w == nil {
			res.Rejected = append(res.Rejected, models.RejectedPhone{Phone: phone, Reason: models.ReasonUnknownWorker})
			continue
		}
		if !w.Available {
			res.Rejected = append(res.Rejected, models.RejectedPhone{Phone: phone, Reason: models.ReasonWorkerUnavailable})
			continue
		}
		commit = append(commit, w)
	}

	// Commit the validated subset: workers flip unavailable first, the job
	// document is written last.
	var flipped []*models.Worker
	rollback := func() {
		for _, w := range flipped {
			w.Available = true
			if err := e.workers.UpdateWorker(ctx, w); err != nil {
				e.logger.Error("rollback worker availability failed",
					slog.String("phone", w.Phone), slog.Any("err", err))
			}
		}
	}

	for _, w := range commit {
		w.Available = false
		if err := e.workers.UpdateWorker(ctx, w); err != nil {
			rollback()
			return nil, fault.Storage("update worker availability", err)
		}
		flipped = append(flipped, w)
	}

	if len(commit) > 0 {
		for _, w := range commit {
			job.AssignedWorkers = append(job.AssignedWorkers, w.Phone)
			res.Assigned = append(res.Assigned, w.Phone)
		}
		if job.Status == models.JobStatusOpen {
			job.Status = models.JobStatusAssigned
		}
		if err := e.jobs.UpdateJob(ctx, job); err != nil {
			rollback()
			return nil, fault.Storage("update job", err)
		}

		e.logger.Info("workers assigned",
			slog.String("job_id", jobID),
			slog.Int("count", len(res.Assigned)),
			slog.Int("rejected", len(res.Rejected)))
		e.record(ctx, audit.EventJobAssigned, map[string]any{"job_id": jobID, "phones": res.Assigned})
	}

	res.Status = job.Status

	return res, nil
}

// ReleaseWorker removes one phone from the job's assigned set and restores
// the worker's availability. Releasing a phone the job does not hold is a
// no-op, so repeated delivery is harmless.
func (e *Engine) ReleaseWorker(ctx context.Context, jobID, phone string) error {
	unlock := e.locks.acquire(jobKey(jobID), workerKey(phone))
	defer unlock()

	job, err := e.jobs.GetJobByID(ctx, jobID)
	if err != nil {
		return fault.Storage("get job", err)
	}
	if job == nil {
		return fault.NotFound("job", jobID)
	}
	if models.TerminalStatus(job.Status) {
		return fault.InvalidState(jobID, job.Status)
	}
	if !job.Holds(phone) {
		return nil
	}

	remaining := make([]string, 0, len(job.AssignedWorkers))
	for _, p := range job.AssignedWorkers {
		if p != phone {
			remaining = append(remaining, p)
		}
	}
	job.AssignedWorkers = remaining
	if job.Status == models.JobStatusAssigned && len(remaining) == 0 {
		job.Status = models.JobStatusOpen
	}

	if err := e.jobs.UpdateJob(ctx, job); err != nil {
		return fault.Storage("update job", err)
	}
	if err := e.restoreAvailability(ctx, phone); err != nil {
		return err
	}

	e.record(ctx, audit.EventJobReleased, map[string]any{"job_id": jobID, "phone": phone})

	return nil
}

// DeleteJob releases every assigned worker and removes the job record, all
// inside one critical section over the job and its workers.
func (e *Engine) DeleteJob(ctx context.Context, jobID string) error {
	job, unlock, err := e.lockJobWithMembers(ctx, jobID)
	if err != nil {
		return err
	}
	defer unlock()

	phones := job.AssignedWorkers

	if err := e.jobs.DeleteJob(ctx, jobID); err != nil {
		return fault.Storage("delete job", err)
	}
	for _, phone := range phones {
		if err := e.restoreAvailability(ctx, phone); err != nil {
			return err
		}
	}

	e.logger.Info("job deleted", slog.String("job_id", jobID), slog.Int("released", len(phones)))
	e.record(ctx, audit.EventJobDeleted, map[string]any{"job_id": jobID, "released": phones})

	return nil
}

// SetJobStatus performs the operator transitions to completed or cancelled.
// Cancellation releases every assigned worker; completion keeps them
// recorded and unavailable.
func (e *Engine) SetJobStatus(ctx context.Context, jobID, target string) error {
	if target != models.JobStatusCompleted && target != models.JobStatusCancelled {
		return fault.Validation("status", "must be completed or cancelled")
	}

	job, unlock, err := e.lockJobWithMembers(ctx, jobID)
	if err != nil {
		return err
	}
	defer unlock()

	if models.TerminalStatus(job.Status) {
		return fault.InvalidState(jobID, job.Status)
	}

	released := job.AssignedWorkers
	job.Status = target
	if target == models.JobStatusCancelled {
		job.AssignedWorkers = []string{}
	}

	if err := e.jobs.UpdateJob(ctx, job); err != nil {
		return fault.Storage("update job", err)
	}

	event := audit.EventJobCompleted
	if target == models.JobStatusCancelled {
		event = audit.EventJobCancelled
		for _, phone := range released {
			if err := e.restoreAvailability(ctx, phone); err != nil {
				return err
			}
		}
	}

	e.logger.Info("job status changed", slog.String("job_id", jobID), slog.String("status", target))
	e.record(ctx, event, map[string]any{"job_id": jobID, "status": target})

	return nil
}

// DeleteWorker removes a worker record. When any non-terminal job still
// holds the worker's phone the delete is refused with a conflict naming the
// blocking jobs; the operator must cancel or reassign those jobs first.
func (e *Engine) DeleteWorker(ctx context.Context, workerID string) error {
	w, err := e.workers.GetWorkerByID(ctx, workerID)
	if err != nil {
		return fault.Storage("get worker", err)
	}
	if w == nil {
		return fault.NotFound("worker", workerID)
	}

	unlock := e.locks.acquire(workerKey(w.Phone))
	defer unlock()

	jobs, err := e.jobs.ListJobs(ctx)
	if err != nil {
		return fault.Storage("list jobs", err)
	}

	var blocking []string
	for i := range jobs {
		j := &jobs[i]
		if !models.TerminalStatus(j.Status) && j.Holds(w.Phone) {
			blocking = append(blocking, j.ID)
		}
	}
	if len(blocking) > 0 {
		return fault.ConflictBlockedBy(blocking)
	}

	if err := e.workers.DeleteWorker(ctx, workerID); err != nil {
		return fault.Storage("delete worker", err)
	}

	e.record(ctx, audit.EventWorkerDeleted, map[string]any{"worker_id": workerID, "phone": w.Phone})

	return nil
}

// restoreAvailability flips a released worker back to available. A missing
// worker record is tolerated: the phone may belong to a worker deleted
// after its last job completed.
func (e *Engine) restoreAvailability(ctx context.Context, phone string) error {
	w, err := e.workers.GetWorkerByPhone(ctx, phone)
	if err != nil {
		return fault.Storage("get worker by phone", err)
	}
	if w == nil || w.Available {
		return nil
	}

	w.Available = true
	if err := e.workers.UpdateWorker(ctx, w); err != nil {
		return fault.Storage("update worker availability", err)
	}

	return nil
}

// lockJobWithMembers locks the job together with every phone in its
// assigned set. The set is read before locking, so the read is repeated
// under the locks and the acquisition retried until it is stable.
func (e *Engine) lockJobWithMembers(ctx context.Context, jobID string) (*models.Job, func(), error) {
	for {
		peek, err := e.jobs.GetJobByID(ctx, jobID)
		if err != nil {
			return nil, nil, fault.Storage("get job", err)
		}
		if peek == nil {
			return nil, nil, fault.NotFound("job", jobID)
		}

		keys := make([]string, 0, len(peek.AssignedWorkers)+1)
		keys = append(keys, jobKey(jobID))
		for _, p := range peek.AssignedWorkers {
			keys = append(keys, workerKey(p))
		}
		unlock := e.locks.acquire(keys...)

		job, err := e.jobs.GetJobByID(ctx, jobID)
		if err != nil {
			unlock()
			return nil, nil, fault.Storage("get job", err)
		}
		if job == nil {
			unlock()
			return nil, nil, fault.NotFound("job", jobID)
		}
		if samePhoneSet(job.AssignedWorkers, peek.AssignedWorkers) {
			return job, unlock, nil
		}

		// Membership changed between the peek and the lock; try again.
		unlock()
	}
}

func samePhoneSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, p := range a {
		set[p] = true
	}
	for _, p := range b {
		if !set[p] {
			return false
		}
	}
	return true
}
