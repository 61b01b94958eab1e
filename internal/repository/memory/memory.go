// Package memory provides in-memory repository implementations for tests.
// They preserve insertion order and support per-operation error injection
// so storage-failure paths can be exercised without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/garnizeh/crewboard/internal/models"
	"github.com/garnizeh/crewboard/pkg/repository"
)

type Store struct {
	mu      sync.Mutex
	workers []models.Worker
	jobs    []models.Job
	events  []models.AuditEvent
	nextID  int64

	// FailWith, when set, is returned by the named operations.
	FailWith map[string]error

	// AfterGet, when set, runs after GetWorkerByID or GetJobByID has taken
	// its snapshot and released the store lock. Tests use it to interleave
	// a concurrent write with a read-modify-write caller.
	AfterGet func(op string)
}

var _ repository.WorkerRepo = (*Store)(nil)
var _ repository.JobRepo = (*Store)(nil)
var _ repository.AuditRepo = (*Store)(nil)

func NewStore() *Store {
	return &Store{FailWith: map[string]error{}, nextID: 1}
}

func (s *Store) fail(op string) error {
	return s.FailWith[op]
}

func (s *Store) CreateWorker(_ context.Context, w *models.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateWorker"); err != nil {
		return err
	}
	s.workers = append(s.workers, *w)
	return nil
}

func (s *Store) GetWorkerByID(_ context.Context, id string) (*models.Worker, error) {
	w, err := func() (*models.Worker, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.fail("GetWorkerByID"); err != nil {
			return nil, err
		}
		for i := range s.workers {
			if s.workers[i].ID == id {
				w := s.workers[i]
				return &w, nil
			}
		}
		return nil, nil
	}()
	if s.AfterGet != nil {
		s.AfterGet("GetWorkerByID")
	}
	return w, err
}

func (s *Store) GetWorkerByPhone(_ context.Context, phone string) (*models.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetWorkerByPhone"); err != nil {
		return nil, err
	}
	for i := range s.workers {
		if s.workers[i].Phone == phone {
			w := s.workers[i]
			return &w, nil
		}
	}
	return nil, nil
}

func (s *Store) ListWorkers(_ context.Context) ([]models.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListWorkers"); err != nil {
		return nil, err
	}
	out := make([]models.Worker, len(s.workers))
	copy(out, s.workers)
	return out, nil
}

func (s *Store) ListWorkersBySkill(_ context.Context, skill string) ([]models.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListWorkersBySkill"); err != nil {
		return nil, err
	}
	var out []models.Worker
	for _, w := range s.workers {
		if w.Skill == skill {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *Store) UpdateWorker(_ context.Context, w *models.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateWorker"); err != nil {
		return err
	}
	for i := range s.workers {
		if s.workers[i].ID == w.ID {
			s.workers[i] = *w
			return nil
		}
	}
	return nil
}

func (s *Store) UpdateWorkerProfile(_ context.Context, w *models.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateWorkerProfile"); err != nil {
		return err
	}
	for i := range s.workers {
		if s.workers[i].ID == w.ID {
			s.workers[i].Name = w.Name
			s.workers[i].Phone = w.Phone
			s.workers[i].Skill = w.Skill
			s.workers[i].Location = w.Location
			s.workers[i].Language = w.Language
			return nil
		}
	}
	return nil
}

func (s *Store) DeleteWorker(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeleteWorker"); err != nil {
		return err
	}
	for i := range s.workers {
		if s.workers[i].ID == id {
			s.workers = append(s.workers[:i], s.workers[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Store) CreateJob(_ context.Context, j *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateJob"); err != nil {
		return err
	}
	s.jobs = append(s.jobs, cloneJob(j))
	return nil
}

func (s *Store) GetJobByID(_ context.Context, id string) (*models.Job, error) {
	j, err := func() (*models.Job, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.fail("GetJobByID"); err != nil {
			return nil, err
		}
		for i := range s.jobs {
			if s.jobs[i].ID == id {
				j := cloneJob(&s.jobs[i])
				return &j, nil
			}
		}
		return nil, nil
	}()
	if s.AfterGet != nil {
		s.AfterGet("GetJobByID")
	}
	return j, err
}

func (s *Store) ListJobs(_ context.Context) ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListJobs"); err != nil {
		return nil, err
	}
	out := make([]models.Job, 0, len(s.jobs))
	for i := range s.jobs {
		out = append(out, cloneJob(&s.jobs[i]))
	}
	return out, nil
}

func (s *Store) ListJobsBySkill(_ context.Context, skill string) ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListJobsBySkill"); err != nil {
		return nil, err
	}
	var out []models.Job
	for i := range s.jobs {
		if s.jobs[i].SkillRequired == skill {
			out = append(out, cloneJob(&s.jobs[i]))
		}
	}
	return out, nil
}

func (s *Store) UpdateJob(_ context.Context, j *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateJob"); err != nil {
		return err
	}
	for i := range s.jobs {
		if s.jobs[i].ID == j.ID {
			s.jobs[i] = cloneJob(j)
			return nil
		}
	}
	return nil
}

func (s *Store) UpdateJobProfile(_ context.Context, j *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateJobProfile"); err != nil {
		return err
	}
	for i := range s.jobs {
		if s.jobs[i].ID == j.ID {
			s.jobs[i].Title = j.Title
			s.jobs[i].Description = j.Description
			s.jobs[i].SkillRequired = j.SkillRequired
			s.jobs[i].Location = j.Location
			s.jobs[i].Date = j.Date
			s.jobs[i].Time = j.Time
			s.jobs[i].ContactNumber = j.ContactNumber
			return nil
		}
	}
	return nil
}

func (s *Store) DeleteJob(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeleteJob"); err != nil {
		return err
	}
	for i := range s.jobs {
		if s.jobs[i].ID == id {
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Store) Enqueue(_ context.Context, e *models.AuditEvent) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Enqueue"); err != nil {
		return 0, err
	}
	if e.MaxAttempts == 0 {
		e.MaxAttempts = 5
	}
	e.ID = s.nextID
	s.nextID++
	e.Status = "queued"
	e.Created = time.Now().UTC()
	e.Updated = e.Created
	s.events = append(s.events, *e)
	return e.ID, nil
}

func (s *Store) FetchNext(_ context.Context) (*models.AuditEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("FetchNext"); err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range s.events {
		e := &s.events[i]
		due := e.NextTryAt == nil || !e.NextTryAt.After(now)
		if (e.Status == "queued" || e.Status == "retry") && due {
			out := *e
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) UpdateEvent(_ context.Context, e *models.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateEvent"); err != nil {
		return err
	}
	for i := range s.events {
		if s.events[i].ID == e.ID {
			s.events[i] = *e
			s.events[i].Updated = time.Now().UTC()
			return nil
		}
	}
	return nil
}

func (s *Store) ListRecent(_ context.Context, limit int) ([]models.AuditEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListRecent"); err != nil {
		return nil, err
	}
	var out []models.AuditEvent
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		if s.events[i].Status == "done" {
			out = append(out, s.events[i])
		}
	}
	return out, nil
}

// Events returns a snapshot of every stored audit event.
func (s *Store) Events() []models.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AuditEvent, len(s.events))
	copy(out, s.events)
	return out
}

func cloneJob(j *models.Job) models.Job {
	c := *j
	c.AssignedWorkers = append([]string{}, j.AssignedWorkers...)
	return c
}
