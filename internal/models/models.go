package models

import (
	"encoding/json"
	"time"
)

// Job status values. A job is created open, becomes assigned once it holds
// at least one worker, and ends in one of the two terminal statuses.
const (
	JobStatusOpen      = "open"
	JobStatusAssigned  = "assigned"
	JobStatusCompleted = "completed"
	JobStatusCancelled = "cancelled"
)

// TerminalStatus reports whether s admits no further transitions.
func TerminalStatus(s string) bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

type Worker struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name" validate:"required"`
	Phone        string    `json:"phone" db:"phone" validate:"required"`
	Skill        string    `json:"skill" db:"skill" validate:"required"`
	Location     string    `json:"location" db:"location" validate:"required"`
	Language     string    `json:"language" db:"language" validate:"required"`
	Available    bool      `json:"available" db:"available"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}

type Job struct {
	ID              string    `json:"id" db:"id"`
	Title           string    `json:"title" db:"title" validate:"required"`
	Description     string    `json:"description" db:"description" validate:"required"`
	SkillRequired   string    `json:"skill_required" db:"skill_required" validate:"required"`
	Location        string    `json:"location" db:"location" validate:"required"`
	Date            string    `json:"date" db:"date" validate:"required"`
	Time            string    `json:"time" db:"time" validate:"required"`
	ContactNumber   string    `json:"contact_number" db:"contact_number" validate:"required"`
	Status          string    `json:"status" db:"status"`
	AssignedWorkers []string  `json:"assigned_workers" db:"assigned_workers"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Holds reports whether phone is currently in the job's assigned set.
func (j *Job) Holds(phone string) bool {
	for _, p := range j.AssignedWorkers {
		if p == phone {
			return true
		}
	}
	return false
}

type Operator struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name" validate:"required"`
	Email        string `json:"email" db:"email" validate:"required,email"`
	Updated      int64  `json:"updated" db:"updated"`
	PasswordHash string `json:"password_hash,omitempty" db:"password_hash"`
}

// Per-phone rejection reasons inside an AssignmentResult. They travel as
// data in the result, not as errors of the whole call.
const (
	ReasonUnknownWorker     = "unknown_worker"
	ReasonWorkerUnavailable = "worker_unavailable"
)

type RejectedPhone struct {
	Phone  string `json:"phone"`
	Reason string `json:"reason"`
}

// AssignmentResult reports the outcome of one assign call: phones committed
// by this call, phones skipped because the job already held them, and
// phones rejected with a per-phone reason.
type AssignmentResult struct {
	JobID    string          `json:"job_id"`
	Status   string          `json:"status"`
	Assigned []string        `json:"assigned"`
	Skipped  []string        `json:"skipped,omitempty"`
	Rejected []RejectedPhone `json:"rejected,omitempty"`
}

// AuditEvent is a record of a settled engine or registry action, queued for
// asynchronous persistence into the activity feed.
type AuditEvent struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	NextTryAt   *time.Time      `json:"next_try_at,omitempty"`
	LastError   string          `json:"last_error,omitempty"`
	Created     time.Time       `json:"created"`
	Updated     time.Time       `json:"updated"`
}
