package audit

import (
	"context"
	"encoding/json"
	"time"

	"log/slog"

	"github.com/garnizeh/crewboard/internal/models"
	"github.com/garnizeh/crewboard/pkg/repository"
)

// Event statuses in the queue.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusRetry      = "retry"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// Handler processes one drained audit event.
type Handler func(ctx context.Context, e *models.AuditEvent) error

// Queue persists engine and registry events for asynchronous processing.
// It implements Sink; Record never fails the recorded operation.
type Queue struct {
	repo   repository.AuditRepo
	logger *slog.Logger
}

func NewQueue(repo repository.AuditRepo, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{repo: repo, logger: logger}
}

var _ Sink = (*Queue)(nil)

func (q *Queue) Record(ctx context.Context, eventType string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		q.logger.Error("marshal audit payload", slog.String("type", eventType), slog.Any("err", err))
		return
	}

	e := &models.AuditEvent{Type: eventType, Payload: b, MaxAttempts: 5}
	if _, err := q.repo.Enqueue(ctx, e); err != nil {
		q.logger.Error("enqueue audit event", slog.String("type", eventType), slog.Any("err", err))
	}
}

// ListRecent returns processed events for the activity feed, newest first.
func (q *Queue) ListRecent(ctx context.Context, limit int) ([]models.AuditEvent, error) {
	return q.repo.ListRecent(ctx, limit)
}

// BackoffDuration returns exponential backoff duration for attempt n
func BackoffDuration(attempt int) time.Duration {
	if attempt <= 0 {
		return time.Second
	}
	// simple exponential: base 2^attempt seconds, capped
	d := time.Duration(1<<uint(attempt)) * time.Second
	max := 5 * time.Minute
	if d > max {
		return max
	}
	return d
}
