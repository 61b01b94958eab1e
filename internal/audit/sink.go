package audit

import "context"

// Audit event types recorded by the registries and the assignment engine.
const (
	EventWorkerRegistered = "worker.registered"
	EventWorkerDeleted    = "worker.deleted"
	EventJobCreated       = "job.created"
	EventJobAssigned      = "job.assigned"
	EventJobReleased      = "job.released"
	EventJobCompleted     = "job.completed"
	EventJobCancelled     = "job.cancelled"
	EventJobDeleted       = "job.deleted"
)

// Sink receives one event per settled action. Implementations must not
// block the caller on persistence and must never fail the recorded
// operation.
type Sink interface {
	Record(ctx context.Context, eventType string, payload any)
}
