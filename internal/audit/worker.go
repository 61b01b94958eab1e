package audit

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/garnizeh/crewboard/internal/models"
	"github.com/garnizeh/crewboard/pkg/repository"
)

// Pool drains the audit queue with a fixed number of goroutines. Events are
// dispatched by type to registered handlers; unhandled types fall through to
// a handler that writes the event to the structured log. A handler error
// schedules a retry with exponential backoff until MaxAttempts, after which
// the event is marked failed and kept for inspection.
type Pool struct {
	repo        repository.AuditRepo
	handlers    map[string]Handler
	logger      *slog.Logger
	workerCount int
	fetchMu     sync.Mutex
	stop        chan struct{}
	wg          sync.WaitGroup
}

func NewPool(repo repository.AuditRepo, handlers map[string]Handler, logger *slog.Logger, workerCount int) *Pool {
	if workerCount <= 0 {
		workerCount = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	if handlers == nil {
		handlers = map[string]Handler{}
	}
	return &Pool{repo: repo, handlers: handlers, logger: logger, workerCount: workerCount, stop: make(chan struct{})}
}

// Start launches the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop signals workers to stop and waits for them
func (p *Pool) Stop() {
	close(p.stop)
	p.wg.Wait()
}

// claimNext fetches the oldest due event and marks it processing so no
// other worker picks it up.
func (p *Pool) claimNext(ctx context.Context) (*models.AuditEvent, error) {
	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()

	e, err := p.repo.FetchNext(ctx)
	if err != nil || e == nil {
		return nil, err
	}

	e.Status = StatusProcessing
	if err := p.repo.UpdateEvent(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stop:
			p.logger.Info("audit worker stopping", "id", id)
			return
		case <-ctx.Done():
			p.logger.Info("context canceled, audit worker exiting", "id", id)
			return
		default:
			e, err := p.claimNext(ctx)
			if err != nil {
				p.logger.Error("claim audit event", "err", err)
				time.Sleep(time.Second)
				continue
			}
			if e == nil {
				// nothing to do
				time.Sleep(200 * time.Millisecond)
				continue
			}
			p.process(ctx, e)
		}
	}
}

func (p *Pool) process(ctx context.Context, e *models.AuditEvent) {
	h, ok := p.handlers[e.Type]
	if !ok {
		h = p.logEvent
	}

	err := h(ctx, e)
	if err == nil {
		e.Status = StatusDone
		if upErr := p.repo.UpdateEvent(ctx, e); upErr != nil {
			p.logger.Error("mark audit event done", "err", upErr)
		}
		return
	}

	e.Attempts++
	e.LastError = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
		if upErr := p.repo.UpdateEvent(ctx, e); upErr != nil {
			p.logger.Error("mark audit event failed", "err", upErr)
		}
		return
	}

	t := time.Now().Add(BackoffDuration(e.Attempts))
	e.NextTryAt = &t
	e.Status = StatusRetry
	if upErr := p.repo.UpdateEvent(ctx, e); upErr != nil {
		p.logger.Error("update audit event for retry", "err", upErr)
	}
}

func (p *Pool) logEvent(_ context.Context, e *models.AuditEvent) error {
	p.logger.Info("audit event",
		slog.String("type", e.Type),
		slog.String("payload", string(e.Payload)))
	return nil
}
