package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/edumanage-api/internal/models"
	"github.com/noah-isme/edumanage-api/pkg/jobs"
)

const auditJobType = "audit_log"

// AuditDispatcher moves audit writes off the request path onto a worker queue.
type AuditDispatcher struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAuditDispatcher wraps store with a background queue. Call Start before use and Stop on shutdown.
func NewAuditDispatcher(store AuditRecorder, cfg jobs.QueueConfig) *AuditDispatcher {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		entry, ok := job.Payload.(*models.AuditLog)
		if !ok {
			return fmt.Errorf("unexpected audit payload %T", job.Payload)
		}
		return store.Create(ctx, entry)
	}
	return &AuditDispatcher{queue: jobs.NewQueue("audit", handler, cfg), logger: cfg.Logger}
}

// Start launches the workers.
func (d *AuditDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop flushes pending entries.
func (d *AuditDispatcher) Stop() {
	d.queue.Stop()
}

// Create enqueues the entry. The id is assigned here so callers can correlate it.
func (d *AuditDispatcher) Create(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	return d.queue.Enqueue(jobs.Job{ID: entry.ID, Type: auditJobType, Payload: entry})
}
