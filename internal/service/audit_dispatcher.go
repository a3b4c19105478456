package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-coins-api/internal/models"
	"github.com/noah-isme/sma-coins-api/pkg/jobs"
)

// AuditDispatcher moves audit writes off the request path. When the queue is
// full or stopped the write happens inline.
type AuditDispatcher struct {
	sink   auditLogger
	queue  *jobs.Queue[*models.AuditLog]
	logger *zap.Logger
}

// NewAuditDispatcher wraps sink with a worker pool configured by cfg.
func NewAuditDispatcher(sink auditLogger, cfg jobs.Config, logger *zap.Logger) *AuditDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Logger = logger
	d := &AuditDispatcher{sink: sink, logger: logger}
	d.queue = jobs.NewQueue[*models.AuditLog]("audit", sink.CreateAuditLog, cfg)
	return d
}

// Start launches the workers.
func (d *AuditDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop flushes buffered entries.
func (d *AuditDispatcher) Stop() {
	d.queue.Stop()
}

// CreateAuditLog enqueues entry for asynchronous persistence.
func (d *AuditDispatcher) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	err := d.queue.Enqueue(entry)
	if err == nil {
		return nil
	}
	if errors.Is(err, jobs.ErrQueueFull) {
		d.logger.Warn("audit queue full, writing inline", zap.String("action", entry.Action))
	}
	return d.sink.CreateAuditLog(context.WithoutCancel(ctx), entry)
}
