package service

import (
	"context"
	"log/slog"
	"time"

	"pdl-records/internal/event"
	"pdl-records/internal/metrics"
	"pdl-records/internal/model"
)

type auditStore interface {
	Insert(ctx context.Context, entry model.AuditEntry) error
	Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error)
}

// AuditService consumes post-commit audit events from the bus and
// persists them. A failed write is logged and counted but never
// propagated; the business call it describes has already committed.
type AuditService struct {
	repo    auditStore
	metrics *metrics.Metrics
}

func NewAuditService(repo auditStore, m *metrics.Metrics) *AuditService {
	return &AuditService{repo: repo, metrics: m}
}

// Run drains the bus until ctx is cancelled. Call it in its own
// goroutine from the composition root.
func (s *AuditService) Run(ctx context.Context, bus event.Bus) {
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			s.record(ctx, e)
		}
	}
}

func (s *AuditService) record(ctx context.Context, e event.AuditEvent) {
	occurred, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		occurred = time.Now().UTC()
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	entry := model.AuditEntry{
		UserID:     e.Actor.UserID,
		Action:     e.Action,
		TableName:  e.TableName,
		RecordID:   e.RecordID,
		Details:    e.Details,
		IPAddress:  e.Actor.IP,
		OccurredAt: occurred,
	}

	if err := s.repo.Insert(writeCtx, entry); err != nil {
		slog.Error("audit write failed", "action", e.Action, "record_id", e.RecordID, "error", err)
		if s.metrics != nil {
			s.metrics.AuditFailures.Inc()
		}
	}
}

func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	return s.repo.Query(ctx, query)
}
