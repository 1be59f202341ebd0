package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pdl-records/internal/event"
	"pdl-records/internal/model"
)

type recordingAuditStore struct {
	mu      sync.Mutex
	entries []model.AuditEntry
	fail    bool
}

func (s *recordingAuditStore) Insert(ctx context.Context, entry model.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("connection refused")
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *recordingAuditStore) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries, model.Meta{Total: len(s.entries)}, nil
}

func (s *recordingAuditStore) snapshot() []model.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AuditEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestAuditService_Run(t *testing.T) {
	t.Run("persists published events", func(t *testing.T) {
		store := &recordingAuditStore{}
		bus := event.NewBus()
		svc := NewAuditService(store, nil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go svc.Run(ctx, bus)

		// Give the consumer time to subscribe before publishing.
		time.Sleep(20 * time.Millisecond)

		bus.Publish(event.AuditEvent{
			Type:      event.TypePDLRegistered,
			Actor:     model.Actor{UserID: 5, IP: "10.0.0.2"},
			Action:    model.ActionCreatePDL,
			TableName: "pdl_records",
			RecordID:  31,
			Details:   "Registered new PDL",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		})

		waitFor(t, func() bool { return len(store.snapshot()) == 1 })

		entry := store.snapshot()[0]
		assert.Equal(t, int64(5), entry.UserID)
		assert.Equal(t, model.ActionCreatePDL, entry.Action)
		assert.Equal(t, "pdl_records", entry.TableName)
		assert.Equal(t, int64(31), entry.RecordID)
		assert.Equal(t, "10.0.0.2", entry.IPAddress)
		assert.False(t, entry.OccurredAt.IsZero())
	})

	t.Run("a failing write never reaches the publisher", func(t *testing.T) {
		store := &recordingAuditStore{fail: true}
		bus := event.NewBus()
		svc := NewAuditService(store, nil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go svc.Run(ctx, bus)
		time.Sleep(20 * time.Millisecond)

		// Publish must not block or panic even though every insert fails.
		bus.Publish(event.AuditEvent{
			Type:      event.TypeLogin,
			Action:    model.ActionLogin,
			TableName: "users",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		})

		time.Sleep(50 * time.Millisecond)
		assert.Empty(t, store.snapshot())
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		store := &recordingAuditStore{}
		bus := event.NewBus()
		svc := NewAuditService(store, nil)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			svc.Run(ctx, bus)
			close(done)
		}()

		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("consumer did not stop after cancellation")
		}
	})
}
