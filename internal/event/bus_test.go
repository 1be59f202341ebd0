package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryBus_PublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus()

	ch1, unsub1 := bus.Subscribe()
	defer unsub1()
	ch2, unsub2 := bus.Subscribe()
	defer unsub2()

	bus.Publish(AuditEvent{ID: "e1", Type: TypeLogin})

	for _, ch := range []<-chan AuditEvent{ch1, ch2} {
		select {
		case e := <-ch:
			assert.Equal(t, "e1", e.ID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestInMemoryBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()

	ch, unsub := bus.Subscribe()
	unsub()

	_, open := <-ch
	assert.False(t, open)

	// A second call must be a no-op.
	unsub()

	// Publishing after unsubscribe must not panic.
	bus.Publish(AuditEvent{ID: "e2"})
}

func TestInMemoryBus_FullSubscriberNeverBlocksPublish(t *testing.T) {
	bus := NewBus()

	_, unsub := bus.Subscribe()
	defer unsub()

	done := make(chan struct{})
	go func() {
		// Overflow the subscriber buffer without anyone draining it.
		for i := 0; i < 500; i++ {
			bus.Publish(AuditEvent{Type: TypePDLRegistered})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}
