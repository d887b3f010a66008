package ws

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestPublishQueuesTenantEnvelope(t *testing.T) {
	h := NewHub(zap.NewNop())
	tenant := uuid.New()

	h.Publish(tenant, Event{Type: EventStockUpdate, Action: "movement_recorded", Message: "Milk in 20"})

	select {
	case msg := <-h.broadcast:
		if msg.tenantID != tenant {
			t.Fatalf("tenant: got %s, want %s", msg.tenantID, tenant)
		}
		var got Event
		if err := json.Unmarshal(msg.payload, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != EventStockUpdate || got.Action != "movement_recorded" || got.At.IsZero() {
			t.Errorf("unexpected event: %+v", got)
		}
	default:
		t.Fatal("expected a queued event")
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	h := NewHub(zap.NewNop())
	tenant := uuid.New()
	for i := 0; i < cap(h.broadcast)+10; i++ {
		h.Publish(tenant, Event{Type: EventLowStock})
	}
	if len(h.broadcast) != cap(h.broadcast) {
		t.Fatalf("queue length: got %d, want %d", len(h.broadcast), cap(h.broadcast))
	}
}

func TestRunStopsCleanly(t *testing.T) {
	h := NewHub(zap.NewNop())
	done := make(chan struct{})
	go func() {
		h.Run()
		close(done)
	}()
	h.Stop()
	<-done
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if n := len(h.clients); n != 0 {
		t.Fatalf("clients left after stop: %d", n)
	}
}
