package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_DeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	first := bus.Subscribe(TypeTransactionObserved)
	second := bus.Subscribe(TypeTransactionObserved)
	other := bus.Subscribe(TypePatternDetected)

	bus.Publish(Event{Type: TypeTransactionObserved, Chain: "ethereum", At: time.Now()})

	for _, ch := range []<-chan Event{first, second} {
		select {
		case e := <-ch:
			assert.Equal(t, "ethereum", e.Chain)
		case <-time.After(time.Second):
			t.Fatal("expected delivery to every subscriber")
		}
	}

	select {
	case <-other:
		t.Fatal("event leaked to a different type")
	default:
	}
}

func TestBus_CloseStopsDelivery(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe(TypeProbeCompleted)

	bus.Close()
	bus.Close()

	_, open := <-ch
	assert.False(t, open)

	// Publish and Subscribe after Close are safe no-ops
	bus.Publish(Event{Type: TypeProbeCompleted})
	late := bus.Subscribe(TypeProbeCompleted)
	_, open = <-late
	assert.False(t, open)
}

func TestBus_BufferedDelivery(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch := bus.Subscribe(TypePatternDetected)
	for i := 0; i < 100; i++ {
		bus.Publish(Event{Type: TypePatternDetected, Chain: "base"})
	}

	received := 0
	for received < 100 {
		select {
		case <-ch:
			received++
		case <-time.After(time.Second):
			t.Fatalf("received only %d of 100 events", received)
		}
	}
	require.Equal(t, 100, received)
}
