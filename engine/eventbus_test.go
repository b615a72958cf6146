package engine

import (
	"context"
	"testing"
	"time"

	"fitcompkit/core"
)

func TestEventBusSync(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	count := 0
	bus.Subscribe(core.EventStatsLogged, func(ctx context.Context, e core.Event) { count++ })
	bus.Publish(context.Background(), core.NewStatsLogged("u", "2025-06-01", core.Measurement{}))
	if count != 1 {
		t.Fatalf("want 1 got %d", count)
	}
}

func TestEventBusAsync(t *testing.T) {
	bus := NewEventBus(DispatchAsync)
	defer bus.Close()
	ch := make(chan struct{})
	bus.Subscribe(core.EventParticipantJoined, func(ctx context.Context, e core.Event) { close(ch) })
	bus.Publish(context.Background(), core.NewParticipantJoined("shred", "u"))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	count := 0
	cancel := bus.Subscribe(core.EventStatsLogged, func(ctx context.Context, e core.Event) { count++ })
	cancel()
	bus.Publish(context.Background(), core.NewStatsLogged("u", "2025-06-01", core.Measurement{}))
	if count != 0 {
		t.Fatalf("handler ran after unsubscribe")
	}
}
