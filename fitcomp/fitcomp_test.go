package fitcomp

import (
	"context"
	"errors"
	"testing"
	"time"

	mem "fitcompkit/adapters/memory"
	"fitcompkit/core"
	"fitcompkit/engine"
	"fitcompkit/realtime"
)

var m = core.Measurement{Weight: 80, BodyFat: 20, MuscleMass: 35, BMR: 1700}

func TestNewDefaultsAndOptions(t *testing.T) {
	hub := realtime.NewHub()
	svc := New(
		WithRealtime(hub),
		WithStorage(mem.New()),
		WithDispatchMode(engine.DispatchSync),
	)

	// basic operation
	day, err := svc.LogToday(context.Background(), "alice", m)
	if err != nil || day == "" {
		t.Fatalf("log today day=%s err=%v", day, err)
	}

	// realtime bridge should receive event
	_, ch := hub.Subscribe(1)
	svc.Publish(context.Background(), core.NewStatsLogged("alice", day, m))
	ev := <-ch
	if ev.UserID != "alice" || ev.Type != core.EventStatsLogged {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestInMemoryFallback(t *testing.T) {
	svc := New(WithDispatchMode(engine.DispatchSync))
	if _, err := svc.LogToday(context.Background(), "bob", m); err != nil {
		t.Fatalf("fallback log: %v", err)
	}
	records, err := svc.PersonalProgress(context.Background(), "bob")
	if err != nil {
		t.Fatalf("fallback progress: %v", err)
	}
	if len(records) != 1 || records[0].Measurement.Weight != 80 {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestFallbackCompetitions(t *testing.T) {
	svc := New(
		WithDispatchMode(engine.DispatchSync),
		WithClock(func() time.Time {
			return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		}),
	)
	ctx := context.Background()

	if _, err := svc.CreateCompetition(ctx, "Shred", "2025-07-01", "alice", m); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.JoinCompetition(ctx, "Shred", "bob", m); err != nil {
		t.Fatalf("join: %v", err)
	}
	list, err := svc.ListCompetitions(ctx)
	if err != nil || len(list) != 1 || list[0].ParticipantCount != 2 {
		t.Fatalf("list: %+v err=%v", list, err)
	}
	if _, err := svc.CompetitionStatus(ctx, "Nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMultiplierOverride(t *testing.T) {
	svc := New(
		WithDispatchMode(engine.DispatchSync),
		WithMultipliers(core.Multipliers{BodyFat: 3, MuscleMass: 1, BMR: 1}),
	)
	if svc.Multipliers().BodyFat != 3 {
		t.Fatalf("expected override, got %+v", svc.Multipliers())
	}
}
