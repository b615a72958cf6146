package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	mem "fitcompkit/adapters/memory"
	"fitcompkit/api/httpapi"
	"fitcompkit/core"
	"fitcompkit/engine"
	"fitcompkit/realtime"
)

// Seeded demo: starts a competition with two participants and a few logged
// days so status and leaderboard routes return data right away.
func main() {
	// Use readable text logging for development/demo
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(textHandler))

	ctx := context.Background()
	store := mem.New()
	bus := engine.NewEventBus(engine.DispatchAsync)
	svc := engine.NewTrackerService(store, bus)
	hub := realtime.NewHub()

	// Forward tracker events to WebSocket clients
	bus.Subscribe(core.EventStatsLogged, func(ctx context.Context, e core.Event) { hub.Broadcast(ctx, e) })
	bus.Subscribe(core.EventStatsEdited, func(ctx context.Context, e core.Event) { hub.Broadcast(ctx, e) })
	bus.Subscribe(core.EventCompetitionCreated, func(ctx context.Context, e core.Event) { hub.Broadcast(ctx, e) })
	bus.Subscribe(core.EventParticipantJoined, func(ctx context.Context, e core.Event) { hub.Broadcast(ctx, e) })

	if err := seed(ctx, svc); err != nil {
		slog.Error("seeding demo data failed", "error", err)
		os.Exit(1)
	}

	mux := httpapi.NewMux(svc, hub, httpapi.Options{AllowCORSOrigin: "*"})
	http.Handle("/", mux)

	slog.Info("starting demo server on :8080")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}

func seed(ctx context.Context, svc *engine.TrackerService) error {
	end := core.DateOf(time.Now().AddDate(0, 0, 30))

	baseline := core.Measurement{Weight: 82.5, BodyFat: 21.0, MuscleMass: 34.0, BMR: 1680}
	if _, err := svc.CreateCompetition(ctx, "Summer Shred", string(end), "alice", baseline); err != nil {
		return err
	}
	if _, err := svc.JoinCompetition(ctx, "Summer Shred", "bob", core.Measurement{Weight: 95.0, BodyFat: 26.5, MuscleMass: 39.0, BMR: 1890}); err != nil {
		return err
	}
	if _, err := svc.LogToday(ctx, "alice", core.Measurement{Weight: 82.1, BodyFat: 20.6, MuscleMass: 34.2, BMR: 1685}); err != nil {
		return err
	}
	if _, err := svc.LogToday(ctx, "bob", core.Measurement{Weight: 94.2, BodyFat: 26.1, MuscleMass: 39.1, BMR: 1893}); err != nil {
		return err
	}
	slog.Info("seeded demo competition", "name", "Summer Shred", "end_date", end)
	return nil
}
