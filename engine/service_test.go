package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitcompkit/adapters/memory"
	"fitcompkit/core"
	"fitcompkit/identity"
)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time       { return c.t }
func (c *testClock) advanceDays(days int) { c.t = c.t.AddDate(0, 0, days) }

func newTestService(t *testing.T) (*TrackerService, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	bus := NewEventBus(DispatchSync)
	svc := NewTrackerService(memory.New(), bus,
		WithClock(clock.now),
		WithResolver(identity.Static{"alice": "Alice"}),
	)
	t.Cleanup(svc.Close)
	return svc, clock
}

var m = core.Measurement{Weight: 200, BodyFat: 25, MuscleMass: 150, BMR: 1800}

func TestLogTodayOncePerDay(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	day, err := svc.LogToday(ctx, "alice", m)
	require.NoError(t, err)
	assert.Equal(t, core.Date("2025-06-01"), day)

	_, err = svc.LogToday(ctx, "alice", m)
	assert.ErrorIs(t, err, core.ErrAlreadyLogged)

	clock.advanceDays(1)
	day, err = svc.LogToday(ctx, "alice", m)
	require.NoError(t, err)
	assert.Equal(t, core.Date("2025-06-02"), day)
}

func TestLogTodayRejectsPartialMeasurement(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.LogToday(context.Background(), "alice", core.Measurement{Weight: 200, BodyFat: 25})
	assert.Error(t, err)
}

func TestEditToday(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.EditToday(ctx, "alice", core.MeasurementPatch{})
	assert.ErrorIs(t, err, core.ErrNotLoggedYet)

	_, err = svc.LogToday(ctx, "alice", m)
	require.NoError(t, err)

	bf := 24.2
	updated, err := svc.EditToday(ctx, "alice", core.MeasurementPatch{BodyFat: &bf})
	require.NoError(t, err)
	assert.Equal(t, 24.2, updated.BodyFat)
	assert.Equal(t, 200.0, updated.Weight, "unpatched fields preserved")

	records, err := svc.PersonalProgress(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 24.2, records[0].Measurement.BodyFat)
}

func TestCreateCompetitionValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateCompetition(ctx, "shred", "2025-06-01", "alice", m)
	assert.ErrorIs(t, err, core.ErrInvalidDate, "end date equal to today is rejected")

	_, err = svc.CreateCompetition(ctx, "shred", "not-a-date", "alice", m)
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	bad := core.Measurement{Weight: 200, BodyFat: 0, MuscleMass: 150, BMR: 1800}
	_, err = svc.CreateCompetition(ctx, "shred", "2025-07-01", "alice", bad)
	assert.True(t, core.IsInvalidBaseline(err))

	comp, err := svc.CreateCompetition(ctx, "shred", "2025-07-01", "alice", m)
	require.NoError(t, err)
	assert.Equal(t, core.Date("2025-06-01"), comp.StartDate)

	_, err = svc.CreateCompetition(ctx, "shred", "2025-07-01", "bob", m)
	assert.ErrorIs(t, err, core.ErrDuplicateName)
}

func TestJoinCompetition(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	_, err := svc.JoinCompetition(ctx, "missing", "bob", m)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.CreateCompetition(ctx, "shred", "2025-06-10", "alice", m)
	require.NoError(t, err)

	comp, err := svc.JoinCompetition(ctx, "shred", "bob", m)
	require.NoError(t, err)
	require.Len(t, comp.Participants, 2)
	assert.Equal(t, core.UserID("bob"), comp.Participants[1].UserID)

	_, err = svc.JoinCompetition(ctx, "shred", "bob", m)
	assert.ErrorIs(t, err, core.ErrAlreadyJoined)

	clock.advanceDays(15)
	_, err = svc.JoinCompetition(ctx, "shred", "carol", m)
	assert.ErrorIs(t, err, core.ErrCompetitionEnded)

	comp, err = svc.storage.Competition(ctx, "shred")
	require.NoError(t, err)
	assert.Len(t, comp.Participants, 2, "failed join must not mutate participants")
}

func TestCompetitionStatusScenario(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	baseline := core.Measurement{Weight: 200, BodyFat: 25.0, MuscleMass: 150, BMR: 1800}
	_, err := svc.CreateCompetition(ctx, "Shred", "2025-07-01", "alice", baseline)
	require.NoError(t, err)
	_, err = svc.JoinCompetition(ctx, "Shred", "bob", baseline)
	require.NoError(t, err)

	clock.advanceDays(5)
	_, err = svc.LogToday(ctx, "alice", core.Measurement{Weight: 196, BodyFat: 23.0, MuscleMass: 152, BMR: 1850})
	require.NoError(t, err)

	report, err := svc.CompetitionStatus(ctx, "Shred")
	require.NoError(t, err)
	assert.True(t, report.HasData())

	require.Len(t, report.Result.Standings, 1)
	top := report.Result.Standings[0]
	assert.Equal(t, core.UserID("alice"), top.UserID)
	assert.InDelta(t, 20.111, top.Points, 0.001)

	alice := report.Result.PerUser["alice"]
	require.Len(t, alice, 1)
	assert.InDelta(t, 16.0, alice[0].Points.BodyFat, 1e-9)
	assert.InDelta(t, 1.3333, alice[0].Points.MuscleMass, 0.001)
	assert.InDelta(t, 2.7778, alice[0].Points.BMR, 0.001)

	assert.Empty(t, report.Result.PerUser["bob"])

	assert.Equal(t, "Alice", report.Names["alice"])
	assert.Equal(t, "User_bob", report.Names["bob"], "unresolvable names fall back")

	require.Len(t, report.Summaries, 1)
	assert.Equal(t, core.UserID("alice"), report.Summaries[0].UserID)
	assert.InDelta(t, 8.0, report.Summaries[0].Changes.BodyFat, 1e-9)
}

func TestCompetitionStatusBeforeStart(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateCompetition(ctx, "shred", "2025-07-01", "alice", m)
	require.NoError(t, err)

	// Rewind the clock to before the start date.
	clock.advanceDays(-2)
	_, err = svc.CompetitionStatus(ctx, "shred")
	assert.ErrorIs(t, err, core.ErrCompetitionNotStarted)
}

func TestCompetitionStatusNoData(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateCompetition(ctx, "shred", "2025-07-01", "alice", m)
	require.NoError(t, err)

	report, err := svc.CompetitionStatus(ctx, "shred")
	require.NoError(t, err, "no progress data is an outcome, not an error")
	assert.False(t, report.HasData())
	assert.Empty(t, report.Summaries)
}

func TestListCompetitions(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateCompetition(ctx, "spring", "2025-06-05", "alice", m)
	require.NoError(t, err)
	_, err = svc.CreateCompetition(ctx, "summer", "2025-08-31", "alice", m)
	require.NoError(t, err)

	clock.advanceDays(10)
	list, err := svc.ListCompetitions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	byName := map[string]CompetitionSummary{}
	for _, c := range list {
		byName[c.Name] = c
	}
	assert.False(t, byName["spring"].Active)
	assert.True(t, byName["summer"].Active)
	assert.Equal(t, 1, byName["summer"].ParticipantCount)
}

func TestTopN(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	baseline := core.Measurement{Weight: 200, BodyFat: 25, MuscleMass: 150, BMR: 1800}
	_, err := svc.CreateCompetition(ctx, "shred", "2025-07-01", "alice", baseline)
	require.NoError(t, err)
	_, err = svc.JoinCompetition(ctx, "shred", "bob", baseline)
	require.NoError(t, err)

	clock.advanceDays(3)
	_, err = svc.LogToday(ctx, "alice", core.Measurement{Weight: 199, BodyFat: 24, MuscleMass: 150, BMR: 1800})
	require.NoError(t, err)
	_, err = svc.LogToday(ctx, "bob", core.Measurement{Weight: 198, BodyFat: 20, MuscleMass: 152, BMR: 1850})
	require.NoError(t, err)

	top, err := svc.TopN(ctx, "shred", 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, core.UserID("bob"), top[0].User)
	assert.Greater(t, top[0].Points, top[1].Points)
}

func TestEventsPublished(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	var got []core.EventType
	for _, typ := range []core.EventType{core.EventStatsLogged, core.EventCompetitionCreated, core.EventParticipantJoined} {
		typ := typ
		svc.Subscribe(typ, func(_ context.Context, ev core.Event) { got = append(got, ev.Type) })
	}

	_, err := svc.LogToday(ctx, "alice", m)
	require.NoError(t, err)
	_, err = svc.CreateCompetition(ctx, "shred", "2025-07-01", "alice", m)
	require.NoError(t, err)
	_, err = svc.JoinCompetition(ctx, "shred", "bob", m)
	require.NoError(t, err)

	assert.Equal(t, []core.EventType{core.EventStatsLogged, core.EventCompetitionCreated, core.EventParticipantJoined}, got)
}
