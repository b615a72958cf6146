package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitcompkit/core"
)

func TestUserHistoryRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()

	h, err := store.UserHistory(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, h, "unknown user gets an empty history, not an error")

	h["2025-06-01"] = core.Measurement{Weight: 200, BodyFat: 25, MuscleMass: 150, BMR: 1800}
	require.NoError(t, store.PutUserHistory(ctx, "alice", h))

	got, err := store.UserHistory(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 25.0, got["2025-06-01"].BodyFat)
}

func TestUserHistoryIsolation(t *testing.T) {
	store := New()
	ctx := context.Background()

	h := core.History{"2025-06-01": {Weight: 200, BodyFat: 25, MuscleMass: 150, BMR: 1800}}
	require.NoError(t, store.PutUserHistory(ctx, "alice", h))

	// Mutating what we put or what we got must not leak into the store.
	h["2025-06-02"] = core.Measurement{Weight: 1, BodyFat: 1, MuscleMass: 1, BMR: 1}
	got, err := store.UserHistory(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got["2025-06-03"] = core.Measurement{Weight: 2, BodyFat: 2, MuscleMass: 2, BMR: 2}
	again, err := store.UserHistory(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, again, 1)
}

func TestCompetitionRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()

	_, err := store.Competition(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	comp := core.Competition{
		Name:      "cut25",
		StartDate: "2025-06-01",
		EndDate:   "2025-06-30",
		Creator:   "alice",
		Participants: []core.Participant{
			{UserID: "alice", Baseline: core.Measurement{Weight: 200, BodyFat: 25, MuscleMass: 150, BMR: 1800}, JoinedAt: "2025-06-01"},
		},
	}
	require.NoError(t, store.PutCompetition(ctx, comp))

	got, err := store.Competition(ctx, "cut25")
	require.NoError(t, err)
	assert.Equal(t, comp, got)

	// Stored copy must be isolated from later mutation.
	got.Participants[0].UserID = "mallory"
	fresh, err := store.Competition(ctx, "cut25")
	require.NoError(t, err)
	assert.Equal(t, core.UserID("alice"), fresh.Participants[0].UserID)
}

func TestCompetitionNamesSorted(t *testing.T) {
	store := New()
	ctx := context.Background()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, store.PutCompetition(ctx, core.Competition{Name: name}))
	}
	names, err := store.CompetitionNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}
