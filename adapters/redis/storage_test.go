package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitcompkit/core"
)

// newTestClient spins up a miniredis server and returns a client plus cleanup.
func newTestClient(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}
	return client, cleanup
}

func TestStore_UserHistory(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()

	h, err := store.UserHistory(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, h, "missing key yields empty history")

	h = core.History{
		"2025-06-01": {Weight: 200, BodyFat: 25, MuscleMass: 150, BMR: 1800},
		"2025-06-03": {Weight: 198, BodyFat: 24.5, MuscleMass: 151, BMR: 1810},
	}
	require.NoError(t, store.PutUserHistory(ctx, "alice", h))

	got, err := store.UserHistory(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestStore_CompetitionRoundTrip(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()

	_, err := store.Competition(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	comp := core.Competition{
		Name:      "shred",
		StartDate: "2025-06-01",
		EndDate:   "2025-06-30",
		Creator:   "alice",
		Participants: []core.Participant{
			{UserID: "alice", Baseline: core.Measurement{Weight: 200, BodyFat: 25, MuscleMass: 150, BMR: 1800}, JoinedAt: "2025-06-01"},
			{UserID: "bob", Baseline: core.Measurement{Weight: 180, BodyFat: 20, MuscleMass: 140, BMR: 1700}, JoinedAt: "2025-06-04"},
		},
	}
	require.NoError(t, store.PutCompetition(ctx, comp))

	got, err := store.Competition(ctx, "shred")
	require.NoError(t, err)
	assert.Equal(t, comp, got)
	assert.Equal(t, core.UserID("bob"), got.Participants[1].UserID, "join order survives the round trip")
}

func TestStore_CompetitionNames(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()

	names, err := store.CompetitionNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, store.PutCompetition(ctx, core.Competition{Name: "a"}))
	require.NoError(t, store.PutCompetition(ctx, core.Competition{Name: "b"}))
	// Re-writing an existing competition must not duplicate its name.
	require.NoError(t, store.PutCompetition(ctx, core.Competition{Name: "a"}))

	names, err = store.CompetitionNames(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestStore_CorruptDocument(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, statsKey("alice"), "{not json", 0).Err())
	_, err := store.UserHistory(ctx, "alice")
	assert.Error(t, err)
}
