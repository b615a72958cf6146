package engine

import (
	"context"

	"fitcompkit/core"
)

// Storage abstracts persistence for measurement histories and competitions.
// Histories and competitions are coarse documents: mutating operations read,
// modify and rewrite them whole. Concurrent writers to the same document can
// lose updates across processes; in-process adapters serialize with a mutex.
type Storage interface {
	// UserHistory returns the user's full daily log. A user who never
	// logged gets an empty, non-nil history rather than an error.
	UserHistory(ctx context.Context, user core.UserID) (core.History, error)
	PutUserHistory(ctx context.Context, user core.UserID, h core.History) error

	// Competition returns core.ErrNotFound when no competition has the name.
	Competition(ctx context.Context, name string) (core.Competition, error)
	PutCompetition(ctx context.Context, c core.Competition) error
	CompetitionNames(ctx context.Context) ([]string, error)
}
