// Package identity resolves chat-platform user ids to display names.
package identity

import (
	"context"
	"errors"

	"fitcompkit/core"
)

// Resolver looks up a display name for a user id. Implementations typically
// call out to the chat platform.
type Resolver interface {
	DisplayName(ctx context.Context, user core.UserID) (string, error)
}

// Static is a fixed in-memory Resolver, useful for tests and demos.
type Static map[core.UserID]string

func (s Static) DisplayName(_ context.Context, user core.UserID) (string, error) {
	if name, ok := s[user]; ok && name != "" {
		return name, nil
	}
	return "", errors.New("unknown user")
}

// Fallback builds a synthetic display name from the tail of the user id.
// Callers rely on name resolution never failing hard.
func Fallback(user core.UserID) string {
	s := string(user)
	if len(s) > 4 {
		s = s[len(s)-4:]
	}
	return "User_" + s
}

// Resolve returns the resolver's answer or the synthetic fallback name.
// A nil resolver always falls back.
func Resolve(ctx context.Context, r Resolver, user core.UserID) string {
	if r == nil {
		return Fallback(user)
	}
	name, err := r.DisplayName(ctx, user)
	if err != nil || name == "" {
		return Fallback(user)
	}
	return name
}
