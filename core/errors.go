package core

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to the command layer. Each maps to a short user-facing
// message there; none of them leaves partial state behind.
var (
	ErrInvalidDate           = errors.New("invalid date, expected YYYY-MM-DD in the future")
	ErrDuplicateName         = errors.New("competition name already exists")
	ErrNotFound              = errors.New("not found")
	ErrAlreadyJoined         = errors.New("user already joined this competition")
	ErrAlreadyLogged         = errors.New("stats already recorded for today")
	ErrNotLoggedYet          = errors.New("no stats recorded yet")
	ErrCompetitionEnded      = errors.New("competition has already ended")
	ErrCompetitionNotStarted = errors.New("competition has not started yet")
)

// InvalidBaselineError reports a baseline metric that would be a zero
// denominator in the scoring formulas. It blocks competition creation and
// joining rather than surfacing as a division fault later.
type InvalidBaselineError struct {
	Field string
}

func (e *InvalidBaselineError) Error() string {
	return fmt.Sprintf("invalid baseline: %s must be greater than zero", e.Field)
}

// IsInvalidBaseline reports whether err is an InvalidBaselineError.
func IsInvalidBaseline(err error) bool {
	var ib *InvalidBaselineError
	return errors.As(err, &ib)
}
