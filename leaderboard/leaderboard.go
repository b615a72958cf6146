// Package leaderboard maintains live competition rankings keyed by the most
// recent total points of each participant.
package leaderboard

import "fitcompkit/core"

// Entry is one ranked participant: the total points of their last scored day
// and the day it was scored on.
type Entry struct {
	User   core.UserID `json:"user"`
	Points float64     `json:"points"`
	Date   core.Date   `json:"date"`
}

// Board abstracts leaderboard operations for a single competition.
type Board interface {
	Update(user core.UserID, points float64, date core.Date)
	Remove(user core.UserID)
	TopN(n int) []Entry
	Get(user core.UserID) (Entry, bool)
	Len() int
}

// FromStandings replaces a board's content with freshly aggregated standings.
func FromStandings(b Board, standings []core.Standing) {
	for _, s := range standings {
		b.Update(s.UserID, s.Points, s.Date)
	}
}
