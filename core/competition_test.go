package core

import (
	"errors"
	"testing"
)

var baseline = Measurement{Weight: 200, BodyFat: 25, MuscleMass: 150, BMR: 1800}

func TestNewCompetition(t *testing.T) {
	comp, err := NewCompetition("cut25", "2025-06-30", "alice", baseline, "2025-06-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comp.StartDate != "2025-06-01" || comp.EndDate != "2025-06-30" {
		t.Fatalf("unexpected window: %s..%s", comp.StartDate, comp.EndDate)
	}
	if len(comp.Participants) != 1 || comp.Participants[0].UserID != "alice" {
		t.Fatalf("creator should be the first participant: %+v", comp.Participants)
	}
}

func TestNewCompetitionRejectsBadDates(t *testing.T) {
	cases := []struct {
		name    string
		endDate string
	}{
		{"malformed", "June 30th"},
		{"wrong layout", "30-06-2025"},
		{"end equals today", "2025-06-01"},
		{"end in past", "2025-05-20"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewCompetition("x", tc.endDate, "alice", baseline, "2025-06-01"); !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("expected ErrInvalidDate, got %v", err)
			}
		})
	}
}

func TestNewCompetitionRejectsZeroBaseline(t *testing.T) {
	bad := Measurement{Weight: 200, BodyFat: 25, MuscleMass: 0, BMR: 1800}
	if _, err := NewCompetition("x", "2025-06-30", "alice", bad, "2025-06-01"); !IsInvalidBaseline(err) {
		t.Fatalf("expected invalid baseline error, got %v", err)
	}
}

func TestJoin(t *testing.T) {
	comp, _ := NewCompetition("cut25", "2025-06-30", "alice", baseline, "2025-06-01")

	if err := comp.Join("bob", baseline, "2025-06-03"); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if len(comp.Participants) != 2 || comp.Participants[1].UserID != "bob" {
		t.Fatalf("bob should be appended in join order: %+v", comp.Participants)
	}

	if err := comp.Join("bob", baseline, "2025-06-04"); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined, got %v", err)
	}
}

func TestJoinEndedCompetitionDoesNotMutate(t *testing.T) {
	comp, _ := NewCompetition("cut25", "2025-06-30", "alice", baseline, "2025-06-01")

	err := comp.Join("bob", baseline, "2025-07-01")
	if !errors.Is(err, ErrCompetitionEnded) {
		t.Fatalf("expected ErrCompetitionEnded, got %v", err)
	}
	if len(comp.Participants) != 1 {
		t.Fatalf("participants mutated on failed join: %+v", comp.Participants)
	}
}

func TestJoinAllowedOnEndDate(t *testing.T) {
	comp, _ := NewCompetition("cut25", "2025-06-30", "alice", baseline, "2025-06-01")
	if err := comp.Join("bob", baseline, "2025-06-30"); err != nil {
		t.Fatalf("join on the end date should be allowed: %v", err)
	}
}

func TestStatusAt(t *testing.T) {
	comp := Competition{Name: "x", StartDate: "2025-06-01", EndDate: "2025-06-30"}
	cases := []struct {
		today Date
		want  Status
	}{
		{"2025-05-31", StatusNotStarted},
		{"2025-06-01", StatusActive},
		{"2025-06-15", StatusActive},
		{"2025-06-30", StatusActive},
		{"2025-07-01", StatusEnded},
	}
	for _, tc := range cases {
		if got := comp.StatusAt(tc.today); got != tc.want {
			t.Fatalf("StatusAt(%s) = %s, want %s", tc.today, got, tc.want)
		}
	}
}

func TestWindowCapsAtToday(t *testing.T) {
	comp := Competition{StartDate: "2025-06-01", EndDate: "2025-06-30"}
	w := comp.Window("2025-06-10")
	if w.Start != "2025-06-01" || w.End != "2025-06-10" {
		t.Fatalf("unexpected window: %+v", w)
	}
	w = comp.Window("2025-07-10")
	if w.End != "2025-06-30" {
		t.Fatalf("window must cap at the end date: %+v", w)
	}
}
