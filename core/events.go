package core

import "time"

// EventType enumerates domain events.
type EventType string

const (
	EventStatsLogged        EventType = "stats_logged"
	EventStatsEdited        EventType = "stats_edited"
	EventCompetitionCreated EventType = "competition_created"
	EventParticipantJoined  EventType = "participant_joined"
)

// Event represents an immutable domain event.
type Event struct {
	Type        EventType    `json:"type"`
	Time        time.Time    `json:"time"`
	UserID      UserID       `json:"user_id"`
	Date        Date         `json:"date,omitempty"`
	Competition string       `json:"competition,omitempty"`
	Measurement *Measurement `json:"measurement,omitempty"`
	EndDate     Date         `json:"end_date,omitempty"`
}

func NewStatsLogged(user UserID, day Date, m Measurement) Event {
	return Event{Type: EventStatsLogged, Time: time.Now().UTC(), UserID: user, Date: day, Measurement: &m}
}

func NewStatsEdited(user UserID, day Date, m Measurement) Event {
	return Event{Type: EventStatsEdited, Time: time.Now().UTC(), UserID: user, Date: day, Measurement: &m}
}

func NewCompetitionCreated(name string, creator UserID, end Date) Event {
	return Event{Type: EventCompetitionCreated, Time: time.Now().UTC(), UserID: creator, Competition: name, EndDate: end}
}

func NewParticipantJoined(name string, user UserID) Event {
	return Event{Type: EventParticipantJoined, Time: time.Now().UTC(), UserID: user, Competition: name}
}
