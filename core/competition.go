package core

// Participant is one competitor and the baseline snapshot taken when they
// entered the competition. Baselines never change afterwards.
type Participant struct {
	UserID   UserID      `json:"user_id"`
	Baseline Measurement `json:"baseline"`
	JoinedAt Date        `json:"joined_at"`
}

// Status is a competition's state relative to a given day.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusActive     Status = "active"
	StatusEnded      Status = "ended"
)

// Competition is a time-boxed contest scored against per-participant
// baselines. Participants keep join order; ranking ties resolve in that
// order. There is no stored "ended" flag: end state is purely a function of
// the current day versus EndDate.
type Competition struct {
	Name         string        `json:"name"`
	StartDate    Date          `json:"start_date"`
	EndDate      Date          `json:"end_date"`
	Creator      UserID        `json:"creator"`
	Participants []Participant `json:"participants"`
}

// NewCompetition creates a competition starting today. The end date must be
// a well-formed day strictly after today, and the creator's baseline must be
// scorable. The creator is the first participant.
func NewCompetition(name string, endDate string, creator UserID, baseline Measurement, today Date) (Competition, error) {
	end, err := ParseDate(endDate)
	if err != nil {
		return Competition{}, ErrInvalidDate
	}
	if end <= today {
		return Competition{}, ErrInvalidDate
	}
	if err := ValidateBaseline(baseline); err != nil {
		return Competition{}, err
	}
	return Competition{
		Name:      name,
		StartDate: today,
		EndDate:   end,
		Creator:   creator,
		Participants: []Participant{
			{UserID: creator, Baseline: baseline, JoinedAt: today},
		},
	}, nil
}

// Participant returns the participant entry for user, if present.
func (c Competition) Participant(user UserID) (Participant, bool) {
	for _, p := range c.Participants {
		if p.UserID == user {
			return p, true
		}
	}
	return Participant{}, false
}

// Join appends a participant with their baseline. It fails if the user is
// already competing, the competition has ended, or the baseline cannot be
// scored. On error the competition is unchanged.
func (c *Competition) Join(user UserID, baseline Measurement, today Date) error {
	if _, ok := c.Participant(user); ok {
		return ErrAlreadyJoined
	}
	if today > c.EndDate {
		return ErrCompetitionEnded
	}
	if err := ValidateBaseline(baseline); err != nil {
		return err
	}
	c.Participants = append(c.Participants, Participant{UserID: user, Baseline: baseline, JoinedAt: today})
	return nil
}

// StatusAt reports the competition state on the given day.
func (c Competition) StatusAt(today Date) Status {
	switch {
	case today < c.StartDate:
		return StatusNotStarted
	case today > c.EndDate:
		return StatusEnded
	default:
		return StatusActive
	}
}

// Window returns the inclusive scoring window [start, min(end, today)].
func (c Competition) Window(today Date) Window {
	return Window{Start: c.StartDate, End: MinDate(c.EndDate, today)}
}

// Clone deep-copies the competition so stores can hand out snapshots.
func (c Competition) Clone() Competition {
	cp := c
	cp.Participants = make([]Participant, len(c.Participants))
	copy(cp.Participants, c.Participants)
	return cp
}
