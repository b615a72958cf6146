package core

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// UserID uniquely identifies a user on the chat platform.
type UserID string

// DateLayout is the wire and storage format for calendar days.
const DateLayout = "2006-01-02"

// Date is a calendar day in ISO YYYY-MM-DD form. ISO dates order
// lexicographically, so < and > on Date are chronological comparisons.
type Date string

// ParseDate validates s and returns it as a canonical Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidDate
	}
	return Date(t.Format(DateLayout)), nil
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date { return Date(t.Format(DateLayout)) }

// Time returns the day at midnight UTC. Invalid dates return the zero time.
func (d Date) Time() time.Time {
	t, _ := time.Parse(DateLayout, string(d))
	return t
}

// MinDate returns the earlier of two dates.
func MinDate(a, b Date) Date {
	if b < a {
		return b
	}
	return a
}

// Measurement is one user's body-composition snapshot for a single day.
// All four fields are required; partial days are never scored.
type Measurement struct {
	Weight     float64 `json:"weight"`
	BodyFat    float64 `json:"body_fat"`
	MuscleMass float64 `json:"muscle_mass"`
	BMR        float64 `json:"bmr"`
}

// Validate rejects measurements with missing or non-positive fields.
func (m Measurement) Validate() error {
	if m.Weight <= 0 || m.BodyFat <= 0 || m.MuscleMass <= 0 || m.BMR <= 0 {
		return errors.New("measurement requires positive weight, body_fat, muscle_mass and bmr")
	}
	return nil
}

// MeasurementPatch is a partial edit of a day's measurement. Nil fields are
// left untouched by Apply.
type MeasurementPatch struct {
	Weight     *float64 `json:"weight,omitempty"`
	BodyFat    *float64 `json:"body_fat,omitempty"`
	MuscleMass *float64 `json:"muscle_mass,omitempty"`
	BMR        *float64 `json:"bmr,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p MeasurementPatch) IsZero() bool {
	return p.Weight == nil && p.BodyFat == nil && p.MuscleMass == nil && p.BMR == nil
}

// Apply merges the patch over m field-by-field and returns the result.
func (p MeasurementPatch) Apply(m Measurement) Measurement {
	if p.Weight != nil {
		m.Weight = *p.Weight
	}
	if p.BodyFat != nil {
		m.BodyFat = *p.BodyFat
	}
	if p.MuscleMass != nil {
		m.MuscleMass = *p.MuscleMass
	}
	if p.BMR != nil {
		m.BMR = *p.BMR
	}
	return m
}

// History maps calendar days to the measurement logged on that day.
type History map[Date]Measurement

// Clone returns a deep copy so stores can hand out snapshots safely.
func (h History) Clone() History {
	cp := make(History, len(h))
	for d, m := range h {
		cp[d] = m
	}
	return cp
}

// Dates returns the logged days in ascending chronological order.
func (h History) Dates() []Date {
	out := make([]Date, 0, len(h))
	for d := range h {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DailyRecord pairs a day with its measurement, for ordered presentation.
type DailyRecord struct {
	Date        Date        `json:"date"`
	Measurement Measurement `json:"measurement"`
}

// Records flattens the history into ascending DailyRecords.
func (h History) Records() []DailyRecord {
	dates := h.Dates()
	out := make([]DailyRecord, 0, len(dates))
	for _, d := range dates {
		out = append(out, DailyRecord{Date: d, Measurement: h[d]})
	}
	return out
}

// NormalizeUserID trims user identifiers and rejects empty ones.
func NormalizeUserID(id UserID) (UserID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", errors.New("empty user id")
	}
	return UserID(s), nil
}
