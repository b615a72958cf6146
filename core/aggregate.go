package core

import "sort"

// Standing is one row of the final ranking: a participant and the total
// points of their most recent scored day.
type Standing struct {
	UserID UserID  `json:"user_id"`
	Points float64 `json:"points"`
	Date   Date    `json:"date"`
}

// AggregateResult is the computed progress of a whole competition: every
// participant's series plus the ranking. Participants with empty series
// appear in PerUser but not in Standings.
type AggregateResult struct {
	Competition Competition               `json:"competition"`
	PerUser     map[UserID]ProgressSeries `json:"per_user"`
	Standings   []Standing                `json:"standings"`
}

// HasData reports whether any participant has at least one scored day.
// When false the caller should render an informational "no data yet"
// message instead of an empty chart.
func (r AggregateResult) HasData() bool {
	for _, s := range r.PerUser {
		if len(s) > 0 {
			return true
		}
	}
	return false
}

// Aggregate runs the series builder for every participant over the window
// [start, min(end, today)] and ranks them by last known total, descending.
// Ties keep join order (stable sort). Participants without logged history
// get an empty series. Calling before the start date is an error and
// performs no computation.
func Aggregate(comp Competition, histories map[UserID]History, today Date, mult Multipliers) (AggregateResult, error) {
	if today < comp.StartDate {
		return AggregateResult{}, ErrCompetitionNotStarted
	}

	window := comp.Window(today)
	result := AggregateResult{
		Competition: comp,
		PerUser:     make(map[UserID]ProgressSeries, len(comp.Participants)),
	}

	for _, p := range comp.Participants {
		series, err := BuildSeries(p.Baseline, histories[p.UserID], window, mult)
		if err != nil {
			return AggregateResult{}, err
		}
		result.PerUser[p.UserID] = series
		if last, ok := series.Last(); ok {
			result.Standings = append(result.Standings, Standing{
				UserID: p.UserID,
				Points: last.Points.Total,
				Date:   last.Date,
			})
		}
	}

	sort.SliceStable(result.Standings, func(i, j int) bool {
		return result.Standings[i].Points > result.Standings[j].Points
	})
	return result, nil
}
