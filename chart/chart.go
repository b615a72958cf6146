// Package chart prepares computed progress data for renderers. Scoring never
// fills gaps; carrying the last known value across unlogged days is purely a
// presentation choice and lives here.
package chart

import (
	"sort"

	"fitcompkit/core"
)

// Line is one participant's plottable point series, aligned to the chart's
// shared date axis.
type Line struct {
	UserID core.UserID `json:"user_id"`
	Label  string      `json:"label"`
	// Parallel to CompetitionChart.Dates. Values carry forward across
	// unlogged axis dates; Logged marks the dates this user actually
	// logged. Axis dates before the user's first log hold zeros.
	Total      []float64 `json:"total"`
	BodyFat    []float64 `json:"body_fat"`
	MuscleMass []float64 `json:"muscle_mass"`
	BMR        []float64 `json:"bmr"`
	Logged     []bool    `json:"logged"`
}

// CompetitionChart is the joint presentation of every participant's series
// on one shared, sorted date axis.
type CompetitionChart struct {
	Title string      `json:"title"`
	Dates []core.Date `json:"dates"`
	Lines []Line      `json:"lines"`
}

// Competition builds a chart from aggregated per-user series and resolved
// display names. Participants with no data are omitted entirely; axis dates
// are the union of all logged dates in ascending order.
func Competition(title string, perUser map[core.UserID]core.ProgressSeries, names map[core.UserID]string) CompetitionChart {
	chart := CompetitionChart{Title: title}

	seen := map[core.Date]struct{}{}
	for _, series := range perUser {
		for _, p := range series {
			seen[p.Date] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return chart
	}
	for d := range seen {
		chart.Dates = append(chart.Dates, d)
	}
	sort.Slice(chart.Dates, func(i, j int) bool { return chart.Dates[i] < chart.Dates[j] })

	users := make([]core.UserID, 0, len(perUser))
	for user := range perUser {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	for _, user := range users {
		series := perUser[user]
		if len(series) == 0 {
			continue
		}
		line := Line{
			UserID:     user,
			Label:      names[user],
			Total:      make([]float64, len(chart.Dates)),
			BodyFat:    make([]float64, len(chart.Dates)),
			MuscleMass: make([]float64, len(chart.Dates)),
			BMR:        make([]float64, len(chart.Dates)),
			Logged:     make([]bool, len(chart.Dates)),
		}
		if line.Label == "" {
			line.Label = string(user)
		}

		byDate := make(map[core.Date]core.Points, len(series))
		for _, p := range series {
			byDate[p.Date] = p.Points
		}
		var last core.Points
		for i, d := range chart.Dates {
			if pts, ok := byDate[d]; ok {
				last = pts
				line.Logged[i] = true
			}
			line.Total[i] = last.Total
			line.BodyFat[i] = last.BodyFat
			line.MuscleMass[i] = last.MuscleMass
			line.BMR[i] = last.BMR
		}
		chart.Lines = append(chart.Lines, line)
	}
	return chart
}

// Metric selects one personal-progress series.
type Metric string

const (
	MetricWeight     Metric = "weight"
	MetricBodyFat    Metric = "body_fat"
	MetricMuscleMass Metric = "muscle_mass"
	MetricBMR        Metric = "bmr"
)

// PersonalSeries is one raw-metric line of a personal progress chart.
type PersonalSeries struct {
	Metric Metric      `json:"metric"`
	Dates  []core.Date `json:"dates"`
	Values []float64   `json:"values"`
}

// PersonalChart holds the selected raw-metric series for one user.
type PersonalChart struct {
	UserID core.UserID      `json:"user_id"`
	Label  string           `json:"label"`
	Series []PersonalSeries `json:"series"`
}

// Personal builds raw-metric series from a user's daily records. With no
// metrics selected it defaults to weight only, matching the bot's progress
// command.
func Personal(user core.UserID, label string, records []core.DailyRecord, metrics ...Metric) PersonalChart {
	if len(metrics) == 0 {
		metrics = []Metric{MetricWeight}
	}
	chart := PersonalChart{UserID: user, Label: label}
	for _, metric := range metrics {
		series := PersonalSeries{Metric: metric}
		for _, rec := range records {
			series.Dates = append(series.Dates, rec.Date)
			series.Values = append(series.Values, metricValue(rec.Measurement, metric))
		}
		chart.Series = append(chart.Series, series)
	}
	return chart
}

func metricValue(m core.Measurement, metric Metric) float64 {
	switch metric {
	case MetricBodyFat:
		return m.BodyFat
	case MetricMuscleMass:
		return m.MuscleMass
	case MetricBMR:
		return m.BMR
	default:
		return m.Weight
	}
}
