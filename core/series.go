package core

// Window is an inclusive date range.
type Window struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Contains reports whether d falls inside the window, bounds included.
func (w Window) Contains(d Date) bool { return d >= w.Start && d <= w.End }

// ProgressPoint is one scored day of a participant's series.
type ProgressPoint struct {
	Date   Date   `json:"date"`
	Points Points `json:"points"`
}

// ProgressSeries is a participant's scored days in ascending date order. It
// contains only days the participant actually logged; an empty series means
// "no data yet" and is a valid result, not an error.
type ProgressSeries []ProgressPoint

// Last returns the chronologically final point of the series.
func (s ProgressSeries) Last() (ProgressPoint, bool) {
	if len(s) == 0 {
		return ProgressPoint{}, false
	}
	return s[len(s)-1], true
}

// BuildSeries scores every logged day within the window against the
// baseline. Days outside the window are skipped even if logged; days inside
// the window with no log produce no row. Gap filling for continuous charts
// is a presentation concern, not a scoring one.
func BuildSeries(baseline Measurement, history History, window Window, mult Multipliers) (ProgressSeries, error) {
	if err := ValidateBaseline(baseline); err != nil {
		return nil, err
	}
	var series ProgressSeries
	for _, d := range history.Dates() {
		if !window.Contains(d) {
			continue
		}
		pts, err := Score(baseline, history[d], mult)
		if err != nil {
			return nil, err
		}
		series = append(series, ProgressPoint{Date: d, Points: pts})
	}
	return series, nil
}
