package core

// Multipliers scale per-metric percentage changes into points.
type Multipliers struct {
	BodyFat    float64 `json:"body_fat"`
	MuscleMass float64 `json:"muscle_mass"`
	BMR        float64 `json:"bmr"`
}

// DefaultMultipliers returns the standard competition scoring weights:
// 2 points per 1% body-fat reduction, 1 point per 1% muscle-mass or BMR gain.
func DefaultMultipliers() Multipliers {
	return Multipliers{BodyFat: 2.0, MuscleMass: 1.0, BMR: 1.0}
}

// Points is the scored outcome of comparing one measurement against a
// baseline. Positive values are improvement.
type Points struct {
	BodyFat    float64 `json:"body_fat_points"`
	MuscleMass float64 `json:"muscle_mass_points"`
	BMR        float64 `json:"bmr_points"`
	Total      float64 `json:"total_points"`
}

// Changes holds the raw percentage changes relative to a baseline.
type Changes struct {
	BodyFat    float64 `json:"body_fat_change"`
	MuscleMass float64 `json:"muscle_mass_change"`
	BMR        float64 `json:"bmr_change"`
}

// ValidateBaseline rejects baselines whose scoring denominators are not
// strictly positive.
func ValidateBaseline(baseline Measurement) error {
	switch {
	case baseline.BodyFat <= 0:
		return &InvalidBaselineError{Field: "body_fat"}
	case baseline.MuscleMass <= 0:
		return &InvalidBaselineError{Field: "muscle_mass"}
	case baseline.BMR <= 0:
		return &InvalidBaselineError{Field: "bmr"}
	}
	return nil
}

// PercentChanges computes per-metric percentage changes of current relative
// to baseline. Losing body fat counts as positive change.
func PercentChanges(baseline, current Measurement) (Changes, error) {
	if err := ValidateBaseline(baseline); err != nil {
		return Changes{}, err
	}
	return Changes{
		BodyFat:    (baseline.BodyFat - current.BodyFat) / baseline.BodyFat * 100,
		MuscleMass: current.MuscleMass/baseline.MuscleMass*100 - 100,
		BMR:        current.BMR/baseline.BMR*100 - 100,
	}, nil
}

// Score maps a baseline/current pair to per-metric points. Pure and
// deterministic; safe for concurrent use.
func Score(baseline, current Measurement, mult Multipliers) (Points, error) {
	ch, err := PercentChanges(baseline, current)
	if err != nil {
		return Points{}, err
	}
	p := Points{
		BodyFat:    ch.BodyFat * mult.BodyFat,
		MuscleMass: ch.MuscleMass * mult.MuscleMass,
		BMR:        ch.BMR * mult.BMR,
	}
	p.Total = p.BodyFat + p.MuscleMass + p.BMR
	return p, nil
}

// ChangeSummary is a participant's baseline-to-latest comparison, used for
// the detailed per-user section of a competition status report.
type ChangeSummary struct {
	UserID   UserID      `json:"user_id"`
	Date     Date        `json:"date"`
	Baseline Measurement `json:"baseline"`
	Current  Measurement `json:"current"`
	Changes  Changes     `json:"changes"`
	Points   Points      `json:"points"`
}

// Summarize builds the baseline-to-current comparison for one participant.
func Summarize(user UserID, date Date, baseline, current Measurement, mult Multipliers) (ChangeSummary, error) {
	ch, err := PercentChanges(baseline, current)
	if err != nil {
		return ChangeSummary{}, err
	}
	pts, err := Score(baseline, current, mult)
	if err != nil {
		return ChangeSummary{}, err
	}
	return ChangeSummary{
		UserID:   user,
		Date:     date,
		Baseline: baseline,
		Current:  current,
		Changes:  ch,
		Points:   pts,
	}, nil
}
