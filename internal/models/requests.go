package models

import (
	"fmt"
	"sort"
)

// MaxForecastDays bounds the forecast horizon accepted from callers.
const MaxForecastDays = 365

// Observation is an observed retention rate for a cohort on a given day.
type Observation struct {
	Day  int     `json:"day" yaml:"day" validate:"gte=1"`
	Rate float64 `json:"rate" yaml:"rate" validate:"gte=0,lte=1"`
}

// ForecastRequest captures the inputs of a DAU projection.
//
// Acquisition, when set, lists new users per forecast day and must have
// ForecastDays entries. Otherwise DailyNewUsers is repeated for every day.
type ForecastRequest struct {
	CurrentDAU    float64       `json:"current_dau" yaml:"current_dau" validate:"gte=0"`
	ForecastDays  int           `json:"forecast_days" yaml:"forecast_days" validate:"gte=1,lte=365"`
	ChurnRate     float64       `json:"churn_rate" yaml:"churn_rate" validate:"gte=0,lte=1"`
	DailyNewUsers float64       `json:"daily_new_users" yaml:"daily_new_users" validate:"gte=0"`
	Acquisition   []float64     `json:"acquisition,omitempty" yaml:"acquisition,omitempty" validate:"omitempty,dive,gte=0"`
	Retention     []Observation `json:"retention" yaml:"retention" validate:"dive"`
}

// FitRequest asks for a retention curve fit only.
type FitRequest struct {
	Retention []Observation `json:"retention" yaml:"retention" validate:"dive"`
}

// LifetimeRequest asks for LT-n over a curve fitted from Retention.
type LifetimeRequest struct {
	Days      int           `json:"days" yaml:"days" validate:"gte=0"`
	Retention []Observation `json:"retention" yaml:"retention" validate:"dive"`
}

// AcquisitionSchedule returns the per-day new-user schedule for the request.
// The returned slice is always a fresh copy.
func (r ForecastRequest) AcquisitionSchedule() ([]float64, error) {
	if len(r.Acquisition) > 0 {
		if len(r.Acquisition) != r.ForecastDays {
			return nil, fmt.Errorf("acquisition has %d entries, forecast_days is %d", len(r.Acquisition), r.ForecastDays)
		}
		return append([]float64(nil), r.Acquisition...), nil
	}
	if r.ForecastDays < 0 {
		return nil, fmt.Errorf("forecast_days must be positive")
	}
	schedule := make([]float64, r.ForecastDays)
	for i := range schedule {
		schedule[i] = r.DailyNewUsers
	}
	return schedule, nil
}

// NormalizeObservations sorts observations by day. When a day repeats, the
// last supplied rate wins, matching how an edited point replaces the old one.
func NormalizeObservations(obs []Observation) []Observation {
	if len(obs) == 0 {
		return nil
	}
	byDay := make(map[int]float64, len(obs))
	for _, o := range obs {
		byDay[o.Day] = o.Rate
	}
	out := make([]Observation, 0, len(byDay))
	for day, rate := range byDay {
		out = append(out, Observation{Day: day, Rate: rate})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// SplitObservations returns parallel day and rate slices.
func SplitObservations(obs []Observation) ([]int, []float64) {
	days := make([]int, len(obs))
	rates := make([]float64, len(obs))
	for i, o := range obs {
		days[i] = o.Day
		rates[i] = o.Rate
	}
	return days, rates
}
