package engine

import (
	"math"
	"sort"
)

// Model is a fitted power-law retention curve: rate(day) = Scale * day^(-Exponent).
// The zero value is the undefined model.
type Model struct {
	Scale    float64
	Exponent float64
	Defined  bool
}

// NewModel returns a defined model with the given parameters.
func NewModel(scale, exponent float64) Model {
	return Model{Scale: scale, Exponent: exponent, Defined: true}
}

// Rate evaluates the model at day. It satisfies RetentionFunc.
func (m Model) Rate(day int) float64 {
	return Evaluate(day, m)
}

// FitResult holds the fitted model and its goodness of fit.
type FitResult struct {
	Model    Model
	RSquared float64
}

// RetentionFunc maps elapsed days since acquisition to a surviving fraction.
type RetentionFunc func(day int) float64

// Evaluate returns the retention rate for day under m. Day zero is always 1,
// negative days and undefined models beyond day zero are 0. The result is
// not clamped to [0,1].
func Evaluate(day int, m Model) float64 {
	switch {
	case day == 0:
		return 1.0
	case day < 0:
		return 0.0
	case !m.Defined:
		return 0.0
	}
	return m.Scale * math.Pow(float64(day), -m.Exponent)
}

type point struct {
	day  int
	rate float64
}

// Fit fits a power-law retention curve to (day, rate) observations by least
// squares on log(rate) against log(day). Input order does not matter. Fewer
// than two distinct days yields the undefined model with an R² of zero, even
// when a lone rate is zero; zero rates are rejected only once a fit is attempted.
func Fit(days []int, rates []float64) (FitResult, error) {
	const op = "engine.Fit"
	if len(days) != len(rates) {
		return FitResult{}, invalidInput(op, "days and rates length mismatch (%d != %d)", len(days), len(rates))
	}

	points := make([]point, len(days))
	distinct := make(map[int]struct{}, len(days))
	for i := range days {
		if days[i] < 1 {
			return FitResult{}, invalidInput(op, "day %d must be >= 1", days[i])
		}
		r := rates[i]
		if math.IsNaN(r) || math.IsInf(r, 0) || r < 0 || r > 1 {
			return FitResult{}, invalidInput(op, "rate %v on day %d outside [0,1]", r, days[i])
		}
		points[i] = point{day: days[i], rate: r}
		distinct[days[i]] = struct{}{}
	}
	if len(distinct) < 2 {
		return FitResult{}, nil
	}
	for _, p := range points {
		if p.rate == 0 {
			return FitResult{}, invalidInput(op, "rate on day %d must be positive to take its logarithm", p.day)
		}
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].day < points[j].day })

	n := float64(len(points))
	var sumX, sumY float64
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = math.Log(float64(p.day))
		ys[i] = math.Log(p.rate)
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var sxx, sxy float64
	for i := range xs {
		dx := xs[i] - meanX
		sxx += dx * dx
		sxy += dx * (ys[i] - meanY)
	}
	slope := sxy / sxx
	intercept := meanY - slope*meanX

	model := NewModel(math.Exp(intercept), -slope)
	r2 := rSquared(points, model)
	if !finite(model.Scale) || !finite(model.Exponent) || !finite(r2) {
		return FitResult{}, nil
	}
	return FitResult{Model: model, RSquared: r2}, nil
}

// rSquared is measured on the rate scale, not the log scale. Zero variance in
// the observed rates reports 0.
func rSquared(points []point, m Model) float64 {
	var mean float64
	for _, p := range points {
		mean += p.rate
	}
	mean /= float64(len(points))

	var ssRes, ssTot float64
	for _, p := range points {
		resid := p.rate - Evaluate(p.day, m)
		ssRes += resid * resid
		dev := p.rate - mean
		ssTot += dev * dev
	}
	if ssTot == 0 {
		return 0.0
	}
	return 1 - ssRes/ssTot
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
