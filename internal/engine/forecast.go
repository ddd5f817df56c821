package engine

import "math"

// Forecast projects DAU for horizon days. series[0] is currentDAU unchanged.
// The pre-existing base decays geometrically at churnRate per day and ignores
// the retention curve; every acquired cohort is fully present on its first day
// and then follows retention from its own acquisition day.
func Forecast(currentDAU float64, acquisition []float64, retention RetentionFunc, churnRate float64, horizon int) ([]float64, error) {
	const op = "engine.Forecast"
	if horizon < 1 {
		return nil, invalidInput(op, "horizon %d must be >= 1", horizon)
	}
	if len(acquisition) != horizon {
		return nil, invalidInput(op, "acquisition has %d entries, want %d", len(acquisition), horizon)
	}
	if !finite(currentDAU) || currentDAU < 0 {
		return nil, invalidInput(op, "current DAU %v must be a non-negative number", currentDAU)
	}
	if !finite(churnRate) || churnRate < 0 || churnRate > 1 {
		return nil, invalidInput(op, "churn rate %v outside [0,1]", churnRate)
	}
	if retention == nil {
		return nil, invalidInput(op, "retention function is required")
	}
	for i, v := range acquisition {
		if !finite(v) || v < 0 {
			return nil, invalidInput(op, "acquisition on day %d is %v, must be a non-negative number", i+1, v)
		}
	}

	series := make([]float64, horizon+1)
	series[0] = currentDAU
	legacy := currentDAU
	for t := 1; t <= horizon; t++ {
		legacy *= 1 - churnRate
		dau := acquisition[t-1] + legacy
		for prev := 1; prev < t; prev++ {
			dau += acquisition[prev-1] * retention(t-prev)
		}
		if math.IsNaN(dau) || math.IsInf(dau, 0) {
			return nil, invalidInput(op, "projected DAU on day %d is not finite", t)
		}
		series[t] = dau
	}
	return series, nil
}

// Lifetime sums retention from day 0 through day n inclusive (LT-n).
func Lifetime(n int, m Model) (float64, error) {
	if n < 0 {
		return 0, invalidInput("engine.Lifetime", "days %d must be >= 0", n)
	}
	total := 0.0
	for day := 0; day <= n; day++ {
		total += Evaluate(day, m)
	}
	return total, nil
}
