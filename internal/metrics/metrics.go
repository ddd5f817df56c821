package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels successful forecasts.
	OutcomeSuccess = "success"
	// OutcomeInvalid labels forecasts rejected for malformed input.
	OutcomeInvalid = "invalid"
	// OutcomeError labels forecasts that failed for any other reason.
	OutcomeError = "error"

	// FitDefined labels fits that produced a retention curve.
	FitDefined = "defined"
	// FitInsufficient labels fits with fewer than two distinct days.
	FitInsufficient = "insufficient"
	// FitInvalid labels fits rejected for malformed observations.
	FitInvalid = "invalid"
)

var (
	forecastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirador_forecast",
			Name:      "forecasts_total",
			Help:      "Total number of DAU forecasts handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	forecastDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mirador_forecast",
			Name:      "forecast_seconds",
			Help:      "Forecast computation latency in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	fitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirador_forecast",
			Name:      "retention_fits_total",
			Help:      "Retention curve fits, partitioned by result.",
		},
		[]string{"result"},
	)

	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirador_forecast",
			Name:      "cache_lookups_total",
			Help:      "Forecast cache lookups, partitioned by hit or miss.",
		},
		[]string{"result"},
	)
)

// Register attaches mirador-forecast collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		forecastsTotal,
		forecastDurationSeconds,
		fitsTotal,
		cacheLookupsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveForecast records a forecast duration and outcome label.
func ObserveForecast(duration time.Duration, outcome string) {
	switch outcome {
	case OutcomeInvalid, OutcomeError:
	default:
		outcome = OutcomeSuccess
	}
	forecastsTotal.WithLabelValues(outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	forecastDurationSeconds.Observe(duration.Seconds())
}

// ObserveFit counts a retention fit by result.
func ObserveFit(result string) {
	fitsTotal.WithLabelValues(result).Inc()
}

// ObserveCacheLookup counts a forecast cache hit or miss.
func ObserveCacheLookup(hit bool) {
	if hit {
		cacheLookupsTotal.WithLabelValues("hit").Inc()
		return
	}
	cacheLookupsTotal.WithLabelValues("miss").Inc()
}
