package engine

import (
	"errors"
	"math"
	"testing"
)

func TestForecastLegacyPassThrough(t *testing.T) {
	series, err := Forecast(1000, make([]float64, 5), func(int) float64 { return 0 }, 0, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 6 {
		t.Fatalf("expected 6 points, got %d", len(series))
	}
	for i, v := range series {
		if v != 1000 {
			t.Fatalf("series[%d] = %v, want 1000", i, v)
		}
	}
}

func TestForecastPerfectRetention(t *testing.T) {
	perfect := func(day int) float64 {
		if day >= 0 {
			return 1
		}
		return 0
	}
	series, err := Forecast(0, []float64{100, 100, 100}, perfect, 0, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{0, 100, 200, 300}
	for i := range want {
		if !approxEqual(series[i], want[i], tolerance) {
			t.Fatalf("series[%d] = %v, want %v", i, series[i], want[i])
		}
	}
}

func TestForecastLegacyChurnCompounds(t *testing.T) {
	series, err := Forecast(1000, make([]float64, 3), Model{}.Rate, 0.1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{1000, 900, 810, 729}
	for i := range want {
		if !approxEqual(series[i], want[i], 1e-9) {
			t.Fatalf("series[%d] = %v, want %v", i, series[i], want[i])
		}
	}
}

func TestForecastCohortSuperposition(t *testing.T) {
	m := NewModel(0.4, 0.7)
	acq := []float64{500, 300, 200}
	series, err := Forecast(1000, acq, m.Rate, 0.01, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	legacy := 1000 * math.Pow(0.99, 3)
	want := legacy + 200 + 300*m.Rate(1) + 500*m.Rate(2)
	if !approxEqual(series[3], want, 1e-9) {
		t.Fatalf("series[3] = %v, want %v", series[3], want)
	}
	if series[0] != 1000 {
		t.Fatalf("series[0] must be the supplied DAU, got %v", series[0])
	}
	if acq[0] != 500 || acq[2] != 200 {
		t.Fatalf("acquisition schedule was mutated: %v", acq)
	}
}

func TestForecastUndefinedModelOnlyFirstDayCohorts(t *testing.T) {
	series, err := Forecast(0, []float64{50, 60, 70}, Model{}.Rate, 0, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{0, 50, 60, 70}
	for i := range want {
		if series[i] != want[i] {
			t.Fatalf("series[%d] = %v, want %v", i, series[i], want[i])
		}
	}
}

func TestForecastIdempotent(t *testing.T) {
	m := NewModel(0.35, 0.5)
	acq := []float64{10, 20, 30, 40, 50, 60, 70}
	first, err := Forecast(5000, acq, m.Rate, 0.02, len(acq))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := Forecast(5000, acq, m.Rate, 0.02, len(acq))
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("forecast not deterministic at %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestForecastInvalidInput(t *testing.T) {
	rate := NewModel(0.4, 0.5).Rate
	tests := []struct {
		name      string
		current   float64
		acq       []float64
		retention RetentionFunc
		churn     float64
		horizon   int
	}{
		{name: "zero horizon", current: 10, acq: nil, retention: rate, horizon: 0},
		{name: "negative horizon", current: 10, acq: nil, retention: rate, horizon: -1},
		{name: "length mismatch", current: 10, acq: []float64{1, 2}, retention: rate, horizon: 3},
		{name: "negative dau", current: -1, acq: []float64{1}, retention: rate, horizon: 1},
		{name: "negative acquisition", current: 1, acq: []float64{-5}, retention: rate, horizon: 1},
		{name: "churn above one", current: 1, acq: []float64{1}, retention: rate, churn: 1.5, horizon: 1},
		{name: "nil retention", current: 1, acq: []float64{1}, horizon: 1},
		{name: "nan retention", current: 1, acq: []float64{1, 1}, retention: func(int) float64 { return math.NaN() }, horizon: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Forecast(tt.current, tt.acq, tt.retention, tt.churn, tt.horizon)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestLifetime(t *testing.T) {
	m := NewModel(0.4, 0.7)
	got, err := Lifetime(3, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 1 + m.Rate(1) + m.Rate(2) + m.Rate(3)
	if !approxEqual(got, want, tolerance) {
		t.Fatalf("lifetime = %v, want %v", got, want)
	}

	undefined, err := Lifetime(30, Model{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if undefined != 1 {
		t.Fatalf("undefined model lifetime = %v, want 1", undefined)
	}

	if _, err := Lifetime(-1, m); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
