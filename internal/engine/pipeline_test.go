package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/miradorstack/mirador-forecast/internal/cache"
	"github.com/miradorstack/mirador-forecast/internal/models"
)

func baseRequest() models.ForecastRequest {
	return models.ForecastRequest{
		CurrentDAU:    10000,
		ForecastDays:  30,
		ChurnRate:     0.01,
		DailyNewUsers: 500,
		Retention: []models.Observation{
			{Day: 7, Rate: 0.1},
			{Day: 1, Rate: 0.4},
		},
	}
}

func TestPipelineForecast(t *testing.T) {
	p := NewPipeline(nil, PipelineOptions{})
	p.newID = func() string { return "forecast-1" }

	res, err := p.Forecast(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ForecastID != "forecast-1" {
		t.Fatalf("unexpected id %s", res.ForecastID)
	}
	if len(res.Series) != 31 {
		t.Fatalf("expected 31 points, got %d", len(res.Series))
	}
	if res.Series[0] != 10000 {
		t.Fatalf("series[0] = %v, want 10000", res.Series[0])
	}
	if !res.Fit.Defined || res.InsufficientData {
		t.Fatalf("expected defined fit, got %+v", res.Fit)
	}
	if math.Abs(*res.Fit.Exponent-0.7124) > 1e-4 {
		t.Fatalf("unexpected exponent %v", *res.Fit.Exponent)
	}
	if res.Formula == "" {
		t.Fatalf("expected a formula for a defined fit")
	}

	model := NewModel(*res.Fit.Scale, *res.Fit.Exponent)
	want := 10000*0.99 + 500
	if math.Abs(res.Series[1]-want) > 1e-9 {
		t.Fatalf("series[1] = %v, want %v", res.Series[1], want)
	}
	want = 10000*0.99*0.99 + 500 + 500*model.Rate(1)
	if math.Abs(res.Series[2]-want) > 1e-9 {
		t.Fatalf("series[2] = %v, want %v", res.Series[2], want)
	}
}

func TestPipelineForecastInsufficientData(t *testing.T) {
	p := NewPipeline(nil, PipelineOptions{})
	req := baseRequest()
	req.Retention = []models.Observation{{Day: 1, Rate: 0.4}}
	req.ForecastDays = 3

	res, err := p.Forecast(context.Background(), req)
	if err != nil {
		t.Fatalf("insufficient data must not fail: %v", err)
	}
	if !res.InsufficientData || res.Fit.Scale != nil || res.Fit.RSquared != 0 {
		t.Fatalf("expected undefined fit, got %+v", res.Fit)
	}
	if res.Formula != "" {
		t.Fatalf("expected no formula")
	}
}

func TestPipelineForecastInvalidInput(t *testing.T) {
	p := NewPipeline(nil, PipelineOptions{})

	zeroRate := baseRequest()
	zeroRate.Retention = []models.Observation{{Day: 1, Rate: 0}, {Day: 7, Rate: 0.1}}

	badSchedule := baseRequest()
	badSchedule.Acquisition = []float64{1, 2, 3}

	tooLong := baseRequest()
	tooLong.ForecastDays = 400

	for name, req := range map[string]models.ForecastRequest{
		"zero rate":    zeroRate,
		"bad schedule": badSchedule,
		"too long":     tooLong,
	} {
		if _, err := p.Forecast(context.Background(), req); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
}

func TestPipelineForecastUsesCache(t *testing.T) {
	provider := cache.NewMemoryProvider(8, time.Minute)
	p := NewPipeline(nil, PipelineOptions{Cache: provider, CacheTTL: time.Minute})
	calls := 0
	p.newID = func() string {
		calls++
		return "id"
	}

	first, err := p.Forecast(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reordered := baseRequest()
	reordered.Retention = []models.Observation{{Day: 1, Rate: 0.4}, {Day: 7, Rate: 0.1}}
	second, err := p.Forecast(context.Background(), reordered)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 1 {
		t.Fatalf("expected the second request to hit the cache, computed %d times", calls)
	}
	if provider.Len() != 1 {
		t.Fatalf("expected one cached entry, got %d", provider.Len())
	}
	for i := range first.Series {
		if first.Series[i] != second.Series[i] {
			t.Fatalf("cached series differs at %d", i)
		}
	}
}

func TestPipelineFitRetentionLimit(t *testing.T) {
	p := NewPipeline(nil, PipelineOptions{MaxObservations: 2})
	obs := []models.Observation{{Day: 1, Rate: 0.5}, {Day: 2, Rate: 0.4}, {Day: 3, Rate: 0.3}}
	if _, _, err := p.FitRetention(context.Background(), obs); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPipelineFitRetentionDeduplicates(t *testing.T) {
	p := NewPipeline(nil, PipelineOptions{})
	obs := []models.Observation{{Day: 1, Rate: 0.9}, {Day: 7, Rate: 0.1}, {Day: 1, Rate: 0.4}}
	fit, model, err := p.FitRetention(context.Background(), obs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fit.Points != 2 {
		t.Fatalf("expected 2 points after de-duplication, got %d", fit.Points)
	}
	if math.Abs(model.Scale-0.4) > 1e-9 {
		t.Fatalf("expected last rate for day 1 to win, scale %v", model.Scale)
	}
}

func TestPipelineLifetime(t *testing.T) {
	p := NewPipeline(nil, PipelineOptions{})
	req := models.LifetimeRequest{
		Days:      30,
		Retention: []models.Observation{{Day: 1, Rate: 0.4}, {Day: 7, Rate: 0.1}},
	}
	res, err := p.Lifetime(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	model := NewModel(*res.Fit.Scale, *res.Fit.Exponent)
	want, _ := Lifetime(30, model)
	if math.Abs(res.Lifetime-want) > 1e-12 {
		t.Fatalf("lifetime = %v, want %v", res.Lifetime, want)
	}
	if res.Lifetime <= 1 {
		t.Fatalf("lifetime must include retained days beyond day 0")
	}

	req.Retention = req.Retention[:1]
	if _, err := p.Lifetime(context.Background(), req); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestPipelineCancelledContext(t *testing.T) {
	p := NewPipeline(nil, PipelineOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Forecast(ctx, baseRequest()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPipelineForecastSingleZeroRateIsInsufficient(t *testing.T) {
	p := NewPipeline(nil, PipelineOptions{})
	req := baseRequest()
	req.ForecastDays = 3
	req.Retention = []models.Observation{{Day: 1, Rate: 0}}

	res, err := p.Forecast(context.Background(), req)
	if err != nil {
		t.Fatalf("a lone zero rate must degrade to insufficient data, got %v", err)
	}
	if !res.InsufficientData || res.Fit.Defined {
		t.Fatalf("expected undefined fit, got %+v", res.Fit)
	}
	if len(res.Series) != 4 {
		t.Fatalf("expected 4 points, got %d", len(res.Series))
	}
}

func TestPipelineObservationLimitAppliesToRawInput(t *testing.T) {
	p := NewPipeline(nil, PipelineOptions{MaxObservations: 2})
	obs := []models.Observation{{Day: 1, Rate: 0.5}, {Day: 7, Rate: 0.1}, {Day: 1, Rate: 0.4}}

	if _, _, err := p.FitRetention(context.Background(), obs); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("fit: expected ErrInvalidInput, got %v", err)
	}

	req := baseRequest()
	req.Retention = obs
	if _, err := p.Forecast(context.Background(), req); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("forecast: expected ErrInvalidInput, got %v", err)
	}
}
