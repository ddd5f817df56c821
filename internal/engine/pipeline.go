package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/miradorstack/mirador-forecast/internal/cache"
	"github.com/miradorstack/mirador-forecast/internal/metrics"
	"github.com/miradorstack/mirador-forecast/internal/models"
)

// PipelineOptions tunes request limits and result caching.
type PipelineOptions struct {
	Cache           cache.Provider
	CacheTTL        time.Duration
	MaxObservations int
}

// Pipeline turns validated requests into fitted curves and DAU forecasts.
type Pipeline struct {
	logger          *slog.Logger
	cache           cache.Provider
	cacheTTL        time.Duration
	maxObservations int
	now             func() time.Time
	newID           func() string
}

// NewPipeline constructs a forecast pipeline. A nil cache disables memoisation.
func NewPipeline(logger *slog.Logger, opts PipelineOptions) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	provider := opts.Cache
	if provider == nil {
		provider = cache.NoopProvider{}
	}
	return &Pipeline{
		logger:          logger,
		cache:           provider,
		cacheTTL:        opts.CacheTTL,
		maxObservations: opts.MaxObservations,
		now:             func() time.Time { return time.Now().UTC() },
		newID:           uuid.NewString,
	}
}

// FitRetention normalises observations and fits the retention curve.
func (p *Pipeline) FitRetention(ctx context.Context, obs []models.Observation) (models.RetentionFit, Model, error) {
	const op = "pipeline.FitRetention"
	if err := ctx.Err(); err != nil {
		return models.RetentionFit{}, Model{}, err
	}
	if err := p.checkObservations(op, obs); err != nil {
		metrics.ObserveFit(metrics.FitInvalid)
		return models.RetentionFit{}, Model{}, err
	}
	return p.fit(models.NormalizeObservations(obs))
}

// fit runs the engine over observations already checked and normalised.
func (p *Pipeline) fit(normalized []models.Observation) (models.RetentionFit, Model, error) {
	days, rates := models.SplitObservations(normalized)
	res, err := Fit(days, rates)
	if err != nil {
		metrics.ObserveFit(metrics.FitInvalid)
		return models.RetentionFit{}, Model{}, err
	}

	fit := toRetentionFit(res, len(normalized))
	if fit.Defined {
		metrics.ObserveFit(metrics.FitDefined)
		p.logger.Debug("retention curve fitted",
			slog.Float64("scale", res.Model.Scale),
			slog.Float64("exponent", res.Model.Exponent),
			slog.Float64("r_squared", res.RSquared),
			slog.Int("points", len(normalized)))
	} else {
		metrics.ObserveFit(metrics.FitInsufficient)
		p.logger.Debug("insufficient retention data", slog.Int("points", len(normalized)))
	}
	return fit, res.Model, nil
}

// Forecast validates the request, fits retention and projects DAU. Identical
// requests are served from the cache when one is configured.
func (p *Pipeline) Forecast(ctx context.Context, req models.ForecastRequest) (models.ForecastResult, error) {
	const op = "pipeline.Forecast"
	if err := ctx.Err(); err != nil {
		return models.ForecastResult{}, err
	}
	if err := models.Validate(req); err != nil {
		return models.ForecastResult{}, invalidInput(op, "%v", err)
	}
	schedule, err := req.AcquisitionSchedule()
	if err != nil {
		return models.ForecastResult{}, invalidInput(op, "%v", err)
	}
	if err := p.checkObservations(op, req.Retention); err != nil {
		metrics.ObserveFit(metrics.FitInvalid)
		return models.ForecastResult{}, err
	}

	normalized := req
	normalized.Retention = models.NormalizeObservations(req.Retention)
	normalized.Acquisition = schedule
	normalized.DailyNewUsers = 0

	key, keyErr := cacheKey("forecast", normalized)
	if keyErr == nil {
		if cached, ok := p.lookup(ctx, key); ok {
			return cached, nil
		}
	} else {
		p.logger.Warn("forecast cache key failed", slog.Any("error", keyErr))
	}

	fit, model, err := p.fit(normalized.Retention)
	if err != nil {
		return models.ForecastResult{}, err
	}

	series, err := Forecast(req.CurrentDAU, schedule, model.Rate, req.ChurnRate, req.ForecastDays)
	if err != nil {
		return models.ForecastResult{}, err
	}

	result := models.ForecastResult{
		ForecastID:       p.newID(),
		Fit:              fit,
		Formula:          fit.Formula(),
		Series:           series,
		InsufficientData: !fit.Defined,
		CreatedAt:        p.now(),
	}
	if keyErr == nil {
		p.store(ctx, key, result)
	}
	return result, nil
}

// Lifetime computes LT-n over the curve fitted from the request observations.
// An undefined curve reports ErrInsufficientData.
func (p *Pipeline) Lifetime(ctx context.Context, req models.LifetimeRequest) (models.LifetimeResult, error) {
	const op = "pipeline.Lifetime"
	if err := models.Validate(req); err != nil {
		return models.LifetimeResult{}, invalidInput(op, "%v", err)
	}
	fit, model, err := p.FitRetention(ctx, req.Retention)
	if err != nil {
		return models.LifetimeResult{}, err
	}
	if !fit.Defined {
		return models.LifetimeResult{Days: req.Days, Fit: fit}, fmt.Errorf("%s: at least two retention points are required: %w", op, ErrInsufficientData)
	}
	lt, err := Lifetime(req.Days, model)
	if err != nil {
		return models.LifetimeResult{}, err
	}
	return models.LifetimeResult{Days: req.Days, Lifetime: lt, Fit: fit}, nil
}

func (p *Pipeline) checkObservations(op string, obs []models.Observation) error {
	if p.maxObservations > 0 && len(obs) > p.maxObservations {
		return invalidInput(op, "%d retention points exceed the limit of %d", len(obs), p.maxObservations)
	}
	for _, o := range obs {
		if err := models.Validate(o); err != nil {
			return invalidInput(op, "%v", err)
		}
	}
	return nil
}

func (p *Pipeline) lookup(ctx context.Context, key string) (models.ForecastResult, bool) {
	data, err := p.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			p.logger.Warn("forecast cache read failed", slog.Any("error", err))
		}
		metrics.ObserveCacheLookup(false)
		return models.ForecastResult{}, false
	}
	var result models.ForecastResult
	if err := json.Unmarshal(data, &result); err != nil {
		p.logger.Warn("discarding corrupt cache entry", slog.String("key", key), slog.Any("error", err))
		_ = p.cache.Del(ctx, key)
		metrics.ObserveCacheLookup(false)
		return models.ForecastResult{}, false
	}
	metrics.ObserveCacheLookup(true)
	return result, true
}

func (p *Pipeline) store(ctx context.Context, key string, result models.ForecastResult) {
	data, err := json.Marshal(result)
	if err != nil {
		p.logger.Warn("forecast cache encode failed", slog.Any("error", err))
		return
	}
	if err := p.cache.Set(ctx, key, data, p.cacheTTL); err != nil {
		p.logger.Warn("forecast cache write failed", slog.Any("error", err))
	}
}

func cacheKey(prefix string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return prefix + ":" + hex.EncodeToString(sum[:]), nil
}

func toRetentionFit(res FitResult, points int) models.RetentionFit {
	fit := models.RetentionFit{RSquared: res.RSquared, Points: points}
	if res.Model.Defined {
		scale, exponent := res.Model.Scale, res.Model.Exponent
		fit.Scale = &scale
		fit.Exponent = &exponent
		fit.Defined = true
	}
	return fit
}
