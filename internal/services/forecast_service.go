package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/mirador-forecast/internal/api"
	"github.com/miradorstack/mirador-forecast/internal/engine"
	forecastv1 "github.com/miradorstack/mirador-forecast/internal/grpc/forecastv1"
	"github.com/miradorstack/mirador-forecast/internal/metrics"
	"github.com/miradorstack/mirador-forecast/internal/models"
	"github.com/miradorstack/mirador-forecast/internal/utils"
)

// Pipeline is the subset of engine.Pipeline the service depends on.
type Pipeline interface {
	FitRetention(ctx context.Context, obs []models.Observation) (models.RetentionFit, engine.Model, error)
	Forecast(ctx context.Context, req models.ForecastRequest) (models.ForecastResult, error)
	Lifetime(ctx context.Context, req models.LifetimeRequest) (models.LifetimeResult, error)
}

// ForecastService implements the gRPC ForecastEngine service and the
// domain-level API used by the HTTP handler and CLI.
type ForecastService struct {
	forecastv1.UnimplementedForecastEngineServer

	logger    *slog.Logger
	pipeline  Pipeline
	latencies *utils.LatencyTracker
}

// NewForecastService constructs the forecast service facade.
func NewForecastService(logger *slog.Logger, pipeline Pipeline, latencyWindow int) *ForecastService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ForecastService{
		logger:    logger,
		pipeline:  pipeline,
		latencies: utils.NewLatencyTracker(latencyWindow),
	}
}

// RunFit fits a retention curve from observations.
func (s *ForecastService) RunFit(ctx context.Context, req models.FitRequest) (models.RetentionFit, error) {
	if s.pipeline == nil {
		return models.RetentionFit{}, errors.New("pipeline not configured")
	}
	fit, _, err := s.pipeline.FitRetention(ctx, req.Retention)
	return fit, err
}

// RunForecast projects DAU and records latency and outcome metrics.
func (s *ForecastService) RunForecast(ctx context.Context, req models.ForecastRequest) (models.ForecastResult, error) {
	if s.pipeline == nil {
		return models.ForecastResult{}, errors.New("pipeline not configured")
	}

	start := time.Now()
	result, err := s.pipeline.Forecast(ctx, req)
	duration := time.Since(start)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidInput) {
			metrics.ObserveForecast(duration, metrics.OutcomeInvalid)
			s.logger.Debug("forecast rejected", slog.Any("error", err))
		} else {
			metrics.ObserveForecast(duration, metrics.OutcomeError)
			s.logger.Error("forecast failed", slog.Any("error", err))
		}
		return models.ForecastResult{}, err
	}

	s.latencies.Observe(duration)
	metrics.ObserveForecast(duration, metrics.OutcomeSuccess)
	if total := s.latencies.Total(); total >= 20 && total%20 == 0 {
		s.logger.Info("forecast latency",
			slog.Duration("p95", s.latencies.Percentile(95)),
			slog.Int("samples", s.latencies.Count()))
	}
	if result.InsufficientData {
		s.logger.Info("forecast produced without a retention curve",
			slog.String("forecast_id", result.ForecastID),
			slog.Int("points", result.Fit.Points))
	}
	return result, nil
}

// RunLifetime computes LT-n for the fitted curve.
func (s *ForecastService) RunLifetime(ctx context.Context, req models.LifetimeRequest) (models.LifetimeResult, error) {
	if s.pipeline == nil {
		return models.LifetimeResult{}, errors.New("pipeline not configured")
	}
	return s.pipeline.Lifetime(ctx, req)
}

// FitRetention handles the gRPC FitRetention call.
func (s *ForecastService) FitRetention(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	domainReq, err := api.FromProtoFitRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	fit, err := s.RunFit(ctx, domainReq)
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(map[string]any{"fit": fit, "formula": fit.Formula()})
}

// Forecast handles the gRPC Forecast call.
func (s *ForecastService) Forecast(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	s.logger.Debug("Forecast called", slog.Int("fields", len(req.GetFields())))

	domainReq, err := api.FromProtoForecastRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	result, err := s.RunForecast(ctx, domainReq)
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(result)
}

// Lifetime handles the gRPC Lifetime call.
func (s *ForecastService) Lifetime(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	domainReq, err := api.FromProtoLifetimeRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	result, err := s.RunLifetime(ctx, domainReq)
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(result)
}

// HealthCheck returns the current health state.
func (s *ForecastService) HealthCheck(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return respond(map[string]any{"status": "SERVING"})
}

// LatencyP95 returns the current p95 forecast latency.
func (s *ForecastService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}

func respond(v any) (*structpb.Struct, error) {
	out, err := api.ToProtoStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, engine.ErrInsufficientData):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "forecast engine failure")
	}
}
