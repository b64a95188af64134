// Package app contains the fee estimation service.
package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/electrum-core/business/fees/domain"
	"github.com/fd1az/electrum-core/internal/apperror"
	"github.com/fd1az/electrum-core/internal/logger"
)

const meterName = "github.com/fd1az/electrum-core/business/fees"

// Confirmation targets, in blocks, for each priority.
const (
	TargetFast   = 1
	TargetMedium = 18
	TargetSlow   = 144
)

// DefaultHistogramTimeout bounds the mempool histogram request.
const DefaultHistogramTimeout = 15 * time.Second

// Source provides raw fee data from the server.
type Source interface {
	FeeHistogram(ctx context.Context) ([][2]float64, error)
	EstimateFee(ctx context.Context, blocks int) (int64, error)
}

// Service estimates fee rates.
type Service struct {
	src              Source
	histogramTimeout time.Duration
	log              logger.LoggerInterface
	rateGauge        metric.Int64Gauge
}

// NewService creates a new Service.
func NewService(src Source, histogramTimeout time.Duration, log logger.LoggerInterface) *Service {
	if histogramTimeout <= 0 {
		histogramTimeout = DefaultHistogramTimeout
	}
	gauge, err := otel.Meter(meterName).Int64Gauge(
		"fee_rate_sat_per_vbyte",
		metric.WithDescription("Last estimated fee rate by priority"),
		metric.WithUnit("sat/vB"),
	)
	if err != nil {
		log.Warn(context.Background(), "fee rate gauge unavailable", "error", err)
	}
	return &Service{src: src, histogramTimeout: histogramTimeout, log: log, rateGauge: gauge}
}

// EstimateFees returns fast, medium and slow rates in sat/vB. A slow or
// failing histogram is not an error; the server estimates are used instead.
func (s *Service) EstimateFees(ctx context.Context) (domain.FeeRates, error) {
	histogram := s.histogram(ctx)

	var server domain.FeeRates
	targets := []struct {
		blocks int
		dst    *int64
	}{
		{TargetFast, &server.Fast},
		{TargetMedium, &server.Medium},
		{TargetSlow, &server.Slow},
	}
	for _, target := range targets {
		rate, err := s.src.EstimateFee(ctx, target.blocks)
		if err != nil {
			return domain.FeeRates{}, apperror.New(apperror.CodeFeeEstimationFailed,
				apperror.WithContext("estimatefee"),
				apperror.WithCause(err))
		}
		*target.dst = rate
	}

	rates := domain.Combine(histogram, server)
	s.record(ctx, rates)

	s.log.Debug(ctx, "fees estimated",
		"fast", rates.Fast,
		"medium", rates.Medium,
		"slow", rates.Slow,
		"histogram_buckets", len(histogram))
	return rates, nil
}

func (s *Service) histogram(ctx context.Context) []domain.Bucket {
	hctx, cancel := context.WithTimeout(ctx, s.histogramTimeout)
	defer cancel()

	raw, err := s.src.FeeHistogram(hctx)
	if err != nil {
		s.log.Warn(ctx, "fee histogram unavailable, using server estimates", "error", err)
		return nil
	}

	out := make([]domain.Bucket, len(raw))
	for i, b := range raw {
		out[i] = domain.Bucket(b)
	}
	return out
}

func (s *Service) record(ctx context.Context, rates domain.FeeRates) {
	if s.rateGauge == nil {
		return
	}
	s.rateGauge.Record(ctx, rates.Fast, metric.WithAttributes(attribute.String("priority", "fast")))
	s.rateGauge.Record(ctx, rates.Medium, metric.WithAttributes(attribute.String("priority", "medium")))
	s.rateGauge.Record(ctx, rates.Slow, metric.WithAttributes(attribute.String("priority", "slow")))
}
