package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fd1az/electrum-core/business/fees/domain"
	"github.com/fd1az/electrum-core/internal/apperror"
	"github.com/fd1az/electrum-core/internal/logger"
)

// mockLogger implements logger.LoggerInterface for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

type fakeSource struct {
	histogram    [][2]float64
	histogramErr error
	slow         bool // block FeeHistogram until ctx is done
	estimates    map[int]int64
	estimateErr  error
}

func (f *fakeSource) FeeHistogram(ctx context.Context) ([][2]float64, error) {
	if f.slow {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.histogram, f.histogramErr
}

func (f *fakeSource) EstimateFee(_ context.Context, blocks int) (int64, error) {
	if f.estimateErr != nil {
		return 0, f.estimateErr
	}
	return f.estimates[blocks], nil
}

func TestService_EstimateFees(t *testing.T) {
	estimates := map[int]int64{TargetFast: 20, TargetMedium: 10, TargetSlow: 2}
	server := domain.FeeRates{Fast: 20, Medium: 10, Slow: 2}

	tests := []struct {
		name string
		src  *fakeSource
		want domain.FeeRates
	}{
		{
			name: "histogram drives fast rate",
			src:  &fakeSource{histogram: [][2]float64{{40, 2_000_000}}, estimates: estimates},
			want: domain.FeeRates{Fast: 40, Medium: 20, Slow: 4},
		},
		{
			name: "histogram error falls back",
			src:  &fakeSource{histogramErr: errors.New("unsupported"), estimates: estimates},
			want: server,
		},
		{
			name: "histogram timeout falls back",
			src:  &fakeSource{slow: true, estimates: estimates},
			want: server,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(tt.src, 20*time.Millisecond, &mockLogger{})

			got, err := s.EstimateFees(context.Background())
			if err != nil {
				t.Fatalf("EstimateFees: %v", err)
			}
			if got != tt.want {
				t.Errorf("EstimateFees = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestService_EstimateFeesServerError(t *testing.T) {
	s := NewService(&fakeSource{estimateErr: errors.New("not connected")}, time.Second, &mockLogger{})

	_, err := s.EstimateFees(context.Background())
	if apperror.GetCode(err) != apperror.CodeFeeEstimationFailed {
		t.Errorf("code = %s", apperror.GetCode(err))
	}
}
