package apm

import (
	"context"
	"testing"

	"github.com/fd1az/electrum-core/internal/config"
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

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		in      string
		want    map[string]string
		wantErr bool
	}{
		{in: "", want: map[string]string{}},
		{in: "api-key=abc", want: map[string]string{"api-key": "abc"}},
		{in: "a=1, b=x=y", want: map[string]string{"a": "1", "b": "x=y"}},
		{in: "novalue", wantErr: true},
		{in: "=1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHeaders(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v", got)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestNewTraceProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.TelemetryConfig
		wantErr bool
	}{
		{"disabled", config.TelemetryConfig{Enabled: false, TraceProvider: "zipkin"}, false},
		{"none", config.TelemetryConfig{Enabled: true, TraceProvider: "none"}, false},
		{"console", config.TelemetryConfig{Enabled: true, TraceProvider: "console", ServiceName: "t"}, false},
		{"unknown", config.TelemetryConfig{Enabled: true, TraceProvider: "jaeger"}, true},
		{"bad headers", config.TelemetryConfig{Enabled: true, TraceProvider: "otlp-http", OTLPHeaders: "broken"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp, err := NewTraceProvider(tt.cfg, &mockLogger{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if tp != nil {
				if err := tp.Stop(); err != nil {
					t.Errorf("Stop: %v", err)
				}
			}
		})
	}
}
