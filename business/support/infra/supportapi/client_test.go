package supportapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/fd1az/electrum-core/business/support/domain"
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

func serverFor(t *testing.T, ts *httptest.Server) domain.Server {
	t.Helper()
	host, port, err := net.SplitHostPort(ts.Listener.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	p, _ := strconv.Atoi(port)
	return domain.Server{Host: host, Port: uint16(p)}
}

func newClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(0, &mockLogger{})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestClient_CreateRequest(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/support/request" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body["tx"] != "0100" || body["address"] != "kc1qaddr" || body["reward"] != 1.5 {
			t.Errorf("body = %v", body)
		}
		w.Write([]byte(`{"status":true,"hash":"abcd"}`))
	}))
	defer ts.Close()

	got, err := newClient(t).CreateRequest(context.Background(), serverFor(t, ts),
		domain.SupportRequest{Tx: "0100", Address: "kc1qaddr", Reward: 1.5})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if !got.Status || got.Hash != "abcd" {
		t.Errorf("got %+v", got)
	}
}

func TestClient_RequestStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/support/request/abcd" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":true,"tickets":[{"txid":"ff","height":12,"confirmed":true}]}`))
	}))
	defer ts.Close()

	got, err := newClient(t).RequestStatus(context.Background(), serverFor(t, ts), "abcd")
	if err != nil {
		t.Fatalf("RequestStatus: %v", err)
	}
	if len(got.Tickets) != 1 || got.Tickets[0].Height != 12 || !got.Tickets[0].Confirmed {
		t.Errorf("got %+v", got)
	}
}

func TestClient_Difficulties(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		code    int
		want    int
		wantErr bool
	}{
		{"ok", `{"status":true,"difficulties":[{"reward":0.5,"time":600,"address":"kc1a"},{"reward":2,"time":60,"address":"kc1b"}]}`, 200, 2, false},
		{"status false", `{"status":false}`, 200, 0, true},
		{"server error", `boom`, 500, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			got, err := newClient(t).Difficulties(context.Background(), serverFor(t, ts))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("got %d difficulties", len(got))
			}
			if tt.want > 0 && (got[0].Amount != 0.5 || got[0].Time != 600 || got[0].Address != "kc1a") {
				t.Errorf("first = %+v", got[0])
			}
		})
	}
}

func TestClient_BreakerOpens(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c := newClient(t)
	srv := serverFor(t, ts)

	var lastErr error
	for range 8 {
		_, lastErr = c.Difficulties(context.Background(), srv)
	}
	if hits.Load() != 5 {
		t.Errorf("hits = %d, want 5 before the breaker opens", hits.Load())
	}
	if apperror.GetCode(lastErr) != apperror.CodeCircuitOpen {
		t.Errorf("code = %s", apperror.GetCode(lastErr))
	}
}
