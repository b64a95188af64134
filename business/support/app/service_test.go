package app

import (
	"context"
	"errors"
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

type fakeClient struct {
	err       error
	diffCalls int
	lastReq   domain.SupportRequest
	lastSrv   domain.Server
}

func (f *fakeClient) CreateRequest(_ context.Context, srv domain.Server, req domain.SupportRequest) (domain.RequestResult, error) {
	f.lastSrv, f.lastReq = srv, req
	if f.err != nil {
		return domain.RequestResult{}, f.err
	}
	return domain.RequestResult{Status: true, Hash: "h1"}, nil
}

func (f *fakeClient) RequestStatus(_ context.Context, srv domain.Server, _ string) (domain.RequestStatus, error) {
	f.lastSrv = srv
	if f.err != nil {
		return domain.RequestStatus{}, f.err
	}
	return domain.RequestStatus{Status: true}, nil
}

func (f *fakeClient) Difficulties(_ context.Context, srv domain.Server) ([]domain.Difficulty, error) {
	f.diffCalls++
	f.lastSrv = srv
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Difficulty{{Amount: 1, Time: 60, Address: "kc1x"}}, nil
}

var testServers = []domain.Server{
	{Host: "a.example", Port: 80},
	{Host: "b.example", Port: 8080, IsDefault: true},
}

func TestService_Resolve(t *testing.T) {
	s := NewService(&fakeClient{}, testServers, &mockLogger{})
	defer s.Close()

	tests := []struct {
		name     string
		want     string
		wantCode apperror.Code
	}{
		{"", "b.example", ""},
		{"a.example", "a.example", ""},
		{"A.EXAMPLE:80", "a.example", ""},
		{"c.example", "", apperror.CodeSupportNoServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Resolve(tt.name)
			if tt.wantCode != "" {
				if apperror.GetCode(err) != tt.wantCode {
					t.Errorf("code = %s", apperror.GetCode(err))
				}
				return
			}
			if err != nil || got.Host != tt.want {
				t.Errorf("got %+v, %v", got, err)
			}
		})
	}

	empty := NewService(&fakeClient{}, nil, &mockLogger{})
	defer empty.Close()
	if _, err := empty.Resolve(""); apperror.GetCode(err) != apperror.CodeSupportNoServer {
		t.Errorf("code = %s", apperror.GetCode(err))
	}
}

func TestService_DifficultiesCached(t *testing.T) {
	fc := &fakeClient{}
	s := NewService(fc, testServers, &mockLogger{})
	defer s.Close()

	for range 3 {
		srv, err := s.Difficulties(context.Background(), "a.example")
		if err != nil {
			t.Fatal(err)
		}
		if len(srv.Difficulties) != 1 || srv.Host != "a.example" {
			t.Fatalf("srv = %+v", srv)
		}
	}
	if fc.diffCalls != 1 {
		t.Errorf("client called %d times", fc.diffCalls)
	}
}

func TestService_Failures(t *testing.T) {
	fc := &fakeClient{err: errors.New("connection refused")}
	s := NewService(fc, testServers, &mockLogger{})
	defer s.Close()
	ctx := context.Background()

	srv, err := s.Difficulties(ctx, "")
	if apperror.GetCode(err) != apperror.CodeSupportRequestFailed || srv.Host != "" {
		t.Errorf("difficulties: %+v, %v", srv, err)
	}

	res, err := s.RequestSupport(ctx, "", "0100", "kc1x", 1)
	if apperror.GetCode(err) != apperror.CodeSupportRequestFailed || res.Status {
		t.Errorf("request: %+v, %v", res, err)
	}

	st, err := s.RequestStatus(ctx, "", "h1")
	if apperror.GetCode(err) != apperror.CodeSupportRequestFailed || st.Status {
		t.Errorf("status: %+v, %v", st, err)
	}

	fc.err = apperror.New(apperror.CodeCircuitOpen)
	if _, err := s.RequestStatus(ctx, "", "h1"); apperror.GetCode(err) != apperror.CodeCircuitOpen {
		t.Errorf("breaker code lost: %v", err)
	}
}

func TestService_RequestSupport(t *testing.T) {
	fc := &fakeClient{}
	s := NewService(fc, testServers, &mockLogger{})
	defer s.Close()

	res, err := s.RequestSupport(context.Background(), "", "0100", "kc1x", 2.5)
	if err != nil {
		t.Fatal(err)
	}
	if res.Hash != "h1" || fc.lastSrv.Host != "b.example" || fc.lastReq.Reward != 2.5 {
		t.Errorf("res = %+v, srv = %+v, req = %+v", res, fc.lastSrv, fc.lastReq)
	}

	if _, err := s.RequestSupport(context.Background(), "", "", "kc1x", 1); apperror.GetCode(err) != apperror.CodeRequiredField {
		t.Errorf("code = %s", apperror.GetCode(err))
	}

	st, err := s.RequestStatus(context.Background(), "a.example", "h1")
	if err != nil || st.Tickets == nil {
		t.Errorf("status = %+v, %v", st, err)
	}
}
