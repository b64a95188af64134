package app

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/fd1az/electrum-core/business/otp/domain"
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

type walletList []Wallet

func (l walletList) Wallets(context.Context) ([]Wallet, error) { return l, nil }

func newWallet(t *testing.T, label string) Wallet {
	t.Helper()
	k, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	return Wallet{
		Label:      label,
		PublicKey:  hex.EncodeToString(k.PubKey().SerializeCompressed()),
		PrivateKey: k,
	}
}

func TestService_DecryptOTP(t *testing.T) {
	mine := newWallet(t, "savings")
	other := newWallet(t, "other")
	stranger := newWallet(t, "stranger")

	s := NewService(walletList{other, mine}, &mockLogger{})

	encryptFor := func(w Wallet) string {
		p, err := domain.Encrypt("774411", w.PrivateKey.PubKey())
		if err != nil {
			t.Fatal(err)
		}
		p.AppName = "Example"
		b, _ := json.Marshal(p)
		return string(b)
	}

	tampered := func() string {
		p, _ := domain.Encrypt("774411", mine.PrivateKey.PubKey())
		p.AuthTag = "00000000000000000000000000000000"
		b, _ := json.Marshal(p)
		return string(b)
	}()

	tests := []struct {
		name     string
		raw      string
		wantCode apperror.Code
		wantOTP  string
	}{
		{"matching wallet", encryptFor(mine), "", "774411"},
		{"no matching wallet", encryptFor(stranger), apperror.CodeOTPNoWalletMatch, ""},
		{"tampered tag", tampered, apperror.CodeOTPDecryptFailed, ""},
		{"malformed", `{"iv":"00"}`, apperror.CodeOTPInvalidPayload, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.DecryptOTP(context.Background(), tt.raw)
			if tt.wantCode != "" {
				if apperror.GetCode(err) != tt.wantCode {
					t.Errorf("code = %s, want %s", apperror.GetCode(err), tt.wantCode)
				}
				if res.OTP != "" {
					t.Error("plaintext returned on failure")
				}
				return
			}
			if err != nil {
				t.Fatalf("DecryptOTP: %v", err)
			}
			if res.OTP != tt.wantOTP || res.Wallet != "savings" || res.AppName != "Example" {
				t.Errorf("result = %+v", res)
			}
		})
	}

	_, err := s.DecryptOTP(context.Background(), encryptFor(stranger))
	if !IsNoWalletMatched(err) {
		t.Error("IsNoWalletMatched should recognise the error")
	}

	_, err = s.DecryptOTP(context.Background(), tampered)
	if step := domain.DecryptStep(err); step != domain.StepOpen {
		t.Errorf("failed step = %q, want %q", step, domain.StepOpen)
	}
}

func TestService_HandleDecryptURL(t *testing.T) {
	w := newWallet(t, "main")
	s := NewService(walletList{w}, &mockLogger{})

	p, err := domain.Encrypt("12 34", w.PrivateKey.PubKey())
	if err != nil {
		t.Fatal(err)
	}
	p.AppID = "requester"
	b, _ := json.Marshal(p)

	res, err := s.HandleDecryptURL(context.Background(), "bluewallet:decrypt?otp="+url.QueryEscape(string(b)))
	if err != nil {
		t.Fatalf("HandleDecryptURL: %v", err)
	}
	if res.OTP != "12 34" {
		t.Errorf("otp = %q", res.OTP)
	}
	if res.ResponseURL != "requester://?otp=12+34" {
		t.Errorf("response url = %q", res.ResponseURL)
	}

	if _, err := s.HandleDecryptURL(context.Background(), "https://example.com"); apperror.GetCode(err) != apperror.CodeOTPInvalidPayload {
		t.Errorf("code = %s", apperror.GetCode(err))
	}
}
