package domain

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

func newKey(t *testing.T) *secp256k1.PrivateKey {
	t.Helper()
	k, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	return k
}

func TestEncryptDecrypt(t *testing.T) {
	recipient := newKey(t)

	p, err := Encrypt("493021", recipient.PubKey())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if p.PublicKey != hex.EncodeToString(recipient.PubKey().SerializeCompressed()) {
		t.Error("payload should name the recipient key")
	}

	got, err := Decrypt(p, recipient)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got != "493021" {
		t.Errorf("plaintext = %q", got)
	}
}

func TestDecrypt_Failures(t *testing.T) {
	recipient := newKey(t)
	good, err := Encrypt("secret", recipient.PubKey())
	if err != nil {
		t.Fatal(err)
	}

	flip := func(s string) string {
		b, _ := hex.DecodeString(s)
		b[0] ^= 0x01
		return hex.EncodeToString(b)
	}

	tests := []struct {
		name   string
		mutate func(p *Payload)
		key    *secp256k1.PrivateKey
		step   string
	}{
		{"wrong key", func(*Payload) {}, newKey(t), StepOpen},
		{"tampered message", func(p *Payload) { p.EncryptedMessage = flip(p.EncryptedMessage) }, recipient, StepOpen},
		{"tampered tag", func(p *Payload) { p.AuthTag = flip(p.AuthTag) }, recipient, StepOpen},
		{"tampered iv", func(p *Payload) { p.IV = flip(p.IV) }, recipient, StepOpen},
		{"short iv", func(p *Payload) { p.IV = p.IV[:16] }, recipient, StepDecode},
		{"invalid ephemeral point", func(p *Payload) { p.EphemeralPublicKey = "02" + strings.Repeat("ff", 32) }, recipient, StepECDH},
		{"bad hex", func(p *Payload) { p.EncryptedMessage = "zz" }, recipient, StepDecode},
		{"nil key", func(*Payload) {}, nil, StepECDH},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := good
			tt.mutate(&p)

			got, err := Decrypt(p, tt.key)
			if !errors.Is(err, ErrDecryptFailed) {
				t.Errorf("err = %v, want ErrDecryptFailed", err)
			}
			if got != "" {
				t.Errorf("partial plaintext %q returned", got)
			}
			if step := DecryptStep(err); step != tt.step {
				t.Errorf("step = %q, want %q", step, tt.step)
			}
		})
	}
}

func TestParsePayload(t *testing.T) {
	if _, err := ParsePayload([]byte(`{"iv":"00"}`)); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("missing fields: err = %v", err)
	}
	if _, err := ParsePayload([]byte(`not json`)); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("bad json: err = %v", err)
	}
}

func TestParseDecryptURL(t *testing.T) {
	p, err := Encrypt("123456", newKey(t).PubKey())
	if err != nil {
		t.Fatal(err)
	}
	p.AppID = "exampleapp"
	raw, _ := json.Marshal(p)
	otp := url.QueryEscape(string(raw))

	tests := []struct {
		name       string
		link       string
		wantErr    bool
		wantScheme string
	}{
		{"bluewallet link", "bluewallet:decrypt?otp=" + otp, false, "exampleapp"},
		{"otp link with callback", "otp://?otp=" + otp + "&callback_scheme=other", false, "other"},
		{"upper case scheme", "BlueWallet:decrypt?otp=" + otp, false, "exampleapp"},
		{"other scheme", "https://example.com/?otp=" + otp, true, ""},
		{"missing otp", "bluewallet:decrypt?foo=bar", true, ""},
		{"no query", "bluewallet:decrypt", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseDecryptURL(tt.link)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPayload) {
					t.Errorf("err = %v, want ErrInvalidPayload", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecryptURL: %v", err)
			}
			if req.Payload.EncryptedMessage != p.EncryptedMessage {
				t.Error("payload not parsed")
			}
			want := tt.wantScheme + "://?otp=123456"
			if got := req.ResponseURL("123456"); got != want {
				t.Errorf("ResponseURL = %q, want %q", got, want)
			}
		})
	}
}

func TestIsDecryptURL(t *testing.T) {
	tests := map[string]bool{
		"bluewallet:decrypt?otp=x": true,
		"  OTP://?otp=x":           true,
		`{"iv":"00"}`:              false,
		"https://example.com":      false,
	}
	for in, want := range tests {
		if got := IsDecryptURL(in); got != want {
			t.Errorf("IsDecryptURL(%q) = %v, want %v", in, got, want)
		}
	}
}
