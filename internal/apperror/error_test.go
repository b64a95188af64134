package apperror

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew_DefaultKind(t *testing.T) {
	tests := []struct {
		code Code
		want Kind
	}{
		{CodeElectrumConnectionFailed, KindConnectivity},
		{CodeElectrumConnectionExhausted, KindConnectivity},
		{CodeElectrumNotConnected, KindConnectivity},
		{CodeElectrumWaitTimeout, KindConnectivity},
		{CodeElectrumRPCError, KindProtocol},
		{CodeElectrumHandshakeFailed, KindProtocol},
		{CodeTxDecodeFailed, KindCodec},
		{CodeOTPDecryptFailed, KindCrypto},
		{CodeCacheCorrupt, KindCache},
		{CodeInvalidAddress, KindValidation},
		{CodeStoreWriteFailed, KindInternal},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := New(tt.code)
			if err.Kind != tt.want {
				t.Errorf("kind = %s, want %s", err.Kind, tt.want)
			}
			if err.Message == "" {
				t.Error("expected default message")
			}
		})
	}
}

func TestAppError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := New(CodeElectrumConnectionFailed, WithCause(cause), WithContext("tcp://localhost:50001"))

	if !errors.Is(err, New(CodeElectrumConnectionFailed)) {
		t.Error("expected errors.Is to match on code")
	}
	if errors.Is(err, New(CodeElectrumRPCError)) {
		t.Error("expected errors.Is to reject different code")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error string %q should include cause", err.Error())
	}
	if !err.Retryable() {
		t.Error("connectivity errors should be retryable")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, CodeInternalError, "x") != nil {
		t.Fatal("wrapping nil should return nil")
	}

	original := New(CodeTxDecodeFailed)
	wrapped := Wrap(fmt.Errorf("outer: %w", original), CodeInternalError, "decode")
	if wrapped.Code != CodeTxDecodeFailed {
		t.Errorf("expected existing code to survive, got %s", wrapped.Code)
	}
	if wrapped.Context != "decode" {
		t.Errorf("expected context to be filled, got %q", wrapped.Context)
	}

	plain := Wrap(errors.New("boom"), CodeStoreReadFailed, "get")
	if GetCode(plain) != CodeStoreReadFailed {
		t.Errorf("GetCode = %s", GetCode(plain))
	}
	if GetCode(errors.New("plain")) != CodeUnknownError {
		t.Error("plain errors should map to unknown code")
	}
	if GetKind(errors.New("plain")) != KindInternal {
		t.Error("plain errors should map to internal kind")
	}
}

func TestLogAttrs(t *testing.T) {
	err := New(CodeCacheCorrupt, WithContext("abc_verbose"), WithCause(errors.New("bad json")))
	attrs := err.LogAttrs()
	if len(attrs)%2 != 0 {
		t.Fatalf("attrs must be key/value pairs, got %d entries", len(attrs))
	}

	found := map[string]bool{}
	for i := 0; i < len(attrs); i += 2 {
		found[attrs[i].(string)] = true
	}
	for _, key := range []string{"code", "kind", "context", "cause"} {
		if !found[key] {
			t.Errorf("missing attr %q", key)
		}
	}
}
