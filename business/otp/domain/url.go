package domain

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// DecryptRequest is a decrypt deep link.
type DecryptRequest struct {
	Payload        Payload
	CallbackScheme string
}

// IsDecryptURL reports whether link is a decrypt deep link.
func IsDecryptURL(link string) bool {
	lower := strings.ToLower(strings.TrimSpace(link))
	return strings.HasPrefix(lower, "bluewallet:decrypt") || strings.HasPrefix(lower, "otp://")
}

// ParseDecryptURL parses bluewallet:decrypt?otp=... and otp://?otp=...
// links. The otp parameter holds the JSON envelope.
func ParseDecryptURL(link string) (DecryptRequest, error) {
	if !IsDecryptURL(link) {
		return DecryptRequest{}, fmt.Errorf("%w: not a decrypt link", ErrInvalidPayload)
	}

	_, query, ok := strings.Cut(link, "?")
	if !ok {
		return DecryptRequest{}, fmt.Errorf("%w: missing otp parameter", ErrInvalidPayload)
	}
	params, err := url.ParseQuery(query)
	if err != nil {
		return DecryptRequest{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	otp := params.Get("otp")
	if otp == "" {
		return DecryptRequest{}, fmt.Errorf("%w: missing otp parameter", ErrInvalidPayload)
	}
	otp = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, otp)

	p, err := ParsePayload([]byte(otp))
	if err != nil {
		return DecryptRequest{}, err
	}
	return DecryptRequest{Payload: p, CallbackScheme: params.Get("callback_scheme")}, nil
}

// ResponseURL builds the link that returns the decrypted OTP to the
// requesting app.
func (r DecryptRequest) ResponseURL(otp string) string {
	scheme := r.CallbackScheme
	if scheme == "" {
		scheme = r.Payload.AppID
	}
	if scheme == "" {
		scheme = "unknown"
	}
	return scheme + "://?otp=" + url.QueryEscape(otp)
}
