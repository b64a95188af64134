// Package apperror provides coded, classified application errors.
package apperror

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Kind classifies an error by how callers are expected to react to it.
type Kind string

const (
	// KindConnectivity errors are retried locally up to a bound, then surfaced.
	KindConnectivity Kind = "connectivity"
	// KindProtocol errors are absorbed per item or trigger a single-item fallback.
	KindProtocol Kind = "protocol"
	// KindCodec errors are terminal and never retried.
	KindCodec Kind = "codec"
	// KindCrypto errors are terminal and never partially succeed.
	KindCrypto Kind = "crypto"
	// KindCache errors degrade to a cache miss.
	KindCache Kind = "cache"
	// KindValidation errors are caused by bad caller input.
	KindValidation Kind = "validation"
	// KindInternal is everything else.
	KindInternal Kind = "internal"
)

// AppError implements the error interface and provides structured error handling
type AppError struct {
	Code      Code      `json:"code"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	Context   string    `json:"context,omitempty"`
	TraceID   string    `json:"traceId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	cause     error
	stack     []uintptr
}

// Error implements the error interface
func (e *AppError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Context != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Context)
		sb.WriteString(")")
	}
	if e.cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.cause.Error())
	}
	return sb.String()
}

// Unwrap implements the errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithTraceID sets the trace ID for distributed tracing
func (e *AppError) WithTraceID(traceID string) *AppError {
	e.TraceID = traceID
	return e
}

// Retryable reports whether the operation that produced e may succeed if repeated.
func (e *AppError) Retryable() bool {
	return e.Kind == KindConnectivity
}

// LogAttrs returns key/value pairs suitable for the structured logger.
func (e *AppError) LogAttrs() []any {
	attrs := []any{
		"code", string(e.Code),
		"kind", string(e.Kind),
		"message", e.Message,
	}
	if e.Context != "" {
		attrs = append(attrs, "context", e.Context)
	}
	if e.TraceID != "" {
		attrs = append(attrs, "trace_id", e.TraceID)
	}
	if e.cause != nil {
		attrs = append(attrs, "cause", e.cause.Error())
	}
	if len(e.stack) > 0 {
		attrs = append(attrs, "stack", e.formatStack())
	}
	return attrs
}

func (e *AppError) formatStack() string {
	var sb strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			sb.WriteString(fmt.Sprintf("\n\t%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}
	return sb.String()
}

func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[:n]
}

// New creates a new AppError with the given code and options
func New(code Code, opts ...Option) *AppError {
	err := &AppError{
		Code:      code,
		Kind:      defaultKind(code),
		Message:   messages[code],
		Timestamp: time.Now(),
		stack:     captureStack(),
	}

	for _, opt := range opts {
		opt(err)
	}

	if err.Message == "" {
		err.Message = string(code)
	}

	return err
}

// Option is a functional option for AppError
type Option func(*AppError)

// WithMessage sets a custom message
func WithMessage(message string) Option {
	return func(e *AppError) {
		e.Message = message
	}
}

// WithContext adds context information
func WithContext(context string) Option {
	return func(e *AppError) {
		e.Context = context
	}
}

// WithKind overrides the kind derived from the code.
func WithKind(kind Kind) Option {
	return func(e *AppError) {
		e.Kind = kind
	}
}

// WithCause wraps an underlying error
func WithCause(cause error) Option {
	return func(e *AppError) {
		e.cause = cause
	}
}

// NotFound creates a not found error
func NotFound(code Code, context string) *AppError {
	return New(code, WithContext(context))
}

// Validation creates a validation error
func Validation(code Code, context string) *AppError {
	return New(code, WithContext(context), WithKind(KindValidation))
}

// Internal creates an internal error
func Internal(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause))
}

// External creates an error caused by a remote party.
func External(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause), WithKind(KindProtocol))
}

// Wrap wraps a standard error into AppError
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if context != "" && appErr.Context == "" {
			appErr.Context = context
		}
		return appErr
	}

	return Internal(code, context, err)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetCode extracts the error code from an error
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}

// GetKind extracts the error kind from an error.
func GetKind(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func defaultKind(code Code) Kind {
	s := string(code)
	switch {
	case strings.HasPrefix(s, "ELECTRUM_CONNECTION"),
		code == CodeElectrumNotConnected,
		code == CodeElectrumWaitTimeout,
		strings.HasPrefix(s, "WEBSOCKET"),
		strings.Contains(s, "TIMEOUT"),
		code == CodeServiceUnavailable:
		return KindConnectivity
	case strings.HasPrefix(s, "ELECTRUM_"),
		code == CodeBroadcastFailed,
		code == CodeFeeEstimationFailed,
		strings.HasPrefix(s, "SUPPORT_"),
		code == CodeExternalServiceError:
		return KindProtocol
	case code == CodeTxDecodeFailed:
		return KindCodec
	case strings.HasPrefix(s, "OTP_"):
		return KindCrypto
	case strings.HasPrefix(s, "CACHE_"):
		return KindCache
	case strings.Contains(s, "INVALID"),
		code == CodeRequiredField,
		code == CodeValidationError:
		return KindValidation
	default:
		return KindInternal
	}
}
