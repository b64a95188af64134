package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Electrum connectivity
	CodeElectrumConnectionFailed:    "Failed to connect to Electrum server",
	CodeElectrumConnectionExhausted: "Unable to connect to Electrum server after repeated attempts",
	CodeElectrumConnectionDisabled:  "Electrum connections are disabled",
	CodeElectrumNotConnected:        "Electrum client is not connected",
	CodeElectrumWaitTimeout:         "Waiting for Electrum connection timed out",

	// Electrum protocol
	CodeElectrumHandshakeFailed: "Electrum server handshake failed",
	CodeElectrumRPCError:        "Electrum RPC call failed",
	CodeElectrumBadResponse:     "Unexpected Electrum server response",
	CodeBroadcastFailed:         "Transaction broadcast failed",

	// Codec
	CodeTxDecodeFailed: "Failed to decode transaction",
	CodeInvalidAddress: "Invalid address",

	// Fees
	CodeFeeEstimationFailed: "Fee estimation failed",

	// WebSocket transport
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",

	// Storage and cache
	CodeStoreOpenFailed:  "Failed to open local store",
	CodeStoreReadFailed:  "Failed to read from local store",
	CodeStoreWriteFailed: "Failed to write to local store",
	CodeStoreSealFailed:  "Failed to encrypt or decrypt store value",
	CodeCacheMiss:        "Cache miss",
	CodeCacheCorrupt:     "Cache entry could not be parsed",

	// OTP
	CodeOTPInvalidPayload: "Invalid OTP payload",
	CodeOTPNoWalletMatch:  "No matching wallet found",
	CodeOTPDecryptFailed:  "Failed to decrypt OTP",

	// Support server
	CodeSupportRequestFailed: "Support server request failed",
	CodeSupportNoServer:      "No support server configured",

	// Circuit breaker errors
	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
