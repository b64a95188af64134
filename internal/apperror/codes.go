package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Electrum protocol error codes
const (
	// Connectivity
	CodeElectrumConnectionFailed    Code = "ELECTRUM_CONNECTION_FAILED"
	CodeElectrumConnectionExhausted Code = "ELECTRUM_CONNECTION_EXHAUSTED"
	CodeElectrumConnectionDisabled  Code = "ELECTRUM_CONNECTION_DISABLED"
	CodeElectrumNotConnected        Code = "ELECTRUM_NOT_CONNECTED"
	CodeElectrumWaitTimeout         Code = "ELECTRUM_WAIT_TIMEOUT"

	// Protocol
	CodeElectrumHandshakeFailed Code = "ELECTRUM_HANDSHAKE_FAILED"
	CodeElectrumRPCError        Code = "ELECTRUM_RPC_ERROR"
	CodeElectrumBadResponse     Code = "ELECTRUM_BAD_RESPONSE"
	CodeBroadcastFailed         Code = "BROADCAST_FAILED"

	// Codec
	CodeTxDecodeFailed Code = "TX_DECODE_FAILED"
	CodeInvalidAddress Code = "INVALID_ADDRESS"

	// Fees
	CodeFeeEstimationFailed Code = "FEE_ESTIMATION_FAILED"

	// WebSocket transport
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
)

// Storage and cache error codes
const (
	CodeStoreOpenFailed  Code = "STORE_OPEN_FAILED"
	CodeStoreReadFailed  Code = "STORE_READ_FAILED"
	CodeStoreWriteFailed Code = "STORE_WRITE_FAILED"
	CodeStoreSealFailed  Code = "STORE_SEAL_FAILED"

	CodeCacheMiss    Code = "CACHE_MISS"
	CodeCacheCorrupt Code = "CACHE_CORRUPT"
)

// OTP error codes
const (
	CodeOTPInvalidPayload Code = "OTP_INVALID_PAYLOAD"
	CodeOTPNoWalletMatch  Code = "OTP_NO_WALLET_MATCHED"
	CodeOTPDecryptFailed  Code = "OTP_DECRYPT_FAILED"
)

// Support server error codes
const (
	CodeSupportRequestFailed Code = "SUPPORT_REQUEST_FAILED"
	CodeSupportNoServer      Code = "SUPPORT_SERVER_NOT_FOUND"
)

// Circuit breaker errors
const (
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
