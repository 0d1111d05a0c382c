package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidFilter is used when a sync filter fails validation
	ErrCodeInvalidFilter = "ERR_INVALID_FILTER"
)

// Authentication error codes
const (
	// ErrCodeNotConnected is used when no vendor credential is stored
	ErrCodeNotConnected = "ERR_NOT_CONNECTED"
	// ErrCodeCredentialExpired is used when the credential cannot be refreshed
	ErrCodeCredentialExpired = "ERR_CREDENTIAL_EXPIRED"
	// ErrCodeWebhookSignature is used when webhook signature verification fails
	ErrCodeWebhookSignature = "ERR_WEBHOOK_SIGNATURE"
)

// Sync task error codes
const (
	// ErrCodeTaskNotFound is used when a task ID is unknown
	ErrCodeTaskNotFound = "ERR_TASK_NOT_FOUND"
	// ErrCodeSyncRunning is used when a vendor already has an active task
	ErrCodeSyncRunning = "ERR_SYNC_RUNNING"
	// ErrCodeTaskTerminal is used when mutating a completed or failed task
	ErrCodeTaskTerminal = "ERR_TASK_TERMINAL"
)

// Upstream platform error codes
const (
	// ErrCodeSourceThrottled is used when the source keeps throttling past retries
	ErrCodeSourceThrottled = "ERR_SOURCE_THROTTLED"
	// ErrCodeDestinationRateLimited is used when the destination rejects for rate
	ErrCodeDestinationRateLimited = "ERR_DESTINATION_RATE_LIMITED"
	// ErrCodeUpstreamUnavailable is used when an upstream platform is unreachable
	ErrCodeUpstreamUnavailable = "ERR_UPSTREAM_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:    http.StatusBadRequest,
	ErrCodeInvalidFilter: http.StatusBadRequest,

	ErrCodeNotConnected:      http.StatusUnauthorized,
	ErrCodeCredentialExpired: http.StatusUnauthorized,
	ErrCodeWebhookSignature:  http.StatusUnauthorized,

	ErrCodeTaskNotFound: http.StatusNotFound,
	ErrCodeSyncRunning:  http.StatusConflict,
	ErrCodeTaskTerminal: http.StatusUnprocessableEntity,

	ErrCodeSourceThrottled:        http.StatusTooManyRequests,
	ErrCodeDestinationRateLimited: http.StatusTooManyRequests,
	ErrCodeUpstreamUnavailable:    http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
