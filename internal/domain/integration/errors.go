package integration

import "errors"

var (
	// Auth errors
	ErrNotAuthorized     = errors.New("integration: vendor not authorized")
	ErrRefreshFailed     = errors.New("integration: token refresh failed")
	ErrCredentialExpired = errors.New("integration: credential expired and no refresh token available")

	// Fetch errors
	ErrSourceThrottled = errors.New("integration: source platform throttled")
	ErrProtocol        = errors.New("integration: malformed source response")
	ErrInvalidFilter   = errors.New("integration: invalid sync filter")

	// Destination errors
	ErrDestinationUnavailable   = errors.New("integration: destination temporarily unavailable")
	ErrDestinationRequestFailed = errors.New("integration: destination request failed")
	ErrDestinationRateLimited   = errors.New("integration: destination rate limited")
	ErrDestinationNotFound      = errors.New("integration: destination product not found")
	ErrDuplicateSourceTag       = errors.New("integration: multiple destination products share a source tag")

	// Task errors
	ErrTaskNotFound       = errors.New("integration: sync task not found")
	ErrSyncAlreadyRunning = errors.New("integration: a sync task is already running for this vendor")
	ErrTaskCancelled      = errors.New("integration: sync task cancelled")
	ErrTaskTerminal       = errors.New("integration: sync task already in a terminal state")
)
