package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/interfaces/http/dto"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID assigned by the logging middleware
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 accepted response for work continuing in the background
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleDomainError converts domain errors to HTTP responses
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	code := domainErrorCode(err)
	h.Error(c, dto.GetHTTPStatus(code), code, err.Error())
}

// domainErrorCode maps domain sentinel errors to API error codes
func domainErrorCode(err error) string {
	switch {
	case errors.Is(err, integration.ErrInvalidFilter):
		return dto.ErrCodeInvalidFilter
	case errors.Is(err, integration.ErrNotAuthorized):
		return dto.ErrCodeNotConnected
	case errors.Is(err, integration.ErrCredentialExpired),
		errors.Is(err, integration.ErrRefreshFailed):
		return dto.ErrCodeCredentialExpired
	case errors.Is(err, integration.ErrTaskNotFound):
		return dto.ErrCodeTaskNotFound
	case errors.Is(err, integration.ErrSyncAlreadyRunning):
		return dto.ErrCodeSyncRunning
	case errors.Is(err, integration.ErrTaskTerminal):
		return dto.ErrCodeTaskTerminal
	case errors.Is(err, integration.ErrSourceThrottled):
		return dto.ErrCodeSourceThrottled
	case errors.Is(err, integration.ErrDestinationRateLimited):
		return dto.ErrCodeDestinationRateLimited
	case errors.Is(err, integration.ErrDestinationUnavailable):
		return dto.ErrCodeUpstreamUnavailable
	default:
		return dto.ErrCodeInternal
	}
}
