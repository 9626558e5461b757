package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError represents a structured error response
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	RetryAfter int    `json:"retry_after_ms,omitempty"`
}

// Common error codes
const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodeAINotConfigured     = "AI_NOT_CONFIGURED"
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeUnsupportedDocument = "UNSUPPORTED_DOCUMENT"
	ErrCodeWorkflowUnavailable = "WORKFLOW_UNAVAILABLE"
)

// RespondError sends a structured error response
func RespondError(c *gin.Context, status int, code string, message string) {
	c.JSON(status, gin.H{
		"error": APIError{
			Code:    code,
			Message: message,
		},
	})
}

// RespondErrorWithDetails sends a structured error response with details
func RespondErrorWithDetails(c *gin.Context, status int, code string, message string, details string) {
	c.JSON(status, gin.H{
		"error": APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// RespondErrorWithRetry sends a structured error response with retry hint
func RespondErrorWithRetry(c *gin.Context, status int, code string, message string, retryAfterMs int) {
	c.JSON(status, gin.H{
		"error": APIError{
			Code:       code,
			Message:    message,
			RetryAfter: retryAfterMs,
		},
	})
}

func abortWithError(c *gin.Context, status int, code, message string) {
	RespondError(c, status, code, message)
	c.Abort()
}

// BadRequest sends a 400 error
func BadRequest(c *gin.Context, message string) {
	RespondError(c, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 error
func Unauthorized(c *gin.Context, message string) {
	RespondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden sends a 403 error
func Forbidden(c *gin.Context, message string) {
	RespondError(c, http.StatusForbidden, ErrCodeForbidden, message)
}

// NotFound sends a 404 error
func NotFound(c *gin.Context, message string) {
	RespondError(c, http.StatusNotFound, ErrCodeNotFound, message)
}

// InternalError sends a 500 error
func InternalError(c *gin.Context, message string) {
	RespondError(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// AINotConfigured sends a 503 error when the generation credential is missing.
func AINotConfigured(c *gin.Context, details string) {
	RespondErrorWithDetails(c, http.StatusServiceUnavailable, ErrCodeAINotConfigured,
		"AI generation is not configured", details)
}

// UnsupportedDocument sends a 415 error for uploads with no text layer.
func UnsupportedDocument(c *gin.Context, details string) {
	RespondErrorWithDetails(c, http.StatusUnsupportedMediaType, ErrCodeUnsupportedDocument,
		"document format is not supported", details)
}
