package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/aiuml/api/internal/document"
	"github.com/aiuml/api/internal/gemini"
	"github.com/aiuml/api/internal/middleware"
	"github.com/aiuml/api/internal/projects"
	"github.com/aiuml/api/internal/store"
)

var tracer = otel.Tracer("github.com/aiuml/api/internal/handlers")

// respondServiceError maps domain errors onto API error codes.
func respondServiceError(c *gin.Context, logger *zap.Logger, op string, err error) {
	var cfgErr *gemini.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		middleware.AINotConfigured(c, cfgErr.Reason)
	case errors.Is(err, projects.ErrNoRequirements):
		middleware.BadRequest(c, "project has no requirements to analyze")
	case errors.Is(err, store.ErrNotFound):
		middleware.NotFound(c, "not found")
	case errors.Is(err, store.ErrConflict):
		middleware.RespondError(c, http.StatusConflict, middleware.ErrCodeConflict, "already exists")
	case errors.Is(err, document.ErrUnsupported):
		middleware.UnsupportedDocument(c, err.Error())
	case errors.Is(err, document.ErrEmpty):
		middleware.BadRequest(c, "document contains no text")
	default:
		logger.Error(op+" failed", zap.Error(err))
		middleware.InternalError(c, "internal server error")
	}
}
