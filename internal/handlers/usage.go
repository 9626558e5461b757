package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aiuml/api/internal/middleware"
	"github.com/aiuml/api/internal/usage"
)

const maxUsageWindow = 90 * 24 * time.Hour

type UsageHandler struct {
	usage  *usage.Service
	logger *zap.Logger
}

func NewUsageHandler(u *usage.Service, logger *zap.Logger) *UsageHandler {
	return &UsageHandler{usage: u, logger: logger}
}

// GetMyUsage summarizes the caller's generation runs per model
// @Summary Usage summary
// @Tags user
// @Security Bearer
// @Produce json
// @Param window query string false "lookback, e.g. 24h or 168h"
// @Success 200 {object} usage.Summary
// @Router /user/usage [get]
func (h *UsageHandler) GetMyUsage(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		middleware.Unauthorized(c, "unauthorized")
		return
	}
	h.respondSummary(c, userID)
}

// GetUserUsage summarizes another user's runs. Teachers and admins only.
// @Summary Usage summary for a user
// @Tags user
// @Security Bearer
// @Produce json
// @Param userId path string true "user id"
// @Param window query string false "lookback, e.g. 24h"
// @Success 200 {object} usage.Summary
// @Router /users/{userId}/usage [get]
func (h *UsageHandler) GetUserUsage(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		middleware.BadRequest(c, "invalid user ID")
		return
	}
	h.respondSummary(c, userID)
}

func (h *UsageHandler) respondSummary(c *gin.Context, userID uuid.UUID) {
	window, err := time.ParseDuration(c.DefaultQuery("window", "24h"))
	if err != nil || window <= 0 || window > maxUsageWindow {
		middleware.BadRequest(c, "window must be a positive duration up to 2160h")
		return
	}

	sum, err := h.usage.Summary(c.Request.Context(), userID, window)
	if err != nil {
		h.logger.Error("failed to summarize usage", zap.String("user_id", userID.String()), zap.Error(err))
		middleware.InternalError(c, "failed to summarize usage")
		return
	}
	c.JSON(http.StatusOK, sum)
}
