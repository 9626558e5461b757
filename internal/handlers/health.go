package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "aiuml-api"
	serviceVersion = "0.1.0"
)

// Pinger is a dependency that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db        Pinger
	redis     Pinger
	nats      func() bool
	temporal  Pinger
	generator interface{ Configured() error }
}

// HealthDeps lists what DeepHealth checks. Nil entries report
// "not configured".
type HealthDeps struct {
	DB        Pinger
	Redis     Pinger
	NATS      func() bool
	Temporal  Pinger
	Generator interface{ Configured() error }
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(deps HealthDeps) *HealthHandler {
	return &HealthHandler{
		db:        deps.DB,
		redis:     deps.Redis,
		nats:      deps.NATS,
		temporal:  deps.Temporal,
		generator: deps.Generator,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string            `json:"status"`
	Service      string            `json:"service"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
}

// Health returns basic health status
// @Summary Liveness
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// DeepHealth returns health status with dependency checks
// @Summary Readiness with dependency checks
// @Tags ops
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health/deep [get]
func (h *HealthHandler) DeepHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	deps := make(map[string]string)
	allHealthy := true

	check := func(name string, p Pinger, required bool) {
		if p == nil {
			deps[name] = "not configured"
			return
		}
		if err := p.Ping(ctx); err != nil {
			deps[name] = "unhealthy: " + err.Error()
			if required {
				allHealthy = false
			}
			return
		}
		deps[name] = "healthy"
	}

	check("database", h.db, true)
	check("redis", h.redis, false)
	check("temporal", h.temporal, false)

	switch {
	case h.nats == nil:
		deps["nats"] = "not configured"
	case h.nats():
		deps["nats"] = "healthy"
	default:
		deps["nats"] = "unhealthy: disconnected"
	}

	// The credential is checked locally; no generation call is made.
	if h.generator == nil {
		deps["gemini"] = "not configured"
		allHealthy = false
	} else if err := h.generator.Configured(); err != nil {
		deps["gemini"] = "unhealthy: " + err.Error()
		allHealthy = false
	} else {
		deps["gemini"] = "configured"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:       status,
		Service:      serviceName,
		Version:      serviceVersion,
		Dependencies: deps,
	})
}
