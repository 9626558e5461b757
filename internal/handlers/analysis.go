package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/aiuml/api/internal/analysis"
	"github.com/aiuml/api/internal/document"
	"github.com/aiuml/api/internal/eventbus"
	"github.com/aiuml/api/internal/metrics"
	"github.com/aiuml/api/internal/middleware"
	"github.com/aiuml/api/internal/models"
	"github.com/aiuml/api/internal/orchestration"
	"github.com/aiuml/api/internal/patterns"
	"github.com/aiuml/api/internal/projects"
	"github.com/aiuml/api/internal/usage"
)

// Pipeline is the stateless diagram and pattern pipeline.
type Pipeline interface {
	Diagram(ctx context.Context, req analysis.Request) (analysis.Diagram, error)
	Patterns(ctx context.Context, requirements string) (patterns.Outcome, error)
}

// ProjectAnalyzer analyzes and stores a project's requirements.
type ProjectAnalyzer interface {
	Analyze(ctx context.Context, userID, projectID uuid.UUID, kind, notation, source string) (*projects.Run, error)
}

// WorkflowRunner starts and inspects async analyses.
type WorkflowRunner interface {
	Start(ctx context.Context, workflowID string, in models.AnalysisInput) (string, error)
	Status(ctx context.Context, workflowID string) (*orchestration.Status, error)
}

// EventLog reads recent analysis events for a project.
type EventLog interface {
	Recent(ctx context.Context, projectID string, limit int) ([]eventbus.Event, error)
}

// AnalysisHandlerConfig wires an AnalysisHandler. Runner and Events are
// optional.
type AnalysisHandlerConfig struct {
	Pipeline       Pipeline
	Projects       ProjectAnalyzer
	Repo           projects.Repository
	Runner         WorkflowRunner
	Events         EventLog
	Usage          *usage.Service
	Metrics        *metrics.Metrics
	Timeout        time.Duration
	MaxUploadBytes int64
	Logger         *zap.Logger
}

// AnalysisHandler serves diagram generation, pattern detection and uploads
type AnalysisHandler struct {
	cfg    AnalysisHandlerConfig
	logger *zap.Logger
}

func NewAnalysisHandler(cfg AnalysisHandlerConfig) *AnalysisHandler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	return &AnalysisHandler{cfg: cfg, logger: cfg.Logger}
}

// AnalyzeRequest is the optional body of the analyze endpoints.
type AnalyzeRequest struct {
	Kind         string `json:"kind"`
	Notation     string `json:"notation"`
	Requirements string `json:"requirements"`
}

// AnalyzeResponse is a stored analysis run.
type AnalyzeResponse struct {
	ProjectID        uuid.UUID        `json:"project_id"`
	DiagramID        uuid.UUID        `json:"diagram_id"`
	Diagram          analysis.Diagram `json:"diagram"`
	Patterns         []patterns.Entry `json:"patterns"`
	PatternsFallback bool             `json:"patterns_fallback"`
	Cached           bool             `json:"cached"`
}

// DiagramRequest is the body of the stateless endpoints.
type DiagramRequest struct {
	Requirements string `json:"requirements" binding:"required"`
	Kind         string `json:"kind"`
	Notation     string `json:"notation"`
}

// bindOptionalJSON binds a body if one was sent.
func bindOptionalJSON(c *gin.Context, v interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		middleware.BadRequest(c, err.Error())
		return false
	}
	return true
}

// allow enforces the daily generation quota.
func (h *AnalysisHandler) allow(c *gin.Context, userID uuid.UUID) bool {
	if h.cfg.Usage == nil {
		return true
	}
	status, err := h.cfg.Usage.CheckQuota(c.Request.Context(), userID)
	if err != nil || status.Allowed {
		return true
	}
	middleware.RespondErrorWithDetails(c, http.StatusTooManyRequests, middleware.ErrCodeRateLimited,
		status.Reason, "used "+strconv.Itoa(status.Used)+" runs in the last 24h")
	return false
}

// AnalyzeProject runs the diagram and pattern pipelines on a stored project
// @Summary Analyze project
// @Tags analysis
// @Security Bearer
// @Accept json
// @Produce json
// @Param projectId path string true "project id"
// @Param body body AnalyzeRequest false "options"
// @Success 200 {object} AnalyzeResponse
// @Failure 503 {object} middleware.APIError
// @Router /projects/{projectId}/analyze [post]
func (h *AnalysisHandler) AnalyzeProject(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		middleware.NotFound(c, "project not found")
		return
	}
	userID, _ := middleware.GetUserID(c)

	var req AnalyzeRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if !h.allow(c, userID) {
		return
	}

	ctx, span := tracer.Start(c.Request.Context(), "AnalyzeProject")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", project.ID.String()))

	if strings.TrimSpace(req.Requirements) != "" {
		if _, err := h.cfg.Repo.UpdateProject(ctx, project.ID, models.ProjectPatch{Requirements: &req.Requirements}); err != nil {
			respondServiceError(c, h.logger, "update requirements", err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(ctx, h.cfg.Timeout)
	defer cancel()

	run, err := h.cfg.Projects.Analyze(ctx, userID, project.ID, req.Kind, req.Notation, "http")
	if err != nil {
		span.RecordError(err)
		respondServiceError(c, h.logger, "analyze project", err)
		return
	}
	span.SetAttributes(
		attribute.Bool("analysis.degraded", run.Result.Diagram.Degraded),
		attribute.Bool("analysis.cached", run.Cached),
	)

	c.JSON(http.StatusOK, AnalyzeResponse{
		ProjectID:        project.ID,
		DiagramID:        run.Stored.Diagram.ID,
		Diagram:          run.Result.Diagram,
		Patterns:         run.Result.Patterns,
		PatternsFallback: run.Result.PatternsFallback,
		Cached:           run.Cached,
	})
}

// AnalyzeProjectAsync starts the analysis workflow and returns its id
// @Summary Analyze project asynchronously
// @Tags analysis
// @Security Bearer
// @Accept json
// @Produce json
// @Param projectId path string true "project id"
// @Param body body AnalyzeRequest false "options"
// @Success 202 {object} map[string]string
// @Router /projects/{projectId}/analyze/async [post]
func (h *AnalysisHandler) AnalyzeProjectAsync(c *gin.Context) {
	if h.cfg.Runner == nil {
		middleware.RespondError(c, http.StatusServiceUnavailable, middleware.ErrCodeWorkflowUnavailable,
			"async analysis is not available")
		return
	}

	project, ok := middleware.GetProject(c)
	if !ok {
		middleware.NotFound(c, "project not found")
		return
	}
	userID, _ := middleware.GetUserID(c)

	var req AnalyzeRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if !h.allow(c, userID) {
		return
	}

	requirements := project.Requirements
	if strings.TrimSpace(req.Requirements) != "" {
		requirements = req.Requirements
		if _, err := h.cfg.Repo.UpdateProject(c.Request.Context(), project.ID, models.ProjectPatch{Requirements: &requirements}); err != nil {
			respondServiceError(c, h.logger, "update requirements", err)
			return
		}
	}
	if strings.TrimSpace(requirements) == "" {
		middleware.BadRequest(c, "project has no requirements to analyze")
		return
	}

	workflowID := orchestration.WorkflowID(userID)
	runID, err := h.cfg.Runner.Start(c.Request.Context(), workflowID, models.AnalysisInput{
		ProjectID:    project.ID.String(),
		UserID:       userID.String(),
		Requirements: requirements,
		Kind:         req.Kind,
		Notation:     req.Notation,
	})
	if err != nil {
		h.logger.Error("failed to start analysis workflow", zap.Error(err))
		middleware.RespondError(c, http.StatusServiceUnavailable, middleware.ErrCodeWorkflowUnavailable,
			"failed to start async analysis")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"workflow_id": workflowID,
		"run_id":      runID,
		"status":      "started",
	})
}

// GetWorkflowStatus reports an async analysis started by the caller
// @Summary Async analysis status
// @Tags analysis
// @Security Bearer
// @Produce json
// @Param workflowId path string true "workflow id"
// @Success 200 {object} orchestration.Status
// @Router /analyses/{workflowId} [get]
func (h *AnalysisHandler) GetWorkflowStatus(c *gin.Context) {
	if h.cfg.Runner == nil {
		middleware.RespondError(c, http.StatusServiceUnavailable, middleware.ErrCodeWorkflowUnavailable,
			"async analysis is not available")
		return
	}

	userID, _ := middleware.GetUserID(c)
	workflowID := c.Param("workflowId")
	if !orchestration.OwnedBy(workflowID, userID) {
		middleware.NotFound(c, "analysis not found")
		return
	}

	status, err := h.cfg.Runner.Status(c.Request.Context(), workflowID)
	if err != nil {
		h.logger.Warn("failed to describe workflow", zap.String("workflow_id", workflowID), zap.Error(err))
		middleware.NotFound(c, "analysis not found")
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetLatestAnalysis returns the most recent stored analysis of a project
// @Summary Latest analysis
// @Tags analysis
// @Security Bearer
// @Produce json
// @Param projectId path string true "project id"
// @Success 200 {object} models.StoredAnalysis
// @Router /projects/{projectId}/analysis [get]
func (h *AnalysisHandler) GetLatestAnalysis(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		middleware.NotFound(c, "project not found")
		return
	}

	latest, err := h.cfg.Repo.LatestAnalysis(c.Request.Context(), project.ID)
	if err != nil {
		respondServiceError(c, h.logger, "latest analysis", err)
		return
	}
	c.JSON(http.StatusOK, latest)
}

// UploadDocument extracts plain text from a multipart "file" field
// @Summary Upload requirements document
// @Tags analysis
// @Security Bearer
// @Accept multipart/form-data
// @Produce json
// @Param projectId path string true "project id"
// @Param file formData file true "document"
// @Param save query bool false "store the text as the project's requirements"
// @Success 200 {object} map[string]interface{}
// @Failure 415 {object} middleware.APIError
// @Router /projects/{projectId}/upload [post]
func (h *AnalysisHandler) UploadDocument(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		middleware.NotFound(c, "project not found")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		middleware.BadRequest(c, "multipart field \"file\" is required")
		return
	}

	f, err := fh.Open()
	if err != nil {
		middleware.BadRequest(c, "unreadable upload")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		middleware.BadRequest(c, "unreadable upload")
		return
	}

	text, err := document.Extract(data)
	if err != nil {
		h.cfg.Metrics.DocumentParsed("unknown", "rejected")
		h.logger.Info("document rejected",
			zap.String("stage", "upload"),
			zap.String("filename", fh.Filename),
			zap.Error(err),
		)
		respondServiceError(c, h.logger, "extract document", err)
		return
	}
	h.cfg.Metrics.DocumentParsed(text.Format, "ok")

	saved := false
	if save, _ := strconv.ParseBool(c.Query("save")); save {
		if _, err := h.cfg.Repo.UpdateProject(c.Request.Context(), project.ID, models.ProjectPatch{Requirements: &text.Content}); err != nil {
			respondServiceError(c, h.logger, "save requirements", err)
			return
		}
		saved = true
	}

	c.JSON(http.StatusOK, gin.H{
		"content": text.Content,
		"format":  text.Format,
		"mime":    text.MIME,
		"saved":   saved,
	})
}

// GetProjectEvents lists recent analysis events for a project
// @Summary Project analysis events
// @Tags analysis
// @Security Bearer
// @Produce json
// @Param projectId path string true "project id"
// @Param limit query int false "max events"
// @Success 200 {object} map[string][]eventbus.Event
// @Router /projects/{projectId}/events [get]
func (h *AnalysisHandler) GetProjectEvents(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		middleware.NotFound(c, "project not found")
		return
	}
	if h.cfg.Events == nil {
		c.JSON(http.StatusOK, gin.H{"events": []eventbus.Event{}, "available": false})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}

	events, err := h.cfg.Events.Recent(c.Request.Context(), project.ID.String(), limit)
	if err != nil {
		h.logger.Warn("failed to read analysis events", zap.String("project_id", project.ID.String()), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"events": []eventbus.Event{}, "available": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "available": true})
}

// GenerateDiagram runs the diagram pipeline without storing anything
// @Summary Generate diagram
// @Tags analysis
// @Security Bearer
// @Accept json
// @Produce json
// @Param body body DiagramRequest true "requirements"
// @Success 200 {object} analysis.Diagram
// @Router /diagram [post]
func (h *AnalysisHandler) GenerateDiagram(c *gin.Context) {
	var req DiagramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BadRequest(c, err.Error())
		return
	}
	userID, _ := middleware.GetUserID(c)
	if !h.allow(c, userID) {
		return
	}

	ctx, span := tracer.Start(c.Request.Context(), "GenerateDiagram")
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, h.cfg.Timeout)
	defer cancel()

	start := time.Now()
	d, err := h.cfg.Pipeline.Diagram(ctx, analysis.Request{Requirements: req.Requirements, Kind: req.Kind, Notation: req.Notation})
	if err != nil {
		span.RecordError(err)
		respondServiceError(c, h.logger, "generate diagram", err)
		return
	}
	h.cfg.Usage.Record(c.Request.Context(), userID, nil, "diagram", d.Model, d.Degraded, time.Since(start))
	span.SetAttributes(attribute.Bool("analysis.degraded", d.Degraded))

	c.JSON(http.StatusOK, d)
}

// DetectPatterns suggests design patterns for the requirements
// @Summary Detect patterns
// @Tags analysis
// @Security Bearer
// @Accept json
// @Produce json
// @Param body body DiagramRequest true "requirements"
// @Success 200 {object} map[string]interface{}
// @Router /patterns [post]
func (h *AnalysisHandler) DetectPatterns(c *gin.Context) {
	var req DiagramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BadRequest(c, err.Error())
		return
	}
	userID, _ := middleware.GetUserID(c)
	if !h.allow(c, userID) {
		return
	}

	ctx, span := tracer.Start(c.Request.Context(), "DetectPatterns")
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, h.cfg.Timeout)
	defer cancel()

	start := time.Now()
	out, err := h.cfg.Pipeline.Patterns(ctx, req.Requirements)
	if err != nil {
		span.RecordError(err)
		respondServiceError(c, h.logger, "detect patterns", err)
		return
	}
	h.cfg.Usage.Record(c.Request.Context(), userID, nil, "patterns", out.Model, out.Fallback, time.Since(start))

	c.JSON(http.StatusOK, gin.H{
		"patterns": out.Entries,
		"fallback": out.Fallback,
	})
}
