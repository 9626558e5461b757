package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aiuml/api/internal/middleware"
	"github.com/aiuml/api/internal/models"
	"github.com/aiuml/api/internal/store"
)

type ProjectHandler struct {
	projects store.Projects
	logger   *zap.Logger
}

func NewProjectHandler(projects store.Projects, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

type CreateProjectRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
}

// CreateProject stores a new project owned by the caller
// @Summary Create project
// @Tags projects
// @Security Bearer
// @Accept json
// @Produce json
// @Param body body CreateProjectRequest true "project"
// @Success 201 {object} models.Project
// @Router /projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BadRequest(c, err.Error())
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		middleware.Unauthorized(c, "unauthorized")
		return
	}

	project := &models.Project{
		OwnerID:      userID,
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Requirements: req.Requirements,
	}
	if err := h.projects.CreateProject(c.Request.Context(), project); err != nil {
		h.logger.Error("failed to create project", zap.Error(err))
		middleware.InternalError(c, "failed to create project")
		return
	}

	c.JSON(http.StatusCreated, project)
}

// ListProjects returns the caller's projects, newest first
// @Summary List projects
// @Tags projects
// @Security Bearer
// @Produce json
// @Success 200 {object} map[string][]models.Project
// @Router /projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		middleware.Unauthorized(c, "unauthorized")
		return
	}

	projects, err := h.projects.ProjectsByOwner(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list projects", zap.Error(err))
		middleware.InternalError(c, "failed to list projects")
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// GetProject returns one project. Access is checked by RequireProjectOwner.
// @Summary Get project
// @Tags projects
// @Security Bearer
// @Produce json
// @Param projectId path string true "project id"
// @Success 200 {object} models.Project
// @Router /projects/{projectId} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		middleware.NotFound(c, "project not found")
		return
	}
	c.JSON(http.StatusOK, project)
}

// UpdateProject applies the non-null fields of the body
// @Summary Update project
// @Tags projects
// @Security Bearer
// @Accept json
// @Produce json
// @Param projectId path string true "project id"
// @Param body body models.ProjectPatch true "fields to change"
// @Success 200 {object} models.Project
// @Router /projects/{projectId} [put]
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		middleware.NotFound(c, "project not found")
		return
	}

	var patch models.ProjectPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		middleware.BadRequest(c, err.Error())
		return
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		middleware.BadRequest(c, "name must not be empty")
		return
	}

	updated, err := h.projects.UpdateProject(c.Request.Context(), project.ID, patch)
	if err != nil {
		respondServiceError(c, h.logger, "update project", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteProject removes one project and its analyses
// @Summary Delete project
// @Tags projects
// @Security Bearer
// @Param projectId path string true "project id"
// @Success 204
// @Router /projects/{projectId} [delete]
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		middleware.NotFound(c, "project not found")
		return
	}

	if err := h.projects.DeleteProject(c.Request.Context(), project.ID); err != nil {
		respondServiceError(c, h.logger, "delete project", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteAllProjects removes every project owned by the caller
// @Summary Delete all projects
// @Tags projects
// @Security Bearer
// @Produce json
// @Success 200 {object} map[string]int64
// @Router /projects [delete]
func (h *ProjectHandler) DeleteAllProjects(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		middleware.Unauthorized(c, "unauthorized")
		return
	}

	n, err := h.projects.DeleteProjectsByOwner(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to delete projects", zap.Error(err))
		middleware.InternalError(c, "failed to delete projects")
		return
	}

	h.logger.Info("projects deleted", zap.String("user_id", userID.String()), zap.Int64("count", n))
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
