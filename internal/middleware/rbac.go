package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aiuml/api/internal/models"
	"github.com/aiuml/api/internal/store"
)

const projectKey = "project"

// roleRank orders roles for RequireRole: admin > teacher > student.
var roleRank = map[models.Role]int{
	models.RoleStudent: 1,
	models.RoleTeacher: 2,
	models.RoleAdmin:   3,
}

func isRoleAtLeast(userRole, requiredRole models.Role) bool {
	return roleRank[userRole] >= roleRank[requiredRole]
}

// RBACMiddleware handles project ownership and role checks
type RBACMiddleware struct {
	projects store.Projects
	logger   *zap.Logger
}

func NewRBACMiddleware(projects store.Projects, logger *zap.Logger) *RBACMiddleware {
	return &RBACMiddleware{projects: projects, logger: logger}
}

// RequireRole checks the caller's account role is at least requiredRole.
func (m *RBACMiddleware) RequireRole(requiredRole models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "unauthorized")
			return
		}
		if !isRoleAtLeast(role, requiredRole) {
			abortWithError(c, http.StatusForbidden, ErrCodeForbidden, "insufficient permissions")
			return
		}
		c.Next()
	}
}

// RequireProjectOwner loads :projectId and admits its owner or an admin.
// The project is available to handlers through GetProject.
func (m *RBACMiddleware) RequireProjectOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "unauthorized")
			return
		}

		projectID, err := uuid.Parse(c.Param("projectId"))
		if err != nil {
			abortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid project ID")
			return
		}

		project, err := m.projects.Project(c.Request.Context(), projectID)
		if errors.Is(err, store.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, ErrCodeNotFound, "project not found")
			return
		}
		if err != nil {
			m.logger.Error("failed to load project for access check",
				zap.String("project_id", projectID.String()),
				zap.Error(err),
			)
			abortWithError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
			return
		}

		role, _ := GetUserRole(c)
		if project.OwnerID != userID && role != models.RoleAdmin {
			m.logger.Warn("project access denied",
				zap.String("project_id", projectID.String()),
				zap.String("user_id", userID.String()),
			)
			abortWithError(c, http.StatusForbidden, ErrCodeForbidden, "access denied")
			return
		}

		c.Set(projectKey, project)
		c.Next()
	}
}

// GetProject returns the project loaded by RequireProjectOwner.
func GetProject(c *gin.Context) (*models.Project, bool) {
	v, ok := c.Get(projectKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*models.Project)
	return p, ok
}
