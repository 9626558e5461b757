package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/aiuml/api/internal/middleware"
	"github.com/aiuml/api/internal/models"
	"github.com/aiuml/api/internal/store"
)

const tokenTTL = 24 * time.Hour

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	users     store.Users
	jwtSecret string
	logger    *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users store.Users, jwtSecret string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, jwtSecret: jwtSecret, logger: logger}
}

// RegisterRequest is the request body for registration
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required,min=2"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is the response for auth endpoints
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Register creates a new user account
// @Summary Register a user
// @Tags auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "account"
// @Success 201 {object} AuthResponse
// @Failure 409 {object} middleware.APIError
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BadRequest(c, err.Error())
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		middleware.InternalError(c, "internal server error")
		return
	}

	// Self-registration can never grant admin.
	role := models.ParseRole(strings.ToUpper(req.Role))
	if role == models.RoleAdmin {
		role = models.RoleStudent
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         req.Name,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}
	if err := h.users.CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			middleware.RespondError(c, http.StatusConflict, middleware.ErrCodeConflict, "email already exists")
			return
		}
		h.logger.Error("failed to create user", zap.Error(err))
		middleware.InternalError(c, "internal server error")
		return
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

// Login authenticates a user
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "credentials"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} middleware.APIError
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BadRequest(c, err.Error())
		return
	}

	user, err := h.users.UserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.logger.Error("failed to look up user", zap.Error(err))
		}
		middleware.Unauthorized(c, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		middleware.Unauthorized(c, "invalid credentials")
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

// GetCurrentUser returns the current authenticated user
// @Summary Current user
// @Tags user
// @Security Bearer
// @Produce json
// @Success 200 {object} models.User
// @Router /user/me [get]
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		middleware.Unauthorized(c, "unauthorized")
		return
	}

	user, err := h.users.UserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			middleware.NotFound(c, "user not found")
			return
		}
		h.logger.Error("failed to load user", zap.Error(err))
		middleware.InternalError(c, "internal server error")
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, expiresAt, err := middleware.IssueToken(user, h.jwtSecret, tokenTTL)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		middleware.InternalError(c, "internal server error")
		return
	}

	c.JSON(status, AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}
