package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/aiuml/api/internal/config"
	"github.com/aiuml/api/internal/handlers"
	"github.com/aiuml/api/internal/middleware"
	"github.com/aiuml/api/internal/models"
	"github.com/aiuml/api/internal/store"
	"github.com/aiuml/api/internal/usage"
)

type routerDeps struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	store    store.Store
	health   *handlers.HealthHandler
	usage    *usage.Service
	analysis handlers.AnalysisHandlerConfig
}

func newRouter(d routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(d.logger))
	router.Use(middleware.CORS())

	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{})))
	router.GET("/health", d.health.Health)
	router.GET("/health/deep", d.health.DeepHealth)

	authHandler := handlers.NewAuthHandler(d.store, d.cfg.JWTSecret, d.logger)
	projectHandler := handlers.NewProjectHandler(d.store, d.logger)
	analysisHandler := handlers.NewAnalysisHandler(d.analysis)
	usageHandler := handlers.NewUsageHandler(d.usage, d.logger)
	rbac := middleware.NewRBACMiddleware(d.store, d.logger)

	defaultLimiter := middleware.NewRateLimiter(100, time.Minute)
	generationLimiter := middleware.NewRateLimiter(d.cfg.RateLimitPerMinute, time.Minute)
	generation := []gin.HandlerFunc{middleware.RateLimitMiddleware(generationLimiter)}

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		protected := v1.Group("")
		protected.Use(middleware.Auth(d.cfg.JWTSecret))
		protected.Use(middleware.RateLimitMiddleware(defaultLimiter))
		{
			user := protected.Group("/user")
			{
				user.GET("/me", authHandler.GetCurrentUser)
				user.GET("/usage", usageHandler.GetMyUsage)
			}
			protected.GET("/users/:userId/usage", rbac.RequireRole(models.RoleTeacher), usageHandler.GetUserUsage)

			protected.POST("/projects", projectHandler.CreateProject)
			protected.GET("/projects", projectHandler.ListProjects)
			protected.DELETE("/projects", projectHandler.DeleteAllProjects)

			project := protected.Group("/projects/:projectId")
			project.Use(rbac.RequireProjectOwner())
			{
				project.GET("", projectHandler.GetProject)
				project.PUT("", projectHandler.UpdateProject)
				project.DELETE("", projectHandler.DeleteProject)
				project.GET("/analysis", analysisHandler.GetLatestAnalysis)
				project.GET("/events", analysisHandler.GetProjectEvents)
				project.POST("/upload", analysisHandler.UploadDocument)
				project.POST("/analyze", append(generation, analysisHandler.AnalyzeProject)...)
				project.POST("/analyze/async", append(generation, analysisHandler.AnalyzeProjectAsync)...)
			}

			protected.GET("/analyses/:workflowId", analysisHandler.GetWorkflowStatus)
			protected.POST("/diagram", append(generation, analysisHandler.GenerateDiagram)...)
			protected.POST("/patterns", append(generation, analysisHandler.DetectPatterns)...)
		}
	}

	return router
}
