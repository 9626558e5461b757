package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	_ "go.uber.org/automaxprocs"

	"github.com/aiuml/api/internal/analysis"
	"github.com/aiuml/api/internal/cache"
	"github.com/aiuml/api/internal/config"
	"github.com/aiuml/api/internal/database"
	"github.com/aiuml/api/internal/eventbus"
	"github.com/aiuml/api/internal/gemini"
	"github.com/aiuml/api/internal/handlers"
	"github.com/aiuml/api/internal/logger"
	"github.com/aiuml/api/internal/metrics"
	"github.com/aiuml/api/internal/middleware"
	"github.com/aiuml/api/internal/orchestration"
	"github.com/aiuml/api/internal/projects"
	"github.com/aiuml/api/internal/prompt"
	"github.com/aiuml/api/internal/store"
	"github.com/aiuml/api/internal/telemetry"
	"github.com/aiuml/api/internal/usage"

	_ "github.com/aiuml/api/docs" // Swagger docs
)

const memoryDatabaseURL = "memory://"

// @title AI UML API
// @version 0.1.0
// @description Turns natural-language requirements or source code into UML diagram text and design-pattern suggestions.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("AI UML API starting...",
		zap.String("version", "0.1.0"),
		zap.String("environment", cfg.Environment),
		zap.Int("candidates", len(cfg.Candidates)),
	)
	if err := gemini.ValidateCredential(cfg.GeminiAPIKey); err != nil {
		// Requests will answer AI_NOT_CONFIGURED until this is fixed.
		logger.Warn("generation backend is not configured", zap.Error(err))
	}

	shutdownTelemetry, err := telemetry.InitTracer(ctx, "aiuml-api", cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to initialize telemetry", zap.Error(err))
	} else {
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				logger.Error("failed to shutdown telemetry", zap.Error(err))
			}
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Storage
	var (
		st store.Store
		db *database.Postgres
	)
	if cfg.DatabaseURL == memoryDatabaseURL {
		logger.Warn("using in-memory store; data is lost on restart")
		st = store.NewMemory()
	} else {
		if err := database.RunMigrations(cfg.DatabaseURL, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		db, err = database.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		st = store.NewPostgres(db.Pool())
	}

	var analysisCache *cache.Analyses
	rdb, err := database.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, analysis cache disabled", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
		analysisCache = cache.NewAnalyses(rdb.Client(), cfg.AnalysisCacheTTL, logger, m)
	}

	var (
		publisher eventbus.Publisher = eventbus.Nop{}
		eventLog  handlers.EventLog
	)
	bus, err := eventbus.Connect(cfg.NATSURL, logger)
	if err != nil {
		logger.Warn("nats unavailable, analysis events disabled", zap.Error(err))
		bus = nil
	} else {
		defer bus.Close()
		js, err := eventbus.NewJetStreamStore(bus.JetStream())
		if err != nil {
			logger.Error("failed to init JetStream store", zap.Error(err))
		} else {
			publisher = js
			eventLog = js
			logger.Info("JetStream event store initialized", zap.String("stream", eventbus.AnalysisStream))
		}
	}

	// Pipeline
	gen, err := gemini.New(gemini.Config{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		Candidates: cfg.Candidates,
		Timeout:    cfg.GenerationTimeout,
	}, gemini.WithLogger(logger), gemini.WithMetrics(m))
	if err != nil {
		logger.Fatal("failed to create generation client", zap.Error(err))
	}

	breaker := middleware.NewCircuitBreaker()
	breaker.OnStateChange = func(from, to middleware.CircuitState) {
		logger.Warn("generation circuit breaker changed state",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}

	analysisService := analysis.NewService(gen, prompt.ParseNotation(cfg.DiagramNotation), logger, m,
		analysis.WithBreaker(breaker))
	usageService := usage.NewService(st, cfg.DailyQuota, logger)
	projectService := projects.NewService(st, analysisService, analysisCache, publisher, usageService, logger)

	// Workflows
	var (
		runner         handlers.WorkflowRunner
		temporalHealth handlers.Pinger
	)
	temporalClient, err := orchestration.Dial(cfg.TemporalHostPort)
	if err != nil {
		logger.Warn("temporal unavailable, async analysis disabled", zap.Error(err))
	} else {
		defer temporalClient.Close()
		w := orchestration.NewWorker(temporalClient, &orchestration.Activities{Projects: projectService})
		if err := w.Start(); err != nil {
			logger.Error("failed to start temporal worker", zap.Error(err))
		} else {
			defer w.Stop()
			runner = orchestration.NewRunner(temporalClient)
			temporalHealth = orchestration.Health{C: temporalClient}
			logger.Info("temporal worker started", zap.String("task_queue", orchestration.TaskQueue))
		}
	}

	healthDeps := handlers.HealthDeps{DB: st, Temporal: temporalHealth, Generator: gen}
	if rdb != nil {
		healthDeps.Redis = rdb
	}
	if bus != nil {
		healthDeps.NATS = bus.Connected
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := newRouter(routerDeps{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		store:    st,
		health:   handlers.NewHealthHandler(healthDeps),
		usage:    usageService,
		analysis: handlers.AnalysisHandlerConfig{
			Pipeline:       analysisService,
			Projects:       projectService,
			Repo:           st,
			Runner:         runner,
			Events:         eventLog,
			Usage:          usageService,
			Metrics:        m,
			Timeout:        cfg.PipelineTimeout,
			MaxUploadBytes: cfg.MaxUploadBytes,
			Logger:         logger,
		},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.PipelineTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited gracefully")
}
