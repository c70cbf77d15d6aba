// cmd/server/main.go
package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"labeleven-back/internal/auth"
	"labeleven-back/internal/config"
	"labeleven-back/internal/database"
	"labeleven-back/internal/engine"
	"labeleven-back/internal/handlers"
	"labeleven-back/internal/middleware"
	"labeleven-back/internal/service"
	"labeleven-back/internal/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found")
	}

	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	db, err := database.InitDB(cfg.DatabaseDSN)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.MigrateDB(db); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewMinIOClient(storage.Options{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		logger.Error("failed to initialize MinIO client", "error", err)
		os.Exit(1)
	}

	tokens := auth.NewTokenProvider(cfg.JWTSecret, cfg.JWTExpiry)

	var dispatcher service.PipelineDispatcher
	if cfg.EngineURL != "" {
		dispatcher = engine.NewClient(cfg.EngineURL, cfg.EngineToken)
	} else {
		logger.Warn("ENGINE_URL not set, pipelines will not be dispatched")
	}

	authSvc := service.NewAuthService(db, tokens)
	projectSvc := service.NewProjectService(db, store, logger)
	labelSvc := service.NewLabelDataService(db)
	reportSvc := service.NewReportService(db)
	pipelineSvc := service.NewPipelineService(db, dispatcher, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORSMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes
	public := r.Group("/api")
	public.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	{
		public.POST("/auth/login", handlers.Login(authSvc))
		public.POST("/auth/register", handlers.Register(authSvc))
		public.GET("/auth/check-username", handlers.CheckUsername(authSvc))
		public.GET("/auth/check-email", handlers.CheckEmail(authSvc))
	}

	// Engine write-back, guarded by the shared engine token
	r.POST("/api/pipelines/:id/callback", handlers.PipelineCallback(pipelineSvc, cfg.EngineToken))

	// Protected routes
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(tokens))
	{
		protected.GET("/users/me", handlers.Me(authSvc))

		protected.POST("/projects/upload", handlers.UploadProject(projectSvc))
		protected.GET("/projects", handlers.ListProjects(projectSvc))
		protected.GET("/projects/:id", handlers.GetProject(projectSvc))
		protected.DELETE("/projects/:id", handlers.DeleteProject(projectSvc))
		protected.GET("/projects/:id/file", handlers.ProjectFileURL(projectSvc))

		protected.GET("/label-data/project/:projectId", handlers.ListProjectLabelData(labelSvc))
		protected.GET("/label-data/:id", handlers.GetLabelData(labelSvc))

		protected.POST("/reports", handlers.CreateReport(reportSvc))
		protected.GET("/reports", handlers.ListReports(reportSvc))
		protected.GET("/reports/:id", handlers.GetReport(reportSvc))
		protected.GET("/reports/:id/status", handlers.GetReportStatus(reportSvc))
		protected.POST("/reports/approval", handlers.DecideReport(reportSvc))
		protected.DELETE("/reports/:id", handlers.DeleteReport(reportSvc))

		protected.POST("/pipelines/execute", handlers.ExecutePipeline(pipelineSvc))
		protected.GET("/pipelines/:id/status", handlers.GetPipelineStatus(pipelineSvc))
		protected.GET("/pipelines/:id/result", handlers.GetPipelineResult(pipelineSvc))
		protected.POST("/pipelines/:id/stop", handlers.StopPipeline(pipelineSvc))
		protected.POST("/pipelines/:id/reexecute", handlers.ReExecutePipeline(pipelineSvc))
	}

	logger.Info("server starting", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	logger := slog.New(handler).With("service", "labeleven-back")
	slog.SetDefault(logger)
	return logger
}
