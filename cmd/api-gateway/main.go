package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/api/swagger"
	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/handler"
	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/middleware"
	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/models"
	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/repository"
	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/service"
	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/cache"
	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/config"
	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/database"
	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/logger"
	corsmiddleware "github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/middleware/cors"
	reqidmiddleware "github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/middleware/requestid"
	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/storage"
)

// @title COSTAATT Student Document Upload API
// @version 1.0.0
// @description Checklist-driven document submission service for admissions and registry workflows.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, checklist caching disabled", zap.Error(err))
		redisClient = nil
	}

	store, err := storage.NewS3Store(context.Background(), cfg.Storage)
	if err != nil {
		logr.Fatal("failed to initialise object store", zap.Error(err))
	}

	validate := validator.New()
	metricsService := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	ruleRepo := repository.NewChecklistRuleRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	reconcileRepo := repository.NewReconciliationRepository(db)

	var cacheService *service.CacheService
	if redisClient != nil && cfg.Checklist.CacheEnabled {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Checklist.CacheTTL, logr, true)
	}

	authService := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "costaatt-document-uploads",
		Audience:           []string{"costaatt-document-uploads"},
	})
	checklistService := service.NewChecklistService(ruleRepo, cacheService, auditRepo, validate, logr)
	signer := storage.NewDownloadSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)
	submissionService := service.NewSubmissionService(
		submissionRepo, documentRepo, checklistService, reconcileRepo,
		store, signer, auditRepo, metricsService, validate, logr,
		service.SubmissionServiceConfig{
			MaxFileSize:      cfg.Uploads.MaxFileSizeBytes,
			AllowedMIMEs:     cfg.Uploads.AllowedMIMEs,
			StorageOpTimeout: cfg.Storage.OpTimeout,
		},
	)
	statusService := service.NewStatusService(submissionRepo, documentRepo, checklistService, logr)
	exportService := service.NewExportService(submissionRepo, logr)

	authHandler := handler.NewAuthHandler(authService)
	submissionHandler := handler.NewSubmissionHandler(submissionService)
	checklistHandler := handler.NewChecklistHandler(checklistService)
	statusHandler := handler.NewStatusHandler(statusService)
	exportHandler := handler.NewExportHandler(exportService)
	healthHandler := handler.NewHealthHandler(db, redisClient, store, cfg.Storage.OpTimeout)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/health/storage", healthHandler.Storage)
	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
		}

		// Public lookups for the status page and chatbot.
		api.GET("/status", statusHandler.Lookup)
		api.GET("/downloads", submissionHandler.DownloadByToken)
		api.GET("/checklists/resolve", checklistHandler.Resolve)

		submissions := api.Group("/submissions", middleware.JWT(authService))
		{
			submissions.POST("", submissionHandler.Create)
			submissions.GET("", middleware.RequireRoles(models.RoleStaff, models.RoleAdmin), submissionHandler.List)
			submissions.GET("/:id", submissionHandler.Get)
			submissions.GET("/:id/checklist", submissionHandler.Checklist)
			submissions.POST("/:id/documents", submissionHandler.Upload)
			submissions.GET("/:id/documents/:docId/download", submissionHandler.Download)
			submissions.POST("/:id/documents/:docId/download-link", submissionHandler.DownloadLink)
			submissions.POST("/:id/finalize", submissionHandler.Finalize)
			submissions.POST("/:id/status", middleware.RequireRoles(models.RoleStaff, models.RoleAdmin), submissionHandler.Transition)
			submissions.POST("/:id/reopen", middleware.RequireRoles(models.RoleAdmin), submissionHandler.Reopen)
			submissions.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), submissionHandler.Delete)
		}

		rules := api.Group("/checklist-rules", middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin))
		{
			rules.GET("", checklistHandler.ListRules)
			rules.POST("", checklistHandler.CreateRule)
			rules.PUT("/:id", checklistHandler.UpdateRule)
			rules.DELETE("/:id", checklistHandler.DeactivateRule)
		}

		if cfg.Exports.Enabled {
			exports := api.Group("/exports", middleware.JWT(authService), middleware.RequireRoles(models.RoleStaff, models.RoleAdmin))
			exports.GET("/submissions",
				middleware.Audit(auditRepo, "EXPORT", "submission_register"),
				exportHandler.SubmissionRegister)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
