package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/pitchstudio/deck-api/api/swagger"
	"github.com/pitchstudio/deck-api/internal/generator"
	"github.com/pitchstudio/deck-api/internal/handler"
	"github.com/pitchstudio/deck-api/internal/middleware"
	"github.com/pitchstudio/deck-api/internal/models"
	"github.com/pitchstudio/deck-api/internal/repository"
	"github.com/pitchstudio/deck-api/internal/service"
	"github.com/pitchstudio/deck-api/pkg/cache"
	"github.com/pitchstudio/deck-api/pkg/config"
	"github.com/pitchstudio/deck-api/pkg/database"
	"github.com/pitchstudio/deck-api/pkg/export"
	"github.com/pitchstudio/deck-api/pkg/logger"
	corsmiddleware "github.com/pitchstudio/deck-api/pkg/middleware/cors"
	reqidmiddleware "github.com/pitchstudio/deck-api/pkg/middleware/requestid"
	"github.com/pitchstudio/deck-api/pkg/storage"
)

// @title Deck API
// @version 1.0.0
// @description Presentation versioning, slide approval and sharing service
// @BasePath /api/v1
// @schemes http

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, shared deck caching disabled", "error", err)
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// repositories
	projectRepo := repository.NewProjectRepository(db)
	slideRepo := repository.NewSlideRepository(db)
	sharingRepo := repository.NewSharingRepository(db)
	exportRepo := repository.NewExportRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// services
	metricsSvc := service.NewMetricsService()
	pdfExporter := export.NewDeckPDFExporter()

	projectSvc := service.NewProjectService(projectRepo, slideRepo, cacheRepo, nil, logr)
	slideSvc := service.NewSlideService(slideRepo, projectRepo, cacheRepo, auditRepo, nil, logr)
	lifecycleSvc := service.NewLifecycleService(slideRepo, auditRepo, logr)

	versionOpts := []service.VersionServiceOption{
		service.WithRefinePass(cfg.Generator.RefineDrafts),
		service.WithMetrics(metricsSvc),
	}
	if gen := generator.NewOpenAIGenerator(cfg.Generator, logr); gen != nil {
		versionOpts = append(versionOpts, service.WithGenerator(gen))
		logr.Sugar().Infow("content generator enabled", "model", cfg.Generator.Model)
	}
	versionSvc := service.NewVersionService(projectRepo, slideRepo, cacheRepo, auditRepo, logr, versionOpts...)

	sharingSvc := service.NewSharingService(sharingRepo, projectRepo, slideRepo, cacheRepo, pdfExporter, auditRepo, metricsSvc, logr, service.SharingServiceConfig{
		CacheTTL:    cfg.Sharing.CacheTTL,
		TokenBytes:  cfg.Sharing.TokenBytes,
		DefaultTier: models.SharingPermission(cfg.Sharing.DefaultTier),
	})

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		exportSvc = service.NewExportService(service.ExportServiceConfig{
			Jobs:            exportRepo,
			Projects:        projectRepo,
			Slides:          slideRepo,
			Storage:         exportStorage,
			Signer:          storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL),
			Logger:          logr,
			APIPrefix:       cfg.APIPrefix,
			Workers:         cfg.Exports.WorkerConcurrency,
			MaxRetries:      cfg.Exports.WorkerRetries,
			CleanupInterval: cfg.Exports.CleanupInterval,
			FileTTL:         cfg.Exports.SignedURLTTL,
		})
		exportSvc.Start(ctx)
		defer exportSvc.Stop()
	}

	// handlers
	projectHandler := handler.NewProjectHandler(projectSvc)
	slideHandler := handler.NewSlideHandler(slideSvc, lifecycleSvc)
	versionHandler := handler.NewVersionHandler(versionSvc)
	sharingHandler := handler.NewSharingHandler(sharingSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/snapshot", metricsHandler.Snapshot)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		projects := api.Group("/projects")
		{
			projects.POST("", projectHandler.Create)
			projects.GET("/:id", projectHandler.Get)
			projects.PUT("/:id", projectHandler.Update)
			projects.DELETE("/:id", middleware.Audit(auditRepo, models.AuditActionProjectDelete, "project"), projectHandler.Delete)

			projects.POST("/:id/slides", slideHandler.Create)
			projects.PUT("/:id/slides/order", slideHandler.Reorder)

			projects.POST("/:id/versions", versionHandler.Create)
			projects.GET("/:id/versions", versionHandler.History)

			projects.POST("/:id/links", sharingHandler.CreateLink)
			projects.GET("/:id/links", sharingHandler.ListLinks)
		}

		slides := api.Group("/slides")
		{
			slides.PUT("/:id", slideHandler.Update)
			slides.DELETE("/:id", middleware.Audit(auditRepo, models.AuditActionSlideDelete, "slide"), slideHandler.Delete)
			slides.POST("/:id/approve", slideHandler.Approve)
			slides.POST("/:id/unlock", slideHandler.Unlock)
			slides.POST("/:id/submit-review", slideHandler.SubmitForReview)
		}

		links := api.Group("/links")
		{
			links.POST("/:id/deactivate", sharingHandler.DeactivateLink)
			links.DELETE("/:id", sharingHandler.DeleteLink)
		}

		shared := api.Group("/shared")
		{
			shared.GET("/:token", sharingHandler.SharedDeck)
			shared.GET("/:token/export", sharingHandler.SharedExport)
		}

		if exportSvc != nil {
			exportHandler := handler.NewExportHandler(exportSvc)
			projects.POST("/:id/exports", middleware.Audit(auditRepo, models.AuditActionExportCreate, "export_job"), exportHandler.Create)
			exports := api.Group("/exports")
			{
				exports.GET("/download/:token", exportHandler.Download)
				exports.GET("/:id", exportHandler.Status)
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
