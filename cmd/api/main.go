package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/unigrado/grado-api/api/swagger"
	"github.com/unigrado/grado-api/internal/handler"
	"github.com/unigrado/grado-api/internal/middleware"
	"github.com/unigrado/grado-api/internal/models"
	"github.com/unigrado/grado-api/internal/repository"
	"github.com/unigrado/grado-api/internal/service"
	"github.com/unigrado/grado-api/pkg/cache"
	"github.com/unigrado/grado-api/pkg/config"
	"github.com/unigrado/grado-api/pkg/database"
	"github.com/unigrado/grado-api/pkg/logger"
	corsmiddleware "github.com/unigrado/grado-api/pkg/middleware/cors"
	reqidmiddleware "github.com/unigrado/grado-api/pkg/middleware/requestid"
	"github.com/unigrado/grado-api/pkg/storage"
)

// @title Grado API
// @version 1.0.0
// @description Lifecycle and review workflow engine for degree projects
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
		logr.Sugar().Warnw("redis unavailable, catalog caching disabled", "error", err)
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Storage.AttachmentDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare attachment storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)

	validate := validator.New()

	projectRepo := repository.NewProjectRepository(db)
	auditRepo := repository.NewAuditEntryRepository(db)
	actorRepo := repository.NewActorRepository(db)
	personRepo := repository.NewPersonRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	table := service.NewTransitionTable()
	gate := service.NewAuthorizationGate(actorRepo, table)

	var notifier *service.NotificationService
	if cfg.Notifications.Enabled {
		notifier = service.NewNotificationService(service.NewLogSender(logr), cfg.Notifications.Workers, logr)
		notifier.Start(context.Background())
		defer notifier.Stop()
	}

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	catalogSvc := service.NewCatalogService(catalogRepo, cacheRepo, table, cfg.Catalog.CacheTTL, metricsSvc, logr)
	projectSvc := service.NewProjectService(projectRepo, actorRepo, personRepo, table, validate, logr)
	importSvc := service.NewImportService(projectRepo, personRepo, catalogRepo, table, service.ImportOptions{
		CreateMissingPersons: cfg.Import.CreateMissingPersons,
		MaxRows:              cfg.Import.MaxRows,
	}, logr)

	var workflowNotifier service.Notifier
	if notifier != nil {
		workflowNotifier = notifier
	}
	workflowSvc := service.NewWorkflowService(projectRepo, auditRepo, actorRepo, gate, table, store, workflowNotifier, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	projectHandler := handler.NewProjectHandler(projectSvc, gate)
	workflowHandler := handler.NewWorkflowHandler(workflowSvc, metricsSvc, signer, cfg.Storage.MaxFileSizeBytes)
	importHandler := handler.NewImportHandler(importSvc, gate, metricsSvc, cfg.Storage.MaxFileSizeBytes)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	fileHandler := handler.NewFileHandler(store, signer)
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

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Scrape)
	r.GET("/files/:token", fileHandler.Download)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.GET("/catalogs/statuses", catalogHandler.Statuses)
	protected.GET("/catalogs/action-types", catalogHandler.ActionTypes)
	protected.GET("/catalogs/programs", catalogHandler.Programs)
	protected.GET("/catalogs/programs/:programId/degree-options", catalogHandler.DegreeOptions)
	protected.GET("/catalogs/transitions", catalogHandler.Transitions)

	protected.GET("/projects", projectHandler.List)
	protected.POST("/projects", projectHandler.Create)
	protected.GET("/projects/:id", projectHandler.Get)
	protected.POST("/projects/:id/actors", projectHandler.AssignActor)
	protected.DELETE("/projects/:id/actors/:personId", projectHandler.RemoveActor)

	protected.POST("/projects/:id/iteration", workflowHandler.SubmitIteration)
	protected.POST("/projects/:id/review", workflowHandler.Review)
	protected.GET("/projects/:id/history", workflowHandler.History)

	admin := protected.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator))
	admin.POST("/projects/bulk-upload", importHandler.Upload)
	admin.GET("/projects/bulk-template", importHandler.Template)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
