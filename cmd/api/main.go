package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/oref-labs/placement-api/api/swagger"
	"github.com/oref-labs/placement-api/internal/handler"
	"github.com/oref-labs/placement-api/internal/middleware"
	"github.com/oref-labs/placement-api/internal/repository"
	"github.com/oref-labs/placement-api/internal/service"
	"github.com/oref-labs/placement-api/internal/sheets"
	"github.com/oref-labs/placement-api/pkg/cache"
	"github.com/oref-labs/placement-api/pkg/config"
	"github.com/oref-labs/placement-api/pkg/database"
	"github.com/oref-labs/placement-api/pkg/logger"
	corsmiddleware "github.com/oref-labs/placement-api/pkg/middleware/cors"
	reqidmiddleware "github.com/oref-labs/placement-api/pkg/middleware/requestid"
	"github.com/oref-labs/placement-api/pkg/storage"
)

// @title Exam Placement API
// @version 1.0.0
// @description Staff tool for placing students into exams and periods
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to open database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	if err := database.Migrate(db, cfg.Database.Driver, logr); err != nil {
		logr.Sugar().Fatalw("failed to run migrations", "error", err)
	}

	sheetSource, err := sheets.NewClient(cfg.Sheets)
	if err != nil {
		logr.Sugar().Fatalw("failed to init spreadsheet client", "error", err)
	}

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository = repository.NewMemoryCacheRepository()
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		redisRepo := repository.NewRedisCacheRepository(redisClient, logr)
		defer redisRepo.Close() //nolint:errcheck
		cacheRepo = redisRepo
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Reference.CacheTTL, logr)

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	validate := validator.New()

	assignmentRepo := repository.NewAssignmentRepository(db, cfg.Database.Driver)
	referenceSvc := service.NewReferenceService(sheetSource, cacheSvc, cfg.Sheets.FieldMap, cfg.Reference.DefaultYears, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, cacheSvc, validate, cfg.Reference.ClearWindow, logr)
	reportSvc := service.NewReportService(assignmentRepo, referenceSvc, logr)
	exportSvc := service.NewExportService(reportSvc, exportStore, signer, service.ExportConfig{APIPrefix: cfg.APIPrefix}, validate, logr)

	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	referenceHandler := handler.NewReferenceHandler(referenceSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.Actor())

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
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/reference/roster", referenceHandler.Roster)
		api.GET("/reference/:list", referenceHandler.List)
		api.POST("/reference/refresh", referenceHandler.Refresh)

		api.GET("/assignments", assignmentHandler.List)
		api.POST("/assignments", assignmentHandler.Create)
		api.PUT("/assignments/:id", assignmentHandler.Update)
		api.GET("/assignments/:id/edit-form", reportHandler.EditForm)
		api.POST("/assignments/clear", assignmentHandler.RequestClear)
		api.POST("/assignments/clear/confirm", assignmentHandler.ConfirmClear)
		api.POST("/assignments/clear/cancel", assignmentHandler.CancelClear)

		api.GET("/reports/assignments", reportHandler.Assignments)
		api.GET("/reports/unconnected", reportHandler.Unconnected)

		api.POST("/exports", exportHandler.Generate)
		api.GET("/exports/download", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "driver", cfg.Database.Driver)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
