package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/transcript-api/api/swagger"
	"github.com/noah-isme/transcript-api/internal/handler"
	"github.com/noah-isme/transcript-api/internal/middleware"
	"github.com/noah-isme/transcript-api/internal/models"
	"github.com/noah-isme/transcript-api/internal/repository"
	"github.com/noah-isme/transcript-api/internal/service"
	"github.com/noah-isme/transcript-api/pkg/cache"
	"github.com/noah-isme/transcript-api/pkg/config"
	"github.com/noah-isme/transcript-api/pkg/database"
	"github.com/noah-isme/transcript-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/transcript-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/transcript-api/pkg/middleware/requestid"
)

// @title Transcript API
// @version 1.0.0
// @description Academic transcript management: grade entry, derivation and export
// @BasePath /
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, transcript views will not be cached", zap.Error(err))
		redisClient = nil
	}

	studentRepo := repository.NewStudentRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})
	studentSvc := service.NewStudentService(studentRepo, cacheRepo, nil, logr)
	transcriptSvc := service.NewTranscriptService(studentRepo, cacheRepo, service.NewViewService(), metricsSvc, nil, logr, cfg.Transcripts.ViewCacheTTL)
	exportSvc := service.NewExportService(transcriptSvc, cfg.Transcripts.ExportEnabled, cfg.Transcripts.SchoolName, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	transcriptHandler := handler.NewTranscriptHandler(transcriptSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
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

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	authed.GET("/students", studentHandler.List)
	authed.GET("/students/:id", studentHandler.Get)
	authed.GET("/students/:id/transcript", transcriptHandler.Get)
	authed.GET("/students/:id/transcript/view", transcriptHandler.View)
	authed.GET("/students/:id/transcript/export", exportHandler.Export)

	editors := authed.Group("")
	editors.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleRegistrar))
	editors.POST("/students", studentHandler.Create)
	editors.PUT("/students/:id", studentHandler.Update)
	editors.DELETE("/students/:id", studentHandler.Delete)
	editors.PATCH("/students/:id/transcript/cells", transcriptHandler.UpdateCell)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
