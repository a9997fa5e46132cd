package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/fieldops-api/api/swagger"
	"github.com/noah-isme/fieldops-api/internal/handler"
	internalmiddleware "github.com/noah-isme/fieldops-api/internal/middleware"
	"github.com/noah-isme/fieldops-api/internal/repository"
	"github.com/noah-isme/fieldops-api/internal/service"
	"github.com/noah-isme/fieldops-api/pkg/cache"
	"github.com/noah-isme/fieldops-api/pkg/config"
	"github.com/noah-isme/fieldops-api/pkg/database"
	"github.com/noah-isme/fieldops-api/pkg/fetcher"
	"github.com/noah-isme/fieldops-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/fieldops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/fieldops-api/pkg/middleware/requestid"
)

// @title FieldOps Export API
// @version 1.0.0
// @description Hierarchical ZIP exports of field photos
// @BasePath /api/v1
// @schemes http https

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	var redisClient redis.UniversalClient
	if cfg.Export.HierarchyCache {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, hierarchy cache disabled", zap.Error(err))
		} else {
			redisClient = client
		}
	}

	metrics := service.NewMetricsService()

	profileRepo := repository.NewProfileRepository(db)
	itemRepo := repository.NewItemRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Export.HierarchyCacheTTL, logr, redisClient != nil)
	hierarchySvc := service.NewHierarchyService(profileRepo, itemRepo, cacheSvc, service.HierarchyConfig{
		MaxConcurrentLookups: cfg.Export.MaxConcurrentFetches,
		CacheTTL:             cfg.Export.HierarchyCacheTTL,
	}, logr)

	var objectFetcher fetcher.Fetcher
	if cfg.ObjectStore.Enabled {
		store, err := fetcher.NewObjectStoreFetcher(cfg.ObjectStore, cfg.Export.MaxPhotoBytes)
		if err != nil {
			logr.Fatal("failed to init object store", zap.Error(err))
		}
		objectFetcher = store
	}
	photoFetcher := fetcher.NewRouter(fetcher.NewHTTPFetcher(fetcher.HTTPConfig{
		Timeout:   cfg.Export.FetchTimeout,
		UserAgent: cfg.Export.UserAgent,
		MaxBytes:  cfg.Export.MaxPhotoBytes,
	}), objectFetcher)

	exportSvc := service.NewExportService(hierarchySvc, photoFetcher, metrics, service.ExportConfig{
		MaxConcurrentFetches: cfg.Export.MaxConcurrentFetches,
		StreamDay:            cfg.Export.StreamDay,
		IncludeManifest:      cfg.Export.IncludeManifest,
	}, logr, nil)
	authSvc := service.NewAuthService(service.AuthConfig{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	}, logr)

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = cacheRepo.Ping
	}
	exportHandler := handler.NewExportHandler(exportSvc, validator.New(), logr)
	metricsHandler := handler.NewMetricsHandler(metrics, checks)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	exports := api.Group("/export")
	exports.Use(internalmiddleware.JWT(authSvc, cfg.Auth.CookieName))
	exports.GET("/day/:date", exportHandler.Day)
	exports.GET("/worker/:workerId", exportHandler.Worker)
	exports.GET("/item/:itemId", exportHandler.Item)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
