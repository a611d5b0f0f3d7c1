package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	_ "github.com/noah-isme/visit-builder-api/api/swagger"
	"github.com/noah-isme/visit-builder-api/internal/handler"
	internalmiddleware "github.com/noah-isme/visit-builder-api/internal/middleware"
	"github.com/noah-isme/visit-builder-api/internal/repository"
	"github.com/noah-isme/visit-builder-api/internal/service"
	"github.com/noah-isme/visit-builder-api/pkg/cache"
	"github.com/noah-isme/visit-builder-api/pkg/config"
	"github.com/noah-isme/visit-builder-api/pkg/database"
	"github.com/noah-isme/visit-builder-api/pkg/jobs"
	"github.com/noah-isme/visit-builder-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/visit-builder-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/visit-builder-api/pkg/middleware/requestid"
)

// @title Visit Builder API
// @version 1.0.0
// @description Interactive visit schedule builder for instructional coaches
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, commitment cache and checkpoints disabled", zap.Error(err))
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logger.Component(logr, "cache"))
	defer cacheRepo.Close() //nolint:errcheck
	var checkpoints service.CacheRepository
	if redisClient != nil {
		checkpoints = cacheRepo
	}

	plannedVisits := repository.NewPlannedVisitRepository(db)
	schedules, mongoClient, err := scheduleSource(ctx, cfg, repository.NewTeacherScheduleRepository(db))
	if err != nil {
		logr.Fatal("failed to init schedule source", zap.String("source", cfg.Builder.CommitmentSource), zap.Error(err))
	}
	if mongoClient != nil {
		defer mongoClient.Disconnect(context.Background()) //nolint:errcheck
	}

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Builder.CommitmentCacheTTL, logger.Component(logr, "cache"))
	commitments := service.NewCommitmentService(schedules, plannedVisits, cacheSvc, metrics, logger.Component(logr, "commitments"), service.CommitmentConfig{
		Source:             cfg.Builder.CommitmentSource,
		CacheTTL:           cfg.Builder.CommitmentCacheTTL,
		BlockingActivities: cfg.Builder.BlockingActivities,
	})
	creator := service.NewPlannedVisitCreator(plannedVisits, commitments, logger.Component(logr, "visit_creator"))
	builderSvc := service.NewScheduleBuilderService(commitments, creator, checkpoints, metrics, validator.New(), logger.Component(logr, "builder"), service.ScheduleBuilderConfig{
		SessionTTL:    cfg.Builder.SessionTTL,
		CheckpointTTL: cfg.Builder.CheckpointTTL,
		LookupTimeout: cfg.Builder.LookupTimeout,
		SaveTimeout:   cfg.Builder.SaveTimeout,
	})
	if redisClient != nil && cfg.Builder.WarmWorkers > 0 {
		warmer := service.NewCommitmentWarmer(commitments, jobs.QueueConfig{
			Workers:    cfg.Builder.WarmWorkers,
			BufferSize: cfg.Builder.WarmWorkers * 64,
			MaxRetries: 1,
			RetryDelay: 2 * time.Second,
			JobTimeout: cfg.Builder.LookupTimeout,
			Logger:     logger.Component(logr, "warmer"),
		})
		warmer.Start(ctx)
		defer warmer.Stop()
		builderSvc.WithWarmer(warmer)
	}
	go builderSvc.RunJanitor(ctx, time.Minute)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	var rateLimit *internalmiddleware.RateLimitConfig
	if cfg.RateLimit.Enabled {
		rateLimit = &internalmiddleware.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
		}
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.RouteDeps{
		Builder:   handler.NewScheduleBuilderHandler(builderSvc),
		Metrics:   handler.NewMetricsHandler(metrics, readinessChecks(db.PingContext, redisClient, mongoClient)),
		Tokens:    service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}),
		RateLimit: rateLimit,
		Logger:    logger.Component(logr, "rate_limit"),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("commitment_source", cfg.Builder.CommitmentSource))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// scheduleSource picks the bell and teacher schedule backend.
func scheduleSource(ctx context.Context, cfg *config.Config, pg *repository.TeacherScheduleRepository) (service.TeacherScheduleReader, *mongo.Client, error) {
	if cfg.Builder.CommitmentSource != config.SourceMongo {
		return pg, nil, nil
	}
	client, db, err := database.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		return nil, nil, err
	}
	repo := repository.NewTeacherScheduleMongoRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return repo, client, nil
}

func readinessChecks(pingPostgres func(context.Context) error, redisClient *redis.Client, mongoClient *mongo.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{"postgres": pingPostgres}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	if mongoClient != nil {
		checks["mongo"] = func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }
	}
	return checks
}
