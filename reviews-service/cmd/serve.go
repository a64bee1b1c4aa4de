package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopreviews/pkg/logger"
	"shopreviews/reviews-service/internal/app/reviews/handler"
	"shopreviews/reviews-service/internal/app/reviews/infrastructure/audit"
	"shopreviews/reviews-service/internal/app/reviews/infrastructure/cache"
	"shopreviews/reviews-service/internal/app/reviews/infrastructure/messaging"
	"shopreviews/reviews-service/internal/app/reviews/repository"
	"shopreviews/reviews-service/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reviews HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	cfg, err := setup("reviews-service")
	if err != nil {
		return err
	}

	db, err := connectDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.DBName).Msg("Connected to PostgreSQL")

	redisClient, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	reviewCache := cache.NewRedisCache(redisClient, cfg.Redis.TTL)
	defer reviewCache.Close()
	logger.Info().Str("address", cfg.Redis.Address()).Msg("Connected to Redis")

	mongoClient, err := connectMongoDB(ctx, cfg.MongoDB)
	if err != nil {
		return err
	}
	defer disconnectMongoDB(mongoClient)
	auditRepo := audit.NewMongoAuditRepository(
		mongoClient.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection),
	)
	logger.Info().Str("database", cfg.MongoDB.Database).Msg("Connected to MongoDB")

	kafkaProducer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer kafkaProducer.Close()
	logger.Info().Str("topic", cfg.Kafka.Topic).Msg("Initialized Kafka producer")

	store := repository.NewStore(db.gorm)
	reviewService := service.NewReviewService(store, reviewCache, kafkaProducer, auditRepo)

	health := handler.NewHealthCheckHandler("reviews-service",
		handler.HealthCheck{Name: "postgres", Check: store.Ping},
		handler.HealthCheck{Name: "redis", Check: reviewCache.Ping},
	)

	gin.SetMode(gin.ReleaseMode)
	router := handler.SetupRoutes(
		handler.NewReviewHandler(reviewService),
		handler.NewAuthMiddleware(cfg.JWT.Secret),
		health,
	)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Strs("health_checks", health.CheckNames()).
			Msg("Starting Reviews Service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		return err
	}

	logger.Info().Msg("Shutting down Reviews Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info().Msg("Reviews Service stopped gracefully")
	return nil
}
