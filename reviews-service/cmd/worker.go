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
	"shopreviews/reviews-service/internal/app/reviews/processor"
	"shopreviews/reviews-service/internal/app/reviews/repository"
	"shopreviews/reviews-service/internal/app/reviews/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume review events into the audit trail and reconcile product ratings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorker(cmd.Context())
	},
}

func runWorker(parent context.Context) error {
	cfg, err := setup("reviews-worker")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	db, err := connectDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info().Str("database", cfg.Database.DBName).Msg("Connected to PostgreSQL")

	mongoClient, err := connectMongoDB(ctx, cfg.MongoDB)
	if err != nil {
		return err
	}
	defer disconnectMongoDB(mongoClient)

	auditRepo := audit.NewMongoAuditRepository(
		mongoClient.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection),
	)
	if err := auditRepo.EnsureIndexes(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to ensure audit indexes")
	}
	logger.Info().Str("database", cfg.MongoDB.Database).Msg("Connected to MongoDB")

	store := repository.NewStore(db.gorm)
	aggregator := service.NewRatingAggregator(store)
	auditService := service.NewAuditService(auditRepo)

	consumer := processor.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, auditService)
	consumer.Start(ctx)

	scheduler := processor.NewCronScheduler(aggregator)
	if err := scheduler.Start(ctx, cfg.Worker.ReconcileSchedule, cfg.Worker.ReconcileOnStartup); err != nil {
		cancel()
		consumer.Stop()
		return err
	}

	health := handler.NewHealthCheckHandler("reviews-worker",
		handler.HealthCheck{Name: "postgres", Check: store.Ping},
		handler.HealthCheck{Name: "mongodb", Check: auditRepo.Ping},
	)
	mux := http.NewServeMux()
	health.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         cfg.Worker.Address,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("address", cfg.Worker.Address).Msg("Starting worker health server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Worker health server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down reviews worker...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Worker health server forced to shutdown")
	}

	scheduler.Stop()
	cancel()
	consumer.Stop()

	logger.Info().
		Int64("messages", consumer.GetStats().Messages).
		Msg("Reviews worker stopped gracefully")
	return nil
}
