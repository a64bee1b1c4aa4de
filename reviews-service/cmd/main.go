package main

import (
	"fmt"
	"os"

	"shopreviews/pkg/logger"
	"shopreviews/reviews-service/internal/app/reviews/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "reviews-service",
	Short: "Product reviews API, audit worker and schema migrations",
	Long: `reviews-service stores buyer reviews of products and keeps each product's
rating equal to the rounded mean of its active review grades.

Commands:
  serve    HTTP API on SERVER_HOST:SERVER_PORT
  worker   Kafka audit consumer and periodic rating reconciliation
  migrate  create or update the products and reviews tables`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(serveCmd, workerCmd, migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration and initializes logging for a command.
func setup(service string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(service, cfg.Log.Level)

	if cfg.Log.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.Log.LogstashAddr, service, cfg.Log.Level); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", cfg.Log.LogstashAddr).Msg("Connected to Logstash")
		}
	}

	return cfg, nil
}
