package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/snapvec/snapvec"
	"github.com/snapvec/snapvec/internal/config"
	"github.com/snapvec/snapvec/internal/factory"
	"github.com/snapvec/snapvec/internal/log"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                         Server host to bind to (default: 0.0.0.0)
  PORT                         Server port to listen on (default: 8080)
  DATA_DIR                     Data directory (default: ~/.snapvec)
  DB_URL                       Database URL (default: sqlite:///{data_dir}/snapvec.db)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  API_KEYS                     Comma-separated list of valid API keys

  EMBEDDING_ENDPOINT_*         Embedding service configuration
    BASE_URL                   Base URL (e.g., https://api.openai.com/v1)
    MODEL                      Model identifier (e.g., text-embedding-3-small)
    API_KEY                    API key for authentication
    DIMENSIONS                 Vector dimensionality (default: 1536)
    TIMEOUT                    Request timeout in seconds (default: 60)
    MAX_RETRIES                Retry attempts (default: 5)

  SEARCH_DEFAULT_LIMIT         Default search result limit (default: 20)
  SEARCH_DEFAULT_THRESHOLD     Default similarity threshold (default: 0.7)
  FALLBACK_KEYWORD_SCORE       Nominal keyword fallback score (default: 0.5)
  FALLBACK_TAG_SCORE           Nominal tag fallback score (default: 0.6)
  BATCH_PARALLELISM            Concurrent batch generations (default: 4)
  STATS_TTL_SECONDS            Aggregate stats cache lifetime (default: 300)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	// Flags take precedence over env vars.
	var overrides []config.AppConfigOption
	if host != "" {
		overrides = append(overrides, config.WithHost(host))
	}
	if port != 0 {
		overrides = append(overrides, config.WithPort(port))
	}
	cfg = cfg.Apply(overrides...)

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	log.Configure(&cfg)
	logger := slog.Default()
	logger.LogAttrs(context.Background(), slog.LevelInfo, "configuration loaded", cfg.LogAttrs()...)

	client, err := buildClient(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("close client", "error", err)
		}
	}()

	server := factory.NewAPIServer(client, cfg.APIKeys())

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe(cfg.Addr())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// buildClient constructs a snapvec client from the application config.
func buildClient(cfg config.AppConfig, logger *slog.Logger) (*snapvec.Client, error) {
	opts := []snapvec.Option{
		snapvec.WithDataDir(cfg.DataDir()),
		snapvec.WithLogger(logger),
		snapvec.WithAPIKeys(cfg.APIKeys()),
		snapvec.WithSearchConfig(cfg.Search()),
		snapvec.WithBatchParallelism(cfg.BatchParallelism()),
		snapvec.WithStatsTTL(cfg.StatsTTL()),
	}

	dbURL := cfg.DBURL()
	if dbURL != "" && !strings.HasPrefix(dbURL, "sqlite:///") {
		opts = append(opts, snapvec.WithPostgres(dbURL))
	} else {
		dbPath := strings.TrimPrefix(dbURL, "sqlite:///")
		opts = append(opts, snapvec.WithSQLite(dbPath))
	}

	if endpoint := cfg.EmbeddingEndpoint(); endpoint != nil && endpoint.IsConfigured() {
		opts = append(opts, snapvec.WithOpenAI(*endpoint))
	}

	client, err := snapvec.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}
