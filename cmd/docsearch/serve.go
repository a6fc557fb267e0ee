package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aleysapc/docsearch"
	"github.com/aleysapc/docsearch/infrastructure/api"
	apimiddleware "github.com/aleysapc/docsearch/infrastructure/api/middleware"
	"github.com/aleysapc/docsearch/internal/config"
	"github.com/aleysapc/docsearch/internal/log"
)

func serveCmd(envFile *string) *cobra.Command {
	var (
		host          string
		port          int
		downloadModel bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server and the background indexing worker.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                         Server host to bind to (default: 0.0.0.0)
  PORT                         Server port to listen on (default: 8080)
  DATA_DIR                     Data directory (default: ~/.docsearch)
  DB_URL                       Database URL (default: sqlite:///{data_dir}/docsearch.db)
  UPLOAD_DIR                   Where uploads are stored (default: {data_dir}/uploads)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  API_KEYS                     Comma-separated list of keys for write endpoints

  EMBEDDING_ENDPOINT_*         Remote OpenAI-compatible embedding service
    BASE_URL                   Base URL (e.g., https://api.openai.com/v1)
    MODEL                      Model identifier
    API_KEY                    API key for authentication
    TIMEOUT                    Request timeout in seconds (default: 60)
    MAX_RETRIES                Retry attempts (default: 5)
  EMBEDDING_DIMENSION          Vector size (default: 384)
  MODEL_DIR                    Local model directory (default: {data_dir}/models)
  HTTP_CACHE_DIR               Cache embedding HTTP responses on disk

  WORKER_COUNT                 Concurrent pipeline tasks (default: 1)
  WORKER_POLL_PERIOD           Idle queue poll period (default: 1s)
  SEARCH_THRESHOLD             Minimum similarity (default: 0.5)
  SEARCH_LIMIT                 Maximum results, 0 for unlimited (default: 0)
  OCR_LANGUAGE                 Tesseract language (default: spa)`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(*envFile, host, port, downloadModel)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")
	cmd.Flags().BoolVar(&downloadModel, "download-model", false, "Download the local embedding model on first use if missing")

	return cmd
}

func runServe(envFile, host string, port int, downloadModel bool) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	cfg = applyServeOverrides(cfg, host, port)
	addr := cfg.Addr()

	logger := log.Configure(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := openClient(ctx, cfg, logger, docsearch.WithModelDownload(downloadModel))
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	apiServer := api.NewAPIServer(client, client.APIKeys(), api.WithVersion(version))
	router := apiServer.Router()

	// Middleware must be registered before MountRoutes.
	router.Use(apimiddleware.CorrelationID)
	router.Use(apimiddleware.Logging(logger))

	apiServer.MountRoutes()

	router.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		apimiddleware.WriteJSON(w, http.StatusOK, map[string]string{
			"name":    "docsearch",
			"version": version,
			"docs":    "/docs",
		})
	})
	router.Mount("/docs", apiServer.DocsRouter("/docs/openapi.json").Routes())

	server := api.NewServer(addr, logger)
	server.Router().Mount("/", router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error("shutdown error", slog.Any("error", err))
	}
	return <-errCh
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
