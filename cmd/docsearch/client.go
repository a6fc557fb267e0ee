package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aleysapc/docsearch"
	"github.com/aleysapc/docsearch/internal/config"
)

// openClient creates the data directory and a Client configured from cfg.
// extra options are applied last so entrypoints can override the config.
func openClient(ctx context.Context, cfg config.AppConfig, logger *slog.Logger, extra ...docsearch.Option) (*docsearch.Client, error) {
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	logger.LogAttrs(ctx, slog.LevelDebug, "opening docsearch", attrs...)

	opts := append(docsearch.FromConfig(cfg), docsearch.WithLogger(logger))
	client, err := docsearch.New(append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("create docsearch client: %w", err)
	}
	return client, nil
}

// closeClient closes client, logging rather than returning the error so it
// can be deferred.
func closeClient(client *docsearch.Client, logger *slog.Logger) {
	if err := client.Close(); err != nil {
		logger.Error("failed to close docsearch client", slog.Any("error", err))
	}
}
