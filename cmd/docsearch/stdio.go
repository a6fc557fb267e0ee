package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aleysapc/docsearch/internal/mcp"
)

func stdioCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

AI assistants can then search documents, correspondence and drafts and poll
indexing jobs. Logs go to stderr because stdout carries the protocol.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStdio(cmd.Context(), *envFile)
		},
	}
}

func runStdio(ctx context.Context, envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	logger := cliLogger(cfg)
	logger.Info("starting MCP server",
		slog.String("version", version),
		slog.String("data_dir", cfg.DataDir()),
	)

	client, err := openClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	return mcp.NewServer(client.Search, client.Jobs, version, logger).ServeStdio()
}
