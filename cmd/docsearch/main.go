// Package main is the entry point for the docsearch CLI.
//
//	@title						docsearch API
//	@version					1.0
//	@description				Semantic search over uploaded documents, correspondence and drafts.
//	@host						localhost:8080
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	APIKeyAuth
//	@in							header
//	@name						X-API-KEY
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aleysapc/docsearch/internal/config"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           "docsearch",
		Short:         "Semantic search over documents, correspondence and drafts",
		Long:          `docsearch extracts text from uploaded PDFs, images and text files, embeds it with a sentence-transformer model and ranks documents, correspondence and drafts by meaning.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")

	cmd.AddCommand(serveCmd(&envFile))
	cmd.AddCommand(stdioCmd(&envFile))
	cmd.AddCommand(indexCmd(&envFile))
	cmd.AddCommand(searchCmd(&envFile))
	cmd.AddCommand(processCmd(&envFile))
	cmd.AddCommand(jobCmd(&envFile))
	cmd.AddCommand(modelCmd(&envFile))
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from .env file and environment variables.
func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
