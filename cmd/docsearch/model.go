package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aleysapc/docsearch/infrastructure/provider"
)

func modelCmd(envFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage the local embedding model",
	}
	cmd.AddCommand(modelDownloadCmd(envFile))
	return cmd
}

func modelDownloadCmd(envFile *string) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Fetch the embedding model into the model directory",
		Long: `Download the sentence-transformer used for local embeddings.

Does nothing when a model is already present in MODEL_DIR
(default: DATA_DIR/models). Run this before starting the server on a
machine without network access at runtime.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			logger := cliLogger(cfg)
			logger.Info("resolving embedding model", "model_dir", cfg.ModelDir(), "model", name)

			model, err := provider.NewHugotEmbedding(provider.HugotConfig{
				ModelDir:  cfg.ModelDir(),
				ModelName: name,
				Download:  true,
			})
			if err != nil {
				return err
			}
			defer func() { _ = model.Close() }()

			_, err = fmt.Fprintln(cmd.OutOrStdout(), model.ModelPath())
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", provider.DefaultModelName, "Hugging Face model repository")
	return cmd
}
