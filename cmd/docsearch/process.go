package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aleysapc/docsearch"
)

func processCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Run every queued indexing task and exit",
		Long: `Drain the task queue in this process.

Useful after "index --wait=false" or when the server ran with workers
disabled. Prints the number of tasks that ran.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			logger := cliLogger(cfg)

			client, err := openClient(ctx, cfg, logger, docsearch.WithoutWorker())
			if err != nil {
				return err
			}
			defer closeClient(client, logger)

			n, err := client.ProcessQueue(ctx)
			if err != nil {
				return fmt.Errorf("process queue: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "processed %d tasks\n", n)
			return err
		},
	}
}
