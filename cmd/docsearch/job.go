package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aleysapc/docsearch"
)

func jobCmd(envFile *string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "job TASK_ID",
		Short: "Show the status of an indexing job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(format); err != nil {
				return err
			}
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

			job, err := client.Jobs.Status(ctx, args[0])
			if err != nil {
				return err
			}

			// YAML has no hook for MarshalJSON, so it gets a plain map.
			view := map[string]any{"task_id": job.ID(), "status": string(job.Status())}
			if res := job.Result(); res != nil {
				view["result"] = res
			}
			if msg := job.Error(); msg != "" {
				view["error"] = msg
			}
			if format == formatJSON {
				return render(cmd.OutOrStdout(), format, job, nil)
			}
			return render(cmd.OutOrStdout(), format, view, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s\t%s\n", job.ID(), job.Status())
				if err == nil && job.Error() != "" {
					_, err = fmt.Fprintf(w, "error: %s\n", job.Error())
				}
				return err
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", formatText, "Output format: text, json or yaml")
	return cmd
}
