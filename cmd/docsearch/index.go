package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aleysapc/docsearch"
	"github.com/aleysapc/docsearch/application/service"
	"github.com/aleysapc/docsearch/infrastructure/extraction"
)

type indexOptions struct {
	name             string
	correspondenceID int64
	wait             bool
	format           string
}

// indexedFile is one row of the index command output.
type indexedFile struct {
	File       string `json:"file" yaml:"file"`
	DocumentID int64  `json:"document_id" yaml:"document_id"`
	TaskID     string `json:"task_id" yaml:"task_id"`
	Status     string `json:"status" yaml:"status"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

func indexCmd(envFile *string) *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index FILE...",
		Short: "Register files and run them through the indexing pipeline",
		Long: `Register PDF, image or text files as documents and index them.

Files are indexed where they are; they are not copied into the upload
directory. With --wait (the default) the pipeline runs in this process and
the final job status is printed. Without it the jobs stay queued for a
running server to pick up.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 && opts.name != "" {
				return errors.New("--name can only be used with a single file")
			}
			if err := validFormat(opts.format); err != nil {
				return err
			}
			return runIndex(cmd.Context(), cmd.OutOrStdout(), *envFile, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "Document name (default: the file name)")
	cmd.Flags().Int64Var(&opts.correspondenceID, "correspondence", 0, "Attach the documents to this correspondence id")
	cmd.Flags().BoolVar(&opts.wait, "wait", true, "Process the queue before returning")
	cmd.Flags().StringVar(&opts.format, "format", formatText, "Output format: text, json or yaml")

	return cmd
}

func runIndex(ctx context.Context, out io.Writer, envFile string, files []string, opts indexOptions) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	logger := cliLogger(cfg)

	client, err := openClient(ctx, cfg, logger, docsearch.WithoutWorker())
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	rows := make([]indexedFile, 0, len(files))
	for _, file := range files {
		row, err := addFile(ctx, client, file, opts)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	if opts.wait {
		if _, err := client.ProcessQueue(ctx); err != nil {
			return fmt.Errorf("process queue: %w", err)
		}
		for i, row := range rows {
			job, err := client.Jobs.Status(ctx, row.TaskID)
			if err != nil {
				return fmt.Errorf("job %s: %w", row.TaskID, err)
			}
			rows[i].Status = string(job.Status())
			rows[i].Error = job.Error()
		}
	}

	return render(out, opts.format, rows, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "FILE\tDOCUMENT\tTASK\tSTATUS")
		for _, row := range rows {
			status := row.Status
			if row.Error != "" {
				status += ": " + row.Error
			}
			_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", row.File, row.DocumentID, row.TaskID, status)
		}
		return tw.Flush()
	})
}

func addFile(ctx context.Context, client *docsearch.Client, file string, opts indexOptions) (indexedFile, error) {
	path, err := filepath.Abs(file)
	if err != nil {
		return indexedFile{}, fmt.Errorf("resolve %s: %w", file, err)
	}
	if _, err := os.Stat(path); err != nil {
		return indexedFile{}, err
	}
	if !extraction.Supported(path) {
		return indexedFile{}, fmt.Errorf("%s: %w", file, extraction.ErrUnsupportedFormat)
	}

	name := opts.name
	if name == "" {
		name = filepath.Base(path)
	}
	doc, handle, err := client.Documents.Add(ctx, &service.DocumentAddParams{
		Name:             name,
		FilePath:         path,
		CorrespondenceID: opts.correspondenceID,
	})
	if err != nil {
		return indexedFile{}, fmt.Errorf("add %s: %w", file, err)
	}
	return indexedFile{
		File:       file,
		DocumentID: doc.ID(),
		TaskID:     handle.TaskID,
		Status:     string(handle.Status),
	}, nil
}
