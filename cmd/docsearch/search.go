package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aleysapc/docsearch"
	"github.com/aleysapc/docsearch/domain/document"
	"github.com/aleysapc/docsearch/domain/search"
)

const previewLength = 200

// Record kinds accepted by --kind.
const (
	kindDocuments      = "documents"
	kindCorrespondence = "correspondence"
	kindDrafts         = "drafts"
)

type searchOptions struct {
	kind      string
	threshold float64
	limit     int
	format    string
}

// searchHit is one row of the search command output.
type searchHit struct {
	ID         int64   `json:"id" yaml:"id"`
	Name       string  `json:"name" yaml:"name"`
	Preview    string  `json:"preview" yaml:"preview"`
	Similarity float64 `json:"similarity" yaml:"similarity"`
}

func searchCmd(envFile *string) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Rank documents, correspondence or drafts by similarity to QUERY",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(opts.format); err != nil {
				return err
			}
			var searchOpts []search.Option
			if cmd.Flags().Changed("threshold") {
				if opts.threshold < 0 || opts.threshold > 1 {
					return fmt.Errorf("--threshold must be between 0 and 1")
				}
				searchOpts = append(searchOpts, search.WithThreshold(opts.threshold))
			}
			if cmd.Flags().Changed("limit") {
				if opts.limit < 0 {
					return fmt.Errorf("--limit must not be negative")
				}
				searchOpts = append(searchOpts, search.WithLimit(opts.limit))
			}
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd.OutOrStdout(), *envFile, query, opts, searchOpts)
		},
	}

	cmd.Flags().StringVar(&opts.kind, "kind", kindDocuments, "What to search: documents, correspondence or drafts")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", search.DefaultThreshold, "Minimum similarity between 0 and 1")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Maximum number of results, 0 for unlimited")
	cmd.Flags().StringVar(&opts.format, "format", formatText, "Output format: text, json or yaml")

	return cmd
}

func runSearch(ctx context.Context, out io.Writer, envFile, query string, opts searchOptions, searchOpts []search.Option) error {
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

	hits, err := searchKind(ctx, client, opts.kind, query, searchOpts)
	if err != nil {
		return err
	}

	return render(out, opts.format, hits, func(w io.Writer) error {
		if len(hits) == 0 {
			_, err := fmt.Fprintln(w, "no results")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "ID\tSIMILARITY\tNAME\tPREVIEW")
		for _, h := range hits {
			preview := strings.Join(strings.Fields(h.Preview), " ")
			_, _ = fmt.Fprintf(tw, "%d\t%.4f\t%s\t%s\n", h.ID, h.Similarity, h.Name, document.Preview(preview, 60))
		}
		return tw.Flush()
	})
}

func searchKind(ctx context.Context, client *docsearch.Client, kind, query string, opts []search.Option) ([]searchHit, error) {
	switch kind {
	case kindDocuments:
		matches, err := client.Search.Documents(ctx, query, opts...)
		if err != nil {
			return nil, err
		}
		return hits(matches, func(d document.Document) (int64, string, string) {
			return d.ID(), d.Name(), d.Preview(previewLength)
		}), nil
	case kindCorrespondence:
		matches, err := client.Search.Correspondence(ctx, query, opts...)
		if err != nil {
			return nil, err
		}
		return hits(matches, func(c document.Correspondence) (int64, string, string) {
			return c.ID(), c.Reference(), document.Preview(c.Subject(), previewLength)
		}), nil
	case kindDrafts:
		matches, err := client.Search.Drafts(ctx, query, opts...)
		if err != nil {
			return nil, err
		}
		return hits(matches, func(d document.Draft) (int64, string, string) {
			return d.ID(), d.Reference(), document.Preview(d.SourceText(), previewLength)
		}), nil
	}
	return nil, fmt.Errorf("unknown kind %q: use documents, correspondence or drafts", kind)
}

func hits[T any](matches []search.Match[T], describe func(T) (int64, string, string)) []searchHit {
	out := make([]searchHit, len(matches))
	for i, m := range matches {
		id, name, preview := describe(m.Entity)
		out[i] = searchHit{ID: id, Name: name, Preview: preview, Similarity: m.Score}
	}
	return out
}
