package document

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/aleysapc/docsearch/application/handler"
	"github.com/aleysapc/docsearch/application/service"
	"github.com/aleysapc/docsearch/domain/search"
	"github.com/aleysapc/docsearch/domain/task"
	"github.com/aleysapc/docsearch/infrastructure/chunking"
	"github.com/aleysapc/docsearch/internal/retry"
)

const (
	defaultBatchSize   = 16
	defaultParallelism = 2
)

// EmbedOption configures an Embed handler.
type EmbedOption func(*Embed)

// WithChunkParams sets the chunk window.
func WithChunkParams(p chunking.ChunkParams) EmbedOption {
	return func(h *Embed) { h.chunks = p }
}

// WithBatching sets how many chunks go in one Encode call and how many
// calls may run at once.
func WithBatching(size, parallel int) EmbedOption {
	return func(h *Embed) {
		if size > 0 {
			h.batchSize = size
		}
		if parallel > 0 {
			h.parallel = parallel
		}
	}
}

// Embed handles the embed stage.
type Embed struct {
	embedder  search.Embedder
	queue     *service.Queue
	chunks    chunking.ChunkParams
	batchSize int
	parallel  int
	logger    *slog.Logger
}

// NewEmbed creates a new Embed handler.
func NewEmbed(embedder search.Embedder, queue *service.Queue, logger *slog.Logger, opts ...EmbedOption) *Embed {
	h := &Embed{
		embedder:  embedder,
		queue:     queue,
		chunks:    chunking.DefaultChunkParams(),
		batchSize: defaultBatchSize,
		parallel:  defaultParallelism,
		logger:    orDefault(logger),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Execute splits the cleaned text into chunks, embeds them and queues the
// persist stage with one vector per chunk.
func (h *Embed) Execute(ctx context.Context, payload map[string]any) error {
	cleaned, err := handler.ExtractString(payload, task.KeyText)
	if err != nil {
		return retry.Permanent(err)
	}

	chunks, err := chunking.NewTextChunks(cleaned, h.chunks)
	if err != nil {
		return retry.Permanent(fmt.Errorf("chunk text: %w", err))
	}

	vectors, err := h.encode(ctx, chunks.Texts())
	if err != nil {
		return fmt.Errorf("%w: embed: %w", service.ErrTransientProcessing, err)
	}

	h.logger.Debug("embed stage done",
		slog.Any("job_id", payload[task.KeyJobID]),
		slog.Int("chunks", len(vectors)),
	)
	return h.queue.EnqueueStage(ctx, task.OperationPersist, priorityOf(payload), handler.Next(payload, task.KeyVectors, vectors))
}

func (h *Embed) encode(ctx context.Context, texts []string) ([]search.Vector, error) {
	out := make([]search.Vector, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(h.parallel)

	for start := 0; start < len(texts); start += h.batchSize {
		end := min(start+h.batchSize, len(texts))
		g.Go(func() error {
			vectors, err := h.embedder.EncodeBatch(ctx, texts[start:end])
			if err != nil {
				return err
			}
			if len(vectors) != end-start {
				return fmt.Errorf("expected %d vectors, got %d", end-start, len(vectors))
			}
			copy(out[start:end], vectors)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
