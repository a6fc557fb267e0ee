package docsearch

import (
	"fmt"
	"log/slog"
	"strings"

	documenthandler "github.com/aleysapc/docsearch/application/handler/document"
	"github.com/aleysapc/docsearch/domain/task"
	"github.com/aleysapc/docsearch/infrastructure/chunking"
)

// registerHandlers registers the four pipeline stages with the worker
// registry.
func (c *Client) registerHandlers(cfg *clientConfig) error {
	params := chunking.DefaultChunkParams()
	params.Size = cfg.chunkSize
	if params.Overlap >= params.Size {
		params.Overlap = params.Size / 10
	}

	c.registry.Register(task.OperationExtract, documenthandler.NewExtract(c.extractor, c.documentStore, c.queue, c.logger))
	c.registry.Register(task.OperationClean, documenthandler.NewClean(c.queue, c.logger))
	c.registry.Register(task.OperationEmbed, documenthandler.NewEmbed(c.embedder, c.queue, c.logger,
		documenthandler.WithChunkParams(params),
	))
	c.registry.Register(task.OperationPersist, documenthandler.NewPersist(c.db, c.documentStore, c.Jobs, c.logger))

	c.logger.Info("registered task handlers", slog.Int("count", len(c.registry.Operations())))
	return c.validateHandlers()
}

// validateHandlers checks that every pipeline stage has a handler.
func (c *Client) validateHandlers() error {
	var missing []string
	for _, op := range task.Pipeline() {
		if _, ok := c.registry.Handler(op); !ok {
			missing = append(missing, op.String())
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing handlers for operations: [%s]", strings.Join(missing, ", "))
}
