// Package docsearch indexes the documents, correspondence and drafts of an
// office and searches them by meaning.
//
// Uploaded files go through a queued pipeline (extract, clean, embed,
// persist) that stores one embedding per document. Drafts are embedded as
// soon as they are written. Queries are embedded with the same model and
// ranked by cosine similarity.
//
// Basic usage:
//
//	client, err := docsearch.New(
//	    docsearch.WithDataDir("/var/lib/docsearch"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	doc, job, err := client.Documents.Add(ctx, &service.DocumentAddParams{
//	    Name:     "oficio-123.pdf",
//	    FilePath: "/var/lib/docsearch/uploads/oficio-123.pdf",
//	})
//
//	matches, err := client.Search.Documents(ctx, "solicitud de licencia",
//	    search.WithThreshold(0.6),
//	    search.WithLimit(10),
//	)
package docsearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/aleysapc/docsearch/application/handler/document"
	"github.com/aleysapc/docsearch/application/service"
	domaindocument "github.com/aleysapc/docsearch/domain/document"
	"github.com/aleysapc/docsearch/domain/search"
	"github.com/aleysapc/docsearch/infrastructure/extraction"
	"github.com/aleysapc/docsearch/infrastructure/persistence"
	"github.com/aleysapc/docsearch/infrastructure/provider"
	"github.com/aleysapc/docsearch/infrastructure/tracking"
	"github.com/aleysapc/docsearch/internal/config"
	"github.com/aleysapc/docsearch/internal/database"
)

// Client is the main entry point for the docsearch library.
// The background worker starts automatically unless WithoutWorker is given.
//
// Access resources via struct fields:
//
//	client.Documents.Get(ctx, id)
//	client.Drafts.Add(ctx, fields)
//	client.Search.Drafts(ctx, "query")
type Client struct {
	Documents      *service.Documents
	Correspondence *service.Correspondence
	Drafts         *service.Drafts
	Search         *service.Search
	Jobs           *service.Jobs
	Tasks          *service.Queue
	Indexer        *service.Indexer

	db            database.Database
	documentStore domaindocument.DocumentStore
	queue         *service.Queue
	worker        *service.Worker
	registry      *service.Registry
	embedder      search.Embedder
	extractor     document.Extractor

	model   *provider.ModelProvider
	pdf     *extraction.PDFExtractor
	closers []io.Closer

	logger    *slog.Logger
	dataDir   string
	uploadDir string
	apiKeys   []string
	closed    atomic.Bool
	mu        sync.Mutex
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = config.DefaultLogger()
	}

	if cfg.dbURL == "" && cfg.dataDir == "" {
		return nil, ErrNoDatabase
	}
	dataDir := cfg.dataDir
	if dataDir != "" {
		prepared, err := config.PrepareDataDir(dataDir)
		if err != nil {
			return nil, err
		}
		dataDir = prepared
	}
	dbURL := cfg.dbURL
	if dbURL == "" {
		dbURL = "sqlite:///" + filepath.Join(dataDir, config.DefaultDatabaseFile)
	}

	uploadDir := cfg.uploadDir
	if uploadDir == "" {
		uploadDir = filepath.Join(dataDir, config.DefaultUploadSubdir)
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	ctx := context.Background()
	db, err := database.NewDatabaseWithLogger(ctx, dbURL, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := persistence.PreMigrate(ctx, db); err != nil {
		return nil, errors.Join(fmt.Errorf("pre migrate: %w", err), db.Close())
	}
	if err := persistence.AutoMigrate(db); err != nil {
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), db.Close())
	}

	documentStore := persistence.NewDocumentStore(db)
	draftStore := persistence.NewDraftStore(db)
	correspondenceStore := persistence.NewCorrespondenceStore(db)
	taskStore := persistence.NewTaskStore(db)
	jobStore := persistence.NewJobStore(db)

	client := &Client{
		db:            db,
		documentStore: documentStore,
		registry:      service.NewRegistry(),
		closers:       cfg.closers,
		logger:        logger,
		dataDir:       dataDir,
		uploadDir:     uploadDir,
		apiKeys:       cfg.apiKeys,
	}

	client.embedder = cfg.embedder
	if client.embedder == nil {
		client.model = newModelProvider(cfg, dataDir, logger)
		client.embedder = client.model
	}

	client.extractor = cfg.extractor
	if client.extractor == nil {
		client.extractor, client.pdf = newExtractor(cfg, logger)
	}

	client.queue = service.NewQueue(taskStore, logger)
	client.Tasks = client.queue
	client.Jobs = service.NewJobs(db, jobStore, client.queue, logger, tracking.NewLoggingReporter(logger))
	client.Indexer = service.NewIndexer(db, client.embedder, documentStore, draftStore, correspondenceStore, logger)
	client.Search = service.NewSearch(client.embedder, documentStore, correspondenceStore, draftStore, service.SearchConfig{
		Threshold: cfg.searchThreshold,
		Limit:     cfg.searchLimit,
		CacheSize: cfg.queryCacheSize,
	}, &client.closed, logger)
	client.Documents = service.NewDocuments(db, documentStore, correspondenceStore, client.Jobs, logger)
	client.Correspondence = service.NewCorrespondence(correspondenceStore, client.Indexer, logger)
	client.Drafts = service.NewDrafts(db, draftStore, client.Indexer, logger)

	if err := client.registerHandlers(cfg); err != nil {
		return nil, errors.Join(fmt.Errorf("register handlers: %w", err), client.release())
	}

	workerOpts := []service.WorkerOption{
		service.WithPollPeriod(cfg.workerPollPeriod),
		service.WithConcurrency(cfg.workerCount),
	}
	if cfg.retryPolicy != nil {
		workerOpts = append(workerOpts, service.WithRetryPolicy(*cfg.retryPolicy))
	}
	client.worker = service.NewWorker(taskStore, client.registry, client.Jobs, logger, workerOpts...)

	if cfg.startWorker {
		if err := client.worker.Start(ctx); err != nil {
			return nil, errors.Join(fmt.Errorf("start worker: %w", err), client.release())
		}
	}

	logger.Info("docsearch client ready", slog.String("data_dir", dataDir), slog.String("upload_dir", uploadDir))
	return client, nil
}

func newModelProvider(cfg *clientConfig, dataDir string, logger *slog.Logger) *provider.ModelProvider {
	modelDir := cfg.modelDir
	if modelDir == "" {
		modelDir = filepath.Join(dataDir, config.DefaultModelSubdir)
	}
	backend := provider.BackendConfig{
		ModelDir:      modelDir,
		DownloadModel: cfg.downloadModel,
		HTTPCacheDir:  cfg.httpCacheDir,
	}
	if cfg.endpoint != nil {
		backend.Endpoint = *cfg.endpoint
	}
	logger.Info("embedding model configured",
		slog.String("model", backend.Name()),
		slog.Bool("remote", backend.Remote()),
		slog.Int("dimension", cfg.dimension),
	)
	return provider.NewModelProvider(backend.Name(), cfg.dimension, provider.NewBackendFactory(backend), provider.WithModelLogger(logger))
}

// newExtractor builds the file extractor. Without PDFium, PDFs are reported
// as unsupported and every other format still works.
func newExtractor(cfg *clientConfig, logger *slog.Logger) (document.Extractor, *extraction.PDFExtractor) {
	ocr := extraction.NewTesseractOCR(cfg.ocrLanguage)
	if !ocr.Available() {
		logger.Warn("OCR unavailable, images and scanned pages yield no text")
	}

	pdf, err := extraction.NewPDFExtractor(ocr, cfg.workerCount, extraction.WithPDFLogger(logger))
	if err != nil {
		logger.Error("PDF extraction disabled", slog.Any("error", err))
		return extraction.NewService(ocr, extraction.WithLogger(logger)), nil
	}
	return extraction.NewService(ocr, extraction.WithPDF(pdf), extraction.WithLogger(logger)), pdf
}

// ProcessQueue runs queued pipeline tasks in the caller's goroutine until
// the queue is empty and returns how many were processed.
func (c *Client) ProcessQueue(ctx context.Context) (int, error) {
	if c.closed.Load() {
		return 0, ErrClientClosed
	}
	return c.worker.Drain(ctx)
}

// Close stops the worker and releases every resource.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.worker.Stop()
	if err := c.release(); err != nil {
		return err
	}
	c.logger.Info("docsearch client closed")
	return nil
}

// release closes the model, extractor, registered closers and database.
func (c *Client) release() error {
	if c.model != nil {
		if err := c.model.Close(); err != nil {
			c.logger.Error("failed to close embedding model", slog.Any("error", err))
		}
	}
	if c.pdf != nil {
		if err := c.pdf.Close(); err != nil {
			c.logger.Error("failed to close PDF extractor", slog.Any("error", err))
		}
	}
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// APIKeys returns the keys accepted by the HTTP API.
func (c *Client) APIKeys() []string {
	return c.apiKeys
}

// UploadDir returns the directory uploaded files are written to.
func (c *Client) UploadDir() string {
	return c.uploadDir
}

// Embedder returns the embedding model shared by indexing and search.
func (c *Client) Embedder() search.Embedder {
	return c.embedder
}
