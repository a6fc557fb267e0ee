package docsearch

import (
	"io"
	"log/slog"
	"time"

	"github.com/aleysapc/docsearch/application/handler/document"
	"github.com/aleysapc/docsearch/domain/search"
	"github.com/aleysapc/docsearch/infrastructure/provider"
	"github.com/aleysapc/docsearch/internal/config"
	"github.com/aleysapc/docsearch/internal/retry"
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	dbURL            string
	dataDir          string
	uploadDir        string
	modelDir         string
	downloadModel    bool
	endpoint         *provider.OpenAIConfig
	httpCacheDir     string
	dimension        int
	embedder         search.Embedder
	extractor        document.Extractor
	ocrLanguage      string
	logger           *slog.Logger
	apiKeys          []string
	workerCount      int
	workerPollPeriod time.Duration
	startWorker      bool
	retryPolicy      *retry.Policy
	searchThreshold  float64
	searchLimit      int
	queryCacheSize   int
	chunkSize        int
	closers          []io.Closer
}

// newClientConfig creates a clientConfig with defaults from internal/config.
func newClientConfig() *clientConfig {
	return &clientConfig{
		dataDir:          config.DefaultDataDir(),
		dimension:        config.DefaultEmbeddingDimension,
		ocrLanguage:      config.DefaultOCRLanguage,
		workerCount:      config.DefaultWorkerCount,
		workerPollPeriod: config.DefaultWorkerPollPeriod,
		startWorker:      true,
		searchThreshold:  config.DefaultSearchThreshold,
		searchLimit:      config.DefaultSearchLimit,
		queryCacheSize:   config.DefaultQueryCacheSize,
		chunkSize:        config.DefaultChunkSize,
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite stores everything in the SQLite file at path.
func WithSQLite(path string) Option {
	return func(c *clientConfig) { c.dbURL = "sqlite:///" + path }
}

// WithPostgres stores everything in PostgreSQL. The pgvector extension is
// installed on first start.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) { c.dbURL = dsn }
}

// WithDatabaseURL sets a sqlite:/// or postgres:// URL directly.
func WithDatabaseURL(url string) Option {
	return func(c *clientConfig) { c.dbURL = url }
}

// WithDataDir sets the directory holding the default database, uploads and
// models.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) { c.dataDir = dir }
}

// WithUploadDir sets where uploaded files are written.
// Defaults to {dataDir}/uploads.
func WithUploadDir(dir string) Option {
	return func(c *clientConfig) { c.uploadDir = dir }
}

// WithModelDir sets the directory where local model files are stored.
// Defaults to {dataDir}/models.
func WithModelDir(dir string) Option {
	return func(c *clientConfig) { c.modelDir = dir }
}

// WithModelDownload lets the local backend fetch the model when it is not on
// disk.
func WithModelDownload(enabled bool) Option {
	return func(c *clientConfig) { c.downloadModel = enabled }
}

// WithEmbeddingEndpoint computes embeddings through an OpenAI-compatible
// endpoint instead of the local model.
func WithEmbeddingEndpoint(cfg provider.OpenAIConfig) Option {
	return func(c *clientConfig) { c.endpoint = &cfg }
}

// WithHTTPCacheDir caches embedding endpoint responses on disk.
func WithHTTPCacheDir(dir string) Option {
	return func(c *clientConfig) { c.httpCacheDir = dir }
}

// WithEmbeddingDimension sets the vector length every backend must return.
func WithEmbeddingDimension(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.dimension = n
		}
	}
}

// WithEmbedder replaces the model provider with e.
func WithEmbedder(e search.Embedder) Option {
	return func(c *clientConfig) { c.embedder = e }
}

// WithExtractor replaces the file text extractor.
func WithExtractor(e document.Extractor) Option {
	return func(c *clientConfig) { c.extractor = e }
}

// WithOCRLanguage sets the tesseract language used for images and scanned
// pages.
func WithOCRLanguage(lang string) Option {
	return func(c *clientConfig) {
		if lang != "" {
			c.ocrLanguage = lang
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}

// WithAPIKeys sets the API keys accepted by the HTTP API on write routes.
func WithAPIKeys(keys ...string) Option {
	return func(c *clientConfig) { c.apiKeys = keys }
}

// WithWorkerCount sets how many pipeline tasks run concurrently.
func WithWorkerCount(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.workerCount = n
		}
	}
}

// WithWorkerPollPeriod sets how often the idle worker checks the queue.
func WithWorkerPollPeriod(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.workerPollPeriod = d
		}
	}
}

// WithoutWorker leaves the background worker stopped. Queued tasks are then
// run with Client.ProcessQueue.
func WithoutWorker() Option {
	return func(c *clientConfig) { c.startWorker = false }
}

// WithRetryPolicy sets the retry policy for pipeline stages.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *clientConfig) { c.retryPolicy = &p }
}

// WithSearchThreshold sets the default minimum similarity.
func WithSearchThreshold(t float64) Option {
	return func(c *clientConfig) { c.searchThreshold = t }
}

// WithSearchLimit sets the default number of results. Zero is unlimited.
func WithSearchLimit(n int) Option {
	return func(c *clientConfig) { c.searchLimit = n }
}

// WithQueryCacheSize sets how many query embeddings are kept in memory.
func WithQueryCacheSize(n int) Option {
	return func(c *clientConfig) { c.queryCacheSize = n }
}

// WithChunkSize sets the chunk length, in runes, used by the embed stage.
func WithChunkSize(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithCloser registers a resource to be closed when the Client shuts down.
func WithCloser(c io.Closer) Option {
	return func(cfg *clientConfig) {
		cfg.closers = append(cfg.closers, c)
	}
}

// FromConfig translates an AppConfig into client options.
func FromConfig(cfg config.AppConfig) []Option {
	opts := []Option{
		WithDataDir(cfg.DataDir()),
		WithDatabaseURL(cfg.DBURL()),
		WithUploadDir(cfg.UploadDir()),
		WithModelDir(cfg.ModelDir()),
		WithHTTPCacheDir(cfg.HTTPCacheDir()),
		WithEmbeddingDimension(cfg.EmbeddingDimension()),
		WithOCRLanguage(cfg.OCRLanguage()),
		WithAPIKeys(cfg.APIKeys()...),
		WithWorkerCount(cfg.WorkerCount()),
		WithWorkerPollPeriod(cfg.WorkerPollPeriod()),
		WithSearchThreshold(cfg.SearchThreshold()),
		WithSearchLimit(cfg.SearchLimit()),
		WithQueryCacheSize(cfg.QueryCacheSize()),
		WithChunkSize(cfg.ChunkSize()),
	}
	if endpoint := cfg.EmbeddingEndpoint(); endpoint != nil {
		opts = append(opts, WithEmbeddingEndpoint(provider.OpenAIConfig{
			APIKey:        endpoint.APIKey(),
			BaseURL:       endpoint.BaseURL(),
			Model:         endpoint.Model(),
			Timeout:       endpoint.Timeout(),
			BatchSize:     endpoint.BatchSize(),
			MaxRetries:    endpoint.MaxRetries(),
			InitialDelay:  endpoint.InitialDelay(),
			BackoffFactor: endpoint.BackoffFactor(),
		}))
	}
	return opts
}
