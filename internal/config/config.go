// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost                  = "0.0.0.0"
	DefaultPort                  = 8080
	DefaultLogLevel              = "INFO"
	DefaultWorkerCount           = 1
	DefaultWorkerPollPeriod      = time.Second
	DefaultSearchThreshold       = 0.5
	DefaultSearchLimit           = 0
	DefaultQueryCacheSize        = 256
	DefaultChunkSize             = 1000
	DefaultEmbeddingDimension    = 384
	DefaultOCRLanguage           = "spa"
	DefaultDatabaseFile          = "docsearch.db"
	DefaultUploadSubdir          = "uploads"
	DefaultModelSubdir           = "models"
	DefaultEndpointTimeout       = 60 * time.Second
	DefaultEndpointMaxRetries    = 5
	DefaultEndpointInitialDelay  = 2 * time.Second
	DefaultEndpointBackoffFactor = 2.0
	DefaultEndpointBatchSize     = 32
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Endpoint configures an OpenAI-compatible embedding endpoint.
type Endpoint struct {
	baseURL       string
	model         string
	apiKey        string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
	batchSize     int
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		timeout:       DefaultEndpointTimeout,
		maxRetries:    DefaultEndpointMaxRetries,
		initialDelay:  DefaultEndpointInitialDelay,
		backoffFactor: DefaultEndpointBackoffFactor,
		batchSize:     DefaultEndpointBatchSize,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// BatchSize returns the maximum number of texts per request.
func (e Endpoint) BatchSize() int { return e.batchSize }

// IsConfigured reports whether a base URL was given. Without one the local
// model is used.
func (e Endpoint) IsConfigured() bool {
	return e.baseURL != ""
}

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = strings.TrimRight(url, "/") }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// WithBatchSize sets the maximum number of texts per request.
func WithBatchSize(n int) EndpointOption {
	return func(e *Endpoint) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// NewEndpointWithOptions creates an Endpoint with functional options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host               string
	port               int
	dataDir            string
	dbURL              string
	logLevel           string
	logFormat          LogFormat
	apiKeys            []string
	workerCount        int
	workerPollPeriod   time.Duration
	searchThreshold    float64
	searchLimit        int
	queryCacheSize     int
	chunkSize          int
	modelDir           string
	httpCacheDir       string
	embeddingEndpoint  *Endpoint
	embeddingDimension int
	ocrLanguage        string
	uploadDir          string
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docsearch"
	}
	return filepath.Join(home, ".docsearch")
}

// DefaultLogger returns the default slog logger for library consumers.
func DefaultLogger() *slog.Logger {
	return slog.Default()
}

// PrepareDataDir creates the data directory if it does not exist and returns it.
func PrepareDataDir(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dataDir, nil
}

func sqliteURL(dataDir string) string {
	return "sqlite:///" + filepath.Join(dataDir, DefaultDatabaseFile)
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:               DefaultHost,
		port:               DefaultPort,
		dataDir:            dataDir,
		dbURL:              sqliteURL(dataDir),
		logLevel:           DefaultLogLevel,
		logFormat:          LogFormatPretty,
		apiKeys:            []string{},
		workerCount:        DefaultWorkerCount,
		workerPollPeriod:   DefaultWorkerPollPeriod,
		searchThreshold:    DefaultSearchThreshold,
		searchLimit:        DefaultSearchLimit,
		queryCacheSize:     DefaultQueryCacheSize,
		chunkSize:          DefaultChunkSize,
		embeddingDimension: DefaultEmbeddingDimension,
		ocrLanguage:        DefaultOCRLanguage,
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// APIKeys returns the configured API keys.
func (c AppConfig) APIKeys() []string {
	keys := make([]string, len(c.apiKeys))
	copy(keys, c.apiKeys)
	return keys
}

// WorkerCount returns the number of tasks processed concurrently.
func (c AppConfig) WorkerCount() int { return c.workerCount }

// WorkerPollPeriod returns how often an idle worker checks the queue.
func (c AppConfig) WorkerPollPeriod() time.Duration { return c.workerPollPeriod }

// SearchThreshold returns the default minimum similarity.
func (c AppConfig) SearchThreshold() float64 { return c.searchThreshold }

// SearchLimit returns the default result limit. Zero means unlimited.
func (c AppConfig) SearchLimit() int { return c.searchLimit }

// QueryCacheSize returns the number of query embeddings kept in memory.
func (c AppConfig) QueryCacheSize() int { return c.queryCacheSize }

// ChunkSize returns the chunk length in runes used by the embed stage.
func (c AppConfig) ChunkSize() int { return c.chunkSize }

// ModelDir returns the local model directory.
func (c AppConfig) ModelDir() string {
	if c.modelDir != "" {
		return c.modelDir
	}
	return filepath.Join(c.dataDir, DefaultModelSubdir)
}

// HTTPCacheDir returns the embedding response cache directory, or "".
func (c AppConfig) HTTPCacheDir() string { return c.httpCacheDir }

// EmbeddingEndpoint returns the embedding endpoint config, or nil when the
// local model is used.
func (c AppConfig) EmbeddingEndpoint() *Endpoint { return c.embeddingEndpoint }

// EmbeddingDimension returns the expected vector length.
func (c AppConfig) EmbeddingDimension() int { return c.embeddingDimension }

// OCRLanguage returns the tesseract language code.
func (c AppConfig) OCRLanguage() string { return c.ocrLanguage }

// UploadDir returns the directory uploaded files are stored in.
func (c AppConfig) UploadDir() string {
	if c.uploadDir != "" {
		return c.uploadDir
	}
	return filepath.Join(c.dataDir, DefaultUploadSubdir)
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// EnsureUploadDir creates the upload directory if it doesn't exist.
func (c AppConfig) EnsureUploadDir() error {
	return os.MkdirAll(c.UploadDir(), 0o755)
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory. A database URL still pointing at the
// default file follows the new directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		if c.dbURL == "" || c.dbURL == sqliteURL(c.dataDir) {
			c.dbURL = sqliteURL(dir)
		}
		c.dataDir = dir
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithAPIKeys sets the API keys.
func WithAPIKeys(keys []string) AppConfigOption {
	return func(c *AppConfig) {
		c.apiKeys = make([]string, len(keys))
		copy(c.apiKeys, keys)
	}
}

// WithWorkerCount sets the number of tasks processed concurrently.
func WithWorkerCount(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.workerCount = n
		}
	}
}

// WithWorkerPollPeriod sets the idle poll period.
func WithWorkerPollPeriod(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d > 0 {
			c.workerPollPeriod = d
		}
	}
}

// WithSearchThreshold sets the default minimum similarity. Values outside
// [0, 1] are ignored.
func WithSearchThreshold(t float64) AppConfigOption {
	return func(c *AppConfig) {
		if t >= 0 && t <= 1 {
			c.searchThreshold = t
		}
	}
}

// WithSearchLimit sets the default search result limit.
func WithSearchLimit(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n >= 0 {
			c.searchLimit = n
		}
	}
}

// WithQueryCacheSize sets the query embedding cache size.
func WithQueryCacheSize(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.queryCacheSize = n
		}
	}
}

// WithChunkSize sets the chunk length in runes.
func WithChunkSize(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithModelDir sets the local model directory.
func WithModelDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.modelDir = dir }
}

// WithHTTPCacheDir sets the embedding response cache directory.
func WithHTTPCacheDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.httpCacheDir = dir }
}

// WithEmbeddingEndpoint sets the embedding endpoint.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embeddingEndpoint = &e }
}

// WithEmbeddingDimension sets the expected vector length.
func WithEmbeddingDimension(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.embeddingDimension = n
		}
	}
}

// WithOCRLanguage sets the tesseract language code.
func WithOCRLanguage(lang string) AppConfigOption {
	return func(c *AppConfig) {
		if lang != "" {
			c.ocrLanguage = lang
		}
	}
}

// WithUploadDir sets the upload directory.
func WithUploadDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.uploadDir = dir }
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	c.apiKeys = c.APIKeys()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// API keys are shown as a count.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("data_dir", c.dataDir),
		slog.String("upload_dir", c.UploadDir()),
		slog.String("log_level", c.logLevel),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("embedding_base_url", c.endpointBaseURL()),
		slog.String("embedding_model", c.embeddingModel()),
		slog.Int("embedding_dimension", c.embeddingDimension),
		slog.Int("api_keys_count", len(c.apiKeys)),
		slog.Int("worker_count", c.workerCount),
		slog.Float64("search_threshold", c.searchThreshold),
		slog.String("ocr_language", c.ocrLanguage),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(default)"
	}
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}

func (c AppConfig) endpointBaseURL() string {
	if c.embeddingEndpoint == nil {
		return "(local model)"
	}
	return c.embeddingEndpoint.BaseURL()
}

func (c AppConfig) embeddingModel() string {
	if c.embeddingEndpoint == nil || c.embeddingEndpoint.Model() == "" {
		return "(default)"
	}
	return c.embeddingEndpoint.Model()
}

// ParseAPIKeys parses a comma-separated string of API keys.
func ParseAPIKeys(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}
