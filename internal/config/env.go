package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiter (e.g., EMBEDDING_ENDPOINT_BASE_URL).
type EnvConfig struct {
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir holds the default database, uploads and models.
	// Env: DATA_DIR (default: ~/.docsearch)
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL (default: sqlite:///{data_dir}/docsearch.db)
	DBURL string `envconfig:"DB_URL"`

	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is pretty or json.
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// APIKeys is a comma-separated list of keys accepted on write routes.
	// Env: API_KEYS
	APIKeys string `envconfig:"API_KEYS"`

	// Env: WORKER_COUNT (default: 1)
	WorkerCount int `envconfig:"WORKER_COUNT" default:"1"`

	// Env: WORKER_POLL_PERIOD (default: 1s)
	WorkerPollPeriod time.Duration `envconfig:"WORKER_POLL_PERIOD" default:"1s"`

	// Env: SEARCH_THRESHOLD (default: 0.5)
	SearchThreshold float64 `envconfig:"SEARCH_THRESHOLD" default:"0.5"`

	// SearchLimit of zero returns every match above the threshold.
	// Env: SEARCH_LIMIT (default: 0)
	SearchLimit int `envconfig:"SEARCH_LIMIT" default:"0"`

	// Env: QUERY_CACHE_SIZE (default: 256)
	QueryCacheSize int `envconfig:"QUERY_CACHE_SIZE" default:"256"`

	// ChunkSize is measured in runes.
	// Env: CHUNK_SIZE (default: 1000)
	ChunkSize int `envconfig:"CHUNK_SIZE" default:"1000"`

	// Env: MODEL_DIR (default: {data_dir}/models)
	ModelDir string `envconfig:"MODEL_DIR"`

	// HTTPCacheDir caches embedding endpoint responses on disk when set.
	// Env: HTTP_CACHE_DIR
	HTTPCacheDir string `envconfig:"HTTP_CACHE_DIR"`

	// EmbeddingEndpoint selects a remote embedding service.
	EmbeddingEndpoint EndpointEnv `envconfig:"EMBEDDING_ENDPOINT"`

	// Env: EMBEDDING_DIMENSION (default: 384)
	EmbeddingDimension int `envconfig:"EMBEDDING_DIMENSION" default:"384"`

	// Env: OCR_LANGUAGE (default: spa)
	OCRLanguage string `envconfig:"OCR_LANGUAGE" default:"spa"`

	// Env: UPLOAD_DIR (default: {data_dir}/uploads)
	UploadDir string `envconfig:"UPLOAD_DIR"`
}

// EndpointEnv holds environment configuration for the embedding endpoint.
type EndpointEnv struct {
	// Env: EMBEDDING_ENDPOINT_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Env: EMBEDDING_ENDPOINT_MODEL
	Model string `envconfig:"MODEL"`

	// Env: EMBEDDING_ENDPOINT_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Timeout is the request timeout in seconds.
	// Env: EMBEDDING_ENDPOINT_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// Env: EMBEDDING_ENDPOINT_MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`

	// Env: EMBEDDING_ENDPOINT_BATCH_SIZE (default: 32)
	BatchSize int `envconfig:"BATCH_SIZE" default:"32"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	return LoadFromEnvWithPrefix("")
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "DOCSEARCH" would require DOCSEARCH_DATA_DIR instead of DATA_DIR.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.Host != "" {
		cfg = applyOption(cfg, WithHost(e.Host))
	}
	if e.Port != 0 {
		cfg = applyOption(cfg, WithPort(e.Port))
	}
	if e.DataDir != "" {
		cfg = applyOption(cfg, WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		cfg = applyOption(cfg, WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		cfg = applyOption(cfg, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = applyOption(cfg, WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.APIKeys != "" {
		cfg = applyOption(cfg, WithAPIKeys(ParseAPIKeys(e.APIKeys)))
	}

	cfg = applyOption(cfg, WithWorkerCount(e.WorkerCount))
	cfg = applyOption(cfg, WithWorkerPollPeriod(e.WorkerPollPeriod))
	cfg = applyOption(cfg, WithSearchThreshold(e.SearchThreshold))
	cfg = applyOption(cfg, WithSearchLimit(e.SearchLimit))
	cfg = applyOption(cfg, WithQueryCacheSize(e.QueryCacheSize))
	cfg = applyOption(cfg, WithChunkSize(e.ChunkSize))
	cfg = applyOption(cfg, WithEmbeddingDimension(e.EmbeddingDimension))
	cfg = applyOption(cfg, WithOCRLanguage(e.OCRLanguage))

	if e.ModelDir != "" {
		cfg = applyOption(cfg, WithModelDir(e.ModelDir))
	}
	if e.HTTPCacheDir != "" {
		cfg = applyOption(cfg, WithHTTPCacheDir(e.HTTPCacheDir))
	}
	if e.UploadDir != "" {
		cfg = applyOption(cfg, WithUploadDir(e.UploadDir))
	}
	if e.EmbeddingEndpoint.IsConfigured() {
		cfg = applyOption(cfg, WithEmbeddingEndpoint(e.EmbeddingEndpoint.ToEndpoint()))
	}

	return cfg
}

func applyOption(cfg AppConfig, opt AppConfigOption) AppConfig {
	opt(&cfg)
	return cfg
}

// IsConfigured returns true if the endpoint has a base URL.
func (e EndpointEnv) IsConfigured() bool {
	return strings.TrimSpace(e.BaseURL) != ""
}

// ToEndpoint converts EndpointEnv to Endpoint.
func (e EndpointEnv) ToEndpoint() Endpoint {
	return NewEndpointWithOptions(
		WithBaseURL(strings.TrimSpace(e.BaseURL)),
		WithModel(e.Model),
		WithAPIKey(e.APIKey),
		WithTimeout(time.Duration(e.Timeout*float64(time.Second))),
		WithMaxRetries(e.MaxRetries),
		WithBatchSize(e.BatchSize),
	)
}

func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
