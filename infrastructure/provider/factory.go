package provider

import (
	"context"
	"errors"
	"net/http"
)

// BackendConfig selects and configures the embedding backend. An endpoint
// BaseURL selects the OpenAI-compatible backend; otherwise the local model
// in ModelDir is used.
type BackendConfig struct {
	ModelDir      string
	ModelName     string
	DownloadModel bool
	Endpoint      OpenAIConfig
	// HTTPCacheDir, when set, caches endpoint responses on disk.
	HTTPCacheDir string
}

// Remote reports whether the configuration selects the endpoint backend.
func (c BackendConfig) Remote() bool { return c.Endpoint.BaseURL != "" }

// Name returns the identifier of the selected model.
func (c BackendConfig) Name() string {
	if c.Remote() {
		if c.Endpoint.Model != "" {
			return c.Endpoint.Model
		}
		return "text-embedding-3-small"
	}
	if c.ModelName != "" {
		return c.ModelName
	}
	return DefaultModelName
}

// NewBackendFactory returns the Factory a ModelProvider uses to build the
// configured backend.
func NewBackendFactory(cfg BackendConfig) Factory {
	return func(ctx context.Context) (Backend, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !cfg.Remote() {
			return NewHugotEmbedding(HugotConfig{
				ModelDir:  cfg.ModelDir,
				ModelName: cfg.Name(),
				Download:  cfg.DownloadModel,
			})
		}

		endpoint := cfg.Endpoint
		if cfg.HTTPCacheDir == "" {
			return NewOpenAIEmbedding(endpoint), nil
		}

		var inner http.RoundTripper
		if endpoint.HTTPClient != nil {
			inner = endpoint.HTTPClient.Transport
		}
		transport, err := NewCachingTransport(cfg.HTTPCacheDir, inner)
		if err != nil {
			return nil, err
		}
		endpoint.HTTPClient = &http.Client{Transport: transport}
		return &cachedEndpoint{OpenAIEmbedding: NewOpenAIEmbedding(endpoint), transport: transport}, nil
	}
}

// cachedEndpoint closes its response cache together with the backend.
type cachedEndpoint struct {
	*OpenAIEmbedding
	transport *CachingTransport
}

func (c *cachedEndpoint) Close() error {
	return errors.Join(c.OpenAIEmbedding.Close(), c.transport.Close())
}
