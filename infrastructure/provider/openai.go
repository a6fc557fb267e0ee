package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/aleysapc/docsearch/internal/retry"
)

// DefaultBatchSize is the default number of texts per embedding API call.
const DefaultBatchSize = 32

// errEmbeddingCountMismatch indicates the API returned fewer vectors than
// texts. Partial responses happen under upstream load, so it is retried.
var errEmbeddingCountMismatch = errors.New("embedding response count mismatch")

// errUpstreamProviderFailure indicates an HTTP 200 whose body carried no data,
// no model and no usage. Routing gateways answer this way when every upstream
// is down, so it is not retried.
var errUpstreamProviderFailure = errors.New("upstream provider failure")

// OpenAIConfig configures an OpenAI-compatible embeddings endpoint.
type OpenAIConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	Timeout       time.Duration
	BatchSize     int
	MaxRetries    int
	InitialDelay  time.Duration
	BackoffFactor float64
	// HTTPClient overrides the client, e.g. to install a CachingTransport.
	HTTPClient *http.Client
}

// OpenAIEmbedding computes embeddings through the /embeddings endpoint of
// OpenAI or any server speaking the same protocol.
type OpenAIEmbedding struct {
	client    *openai.Client
	model     string
	batchSize int
	policy    retry.Policy
}

// NewOpenAIEmbedding creates an OpenAIEmbedding. Zero values fall back to
// text-embedding-3-small, five retries and a two second doubling backoff.
func NewOpenAIEmbedding(cfg OpenAIConfig) *OpenAIEmbedding {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	switch {
	case cfg.HTTPClient != nil:
		client := *cfg.HTTPClient
		if cfg.Timeout > 0 {
			client.Timeout = cfg.Timeout
		}
		config.HTTPClient = &client
	case cfg.Timeout > 0:
		config.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	model := cfg.Model
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 5
	}
	initialDelay := cfg.InitialDelay
	if initialDelay == 0 {
		initialDelay = 2 * time.Second
	}
	backoff := cfg.BackoffFactor
	if backoff == 0 {
		backoff = 2.0
	}

	return &OpenAIEmbedding{
		client:    openai.NewClientWithConfig(config),
		model:     model,
		batchSize: batchSize,
		policy: retry.Policy{
			MaxAttempts:  maxRetries + 1,
			InitialDelay: initialDelay,
			MaxDelay:     time.Minute,
			Multiplier:   backoff,
			Retryable:    isRetryable,
		},
	}
}

// Model returns the embedding model name sent to the endpoint.
func (p *OpenAIEmbedding) Model() string { return p.model }

// Capacity returns the maximum number of texts per Embed call.
func (p *OpenAIEmbedding) Capacity() int { return p.batchSize }

// Close is a no-op.
func (p *OpenAIEmbedding) Close() error { return nil }

// Embed generates embeddings for the given texts in a single API call.
func (p *OpenAIEmbedding) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	texts := req.Texts()
	if len(texts) == 0 {
		return NewEmbeddingResponse([][]float64{}, Usage{}), nil
	}

	request := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.model),
		Input: texts,
	}

	resp, err := retry.DoValue(ctx, p.policy, func(ctx context.Context) (openai.EmbeddingResponse, error) {
		resp, err := p.client.CreateEmbeddings(ctx, request)
		if err != nil {
			return resp, err
		}
		if len(resp.Data) == 0 && string(resp.Model) == "" && resp.Usage.TotalTokens == 0 {
			return resp, fmt.Errorf("%w: HTTP 200 with no data, no model and zero usage", errUpstreamProviderFailure)
		}
		if len(resp.Data) != len(texts) {
			return resp, fmt.Errorf("%w: got %d vectors for %d texts", errEmbeddingCountMismatch, len(resp.Data), len(texts))
		}
		return resp, nil
	})
	if err != nil {
		return EmbeddingResponse{}, wrapOpenAIError(err)
	}

	// The endpoint may answer out of order; Index is authoritative.
	embeddings := make([][]float64, len(texts))
	for i, data := range resp.Data {
		idx := data.Index
		if idx < 0 || idx >= len(texts) || embeddings[idx] != nil {
			idx = i
		}
		vec := make([]float64, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float64(v)
		}
		embeddings[idx] = vec
	}

	return NewEmbeddingResponse(embeddings, NewUsage(resp.Usage.PromptTokens, resp.Usage.TotalTokens)), nil
}

func isRetryable(err error) bool {
	if errors.Is(err, errEmbeddingCountMismatch) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var reqErr *openai.RequestError
	return errors.As(err, &reqErr)
}

func wrapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError("embedding", apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewProviderError("embedding", reqErr.HTTPStatusCode, reqErr.Error(), err)
	}

	return NewProviderError("embedding", 0, err.Error(), err)
}

var _ Backend = (*OpenAIEmbedding)(nil)
