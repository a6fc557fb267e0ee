// Package provider implements embedding backends and the process-wide model
// handle that application services embed text through.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// ErrDimensionMismatch indicates a backend returned vectors of an unexpected size.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Usage reports token accounting returned by a backend.
type Usage struct {
	promptTokens int
	totalTokens  int
}

// NewUsage creates a Usage.
func NewUsage(promptTokens, totalTokens int) Usage {
	return Usage{promptTokens: promptTokens, totalTokens: totalTokens}
}

// PromptTokens returns the number of prompt tokens.
func (u Usage) PromptTokens() int { return u.promptTokens }

// TotalTokens returns the total number of tokens.
func (u Usage) TotalTokens() int { return u.totalTokens }

// Add sums two usages.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		promptTokens: u.promptTokens + other.promptTokens,
		totalTokens:  u.totalTokens + other.totalTokens,
	}
}

// EmbeddingRequest represents a request for embeddings.
type EmbeddingRequest struct {
	texts []string
}

// NewEmbeddingRequest creates a new EmbeddingRequest.
func NewEmbeddingRequest(texts []string) EmbeddingRequest {
	t := make([]string, len(texts))
	copy(t, texts)
	return EmbeddingRequest{texts: t}
}

// Texts returns the texts to embed.
func (r EmbeddingRequest) Texts() []string {
	t := make([]string, len(r.texts))
	copy(t, r.texts)
	return t
}

// EmbeddingResponse holds one vector per requested text, in request order.
type EmbeddingResponse struct {
	embeddings [][]float64
	usage      Usage
}

// NewEmbeddingResponse creates a new EmbeddingResponse.
func NewEmbeddingResponse(embeddings [][]float64, usage Usage) EmbeddingResponse {
	return EmbeddingResponse{embeddings: embeddings, usage: usage}
}

// Embeddings returns the embedding vectors.
func (r EmbeddingResponse) Embeddings() [][]float64 { return r.embeddings }

// Usage returns token usage information.
func (r EmbeddingResponse) Usage() Usage { return r.usage }

// Backend generates embeddings for text. Implementations accept at most
// Capacity texts per Embed call.
type Backend interface {
	Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error)
	Capacity() int
	Close() error
}

// ProviderError wraps backend errors with the failing operation and, for
// remote backends, the HTTP status.
type ProviderError struct {
	operation  string
	statusCode int
	message    string
	cause      error
}

// NewProviderError creates a new ProviderError.
func NewProviderError(operation string, statusCode int, message string, cause error) *ProviderError {
	return &ProviderError{
		operation:  operation,
		statusCode: statusCode,
		message:    message,
		cause:      cause,
	}
}

func (e *ProviderError) Error() string {
	if e.statusCode != 0 {
		return fmt.Sprintf("%s failed (status %d): %s", e.operation, e.statusCode, e.message)
	}
	return fmt.Sprintf("%s failed: %s", e.operation, e.message)
}

func (e *ProviderError) Unwrap() error { return e.cause }

// Operation returns the operation that failed.
func (e *ProviderError) Operation() string { return e.operation }

// StatusCode returns the HTTP status code if available.
func (e *ProviderError) StatusCode() int { return e.statusCode }

// IsRateLimited returns true if the error is due to rate limiting.
func (e *ProviderError) IsRateLimited() bool { return e.statusCode == 429 }
