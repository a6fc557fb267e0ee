// Package testfake provides deterministic stand-ins for the embedding model
// and the text extractor so tests run without model files or PDFium.
package testfake

import (
	"context"
	"os"
	"strings"

	"github.com/aleysapc/docsearch/domain/search"
)

// KeywordEmbedder maps text onto three orthogonal axes: texts containing
// "licencia" embed to [1 0 0], texts containing "presupuesto" to [0 1 0]
// and everything else to [0 0 1].
type KeywordEmbedder struct{}

// Encode embeds a single text.
func (e KeywordEmbedder) Encode(ctx context.Context, text string) (search.Vector, error) {
	vectors, err := e.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EncodeBatch embeds texts in order.
func (KeywordEmbedder) EncodeBatch(_ context.Context, texts []string) ([]search.Vector, error) {
	out := make([]search.Vector, len(texts))
	for i, t := range texts {
		switch {
		case strings.Contains(t, "licencia"):
			out[i] = search.Vector{1, 0, 0}
		case strings.Contains(t, "presupuesto"):
			out[i] = search.Vector{0, 1, 0}
		default:
			out[i] = search.Vector{0, 0, 1}
		}
	}
	return out, nil
}

// FileExtractor returns the file's bytes as text, or Err when set.
type FileExtractor struct {
	Err error
}

// Extract reads path.
func (f FileExtractor) Extract(_ context.Context, path string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}
