package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

const (
	// DefaultModelName identifies the local sentence-transformer.
	DefaultModelName = "sentence-transformers/all-MiniLM-L6-v2"

	// DefaultDimension is the vector size DefaultModelName produces.
	DefaultDimension = 384

	hugotBatchMax = 16
)

// ErrModelNotFound indicates no model files exist in the model directory and
// downloading was not allowed.
var ErrModelNotFound = errors.New("no local embedding model found")

// HugotConfig configures the local embedding backend.
type HugotConfig struct {
	// ModelDir holds one subdirectory per model, each with a tokenizer.json.
	ModelDir string
	// ModelName is the Hugging Face repository downloaded when ModelDir is empty.
	ModelName string
	// Download allows fetching ModelName when no model is on disk.
	Download bool
}

// HugotEmbedding computes embeddings in-process with an ONNX
// feature-extraction pipeline. Inference is serialized on the instance
// because the ONNX runtime session is not safe for concurrent use.
type HugotEmbedding struct {
	mu        sync.Mutex
	session   *hugot.Session
	pipeline  *pipelines.FeatureExtractionPipeline
	modelPath string
	closed    bool
}

// NewHugotEmbedding loads the model from cfg.ModelDir, downloading it first
// when allowed, and builds the inference pipeline.
func NewHugotEmbedding(cfg HugotConfig) (*HugotEmbedding, error) {
	modelPath, err := resolveModelPath(cfg)
	if err != nil {
		return nil, err
	}

	session, err := newHugotSession()
	if err != nil {
		return nil, fmt.Errorf("create hugot session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "docsearch-embeddings",
		Options: []hugot.FeatureExtractionOption{
			pipelines.WithNormalization(),
		},
	})
	if err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("create feature extraction pipeline: %w", err)
	}

	return &HugotEmbedding{
		session:   session,
		pipeline:  pipeline,
		modelPath: modelPath,
	}, nil
}

func resolveModelPath(cfg HugotConfig) (string, error) {
	if path, err := findModelDir(cfg.ModelDir); err == nil {
		return path, nil
	}
	if !cfg.Download {
		return "", fmt.Errorf("%w in %s", ErrModelNotFound, cfg.ModelDir)
	}

	name := cfg.ModelName
	if name == "" {
		name = DefaultModelName
	}
	if err := os.MkdirAll(cfg.ModelDir, 0o755); err != nil {
		return "", fmt.Errorf("create model directory: %w", err)
	}

	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = "onnx/model.onnx"
	path, err := hugot.DownloadModel(name, cfg.ModelDir, opts)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", name, err)
	}
	return path, nil
}

// findModelDir returns the first subdirectory of dir holding a tokenizer.json.
func findModelDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read model directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(dir, entry.Name())
		if _, statErr := os.Stat(filepath.Join(candidate, "tokenizer.json")); statErr == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no subdirectory with tokenizer.json in %s", ErrModelNotFound, dir)
}

// ModelPath returns the directory the model was loaded from.
func (h *HugotEmbedding) ModelPath() string { return h.modelPath }

// Capacity returns the maximum number of texts per Embed call.
func (h *HugotEmbedding) Capacity() int { return hugotBatchMax }

// Embed generates embeddings for at most Capacity texts.
func (h *HugotEmbedding) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	texts := req.Texts()
	if len(texts) == 0 {
		return NewEmbeddingResponse([][]float64{}, Usage{}), nil
	}
	if len(texts) > hugotBatchMax {
		return EmbeddingResponse{}, fmt.Errorf("embed: %d texts exceeds capacity %d", len(texts), hugotBatchMax)
	}
	if err := ctx.Err(); err != nil {
		return EmbeddingResponse{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return EmbeddingResponse{}, errors.New("embed: backend closed")
	}

	result, err := h.pipeline.RunPipeline(texts)
	if err != nil {
		return EmbeddingResponse{}, NewProviderError("embedding", 0, "run pipeline", err)
	}

	embeddings := make([][]float64, len(result.Embeddings))
	for i, vec32 := range result.Embeddings {
		vec64 := make([]float64, len(vec32))
		for j, v := range vec32 {
			vec64[j] = float64(v)
		}
		embeddings[i] = vec64
	}
	return NewEmbeddingResponse(embeddings, Usage{}), nil
}

// Close destroys the ONNX session. It is safe to call more than once.
func (h *HugotEmbedding) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	if h.session == nil {
		return nil
	}
	return h.session.Destroy()
}

var _ Backend = (*HugotEmbedding)(nil)
