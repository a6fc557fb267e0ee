package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// localModel builds a HugotEmbedding from DOCSEARCH_TEST_MODEL_DIR, skipping
// the test when no model has been downloaded there.
func localModel(t *testing.T) *HugotEmbedding {
	t.Helper()

	dir := os.Getenv("DOCSEARCH_TEST_MODEL_DIR")
	if dir == "" {
		t.Skip("skipping: DOCSEARCH_TEST_MODEL_DIR not set")
	}
	emb, err := NewHugotEmbedding(HugotConfig{ModelDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, emb.Close()) })
	return emb
}

func TestHugotEmbedding_Embed(t *testing.T) {
	emb := localModel(t)

	resp, err := emb.Embed(context.Background(), NewEmbeddingRequest([]string{"hola mundo"}))
	require.NoError(t, err)

	embeddings := resp.Embeddings()
	require.Len(t, embeddings, 1)
	require.Len(t, embeddings[0], DefaultDimension)
}

func TestHugotEmbedding_EmbedRejectsOverCapacity(t *testing.T) {
	emb := localModel(t)

	texts := make([]string, emb.Capacity()+1)
	for i := range texts {
		texts[i] = "texto"
	}
	_, err := emb.Embed(context.Background(), NewEmbeddingRequest(texts))
	require.Error(t, err)
}

func TestHugotEmbedding_EmbedEmpty(t *testing.T) {
	emb := &HugotEmbedding{}

	resp, err := emb.Embed(context.Background(), NewEmbeddingRequest(nil))
	require.NoError(t, err)
	require.Empty(t, resp.Embeddings())
}

func TestHugotEmbedding_CancelledContext(t *testing.T) {
	emb := &HugotEmbedding{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := emb.Embed(ctx, NewEmbeddingRequest([]string{"hello"}))
	require.ErrorIs(t, err, context.Canceled)
}

func TestHugotEmbedding_CloseTwice(t *testing.T) {
	emb := &HugotEmbedding{}
	require.NoError(t, emb.Close())
	require.NoError(t, emb.Close())

	_, err := emb.Embed(context.Background(), NewEmbeddingRequest([]string{"hello"}))
	require.Error(t, err)
}

func TestNewHugotEmbedding_NoModelNoDownload(t *testing.T) {
	_, err := NewHugotEmbedding(HugotConfig{ModelDir: t.TempDir()})
	require.ErrorIs(t, err, ErrModelNotFound)
}

func TestFindModelDir(t *testing.T) {
	modelDir := t.TempDir()

	_, err := findModelDir(modelDir)
	require.ErrorIs(t, err, ErrModelNotFound)

	subdir := filepath.Join(modelDir, "sentence-transformers_all-MiniLM-L6-v2")
	require.NoError(t, os.MkdirAll(subdir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(subdir, "tokenizer.json"), []byte(`{}`), 0o644))

	got, err := findModelDir(modelDir)
	require.NoError(t, err)
	require.Equal(t, subdir, got)
}

func TestFindModelDir_SkipsFilesAndIncompleteDirs(t *testing.T) {
	modelDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(modelDir, "README.md"), []byte("readme"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(modelDir, "incomplete"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(modelDir, "incomplete", "config.json"), []byte(`{}`), 0o644))

	_, err := findModelDir(modelDir)
	require.Error(t, err)
}

func TestFindModelDir_MissingDirectory(t *testing.T) {
	_, err := findModelDir(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
