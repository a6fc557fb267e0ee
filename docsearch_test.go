package docsearch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleysapc/docsearch/application/service"
	"github.com/aleysapc/docsearch/domain/document"
	"github.com/aleysapc/docsearch/domain/task"
	"github.com/aleysapc/docsearch/internal/config"
	"github.com/aleysapc/docsearch/internal/retry"
	"github.com/aleysapc/docsearch/internal/testfake"
)

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	dir := t.TempDir()
	base := []Option{
		WithDataDir(dir),
		WithSQLite(filepath.Join(dir, "test.db")),
		WithEmbedder(testfake.KeywordEmbedder{}),
		WithExtractor(testfake.FileExtractor{}),
		WithoutWorker(),
	}
	client, err := New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func writeUpload(t *testing.T, c *Client, name, content string) string {
	t.Helper()
	path := filepath.Join(c.UploadDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew_DefaultUploadDir(t *testing.T) {
	c := newTestClient(t)

	assert.DirExists(t, c.UploadDir())
	assert.Equal(t, "uploads", filepath.Base(c.UploadDir()))
}

func TestClient_DocumentPipeline(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	path := writeUpload(t, c, "oficio.txt", "Solicitud de   licencia\n\nsin goce de sueldo")
	doc, handle, err := c.Documents.Add(ctx, &service.DocumentAddParams{Name: "oficio.txt", FilePath: path})
	require.NoError(t, err)
	assert.Equal(t, task.JobPending, handle.Status)

	processed, err := c.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(task.Pipeline()), processed)

	job, err := c.Jobs.Status(ctx, handle.TaskID)
	require.NoError(t, err)
	assert.Equal(t, task.JobSuccess, job.Status())

	stored, err := c.Documents.Get(ctx, doc.ID())
	require.NoError(t, err)
	_, ok := stored.Embedding()
	assert.True(t, ok)

	matches, err := c.Search.Documents(ctx, "licencia")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, doc.ID(), matches[0].Entity.ID())
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)

	matches, err = c.Search.Documents(ctx, "presupuesto")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestClient_FailedExtractionFailsJob(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t,
		WithExtractor(testfake.FileExtractor{Err: errors.New("disk gone")}),
		WithRetryPolicy(retry.Policy{MaxAttempts: 2, InitialDelay: time.Millisecond}),
	)

	path := writeUpload(t, c, "roto.txt", "x")
	_, handle, err := c.Documents.Add(ctx, &service.DocumentAddParams{Name: "roto.txt", FilePath: path})
	require.NoError(t, err)

	_, err = c.ProcessQueue(ctx)
	require.NoError(t, err)

	job, err := c.Jobs.Status(ctx, handle.TaskID)
	require.NoError(t, err)
	assert.Equal(t, task.JobFailure, job.Status())
	assert.Contains(t, job.Error(), "disk gone")
}

func TestClient_DraftsIndexedOnWrite(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	draft, err := c.Drafts.Add(ctx, document.DraftFields{Reference: "B-1", Body: "presupuesto anual"})
	require.NoError(t, err)
	_, ok := draft.Embedding()
	assert.True(t, ok)

	matches, err := c.Search.Drafts(ctx, "presupuesto")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, draft.ID(), matches[0].Entity.ID())
}

func TestClient_CorrespondenceScoredByDocuments(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	corr, err := c.Correspondence.Add(ctx, &service.CorrespondenceAddParams{Reference: "EXP-7", Subject: "Personal"})
	require.NoError(t, err)

	path := writeUpload(t, c, "anexo.txt", "licencia por maternidad")
	_, _, err = c.Documents.Add(ctx, &service.DocumentAddParams{Name: "anexo.txt", FilePath: path, CorrespondenceID: corr.ID()})
	require.NoError(t, err)
	_, err = c.ProcessQueue(ctx)
	require.NoError(t, err)

	matches, err := c.Search.Correspondence(ctx, "licencia")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, corr.ID(), matches[0].Entity.ID())
}

func TestClient_AddDocumentToMissingCorrespondence(t *testing.T) {
	c := newTestClient(t)
	path := writeUpload(t, c, "a.txt", "a")

	_, _, err := c.Documents.Add(context.Background(), &service.DocumentAddParams{Name: "a.txt", FilePath: path, CorrespondenceID: 99})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_Close(t *testing.T) {
	dir := t.TempDir()
	c, err := New(WithDataDir(dir), WithEmbedder(testfake.KeywordEmbedder{}), WithExtractor(testfake.FileExtractor{}), WithoutWorker())
	require.NoError(t, err)

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Close(), ErrClientClosed)

	_, err = c.Search.Documents(context.Background(), "licencia")
	assert.ErrorIs(t, err, ErrClientClosed)

	_, err = c.ProcessQueue(context.Background())
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestFromConfig(t *testing.T) {
	cfg := newClientConfig()
	for _, opt := range FromConfig(configWithEndpoint()) {
		opt(cfg)
	}

	require.NotNil(t, cfg.endpoint)
	assert.Equal(t, "http://localhost:8000/v1", cfg.endpoint.BaseURL)
	assert.Equal(t, 3, cfg.workerCount)
	assert.Equal(t, 0.7, cfg.searchThreshold)
}

func configWithEndpoint() config.AppConfig {
	return config.NewAppConfigWithOptions(
		config.WithDataDir("/tmp/docsearch"),
		config.WithWorkerCount(3),
		config.WithSearchThreshold(0.7),
		config.WithEmbeddingEndpoint(config.NewEndpointWithOptions(
			config.WithBaseURL("http://localhost:8000/v1/"),
			config.WithModel("bge-m3"),
		)),
	)
}
