package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/aleysapc/docsearch"
	"github.com/aleysapc/docsearch/infrastructure/api"
	"github.com/aleysapc/docsearch/internal/testfake"
)

const testKey = "test-secret-key"

func newTestClient(t *testing.T) *docsearch.Client {
	t.Helper()
	dir := t.TempDir()
	client, err := docsearch.New(
		docsearch.WithDataDir(dir),
		docsearch.WithSQLite(filepath.Join(dir, "test.db")),
		docsearch.WithEmbedder(testfake.KeywordEmbedder{}),
		docsearch.WithExtractor(testfake.FileExtractor{}),
		docsearch.WithoutWorker(),
	)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// newTestHandler mounts every route, docs included, the way serve does.
func newTestHandler(t *testing.T, client *docsearch.Client, apiKeys ...string) http.Handler {
	t.Helper()
	apiServer := api.NewAPIServer(client, apiKeys, api.WithVersion("0.1.0-test"))
	router := apiServer.Router()
	apiServer.MountRoutes()
	router.Mount("/docs", apiServer.DocsRouter("/docs/openapi.json").Routes())
	return router
}

func do(t *testing.T, handler http.Handler, method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func doJSON(t *testing.T, handler http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(b)
	}
	return do(t, handler, method, path, body, map[string]string{"Content-Type": "application/json"})
}

// upload posts a multipart document. Empty fields are omitted.
func upload(t *testing.T, handler http.Handler, filename, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return do(t, handler, http.MethodPost, "/api/v1/documents", &buf, map[string]string{"Content-Type": mw.FormDataContentType()})
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
}
