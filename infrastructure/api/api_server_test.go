package api_test

import (
	"net/http"
	"strings"
	"testing"
)

func TestAPIServer_ReadEndpointsOpen_WriteEndpointsProtected(t *testing.T) {
	handler := newTestHandler(t, newTestClient(t), testKey)

	open := []struct {
		name string
		path string
	}{
		{"docs", "/docs/"},
		{"openapi document", "/docs/openapi.json"},
		{"health", "/healthz"},
		{"document list", "/api/v1/documents"},
		{"document search", "/api/v1/search/documents?q=licencia"},
		{"job status", "/api/v1/jobs/unknown"},
	}
	for _, tt := range open {
		t.Run("GET "+tt.name+" returns 200 without API key", func(t *testing.T) {
			w := do(t, handler, http.MethodGet, tt.path, nil, nil)
			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
			}
		})
	}

	t.Run("POST /api/v1/correspondence without key returns 401", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodPost, "/api/v1/correspondence", map[string]string{"reference": "REF-1"})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusUnauthorized, w.Body.String())
		}
	})

	t.Run("POST /api/v1/correspondence with valid key creates the record", func(t *testing.T) {
		w := do(t, handler, http.MethodPost, "/api/v1/correspondence",
			strings.NewReader(`{"reference":"REF-1","subject":"Licencia"}`),
			map[string]string{"Content-Type": "application/json", "X-API-KEY": testKey})
		if w.Code != http.StatusCreated {
			t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
		}
	})

	t.Run("POST /api/v1/drafts with wrong key returns 401", func(t *testing.T) {
		w := do(t, handler, http.MethodPost, "/api/v1/drafts",
			strings.NewReader(`{"reference":"DR-1"}`),
			map[string]string{"Content-Type": "application/json", "X-API-KEY": "nope"})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusUnauthorized, w.Body.String())
		}
	})

	t.Run("PUT /api/v1/drafts/1 without key returns 401", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodPut, "/api/v1/drafts/1", map[string]string{"reference": "DR-1"})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusUnauthorized, w.Body.String())
		}
	})
}

func TestAPIServer_OpenAPIDocumentFollowsRequestHost(t *testing.T) {
	handler := newTestHandler(t, newTestClient(t))

	w := do(t, handler, http.MethodGet, "/docs/openapi.json", nil, map[string]string{
		"X-Forwarded-Host":  "docs.example.org",
		"X-Forwarded-Proto": "https",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var doc struct {
		Host     string         `json:"host"`
		BasePath string         `json:"basePath"`
		Schemes  []string       `json:"schemes"`
		Paths    map[string]any `json:"paths"`
	}
	decode(t, w, &doc)
	if doc.Host != "docs.example.org" {
		t.Errorf("host = %q, want docs.example.org", doc.Host)
	}
	if len(doc.Schemes) != 1 || doc.Schemes[0] != "https" {
		t.Errorf("schemes = %v, want [https]", doc.Schemes)
	}
	if doc.BasePath != "/api/v1" {
		t.Errorf("basePath = %q, want /api/v1", doc.BasePath)
	}
	for _, path := range []string{"/documents", "/search/documents", "/search/correspondence", "/search/drafts", "/jobs/{id}"} {
		if _, ok := doc.Paths[path]; !ok {
			t.Errorf("missing path %s", path)
		}
	}
}

func TestAPIServer_Health(t *testing.T) {
	handler := newTestHandler(t, newTestClient(t))

	w := do(t, handler, http.MethodGet, "/healthz", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"status":"healthy"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestAPIServer_ClosedClientReturns503(t *testing.T) {
	client := newTestClient(t)
	handler := newTestHandler(t, client)
	if err := client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	w := do(t, handler, http.MethodGet, "/api/v1/search/documents?q=licencia", nil, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusServiceUnavailable, w.Body.String())
	}
}
