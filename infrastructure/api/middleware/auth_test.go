package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aleysapc/docsearch/infrastructure/api/jsonapi"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestWriteProtect(t *testing.T) {
	handler := WriteProtectAuth([]string{"secret", "rotated"})(okHandler())

	tests := []struct {
		name   string
		method string
		key    string
		want   int
	}{
		{"GET passes without key", http.MethodGet, "", http.StatusOK},
		{"HEAD passes without key", http.MethodHead, "", http.StatusOK},
		{"OPTIONS passes without key", http.MethodOptions, "", http.StatusOK},
		{"upload without key", http.MethodPost, "", http.StatusUnauthorized},
		{"draft update with wrong key", http.MethodPut, "guess", http.StatusUnauthorized},
		{"POST with first key", http.MethodPost, "secret", http.StatusOK},
		{"PUT with second key", http.MethodPut, "rotated", http.StatusOK},
		{"DELETE with key", http.MethodDelete, "secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/documents", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestWriteProtect_DisabledWithoutKeys(t *testing.T) {
	for _, keys := range [][]string{nil, {}, {""}} {
		config := NewAuthConfigWithKeys(keys)
		if config.Enabled() {
			t.Errorf("NewAuthConfigWithKeys(%q).Enabled() = true, want false", keys)
		}

		w := httptest.NewRecorder()
		WriteProtect(config)(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
		if w.Code != http.StatusOK {
			t.Errorf("keys %q: POST status = %d, want %d", keys, w.Code, http.StatusOK)
		}
	}
}

func TestWriteProtect_ErrorBody(t *testing.T) {
	handler := WriteProtectAuth([]string{"secret"})(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/drafts", nil))

	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.api+json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var doc jsonapi.Document
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Errors) != 1 {
		t.Fatalf("errors = %+v, want one", doc.Errors)
	}
	if doc.Errors[0].Status != "401" || doc.Errors[0].Detail != APIKeyHeader+" header is required" {
		t.Errorf("error = %+v", doc.Errors[0])
	}
}
