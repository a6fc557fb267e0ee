package api

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewServer(t *testing.T) {
	server := NewServer("127.0.0.1:8080", nil)

	if server.Addr() != "127.0.0.1:8080" {
		t.Errorf("Addr() = %v, want 127.0.0.1:8080", server.Addr())
	}
	if server.Router() == nil {
		t.Error("Router() returned nil")
	}
	if got := server.timeouts.Write; got != 0 {
		t.Errorf("default write timeout = %v, want 0 for streaming", got)
	}
}

func TestServer_RecoversPanics(t *testing.T) {
	server := NewServer(":0", nil)
	server.Router().Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status code = %v, want %v", w.Code, http.StatusInternalServerError)
	}
}

func TestServer_NotFound(t *testing.T) {
	server := NewServer(":0", nil)

	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nonexistent", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status code = %v, want %v", w.Code, http.StatusNotFound)
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	server := NewServer("", nil).WithTimeouts(Timeouts{ReadHeader: time.Second, Read: time.Second, Idle: time.Second})
	server.Router().Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(body) != `{"status":"healthy"}` {
		t.Errorf("body = %s", body)
	}
	if server.Addr() != ln.Addr().String() {
		t.Errorf("Addr() = %v, want bound %v", server.Addr(), ln.Addr())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := <-errCh; err != nil {
		t.Errorf("Serve() after shutdown = %v, want nil", err)
	}
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := NewServer(":0", nil).Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v, want nil", err)
	}
}
