package provider

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm/clause"

	"github.com/aleysapc/docsearch/internal/database"
)

// cacheEntry is one stored response, keyed by request fingerprint.
type cacheEntry struct {
	Key        string `gorm:"column:key;primaryKey"`
	StatusCode int
	Header     []byte
	Body       []byte
	CreatedAt  time.Time
}

func (cacheEntry) TableName() string { return "http_cache" }

// CachingTransport is an http.RoundTripper that stores successful responses
// in a SQLite file under dir, keyed by SHA-256 of method, URL and body.
// Re-embedding identical text then skips the upstream call. Cache failures
// fall through to the inner transport.
type CachingTransport struct {
	inner http.RoundTripper
	db    database.Database
}

// NewCachingTransport opens (or creates) the cache in dir. A nil inner uses
// http.DefaultTransport.
func NewCachingTransport(dir string, inner http.RoundTripper) (*CachingTransport, error) {
	if inner == nil {
		inner = http.DefaultTransport
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := database.NewDatabase(context.Background(), "sqlite:///"+filepath.Join(dir, "http_cache.db"))
	if err != nil {
		return nil, fmt.Errorf("open http cache: %w", err)
	}
	if err := db.GORM().AutoMigrate(&cacheEntry{}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate http cache: %w", err)
	}
	return &CachingTransport{inner: inner, db: db}, nil
}

// Close releases the cache database.
func (t *CachingTransport) Close() error {
	return t.db.Close()
}

// RoundTrip implements http.RoundTripper.
func (t *CachingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		_ = req.Body.Close()
		body = b
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	key := cacheKey(req.Method, req.URL.String(), body)
	if resp, ok := t.lookup(req, key); ok {
		return resp, nil
	}

	resp, err := t.inner.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	t.store(req.Context(), key, resp.StatusCode, resp.Header, respBody)

	resp.Body = io.NopCloser(bytes.NewReader(respBody))
	return resp, nil
}

func cacheKey(method, url string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{'\n'})
	h.Write([]byte(url))
	h.Write([]byte{'\n'})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func (t *CachingTransport) lookup(req *http.Request, key string) (*http.Response, bool) {
	var entry cacheEntry
	if err := t.db.Session(req.Context()).Where("`key` = ?", key).Take(&entry).Error; err != nil {
		return nil, false
	}

	var header http.Header
	if err := json.Unmarshal(entry.Header, &header); err != nil {
		return nil, false
	}

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", entry.StatusCode, http.StatusText(entry.StatusCode)),
		StatusCode:    entry.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(entry.Body)),
		ContentLength: int64(len(entry.Body)),
		Request:       req,
	}, true
}

func (t *CachingTransport) store(ctx context.Context, key string, status int, header http.Header, body []byte) {
	encoded, err := json.Marshal(header)
	if err != nil {
		return
	}
	entry := cacheEntry{
		Key:        key,
		StatusCode: status,
		Header:     encoded,
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	}
	_ = t.db.Session(context.WithoutCancel(ctx)).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&entry).Error
}
