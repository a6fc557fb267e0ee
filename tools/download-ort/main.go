// Build-time tool that fetches the ONNX Runtime shared library and the
// tokenizers static library needed by binaries built with -tags ORT. The
// local embedding backend looks for them in ORT_LIB_DIR or ./lib.
//
// Required env: ORT_VERSION        (e.g. "1.23.2")
// Optional env: ORT_LIB_DIR        (default "./lib")
//               TOKENIZERS_VERSION (default "1.24.0")
//
// Usage: ORT_VERSION=1.23.2 go run ./tools/download-ort
package main

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/aleysapc/docsearch/internal/retry"
)

// artifact is one library to install from a release archive.
type artifact struct {
	name    string
	url     string
	library string
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("download failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	ortVersion := os.Getenv("ORT_VERSION")
	if ortVersion == "" {
		return errors.New("ORT_VERSION env var is required")
	}
	tokVersion := envOr("TOKENIZERS_VERSION", "1.24.0")
	destDir := envOr("ORT_LIB_DIR", "./lib")

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	artifacts, err := platformArtifacts(runtime.GOOS+"/"+runtime.GOARCH, ortVersion, tokVersion)
	if err != nil {
		return err
	}

	policy := retry.Policy{
		MaxAttempts:  4,
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
	}
	client := &http.Client{Timeout: 10 * time.Minute}

	for _, a := range artifacts {
		dest := filepath.Join(destDir, a.library)
		if _, err := os.Stat(dest); err == nil {
			logger.Info("library already present", slog.String("artifact", a.name), slog.String("path", dest))
			continue
		}
		logger.Info("downloading", slog.String("artifact", a.name), slog.String("url", a.url))
		err := retry.Do(ctx, policy, func(ctx context.Context) error {
			return fetchAndExtract(ctx, client, a.url, dest)
		})
		if err != nil {
			return fmt.Errorf("%s: %w", a.name, err)
		}
		logger.Info("installed", slog.String("artifact", a.name), slog.String("path", dest))
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func platformArtifacts(platform, ortVersion, tokVersion string) ([]artifact, error) {
	type names struct{ ort, lib, tokenizers string }
	table := map[string]names{
		"linux/amd64":  {"onnxruntime-linux-x64-%s.tgz", "libonnxruntime.so", "libtokenizers.linux-amd64.tar.gz"},
		"linux/arm64":  {"onnxruntime-linux-aarch64-%s.tgz", "libonnxruntime.so", "libtokenizers.linux-arm64.tar.gz"},
		"darwin/arm64": {"onnxruntime-osx-arm64-%s.tgz", "libonnxruntime.dylib", "libtokenizers.darwin-arm64.tar.gz"},
		"darwin/amd64": {"onnxruntime-osx-x86_64-%s.tgz", "libonnxruntime.dylib", "libtokenizers.darwin-x86_64.tar.gz"},
	}
	n, ok := table[platform]
	if !ok {
		return nil, fmt.Errorf("no ONNX Runtime archive for %s", platform)
	}
	return []artifact{
		{
			name:    "onnxruntime " + ortVersion,
			url:     fmt.Sprintf("https://github.com/microsoft/onnxruntime/releases/download/v%s/"+n.ort, ortVersion, ortVersion),
			library: n.lib,
		},
		{
			name:    "tokenizers " + tokVersion,
			url:     fmt.Sprintf("https://github.com/daulet/tokenizers/releases/download/v%s/%s", tokVersion, n.tokenizers),
			library: "libtokenizers.a",
		},
	}, nil
}

func fetchAndExtract(ctx context.Context, client *http.Client, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return retry.Permanent(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return retry.Permanent(fmt.Errorf("%s: not found", url))
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}
	return extractTgz(resp.Body, dest)
}

// extractTgz writes the regular file named like dest's base name, or a
// versioned variant such as libonnxruntime.1.23.2.dylib, to dest.
func extractTgz(body io.Reader, dest string) error {
	gz, err := gzip.NewReader(body)
	if err != nil {
		return fmt.Errorf("gzip reader: %w", err)
	}
	defer func() { _ = gz.Close() }()

	filename := filepath.Base(dest)
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return retry.Permanent(fmt.Errorf("%s not found in archive", filename))
		}
		if err != nil {
			return fmt.Errorf("tar read: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		base := filepath.Base(header.Name)
		if base != filename && !strings.HasPrefix(base, stem+".") {
			continue
		}
		return writeFile(dest, tr)
	}
}

func writeFile(path string, src io.Reader) error {
	tmp := path + ".partial"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
