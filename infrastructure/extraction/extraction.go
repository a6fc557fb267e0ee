// Package extraction turns uploaded files into raw text: plain text files are
// read directly, images go through OCR and PDFs through their text layer with
// an OCR fallback for scanned pages.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrUnsupportedFormat indicates a file extension no extractor handles.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var (
	imageExtensions = []string{".png", ".jpg", ".jpeg", ".tif", ".tiff"}
	textExtensions  = []string{".txt"}
	pdfExtensions   = []string{".pdf"}
)

// Extractor turns a file into raw text.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Supported reports whether path has an extension Service can extract.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(imageExtensions, ext) ||
		slices.Contains(textExtensions, ext) ||
		slices.Contains(pdfExtensions, ext)
}

// Service dispatches on file extension.
type Service struct {
	ocr    OCR
	pdf    Extractor
	logger *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithPDF sets the extractor used for .pdf files.
func WithPDF(pdf Extractor) ServiceOption {
	return func(s *Service) { s.pdf = pdf }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a Service recognising images with ocr. Without WithPDF,
// PDF files are reported as unsupported.
func NewService(ocr OCR, opts ...ServiceOption) *Service {
	s := &Service{ocr: ocr, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract returns the raw text of the file at path.
func (s *Service) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	start := time.Now()
	ext := strings.ToLower(filepath.Ext(path))

	var (
		text string
		err  error
	)
	switch {
	case slices.Contains(textExtensions, ext):
		text, err = readText(path)
	case slices.Contains(imageExtensions, ext):
		text, err = s.extractImage(ctx, path)
	case slices.Contains(pdfExtensions, ext) && s.pdf != nil:
		text, err = s.pdf.Extract(ctx, path)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}

	s.logger.Info("text extracted",
		slog.String("file", filepath.Base(path)),
		slog.Int("characters", utf8.RuneCountInString(text)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return text, nil
}

func (s *Service) extractImage(ctx context.Context, path string) (string, error) {
	if s.ocr == nil {
		return "", ErrOCRUnavailable
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return s.ocr.Recognize(ctx, data)
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	if !utf8.Valid(data) {
		return strings.ToValidUTF8(string(data), ""), nil
	}
	return string(data), nil
}

// Permanent reports whether err can never succeed on retry.
func Permanent(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrOCRUnavailable) ||
		errors.Is(err, os.ErrNotExist)
}
