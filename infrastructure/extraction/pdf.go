package extraction

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
)

const (
	// DefaultDPI is the resolution scanned pages are rendered at for OCR.
	DefaultDPI = 200

	// defaultMinPageChars is the text-layer length below which a page is
	// treated as scanned.
	defaultMinPageChars = 16
)

// PageMarker returns the separator written before page n (1-based).
func PageMarker(n int) string {
	return fmt.Sprintf("\n--- Página %d ---\n", n)
}

// PDFExtractor reads PDFs with PDFium compiled to WebAssembly. Each page
// contributes its text layer; pages without one are rendered and passed to OCR.
type PDFExtractor struct {
	pool         pdfium.Pool
	ocr          OCR
	dpi          int
	minPageChars int
	timeout      time.Duration
	logger       *slog.Logger
}

// PDFOption configures a PDFExtractor.
type PDFOption func(*PDFExtractor)

// WithDPI sets the render resolution for OCR fallback.
func WithDPI(dpi int) PDFOption {
	return func(p *PDFExtractor) {
		if dpi > 0 {
			p.dpi = dpi
		}
	}
}

// WithMinPageChars sets the text-layer length below which OCR is attempted.
func WithMinPageChars(n int) PDFOption {
	return func(p *PDFExtractor) { p.minPageChars = n }
}

// WithPDFLogger sets the logger.
func WithPDFLogger(l *slog.Logger) PDFOption {
	return func(p *PDFExtractor) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPDFExtractor starts a pool of up to workers PDFium instances.
func NewPDFExtractor(ocr OCR, workers int, opts ...PDFOption) (*PDFExtractor, error) {
	if workers <= 0 {
		workers = 1
	}
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  workers,
		MaxTotal: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("start pdfium: %w", err)
	}

	p := &PDFExtractor{
		pool:         pool,
		ocr:          ocr,
		dpi:          DefaultDPI,
		minPageChars: defaultMinPageChars,
		timeout:      30 * time.Second,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Close shuts down the PDFium pool.
func (p *PDFExtractor) Close() error {
	return p.pool.Close()
}

// Extract returns the text of every page, each preceded by PageMarker.
func (p *PDFExtractor) Extract(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	instance, err := p.pool.GetInstance(p.timeout)
	if err != nil {
		return "", fmt.Errorf("acquire pdfium instance: %w", err)
	}
	defer func() { _ = instance.Close() }()

	doc, err := instance.OpenDocument(&requests.OpenDocument{File: &data})
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer func() {
		_, _ = instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})
	}()

	count, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{Document: doc.Document})
	if err != nil {
		return "", fmt.Errorf("count pages: %w", err)
	}

	var b strings.Builder
	for i := range count.PageCount {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := p.pageText(ctx, instance, doc.Document, i)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i+1, err)
		}
		b.WriteString(PageMarker(i + 1))
		b.WriteString(text)
	}
	return b.String(), nil
}

func (p *PDFExtractor) pageText(ctx context.Context, instance pdfium.Pdfium, doc references.FPDF_DOCUMENT, index int) (string, error) {
	page := requests.Page{ByIndex: &requests.PageByIndex{Document: doc, Index: index}}

	layer, err := instance.GetPageText(&requests.GetPageText{Page: page})
	if err != nil {
		return "", fmt.Errorf("read text layer: %w", err)
	}
	if utf8.RuneCountInString(strings.TrimSpace(layer.Text)) >= p.minPageChars || p.ocr == nil {
		return layer.Text, nil
	}

	rendered, err := instance.RenderPageInDPI(&requests.RenderPageInDPI{Page: page, DPI: p.dpi})
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	defer rendered.Cleanup()

	var buf bytes.Buffer
	if err := png.Encode(&buf, rendered.Result.Image); err != nil {
		return "", fmt.Errorf("encode render: %w", err)
	}

	text, err := p.ocr.Recognize(ctx, buf.Bytes())
	if errors.Is(err, ErrOCRUnavailable) {
		p.logger.Debug("scanned page kept as text layer", slog.Int("page", index+1))
		return layer.Text, nil
	}
	if err != nil {
		return "", err
	}
	return text, nil
}
