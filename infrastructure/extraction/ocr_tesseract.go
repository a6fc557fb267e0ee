//go:build tesseract

package extraction

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// TesseractOCR recognises text with libtesseract. A client is created per
// call since gosseract clients are not safe for concurrent use.
type TesseractOCR struct {
	language string
}

// NewTesseractOCR creates a TesseractOCR for the given language pack.
func NewTesseractOCR(language string) *TesseractOCR {
	if language == "" {
		language = DefaultLanguage
	}
	return &TesseractOCR{language: language}
}

// Available reports whether recognition is compiled in.
func (t *TesseractOCR) Available() bool { return true }

// Recognize returns the text found in image.
func (t *TesseractOCR) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if err := client.SetLanguage(t.language); err != nil {
		return "", fmt.Errorf("set ocr language %s: %w", t.language, err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("load image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return text, nil
}
