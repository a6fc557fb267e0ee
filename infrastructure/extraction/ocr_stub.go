//go:build !tesseract

package extraction

import "context"

// TesseractOCR is compiled without libtesseract; every call fails with
// ErrOCRUnavailable.
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
func (t *TesseractOCR) Available() bool { return false }

// Recognize always returns ErrOCRUnavailable.
func (t *TesseractOCR) Recognize(context.Context, []byte) (string, error) {
	return "", ErrOCRUnavailable
}
