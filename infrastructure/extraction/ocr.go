package extraction

import (
	"context"
	"errors"
)

// DefaultLanguage is the Tesseract language pack used for recognition.
const DefaultLanguage = "spa"

// ErrOCRUnavailable indicates the binary was built without Tesseract support.
var ErrOCRUnavailable = errors.New("ocr unavailable: build with -tags tesseract")

// OCR recognises text in an encoded image (PNG, JPEG or TIFF).
type OCR interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}
