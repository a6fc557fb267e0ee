package extraction

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOCR returns a fixed text and counts calls.
type fakeOCR struct {
	text  string
	err   error
	calls atomic.Int32
}

func (f *fakeOCR) Recognize(_ context.Context, image []byte) (string, error) {
	f.calls.Add(1)
	if len(image) == 0 {
		return "", errors.New("empty image")
	}
	return f.text, f.err
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestService_ExtractText(t *testing.T) {
	svc := NewService(&fakeOCR{})
	path := writeFile(t, "nota.txt", []byte("Hola Mundo"))

	text, err := svc.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Hola Mundo", text)
}

func TestService_ExtractTextDropsInvalidUTF8(t *testing.T) {
	svc := NewService(nil)
	path := writeFile(t, "nota.TXT", []byte("caf\xe9 ok"))

	text, err := svc.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "caf ok", text)
}

func TestService_ExtractImageUsesOCR(t *testing.T) {
	ocr := &fakeOCR{text: "OFICIO 12"}
	svc := NewService(ocr)

	for _, name := range []string{"scan.png", "scan.JPG", "scan.jpeg", "scan.tiff"} {
		text, err := svc.Extract(context.Background(), writeFile(t, name, []byte{0x89, 'P', 'N', 'G'}))
		require.NoError(t, err, name)
		assert.Equal(t, "OFICIO 12", text)
	}
	assert.Equal(t, int32(4), ocr.calls.Load())
}

func TestService_ExtractImageWithoutOCR(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.Extract(context.Background(), writeFile(t, "scan.png", []byte{1}))
	require.ErrorIs(t, err, ErrOCRUnavailable)
	assert.True(t, Permanent(err))
}

func TestService_UnsupportedFormat(t *testing.T) {
	svc := NewService(&fakeOCR{})

	_, err := svc.Extract(context.Background(), writeFile(t, "hoja.xlsx", []byte("x")))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.True(t, Permanent(err))

	_, err = svc.Extract(context.Background(), writeFile(t, "doc.pdf", []byte("%PDF")))
	require.ErrorIs(t, err, ErrUnsupportedFormat, "pdf without a pdf extractor")
}

func TestService_MissingFileIsPermanent(t *testing.T) {
	svc := NewService(&fakeOCR{})
	_, err := svc.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.True(t, Permanent(err))
}

func TestService_DelegatesPDF(t *testing.T) {
	pdf := extractorFunc(func(context.Context, string) (string, error) {
		return PageMarker(1) + "texto", nil
	})
	svc := NewService(nil, WithPDF(pdf))

	text, err := svc.Extract(context.Background(), writeFile(t, "a.pdf", []byte("%PDF")))
	require.NoError(t, err)
	assert.Equal(t, "\n--- Página 1 ---\ntexto", text)
}

func TestService_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewService(nil).Extract(ctx, "whatever.txt")
	require.ErrorIs(t, err, context.Canceled)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.PDF"))
	assert.True(t, Supported("/tmp/b.jpeg"))
	assert.True(t, Supported("c.txt"))
	assert.False(t, Supported("d.docx"))
	assert.False(t, Supported("noext"))
}

func TestTesseractOCR_DefaultLanguage(t *testing.T) {
	ocr := NewTesseractOCR("")
	assert.Equal(t, DefaultLanguage, ocr.language)
}

type extractorFunc func(ctx context.Context, path string) (string, error)

func (f extractorFunc) Extract(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}
