// Package ocr turns uploaded documents into plain text: PDFs through
// pdftotext (with a scanned-page fallback) or Mistral OCR, images through
// tesseract or Mistral, and text files as they are.
package ocr

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docintel/internal/config"
)

// Extractor extracts text content from a document file.
type Extractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// ErrUnsupported is returned for file types no extractor handles.
var ErrUnsupported = eris.New("ocr: unsupported file type")

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true,
	".bmp": true, ".gif": true, ".webp": true,
}

var textExts = map[string]bool{".txt": true, ".text": true, ".md": true}

// Router dispatches on file extension and normalizes the result.
type Router struct {
	PDF   Extractor
	Image Extractor
	Text  Extractor
}

// NewExtractor builds a Router from config.
func NewExtractor(cfg config.OCRConfig) (*Router, error) {
	text := NewPlainText(cfg.Charset)

	switch cfg.Provider {
	case "local", "":
		tess := NewTesseract(cfg.TesseractPath, cfg.Language)
		return &Router{
			PDF: &Chain{Extractors: []Extractor{
				NewPdfToText(cfg.PdfToTextPath),
				NewScannedPDF(cfg.PdfToPPMPath, tess),
			}},
			Image: tess,
			Text:  text,
		}, nil
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires mistral_api_key")
		}
		m := NewMistralOCR(cfg.MistralKey, cfg.MistralModel)
		m.backoff.Attempts = max(cfg.RetryAttempts, 1)
		return &Router{PDF: m, Image: m, Text: text}, nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}

// ExtractText picks the extractor for path and returns normalized text.
func (r *Router) ExtractText(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var e Extractor
	switch {
	case ext == ".pdf":
		e = r.PDF
	case imageExts[ext]:
		e = r.Image
	case textExts[ext]:
		e = r.Text
	}
	if e == nil {
		return "", eris.Wrapf(ErrUnsupported, "ocr: %s", filepath.Base(path))
	}

	raw, err := e.ExtractText(ctx, path)
	if err != nil {
		return "", err
	}
	text := Normalize(raw)
	zap.L().Debug("ocr: extracted text",
		zap.String("file", filepath.Base(path)),
		zap.Int("chars", len(text)),
	)
	return text, nil
}

// Chain tries each extractor in order and returns the first non-blank text.
// Errors from earlier extractors are logged and skipped; the last error is
// returned when nothing produced text.
type Chain struct {
	Extractors []Extractor
}

// ExtractText runs the chain.
func (c *Chain) ExtractText(ctx context.Context, path string) (string, error) {
	var lastErr error
	for i, e := range c.Extractors {
		text, err := e.ExtractText(ctx, path)
		if err != nil {
			lastErr = err
			zap.L().Debug("ocr: extractor failed, trying next",
				zap.Int("step", i),
				zap.String("file", filepath.Base(path)),
				zap.Error(err),
			)
			continue
		}
		if strings.TrimSpace(text) != "" {
			return text, nil
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", nil
}
