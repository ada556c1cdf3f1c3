package ocr

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// PdfToText reads the embedded text layer of a PDF with poppler's pdftotext.
// Scanned PDFs with no text layer come back blank, not as an error.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText extractor. If binPath is empty,
// "pdftotext" is used.
func NewPdfToText(binPath string) *PdfToText {
	return &PdfToText{binPath: orDefault(binPath, "pdftotext")}
}

func (p *PdfToText) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	out, err := run(ctx, p.binPath, "-layout", "-enc", "UTF-8", pdfPath, "-")
	if err != nil {
		return "", eris.Wrapf(err, "ocr: pdftotext %s", pdfPath)
	}
	return out, nil
}

// ScannedPDF rasterizes each PDF page with poppler's pdftoppm and OCRs the
// pages in order, one page per paragraph.
type ScannedPDF struct {
	binPath string
	pages   Extractor
}

// NewScannedPDF creates a ScannedPDF extractor. If binPath is empty,
// "pdftoppm" is used.
func NewScannedPDF(binPath string, pages Extractor) *ScannedPDF {
	return &ScannedPDF{binPath: orDefault(binPath, "pdftoppm"), pages: pages}
}

// ExtractText renders the PDF at 300 dpi and joins the page texts.
func (s *ScannedPDF) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	dir, err := os.MkdirTemp("", "docintel-pages-*")
	if err != nil {
		return "", eris.Wrap(err, "ocr: create page dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	if _, err := run(ctx, s.binPath, "-r", "300", "-png", pdfPath, filepath.Join(dir, "page")); err != nil {
		return "", eris.Wrapf(err, "ocr: pdftoppm %s", pdfPath)
	}

	pages, err := filepath.Glob(filepath.Join(dir, "page*.png"))
	if err != nil {
		return "", eris.Wrap(err, "ocr: list pages")
	}
	if len(pages) == 0 {
		return "", eris.Errorf("ocr: pdftoppm produced no pages for %s", pdfPath)
	}
	sortPages(pages)

	texts := make([]string, 0, len(pages))
	for _, p := range pages {
		text, err := s.pages.ExtractText(ctx, p)
		if err != nil {
			return "", err
		}
		texts = append(texts, strings.TrimSpace(text))
	}
	return strings.Join(texts, "\n\n"), nil
}

// sortPages orders pdftoppm output by page number. pdftoppm zero-pads to the
// width of the page count, so names of equal length sort lexically.
func sortPages(pages []string) {
	sort.Slice(pages, func(i, j int) bool {
		if len(pages[i]) != len(pages[j]) {
			return len(pages[i]) < len(pages[j])
		}
		return pages[i] < pages[j]
	})
}
