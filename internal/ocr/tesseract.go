package ocr

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/rotisserie/eris"
)

// Tesseract runs the tesseract CLI on an image.
type Tesseract struct {
	binPath  string
	language string
}

// NewTesseract creates a Tesseract extractor. Empty arguments default to
// "tesseract" and "eng".
func NewTesseract(binPath, language string) *Tesseract {
	return &Tesseract{
		binPath:  orDefault(binPath, "tesseract"),
		language: orDefault(language, "eng"),
	}
}

// ExtractText returns the recognized text of the image at path.
func (t *Tesseract) ExtractText(ctx context.Context, imagePath string) (string, error) {
	out, err := run(ctx, t.binPath, imagePath, "stdout", "-l", t.language)
	if err != nil {
		return "", eris.Wrapf(err, "ocr: tesseract %s", imagePath)
	}
	return out, nil
}

// run executes a CLI tool and returns stdout, folding stderr into the error.
func run(ctx context.Context, bin string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "%s failed: %s", bin, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.String(), nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
