package ocr

import (
	"context"
	"os"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// PlainText reads text files directly. Files that are not valid UTF-8 are
// decoded with the configured legacy charset.
type PlainText struct {
	charset string
}

// NewPlainText creates a PlainText extractor. An empty charset defaults to
// windows-1252.
func NewPlainText(charset string) *PlainText {
	if charset == "" {
		charset = "windows-1252"
	}
	return &PlainText{charset: charset}
}

// ExtractText returns the file contents as UTF-8.
func (p *PlainText) ExtractText(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "ocr: read %s", path)
	}
	if utf8.Valid(data) {
		return string(data), nil
	}

	enc, err := htmlindex.Get(p.charset)
	if err != nil {
		return "", eris.Wrapf(err, "ocr: unsupported charset %q", p.charset)
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", eris.Wrapf(err, "ocr: decode %s as %s", path, p.charset)
	}
	return string(decoded), nil
}
