package ocr

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize folds OCR output into a stable form: NFKC compatibility
// folding (ligatures, full-width digits, non-breaking spaces), LF line
// endings, tabs as spaces, no trailing spaces, at most one blank line in a
// row, and no leading or trailing blank lines.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\f", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " ")
		if l == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
			out = append(out, l)
			continue
		}
		blank = false
		out = append(out, l)
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n")
}
