package pipeline

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/sells-group/docintel/internal/model"
)

var (
	reAmount  = regexp.MustCompile(`\d+(?:,\d+)*(?:\.\d{1,2})?`)
	reISODate = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	reDMYDate = regexp.MustCompile(`\d{2}[-/]\d{2}[-/]\d{4}`)
)

// Canonicalize rewrites value into the normalized form for its field class.
// The first applicable rule wins: email lowercases, phone keeps digits and a
// leading '+', amount extracts a plain decimal, and anything else is reduced
// to the first date it contains. Values no rule applies to come back
// unchanged. Canonicalize(f, Canonicalize(f, v)) == Canonicalize(f, v).
func Canonicalize(name model.FieldName, value string) string {
	if value == "" {
		return value
	}
	c := classify(name)
	if c.email {
		return strings.ToLower(value)
	}
	if c.phone {
		return phoneDigits(value)
	}
	if c.amount {
		if amt, ok := plainAmount(value); ok {
			return amt
		}
	}
	if d, ok := findDate(value); ok {
		return d
	}
	return value
}

// phoneDigits drops everything but digits, keeping a '+' only when it comes
// before the first digit.
func phoneDigits(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// plainAmount finds the first grouped decimal after removing whitespace and
// strips its thousands separators: "Total: $ 1,234.50" -> "1234.50".
func plainAmount(v string) (string, bool) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, v)
	m := reAmount.FindString(compact)
	if m == "" {
		return "", false
	}
	return strings.ReplaceAll(m, ",", ""), true
}

// findDate returns the first ISO date, else the first DD-MM-YYYY or
// DD/MM/YYYY shaped date.
func findDate(v string) (string, bool) {
	if m := reISODate.FindString(v); m != "" {
		return m, true
	}
	if m := reDMYDate.FindString(v); m != "" {
		return m, true
	}
	return "", false
}
