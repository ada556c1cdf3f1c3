package pipeline

import (
	"regexp"

	"github.com/sells-group/docintel/internal/model"
)

var (
	reEmail = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// rePhones are tried in order; the first pattern with a match wins.
	rePhones = []*regexp.Regexp{
		regexp.MustCompile(`\+?\d{1,3}[-.\s]?\(?\d{1,4}\)?[-.\s]?\d{2,4}[-.\s]?\d{2,4}`),
		regexp.MustCompile(`\b\d{10}\b`),
	}
)

// ExtractPattern pulls an email or phone number straight out of text for
// fields in those classes. It returns "" when the field has no pattern
// class or nothing matches.
func ExtractPattern(name model.FieldName, text string) string {
	c := classify(name)
	if c.email {
		return reEmail.FindString(text)
	}
	if c.phone {
		for _, re := range rePhones {
			if m := re.FindString(text); m != "" {
				return m
			}
		}
	}
	return ""
}
