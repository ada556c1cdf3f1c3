package pipeline

import (
	"strings"

	"github.com/sells-group/docintel/internal/model"
)

// Validate is the second normalization pass over a resolved document.
// Unlike Canonicalize it always tries date extraction first and then lets
// the class rules (amount, email, phone) override, each evaluated against
// the incoming value. Confidence, order and the field set are untouched. A
// rule that would blank a non-empty value is skipped.
func Validate(fields []model.ResolvedField) []model.ResolvedField {
	out := make([]model.ResolvedField, len(fields))
	for i, f := range fields {
		out[i] = f.WithValue(validateValue(f.Name, f.Value))
	}
	return out
}

func validateValue(name model.FieldName, value string) string {
	if value == "" {
		return value
	}
	next := value
	if d, ok := findDate(value); ok {
		next = d
	}

	c := classify(name)
	if c.amount {
		if amt, ok := plainAmount(value); ok {
			next = amt
		}
	}
	if c.email {
		if m := reEmail.FindString(value); m != "" {
			next = strings.ToLower(m)
		}
	}
	if c.phone {
		if p := phoneDigits(value); p != "" {
			next = p
		}
	}
	return next
}
