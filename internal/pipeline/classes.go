package pipeline

import (
	"strings"

	"github.com/sells-group/docintel/internal/model"
)

// fieldClass is the structural class a field name falls into. Classes are
// matched by case-insensitive substring on the name.
type fieldClass struct {
	email  bool
	phone  bool
	amount bool
}

func classify(name model.FieldName) fieldClass {
	n := strings.ToLower(string(name))
	return fieldClass{
		email:  strings.Contains(n, "email"),
		phone:  strings.Contains(n, "phone"),
		amount: strings.Contains(n, "amount") || strings.Contains(n, "total"),
	}
}

// patternEligible reports whether name has a deterministic pattern fallback.
func patternEligible(name model.FieldName) bool {
	c := classify(name)
	return c.email || c.phone
}
