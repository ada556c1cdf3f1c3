// Package classify detects the document type of OCR text.
package classify

import (
	"context"
	"regexp"
	"strings"

	"github.com/sells-group/docintel/internal/model"
	"github.com/sells-group/docintel/internal/textutil"
)

// DefaultSampleChars is how much leading text a classifier looks at.
const DefaultSampleChars = 800

// Classifier maps document text to a document type.
type Classifier interface {
	Classify(ctx context.Context, text string) (model.DocumentType, error)
}

// sample returns at most n runes from the start of text.
func sample(text string, n int) string {
	if n <= 0 {
		n = DefaultSampleChars
	}
	return textutil.Truncate(text, n)
}

type keywordRule struct {
	re     *regexp.Regexp
	weight int
}

func rules(weighted map[string]int) []keywordRule {
	out := make([]keywordRule, 0, len(weighted))
	for kw, w := range weighted {
		out = append(out, keywordRule{
			re:     regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`),
			weight: w,
		})
	}
	return out
}

var keywordRules = map[model.DocumentType][]keywordRule{
	model.DocInvoice: rules(map[string]int{
		"invoice": 3, "tax invoice": 3, "invoice no": 3, "bill to": 2,
		"subtotal": 2, "amount due": 2, "vat": 1, "qty": 1,
	}),
	model.DocBill: rules(map[string]int{
		"bill": 2, "billing period": 3, "account number": 2, "meter": 2,
		"electricity": 2, "utility": 2, "due date": 1,
	}),
	model.DocPrescription: rules(map[string]int{
		"rx": 3, "prescription": 3, "dosage": 2, "tablet": 2, "tablets": 2,
		"mg": 1, "patient": 1, "medication": 2,
	}),
	model.DocResume: rules(map[string]int{
		"resume": 3, "curriculum vitae": 3, "work experience": 2,
		"experience": 1, "education": 2, "skills": 2, "objective": 1,
	}),
	model.DocIDCard: rules(map[string]int{
		"identity card": 3, "id card": 3, "date of birth": 2, "dob": 2,
		"nationality": 2, "id no": 2, "expiry": 1,
	}),
	model.DocContract: rules(map[string]int{
		"agreement": 3, "contract": 3, "parties": 2, "hereby": 2,
		"terms and conditions": 2, "effective date": 2, "witness": 1,
	}),
	model.DocLetter: rules(map[string]int{
		"dear": 2, "sincerely": 3, "yours faithfully": 3, "regards": 2,
		"subject": 1,
	}),
}

// Keyword scores weighted keyword hits over the leading text. The highest
// total wins; ties go to the type listed first in model.AllDocumentTypes;
// no hits at all means "other".
type Keyword struct {
	sampleChars int
}

// NewKeyword creates a Keyword classifier reading sampleChars runes.
func NewKeyword(sampleChars int) *Keyword {
	return &Keyword{sampleChars: sampleChars}
}

// Classify never fails.
func (k *Keyword) Classify(_ context.Context, text string) (model.DocumentType, error) {
	s := strings.ToLower(sample(text, k.sampleChars))

	best, bestScore := model.DocOther, 0
	for _, dt := range model.AllDocumentTypes() {
		score := 0
		for _, r := range keywordRules[dt] {
			score += r.weight * len(r.re.FindAllStringIndex(s, -1))
		}
		if score > bestScore {
			best, bestScore = dt, score
		}
	}
	return best, nil
}
