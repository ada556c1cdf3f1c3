// Package schema maps document types to the ordered fields to extract and
// field names to the questions asked of the answer oracle.
package schema

import (
	"fmt"

	"github.com/sells-group/docintel/internal/model"
)

// defaultSchemas lists the fields extracted per document type, in output order.
var defaultSchemas = map[model.DocumentType][]model.FieldName{
	model.DocInvoice:      {"invoice_number", "date", "total_amount", "currency", "vendor"},
	model.DocBill:         {"bill_number", "date", "amount", "provider"},
	model.DocPrescription: {"patient_name", "medicine", "dosage", "instructions"},
	model.DocResume:       {"name", "email", "phone", "skills", "experience"},
	model.DocIDCard:       {"name", "dob", "id_number", "phone"},
	model.DocContract:     {"parties", "start_date", "end_date"},
	model.DocLetter:       {"sender", "receiver", "date", "subject"},
	model.DocOther:        {"raw_text"},
}

var defaultQuestions = map[model.FieldName]string{
	"invoice_number": "What is the invoice number?",
	"bill_number":    "What is the bill number?",
	"date":           "What is the date?",
	"total_amount":   "What is the total amount?",
	"amount":         "What is the amount?",
	"currency":       "What is the currency?",
	"vendor":         "Who is the vendor?",
	"provider":       "Who is the provider?",
	"patient_name":   "What is the patient's name?",
	"medicine":       "Which medicine is prescribed?",
	"dosage":         "What is the dosage?",
	"instructions":   "What are the instructions?",
	"name":           "What is the name?",
	"email":          "What is the email address?",
	"phone":          "What is the phone number?",
	"skills":         "List the skills.",
	"experience":     "Describe the experience.",
	"dob":            "What is the date of birth?",
	"id_number":      "What is the ID number?",
	"parties":        "Who are the parties?",
	"start_date":     "What is the start date?",
	"end_date":       "What is the end date?",
	"sender":         "Who is the sender?",
	"receiver":       "Who is the receiver?",
	"subject":        "What is the subject?",
	"raw_text":       "Provide the main text.",
}

// Registry is a read-only lookup of schemas and questions. It is safe for
// concurrent use once built.
type Registry struct {
	schemas   map[model.DocumentType][]model.FieldName
	questions map[model.FieldName]string
}

// New returns a Registry holding the built-in schemas and questions.
func New() *Registry {
	r := &Registry{
		schemas:   make(map[model.DocumentType][]model.FieldName, len(defaultSchemas)),
		questions: make(map[model.FieldName]string, len(defaultQuestions)),
	}
	for dt, names := range defaultSchemas {
		r.schemas[dt] = append([]model.FieldName(nil), names...)
	}
	for name, q := range defaultQuestions {
		r.questions[name] = q
	}
	return r
}

// SchemaFor returns the ordered field specs for dt. Unknown types get the
// "other" schema. The returned slice is a fresh copy.
func (r *Registry) SchemaFor(dt model.DocumentType) []model.FieldSpec {
	names, ok := r.schemas[dt]
	if !ok {
		names = r.schemas[model.DocOther]
	}
	return r.Specs(names)
}

// QuestionFor returns the curated question for name, or a synthesized
// "What is the {name}?" when none is registered.
func (r *Registry) QuestionFor(name model.FieldName) string {
	if q, ok := r.questions[name]; ok && q != "" {
		return q
	}
	return fmt.Sprintf("What is the %s?", name)
}

// Specs builds field specs for an explicit list of names, dropping
// duplicates after the first occurrence.
func (r *Registry) Specs(names []model.FieldName) []model.FieldSpec {
	specs := make([]model.FieldSpec, 0, len(names))
	seen := make(map[model.FieldName]bool, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		specs = append(specs, model.FieldSpec{Name: n, Question: r.QuestionFor(n)})
	}
	return specs
}

// DocumentTypes returns the types with a registered schema.
func (r *Registry) DocumentTypes() []model.DocumentType {
	out := make([]model.DocumentType, 0, len(r.schemas))
	for _, dt := range model.AllDocumentTypes() {
		if _, ok := r.schemas[dt]; ok {
			out = append(out, dt)
		}
	}
	return out
}
