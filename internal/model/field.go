package model

// FieldName identifies a field within a document schema.
type FieldName string

// FieldSpec is a single field to extract and the question put to the oracle.
type FieldSpec struct {
	Name     FieldName `json:"name" yaml:"name"`
	Question string    `json:"question" yaml:"question"`
}

// RawAnswer is one oracle response. A failed call is recorded as the zero
// value (empty text, score 0).
type RawAnswer struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// ResolvedField is the single value chosen for a field plus its confidence.
type ResolvedField struct {
	Name       FieldName `json:"-"`
	Value      string    `json:"value"`
	Confidence float64   `json:"confidence"`
}

// WithValue returns a copy of f carrying value v. The receiver is not modified.
func (f ResolvedField) WithValue(v string) ResolvedField {
	f.Value = v
	return f
}

// FlaggedField is a ResolvedField marked for review when its confidence is
// under the flag threshold.
type FlaggedField struct {
	ResolvedField
	Flag bool `json:"flag"`
}
