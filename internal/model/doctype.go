package model

import "strings"

// DocumentType tags the kind of document being extracted. It selects which
// field schema applies.
type DocumentType string

const (
	DocInvoice      DocumentType = "invoice"
	DocBill         DocumentType = "bill"
	DocPrescription DocumentType = "prescription"
	DocResume       DocumentType = "resume"
	DocIDCard       DocumentType = "id_card"
	DocContract     DocumentType = "contract"
	DocLetter       DocumentType = "letter"
	DocOther        DocumentType = "other"
)

// AllDocumentTypes returns every known document type in classifier label order.
func AllDocumentTypes() []DocumentType {
	return []DocumentType{
		DocInvoice,
		DocBill,
		DocPrescription,
		DocResume,
		DocIDCard,
		DocContract,
		DocLetter,
		DocOther,
	}
}

// Known reports whether t is one of the enumerated document types.
func (t DocumentType) Known() bool {
	for _, k := range AllDocumentTypes() {
		if t == k {
			return true
		}
	}
	return false
}

// Label returns the human-readable classifier label ("id card" for id_card).
func (t DocumentType) Label() string {
	return strings.ReplaceAll(string(t), "_", " ")
}

// ParseDocumentType maps a free-form tag to a DocumentType. Case and
// surrounding whitespace are ignored, and spaces or hyphens are read as
// underscores so classifier labels like "id card" resolve. Anything outside
// the enumeration becomes DocOther.
func ParseDocumentType(s string) DocumentType {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	t := DocumentType(s)
	if t.Known() {
		return t
	}
	return DocOther
}
