package schema

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/docintel/internal/model"
)

// File is the on-disk override format:
//
//	schemas:
//	  invoice: [invoice_number, date, total_amount]
//	  id card: [name, id_number]
//	questions:
//	  merchant: Who is the merchant?
type File struct {
	Schemas   map[string][]string `yaml:"schemas"`
	Questions map[string]string   `yaml:"questions"`
}

// LoadFile reads a YAML override file and merges it over the built-ins.
// Document type keys go through model.ParseDocumentType; a key naming no
// known type is an error.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "schema: read %s", path)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "schema: parse %s", path)
	}
	r := New()
	if err := r.Merge(f); err != nil {
		return nil, eris.Wrapf(err, "schema: load %s", path)
	}
	return r, nil
}

// Merge applies overrides from f. It rejects the whole file, leaving r
// untouched, when a schema key names no known document type.
func (r *Registry) Merge(f File) error {
	schemas := make(map[model.DocumentType][]model.FieldName, len(f.Schemas))
	var unknown []string
	for key, names := range f.Schemas {
		dt, ok := parseKey(key)
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		fields := make([]model.FieldName, 0, len(names))
		for _, n := range names {
			fields = append(fields, model.FieldName(n))
		}
		schemas[dt] = fields
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return eris.Errorf("schema: unknown document types %s", strings.Join(unknown, ", "))
	}

	for dt, fields := range schemas {
		r.schemas[dt] = fields
	}
	for name, q := range f.Questions {
		r.questions[model.FieldName(name)] = q
	}
	return nil
}

// parseKey maps a schema key to its document type. Only a literal "other"
// may land on the other schema.
func parseKey(key string) (model.DocumentType, bool) {
	dt := model.ParseDocumentType(key)
	if dt == model.DocOther && strings.ToLower(strings.TrimSpace(key)) != string(model.DocOther) {
		return "", false
	}
	return dt, true
}
