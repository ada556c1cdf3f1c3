package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docintel/internal/model"
)

func names(specs []model.FieldSpec) []model.FieldName {
	out := make([]model.FieldName, len(specs))
	for i, s := range specs {
		out[i] = s.Name
	}
	return out
}

func TestSchemaFor_Invoice(t *testing.T) {
	t.Parallel()

	specs := New().SchemaFor(model.DocInvoice)
	assert.Equal(t, []model.FieldName{"invoice_number", "date", "total_amount", "currency", "vendor"}, names(specs))
	assert.Equal(t, "What is the invoice number?", specs[0].Question)
	assert.Equal(t, "Who is the vendor?", specs[4].Question)
}

func TestSchemaFor_UnknownFallsBackToOther(t *testing.T) {
	t.Parallel()

	r := New()
	specs := r.SchemaFor(model.ParseDocumentType("invoice_weird"))
	require.Len(t, specs, 1)
	assert.Equal(t, model.FieldName("raw_text"), specs[0].Name)

	specs = r.SchemaFor(model.DocumentType("not-a-type"))
	assert.Equal(t, []model.FieldName{"raw_text"}, names(specs))
}

func TestSchemaFor_ReturnsCopy(t *testing.T) {
	t.Parallel()

	r := New()
	specs := r.SchemaFor(model.DocResume)
	specs[0].Name = "mutated"
	assert.Equal(t, model.FieldName("name"), r.SchemaFor(model.DocResume)[0].Name)
}

func TestQuestionFor(t *testing.T) {
	t.Parallel()

	r := New()
	assert.Equal(t, "What is the email address?", r.QuestionFor("email"))
	assert.Equal(t, "List the skills.", r.QuestionFor("skills"))
	assert.Equal(t, "What is the po_number?", r.QuestionFor("po_number"))
}

func TestSpecs_DropsDuplicatesAndEmpty(t *testing.T) {
	t.Parallel()

	specs := New().Specs([]model.FieldName{"email", "", "tax_id", "email"})
	assert.Equal(t, []model.FieldName{"email", "tax_id"}, names(specs))
	assert.Equal(t, "What is the tax_id?", specs[1].Question)
}

func TestDocumentTypes_AllBuiltins(t *testing.T) {
	t.Parallel()
	assert.Equal(t, model.AllDocumentTypes(), New().DocumentTypes())
}

func TestLoadFile_MergesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schemas.yaml")
	content := `
schemas:
  invoice: [invoice_number, total_amount]
  id card: [name, id_number]
  other: [merchant, total]
questions:
  merchant: Who is the merchant?
  date: On what date was this issued?
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	r, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, []model.FieldName{"invoice_number", "total_amount"}, names(r.SchemaFor(model.DocInvoice)))
	assert.Equal(t, []model.FieldName{"name", "id_number"}, names(r.SchemaFor(model.DocIDCard)))
	assert.Equal(t, []model.FieldName{"merchant", "total"}, names(r.SchemaFor(model.DocOther)))
	assert.Equal(t, "Who is the merchant?", r.QuestionFor("merchant"))
	assert.Equal(t, "On what date was this issued?", r.QuestionFor("date"))
	// Untouched built-ins survive.
	assert.Equal(t, []model.FieldName{"bill_number", "date", "amount", "provider"}, names(r.SchemaFor(model.DocBill)))
}

func TestLoadFile_UnknownDocumentTypeRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemas.yaml")
	content := "schemas:\n  receipt: [merchant, total]\n  other: [body]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown document types receipt")
}

func TestMerge_UnknownKeyLeavesRegistryUntouched(t *testing.T) {
	t.Parallel()

	for i := 0; i < 50; i++ {
		r := New()
		err := r.Merge(File{
			Schemas: map[string][]string{
				"receipt":  {"merchant", "total"},
				"other":    {"body"},
				"invoice":  {"invoice_number"},
				"pay_stub": {"employer"},
			},
			Questions: map[string]string{"merchant": "Who is the merchant?"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pay_stub, receipt")

		assert.Equal(t, []model.FieldName{"raw_text"}, names(r.SchemaFor("invoice_weird")))
		assert.Equal(t, []model.FieldName{"invoice_number", "date", "total_amount", "currency", "vendor"},
			names(r.SchemaFor(model.DocInvoice)))
		assert.Equal(t, "What is the merchant?", r.QuestionFor("merchant"))
	}
}

func TestMerge_OtherKeyAccepted(t *testing.T) {
	t.Parallel()

	r := New()
	require.NoError(t, r.Merge(File{Schemas: map[string][]string{" Other ": {"body"}}}))
	assert.Equal(t, []model.FieldName{"body"}, names(r.SchemaFor("anything")))
}

func TestLoadFile_EmptySchemaAllowed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schemas.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schemas:\n  letter: []\n"), 0o600))

	r, err := LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, r.SchemaFor(model.DocLetter))
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema: read")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schemas: [not, a, map"), 0o600))
	_, err = LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema: parse")
}
