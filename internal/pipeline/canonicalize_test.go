package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/docintel/internal/model"
)

func TestCanonicalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field model.FieldName
		in    string
		want  string
	}{
		{"empty", "email", "", ""},
		{"email lowercases", "email", "John@Example.COM", "john@example.com"},
		{"email beats date", "email", "2025-01-01@X.COM", "2025-01-01@x.com"},
		{"phone digits", "phone", "+1 (555) 123-4567", "+15551234567"},
		{"phone dots", "phone", "555.123.4567", "5551234567"},
		{"phone inner plus dropped", "phone", "555+123", "555123"},
		{"phone no digits", "phone", "N/A", ""},
		{"amount grouped", "total_amount", "Total: $ 1,234.50", "1234.50"},
		{"amount truncates decimals", "amount", "123.456", "123.45"},
		{"amount plain", "amount", "42", "42"},
		{"amount case-insensitive class", "Grand_Total", "USD 9,999", "9999"},
		{"amount without digits falls through", "amount", "n/a", "n/a"},
		{"iso date", "date", "Issued 2025-08-14 at noon", "2025-08-14"},
		{"dmy date", "dob", "born 14/08/1990", "14/08/1990"},
		{"dmy dashes", "start_date", "01-02-2024", "01-02-2024"},
		{"iso preferred", "date", "14/08/1990 and 2025-08-14", "2025-08-14"},
		{"no rule", "vendor", "ACME Corp", "ACME Corp"},
		{"whitespace kept", "vendor", " ACME ", " ACME "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Canonicalize(tt.field, tt.in))
		})
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	t.Parallel()

	fields := []model.FieldName{"email", "phone", "total_amount", "amount", "date", "dob", "vendor", "raw_text"}
	values := []string{
		"",
		"John@Example.COM",
		"+1 (555) 123-4567",
		"Total: $ 1,234.567",
		"1,2,3",
		"Issued 2025-08-14",
		"14/08/1990",
		"ACME Corp",
		"N/A",
		"++44 20 7946",
		"Due 12-31-2024, pay 1,000.00",
	}
	for _, f := range fields {
		for _, v := range values {
			once := Canonicalize(f, v)
			assert.Equal(t, once, Canonicalize(f, once), "field %s value %q", f, v)
		}
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	in := []model.ResolvedField{
		{Name: "date", Value: "Date: 2025-08-14", Confidence: 0.9},
		{Name: "total_amount", Value: "Total: $123.45", Confidence: 0.8},
		{Name: "email", Value: "email: John@Example.com", Confidence: 0.5},
		{Name: "phone", Value: "(555) 123-4567", Confidence: 0.4},
		{Name: "phone_alt", Value: "N/A", Confidence: 0.1},
		{Name: "vendor", Value: "ACME", Confidence: 0.7},
		{Name: "due", Value: "", Confidence: 0},
	}
	got := Validate(in)

	want := []model.ResolvedField{
		{Name: "date", Value: "2025-08-14", Confidence: 0.9},
		{Name: "total_amount", Value: "123.45", Confidence: 0.8},
		{Name: "email", Value: "john@example.com", Confidence: 0.5},
		{Name: "phone", Value: "5551234567", Confidence: 0.4},
		{Name: "phone_alt", Value: "N/A", Confidence: 0.1},
		{Name: "vendor", Value: "ACME", Confidence: 0.7},
		{Name: "due", Value: "", Confidence: 0},
	}
	assert.Equal(t, want, got)
	// Input is not modified.
	assert.Equal(t, "Date: 2025-08-14", in[0].Value)
}

func TestValidate_DateFirstThenClass(t *testing.T) {
	t.Parallel()

	got := Validate([]model.ResolvedField{
		// Amount overrides the date a value also contains.
		{Name: "amount", Value: "paid 1,500.00 on 2025-01-02"},
		// No class: the date wins.
		{Name: "note", Value: "see 02/01/2025 memo"},
		// Email without a match keeps the date.
		{Name: "email", Value: "sent 2025-01-02"},
	})
	assert.Equal(t, "1500.00", got[0].Value)
	assert.Equal(t, "02/01/2025", got[1].Value)
	assert.Equal(t, "2025-01-02", got[2].Value)
}

func TestValidate_CanonicalValuesAreStable(t *testing.T) {
	t.Parallel()

	fields := []model.FieldName{"email", "phone", "total_amount", "date", "vendor"}
	values := []string{"John@Example.COM", "+1 (555) 123-4567", "Total: 1,234.50", "2025-08-14", "ACME"}
	for _, f := range fields {
		for _, v := range values {
			c := Canonicalize(f, v)
			if c == "" {
				continue
			}
			got := Validate([]model.ResolvedField{{Name: f, Value: c}})
			assert.Equal(t, c, got[0].Value, "field %s value %q", f, v)
		}
	}
}

func TestValidate_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Validate(nil))
}
