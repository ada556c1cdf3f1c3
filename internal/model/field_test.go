package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvedField_WithValue(t *testing.T) {
	t.Parallel()

	orig := ResolvedField{Name: "total_amount", Value: "$1,200", Confidence: 0.7}
	next := orig.WithValue("1200.00")

	assert.Equal(t, "1200.00", next.Value)
	assert.Equal(t, orig.Name, next.Name)
	assert.InDelta(t, 0.7, next.Confidence, 1e-9)
	assert.Equal(t, "$1,200", orig.Value, "receiver must not change")
}

func TestFlaggedField_JSON(t *testing.T) {
	t.Parallel()

	f := FlaggedField{
		ResolvedField: ResolvedField{Name: "vendor", Value: "Acme", Confidence: 0.4},
		Flag:          true,
	}
	b, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"Acme","confidence":0.4,"flag":true}`, string(b))
}

func TestFieldSpec_JSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(FieldSpec{Name: "date", Question: "What is the date?"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"date","question":"What is the date?"}`, string(b))
}
