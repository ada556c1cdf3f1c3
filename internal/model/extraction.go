package model

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
)

// DocumentExtraction is the terminal result for one document: every schema
// field in schema order plus the mean confidence across them.
type DocumentExtraction struct {
	DocType           DocumentType   `json:"doc_type"`
	Fields            []FlaggedField `json:"fields"`
	OverallConfidence float64        `json:"overall_confidence"`
}

// Field returns the named field.
func (d *DocumentExtraction) Field(name FieldName) (FlaggedField, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FlaggedField{}, false
}

// Names returns the field names in schema order.
func (d *DocumentExtraction) Names() []FieldName {
	names := make([]FieldName, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// FlaggedCount returns how many fields are flagged for review.
func (d *DocumentExtraction) FlaggedCount() int {
	var n int
	for _, f := range d.Fields {
		if f.Flag {
			n++
		}
	}
	return n
}

// MarshalJSON writes fields as an object keyed by field name, preserving
// schema order:
//
//	{"doc_type":"invoice","fields":{"date":{"value":"...","confidence":0.9,"flag":false}},"overall_confidence":0.9}
func (d DocumentExtraction) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"doc_type":`)
	dt, err := json.Marshal(d.DocType)
	if err != nil {
		return nil, eris.Wrap(err, "model: marshal doc type")
	}
	buf.Write(dt)

	buf.WriteString(`,"fields":{`)
	for i, f := range d.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(f.Name))
		if err != nil {
			return nil, eris.Wrapf(err, "model: marshal field name %s", f.Name)
		}
		val, err := json.Marshal(f)
		if err != nil {
			return nil, eris.Wrapf(err, "model: marshal field %s", f.Name)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteString(`},"overall_confidence":`)
	oc, err := json.Marshal(d.OverallConfidence)
	if err != nil {
		return nil, eris.Wrap(err, "model: marshal overall confidence")
	}
	buf.Write(oc)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the MarshalJSON form back, restoring field order from
// the object's key order.
func (d *DocumentExtraction) UnmarshalJSON(data []byte) error {
	var raw struct {
		DocType           DocumentType    `json:"doc_type"`
		Fields            json.RawMessage `json:"fields"`
		OverallConfidence float64         `json:"overall_confidence"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "model: unmarshal extraction")
	}
	d.DocType = raw.DocType
	d.OverallConfidence = raw.OverallConfidence
	d.Fields = nil

	if len(raw.Fields) == 0 || string(raw.Fields) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw.Fields))
	if _, err := dec.Token(); err != nil { // opening brace
		return eris.Wrap(err, "model: read fields object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return eris.Wrap(err, "model: read field name")
		}
		name, ok := tok.(string)
		if !ok {
			return eris.Errorf("model: unexpected field key %v", tok)
		}
		var f FlaggedField
		if err := dec.Decode(&f); err != nil {
			return eris.Wrapf(err, "model: decode field %s", name)
		}
		f.Name = FieldName(name)
		d.Fields = append(d.Fields, f)
	}
	return nil
}
