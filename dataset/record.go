package dataset

import (
	"bytes"
	"encoding/json"
	"strings"
)

const (
	FieldMake  = "make"
	FieldModel = "model"
	FieldYear  = "year"
)

// PriorityFields are always surfaced first when present.
var PriorityFields = []string{FieldMake, FieldModel, FieldYear}

// Schema is the ordered, deduplicated list of field names of a dataset.
type Schema struct {
	fields []string
	index  map[string]int
}

func NewSchema(fields ...string) *Schema {
	s := &Schema{
		fields: []string{},
		index:  map[string]int{},
	}
	for _, f := range fields {
		s.add(CanonicalField(f))
	}
	return s
}

// CanonicalField is the casing every access path uses: trimmed lowercase.
func CanonicalField(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *Schema) add(field string) bool {
	if _, exists := s.index[field]; exists {
		return false
	}
	s.index[field] = len(s.fields)
	s.fields = append(s.fields, field)
	return true
}

func (s *Schema) Fields() []string {
	return append([]string(nil), s.fields...)
}

func (s *Schema) Len() int {
	return len(s.fields)
}

func (s *Schema) Has(field string) bool {
	_, ok := s.index[CanonicalField(field)]
	return ok
}

// Columns returns make, model and year first (when present) followed by the
// remaining fields in header order.
func (s *Schema) Columns() []string {
	columns := []string{}
	seen := map[string]bool{}
	for _, f := range PriorityFields {
		if _, ok := s.index[f]; ok {
			columns = append(columns, f)
			seen[f] = true
		}
	}
	for _, f := range s.fields {
		if !seen[f] {
			columns = append(columns, f)
		}
	}
	return columns
}

// Record is an immutable ordered mapping from field name to value.
type Record struct {
	schema *Schema
	values []Value
}

func NewRecord(schema *Schema, values ...Value) Record {
	v := make([]Value, schema.Len())
	copy(v, values)
	return Record{schema: schema, values: v}
}

func (r Record) Schema() *Schema {
	return r.schema
}

func (r Record) Get(field string) Value {
	if r.schema == nil {
		return NullValue()
	}
	i, ok := r.schema.index[CanonicalField(field)]
	if !ok {
		return NullValue()
	}
	return r.values[i]
}

func (r Record) Fields() []string {
	if r.schema == nil {
		return nil
	}
	return r.schema.Fields()
}

func (r Record) Values() []Value {
	return append([]Value(nil), r.values...)
}

func (r Record) Make() string {
	return r.Get(FieldMake).String()
}

func (r Record) Model() string {
	return r.Get(FieldModel).String()
}

func (r Record) Year() string {
	return r.Get(FieldYear).String()
}

// Map returns the record as float64 / string / nil values keyed by field.
func (r Record) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(r.values))
	if r.schema == nil {
		return m
	}
	for i, f := range r.schema.fields {
		m[f] = r.values[i].Interface()
	}
	return m
}

func (r Record) Equal(o Record) bool {
	a, b := r.Fields(), o.Fields()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] || !r.values[i].Equal(o.values[i]) {
			return false
		}
	}
	return true
}

// MarshalJSON keeps the field order of the schema.
func (r Record) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	if r.schema != nil {
		for i, f := range r.schema.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(f)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			value, err := r.values[i].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(value)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
