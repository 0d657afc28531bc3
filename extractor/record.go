package extractor

import (
	"bytes"
	"encoding/json"
)

// Value is one typed field value.
type Value struct {
	Kind   Kind
	Text   string
	Number float64

	// Defaulted marks a numeric field that fell back to 0 because the
	// source was missing or not a number.
	Defaulted bool
}

// Interface returns the JSON-facing value.
func (v Value) Interface() any {
	if v.Kind == KindNumber {
		return v.Number
	}
	return v.Text
}

type entry struct {
	field Field
	value Value
}

// Record is the extraction result for one document. Every field declared by
// the category schema is present.
type Record struct {
	Category string
	entries  []entry
}

func newRecord(s *Schema) *Record {
	return &Record{
		Category: s.Category,
		entries:  make([]entry, 0, len(s.Fields)),
	}
}

func (r *Record) set(f Field, v Value) {
	r.entries = append(r.entries, entry{field: f, value: v})
}

// Get returns the value at path ("gstin", "period.from").
func (r *Record) Get(path string) (Value, bool) {
	for _, e := range r.entries {
		if e.field.Path() == path {
			return e.value, true
		}
	}
	return Value{}, false
}

// String returns the text value at path.
func (r *Record) String(path string) string {
	v, _ := r.Get(path)
	return v.Text
}

// Number returns the numeric value at path.
func (r *Record) Number(path string) float64 {
	v, _ := r.Get(path)
	return v.Number
}

// Paths returns the field paths in schema order.
func (r *Record) Paths() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.field.Path()
	}
	return out
}

// Defaulted returns the paths of numeric fields that fell back to 0.
func (r *Record) Defaulted() []string {
	var out []string
	for _, e := range r.entries {
		if e.value.Defaulted {
			out = append(out, e.field.Path())
		}
	}
	return out
}

// Map returns the record as nested maps, with groups as sub-maps.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, len(r.entries))
	for _, e := range r.entries {
		if e.field.Group == "" {
			out[e.field.Name] = e.value.Interface()
			continue
		}
		sub, ok := out[e.field.Group].(map[string]any)
		if !ok {
			sub = make(map[string]any)
			out[e.field.Group] = sub
		}
		sub[e.field.Name] = e.value.Interface()
	}
	return out
}

// MarshalJSON writes the fields in schema order, grouped fields nested at
// the position of the first member of their group.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	written := make(map[string]bool)
	first := true
	for i, e := range r.entries {
		key := e.field.Name
		if e.field.Group != "" {
			key = e.field.Group
			if written[key] {
				continue
			}
		}
		written[key] = true

		if !first {
			buf.WriteByte(',')
		}
		first = false

		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')

		if e.field.Group == "" {
			v, err := json.Marshal(e.value.Interface())
			if err != nil {
				return nil, err
			}
			buf.Write(v)
			continue
		}

		if err := r.writeGroup(&buf, e.field.Group, i); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Record) writeGroup(buf *bytes.Buffer, group string, from int) error {
	buf.WriteByte('{')
	first := true
	for _, e := range r.entries[from:] {
		if e.field.Group != group {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false

		k, err := json.Marshal(e.field.Name)
		if err != nil {
			return err
		}
		v, err := json.Marshal(e.value.Interface())
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return nil
}
