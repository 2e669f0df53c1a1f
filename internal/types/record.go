package types

import (
	"bytes"
	"encoding/json"
)

// =============================================================================
// RECORD
// =============================================================================

// Field is one key/value pair of a Record.
type Field struct {
	Key   string
	Value interface{}
}

// Record is an insertion-ordered mapping from column name to value.
//
// Go maps do not keep key order, and both outputs of this tool (CSV rows and
// GeoJSON properties) must keep the column order of their source. Setting a
// key that already exists replaces the value but keeps the original position.
type Record struct {
	fields []Field
	index  map[string]int
}

// NewRecord creates an empty record with room for n fields.
func NewRecord(n int) *Record {
	return &Record{
		fields: make([]Field, 0, n),
		index:  make(map[string]int, n),
	}
}

// Set stores value under key.
func (r *Record) Set(key string, value interface{}) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[key]; ok {
		r.fields[i].Value = value
		return
	}
	r.index[key] = len(r.fields)
	r.fields = append(r.fields, Field{Key: key, Value: value})
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (interface{}, bool) {
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.fields[i].Value, true
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.index[key]
	return ok
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Key
	}
	return keys
}

// Fields returns a copy of the key/value pairs in insertion order.
func (r *Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Len returns the number of keys.
func (r *Record) Len() int {
	return len(r.fields)
}

// MarshalJSON writes the record as a JSON object in insertion order.
// HTML characters are left unescaped so values round-trip as written.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := MarshalNoEscape(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		value, err := MarshalNoEscape(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalNoEscape is json.Marshal without HTML escaping. U+2028 and U+2029,
// which encoding/json always escapes, are written as-is too.
func MarshalNoEscape(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return unescapeLineSeparators(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// unescapeLineSeparators replaces the \u2028 and \u2029 escapes in encoded
// JSON with the raw characters. Escapes are consumed in pairs so an escaped
// backslash followed by "u2028" is left alone.
func unescapeLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}

	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 == len(b) {
			out = append(out, b[i])
			continue
		}
		switch rest := b[i:]; {
		case bytes.HasPrefix(rest, []byte(`\u2028`)):
			out = append(out, "\u2028"...)
			i += len(`\u2028`) - 1
		case bytes.HasPrefix(rest, []byte(`\u2029`)):
			out = append(out, "\u2029"...)
			i += len(`\u2029`) - 1
		default:
			out = append(out, b[i], b[i+1])
			i++
		}
	}
	return out
}
