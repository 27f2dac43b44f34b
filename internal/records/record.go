// Package records decodes webhook payloads into ordered records, groups them by
// record type and renders them as CSV.
package records

import (
	"fmt"

	"github.com/dataops-lab/pipeline-lambdas/internal/errors"
	"github.com/valyala/fastjson"
)

// Field is a single key/value pair of a Record
type Field struct {
	Key   string
	Value string
}

// Record is a flat, ordered mapping of string keys to string values.
// Key order is the order in which keys first appeared in the source document.
type Record struct {
	fields []Field
}

// FromPairs builds a Record from alternating key, value arguments.
// A trailing key without a value is given an empty value.
func FromPairs(kv ...string) Record {
	var r Record
	for i := 0; i < len(kv); i += 2 {
		value := ""
		if i+1 < len(kv) {
			value = kv[i+1]
		}
		r.Set(kv[i], value)
	}
	return r
}

// Set assigns value to key. An existing key keeps its position.
func (r *Record) Set(key, value string) {
	for i := range r.fields {
		if r.fields[i].Key == key {
			r.fields[i].Value = value
			return
		}
	}
	r.fields = append(r.fields, Field{Key: key, Value: value})
}

// Get returns the value stored under key
func (r Record) Get(key string) (string, bool) {
	for _, f := range r.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Keys returns the record keys in order
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r.fields))
	for _, f := range r.fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// Values returns the record values in key order
func (r Record) Values() []string {
	values := make([]string, 0, len(r.fields))
	for _, f := range r.fields {
		values = append(values, f.Value)
	}
	return values
}

// Fields returns a copy of the ordered fields
func (r Record) Fields() []Field {
	return append([]Field(nil), r.fields...)
}

// Len returns the number of keys
func (r Record) Len() int {
	return len(r.fields)
}

// Decode parses a message body holding a JSON object into a Record.
//
// String values are stored unquoted, numbers verbatim, booleans as true/false and
// null as an empty string. Nested arrays and objects are stored as compact JSON.
func Decode(body string) (Record, error) {
	var p fastjson.Parser
	v, err := p.Parse(body)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", errors.ErrInvalidMessageBody, err)
	}

	obj, err := v.Object()
	if err != nil {
		return Record{}, fmt.Errorf("%w: got %s", errors.ErrInvalidMessageBody, v.Type())
	}

	var r Record
	obj.Visit(func(key []byte, value *fastjson.Value) {
		r.Set(string(key), text(value))
	})
	return r, nil
}

func text(v *fastjson.Value) string {
	switch v.Type() {
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		return string(b)
	case fastjson.TypeNull:
		return ""
	case fastjson.TypeTrue:
		return "true"
	case fastjson.TypeFalse:
		return "false"
	default:
		return v.String()
	}
}
