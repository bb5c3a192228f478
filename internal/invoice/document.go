package invoice

import (
	"bytes"
	"encoding/json"
)

// Object is a JSON object that remembers insertion order. Normalized
// documents must serialize with keys in schema-declared order, which
// map[string]any cannot do (encoding/json sorts map keys).
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject creates an empty ordered object
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Set stores a value under key, appending the key on first insertion
func (o *Object) Set(key string, value any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value for key and whether it is present
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the keys in insertion order. The returned slice is shared;
// callers must not modify it.
func (o *Object) Keys() []string {
	return o.keys
}

// Len returns the number of keys
func (o *Object) Len() int {
	return len(o.keys)
}

// MarshalJSON writes the object with keys in insertion order
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(o.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// asMapping views a value as a string-keyed mapping. It accepts both raw
// decoded JSON objects and already-normalized Objects, so Reconcile can
// consume its own output.
func asMapping(value any) (func(string) (any, bool), bool) {
	switch m := value.(type) {
	case map[string]any:
		return func(key string) (any, bool) {
			v, ok := m[key]
			return v, ok
		}, true
	case *Object:
		if m == nil {
			return nil, false
		}
		return m.Get, true
	default:
		return nil, false
	}
}

// asSequence views a value as a JSON array
func asSequence(value any) ([]any, bool) {
	s, ok := value.([]any)
	return s, ok
}
