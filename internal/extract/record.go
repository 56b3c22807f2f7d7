package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is a JSON object that marshals its keys in insertion order. Panel
// payloads and table rows keep the document order of the page they were
// extracted from, which keeps the output files reviewable by humans.
type Record struct {
	keys []string
	vals map[string]any
}

// NewRecord returns an empty ordered record.
func NewRecord() *Record {
	return &Record{vals: make(map[string]any)}
}

// Set stores value under key. Setting an existing key overwrites the value
// in place and keeps the original position.
func (r *Record) Set(key string, value any) {
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = value
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.vals[key]
	return ok
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of keys.
func (r *Record) Len() int {
	return len(r.keys)
}

// Merge copies every key of other into r, overwriting on collision. It
// returns the number of keys that already existed, so callers can surface
// unexpected overwrites.
func (r *Record) Merge(other *Record) int {
	if other == nil {
		return 0
	}
	collisions := 0
	for _, k := range other.keys {
		if r.Has(k) {
			collisions++
		}
		r.Set(k, other.vals[k])
	}
	return collisions
}

// MarshalJSON renders the record as a JSON object in insertion order with
// HTML escaping disabled, so Greek text and URLs stay literal.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeValue(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encodeValue(&buf, r.vals[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode record value: %w", err)
	}
	// Encode appends a newline the object must not contain.
	buf.Truncate(buf.Len() - 1)
	return nil
}
