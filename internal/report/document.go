package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Top-level sections of a vehicle state document.
const (
	sectionState      = "state"
	sectionAttributes = "attributes"
)

// Document is a raw vehicle state document as received from the backend.
type Document map[string]any

// Record is one open keyed record inside a Document. Readers pick the keys
// they know and ignore the rest.
type Record map[string]any

// DecodeDocument decodes a JSON payload. Numbers are kept as json.Number so
// that their literal text survives for formatting.
func DecodeDocument(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode vehicle document: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// State returns the "state" section, or nil if the document has none.
func (d Document) State() (Record, error) {
	r, _, err := Record(d).record(sectionState)
	return r, err
}

// Attributes returns the "attributes" section, or nil if the document has none.
func (d Document) Attributes() (Record, error) {
	r, _, err := Record(d).record(sectionAttributes)
	return r, err
}

func (r Record) lookup(key string) (any, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (r Record) requiredString(key string) (string, error) {
	v, ok := r.lookup(key)
	if !ok {
		return "", &MissingFieldError{Field: key}
	}
	s, ok := v.(string)
	if !ok {
		return "", &InvalidFieldError{Field: key, Expect: "string", Value: v}
	}
	return s, nil
}

func (r Record) optionalString(key string) (*string, error) {
	v, ok := r.lookup(key)
	if !ok {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, &InvalidFieldError{Field: key, Expect: "string", Value: v}
	}
	return &s, nil
}

func (r Record) requiredInt(key string) (int64, error) {
	v, ok := r.lookup(key)
	if !ok {
		return 0, &MissingFieldError{Field: key}
	}
	n, ok := toInt(v)
	if !ok {
		return 0, &InvalidFieldError{Field: key, Expect: "integer", Value: v}
	}
	return n, nil
}

func (r Record) optionalInt(key string) (*int64, error) {
	v, ok := r.lookup(key)
	if !ok {
		return nil, nil
	}
	n, ok := toInt(v)
	if !ok {
		return nil, &InvalidFieldError{Field: key, Expect: "integer", Value: v}
	}
	return &n, nil
}

// requiredText renders a string or number value as text.
func (r Record) requiredText(key string) (string, error) {
	v, ok := r.lookup(key)
	if !ok {
		return "", &MissingFieldError{Field: key}
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	}
	if n, ok := toInt(v); ok {
		return strconv.FormatInt(n, 10), nil
	}
	return "", &InvalidFieldError{Field: key, Expect: "string or number", Value: v}
}

// record returns a nested record. ok is false when the key is absent or null.
func (r Record) record(key string) (Record, bool, error) {
	v, ok := r.lookup(key)
	if !ok {
		return nil, false, nil
	}
	switch m := v.(type) {
	case map[string]any:
		return Record(m), true, nil
	case Record:
		return m, true, nil
	}
	return nil, false, &InvalidFieldError{Field: key, Expect: "object", Value: v}
}

func (r Record) requiredRecord(key string) (Record, error) {
	rec, ok, err := r.record(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &MissingFieldError{Field: key}
	}
	return rec, nil
}

// records returns a list of nested records, or nil when the key is absent.
func (r Record) records(key string) ([]Record, error) {
	v, ok := r.lookup(key)
	if !ok {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, &InvalidFieldError{Field: key, Expect: "array", Value: v}
	}

	out := make([]Record, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, &InvalidFieldError{Field: fmt.Sprintf("%s[%d]", key, i), Expect: "object", Value: item}
		}
		out = append(out, Record(m))
	}
	return out, nil
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}
