package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// State is the record carried through every stage of a single workflow run.
//
// Fields are sparse: a field that was never written reads as absent (ok == false),
// which is distinct from a field explicitly set to its zero value. There is no way
// to delete a field once written; stages and providers may only add or overwrite.
//
// A State is owned by exactly one run and is not safe for concurrent use.
type State struct {
	fields map[string]any
}

// NewState creates an empty record.
func NewState() *State {
	return &State{fields: make(map[string]any)}
}

// NewStateFrom creates a record seeded with the given fields.
func NewStateFrom(fields map[string]any) *State {
	s := NewState()
	for k, v := range fields {
		s.fields[k] = v
	}
	return s
}

// Set writes a field, overwriting any previous value.
func (s *State) Set(key string, value any) {
	if s.fields == nil {
		s.fields = make(map[string]any)
	}
	s.fields[key] = value
}

// Get returns the raw value of a field and whether it is present.
func (s *State) Get(key string) (any, bool) {
	if s == nil || s.fields == nil {
		return nil, false
	}
	v, ok := s.fields[key]
	return v, ok
}

// Has reports whether a field has been written.
func (s *State) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Len returns the number of present fields.
func (s *State) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// Keys returns the present field names in sorted order.
func (s *State) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.fields))
	for k := range s.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns a string field. A present field of another type reads as absent.
func (s *State) String(key string) (string, bool) {
	v, ok := s.Get(key)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// Bool returns a boolean field.
func (s *State) Bool(key string) (bool, bool) {
	v, ok := s.Get(key)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Int returns an integer field. Values decoded from JSON (float64 or json.Number)
// are accepted as long as they hold a whole number.
func (s *State) Int(key string) (int, bool) {
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	return toInt(v)
}

// Map returns a structured sub-record.
func (s *State) Map(key string) (map[string]any, bool) {
	v, ok := s.Get(key)
	if !ok {
		return nil, false
	}
	return toMap(v)
}

// List returns an ordered list field.
func (s *State) List(key string) ([]any, bool) {
	v, ok := s.Get(key)
	if !ok {
		return nil, false
	}
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, item := range l {
			out[i] = item
		}
		return out, true
	}
	return nil, false
}

// Strings returns a list field whose items are all strings.
func (s *State) Strings(key string) ([]string, bool) {
	if v, ok := s.Get(key); ok {
		if l, ok := v.([]string); ok {
			return l, true
		}
	}
	l, ok := s.List(key)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(l))
	for _, item := range l {
		str, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, str)
	}
	return out, true
}

// Lookup resolves a dotted path ("structured_query.intent") through nested sub-records.
func (s *State) Lookup(path string) (any, bool) {
	parts := strings.Split(path, ".")
	cur, ok := s.Get(parts[0])
	for _, part := range parts[1:] {
		if !ok {
			return nil, false
		}
		m, isMap := toMap(cur)
		if !isMap {
			return nil, false
		}
		cur, ok = m[part]
	}
	return cur, ok
}

// Require returns a MissingRequiredFieldError naming every absent key.
func (s *State) Require(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if !s.Has(k) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &MissingRequiredFieldError{Fields: missing}
	}
	return nil
}

// Fields returns a shallow copy of the underlying fields.
func (s *State) Fields() map[string]any {
	out := make(map[string]any, s.Len())
	if s == nil {
		return out
	}
	for k, v := range s.fields {
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy of the record.
func (s *State) Clone() *State {
	return NewStateFrom(s.Fields())
}

// DeepClone returns a copy that shares no nested maps or slices with s.
func (s *State) DeepClone() *State {
	return NewStateFrom(deepCopyFields(s.Fields()))
}

func deepCopyFields(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopy(v)
	}
	return out
}

// deepCopy copies the container types a decoded or provider-built record holds.
// Scalars are returned as is.
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyFields(t)
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, e := range t {
			out[i] = deepCopyFields(e)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON encodes the record as a flat JSON object.
func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Fields())
}

// UnmarshalJSON decodes a flat JSON object, keeping numbers as json.Number
// so integers survive a round trip.
func (s *State) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	fields := make(map[string]any)
	if err := dec.Decode(&fields); err != nil {
		return fmt.Errorf("failed to decode state: %w", err)
	}
	s.fields = fields
	return nil
}

// MarshalYAML encodes the record as a YAML mapping.
func (s *State) MarshalYAML() (any, error) {
	return s.Fields(), nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

func toMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, true
	}
	return nil, false
}
