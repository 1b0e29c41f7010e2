package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNoJSON is returned by ExtractJSON when the text holds no JSON object.
var ErrNoJSON = errors.New("no JSON object in model output")

// ExtractJSON returns the first complete JSON object in a model reply,
// dropping code fences and any prose before or after it.
func ExtractJSON(raw string) (string, error) {
	for i := strings.IndexByte(raw, '{'); i >= 0; {
		var v json.RawMessage
		if err := json.NewDecoder(strings.NewReader(raw[i:])).Decode(&v); err == nil {
			return string(v), nil
		}
		next := strings.IndexByte(raw[i+1:], '{')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return "", ErrNoJSON
}

// Fields holds the top-level members of a model's JSON object. Each member is
// read on its own, so a mistyped field does not spoil the others.
type Fields map[string]json.RawMessage

// DecodeFields extracts the first JSON object from raw and splits it into
// fields.
func DecodeFields(raw string) (Fields, error) {
	body, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	var f Fields
	if err := json.Unmarshal([]byte(body), &f); err != nil {
		return nil, fmt.Errorf("decoding fields: %w", err)
	}
	return f, nil
}

func (f Fields) value(key string) (json.RawMessage, bool) {
	v, ok := f[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}

// String returns a string member.
func (f Fields) String(key string) (string, bool) {
	v, ok := f.value(key)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false
	}
	return s, true
}

// Bool returns a boolean member. Quoted booleans such as "false" are accepted.
func (f Fields) Bool(key string) (bool, bool) {
	v, ok := f.value(key)
	if !ok {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b, true
	}
	s, ok := f.String(key)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return false, false
	}
	return b, true
}

// Float returns a finite numeric member. Numeric strings such as "85" are
// accepted.
func (f Fields) Float(key string) (float64, bool) {
	v, ok := f.value(key)
	if !ok {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(v, &n); err != nil {
		s, ok := f.String(key)
		if !ok {
			return 0, false
		}
		n, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// Strings returns the string elements of an array member, skipping any
// element that is not a string.
func (f Fields) Strings(key string) ([]string, bool) {
	v, ok := f.value(key)
	if !ok {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	return out, true
}
