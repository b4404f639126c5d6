// SPDX-License-Identifier: MIT

package m8

import (
	"bytes"
	"encoding/json"
	"strings"
)

// StripQuotes removes every literal double quote from s.
func StripQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}

// text coerces a decoded JSON value to a string and strips quotes from it.
// Strings yield their content, numbers and booleans their literal, objects and
// arrays their compact JSON, and null or absent values the empty string.
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return StripQuotes(t)
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(t); err != nil {
			return ""
		}
		return StripQuotes(strings.TrimSpace(buf.String()))
	}
}

// field returns the coerced text of obj[key].
func field(obj map[string]any, key string) string {
	return text(obj[key])
}

// array returns obj[key] as a slice. A missing or null value yields nil with no
// error; any other non-array value is ErrInvalidArray.
func array(obj map[string]any, key string) ([]any, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, &FieldError{Field: key, Err: ErrInvalidArray}
	}
	return arr, nil
}

// object asserts v is a JSON object.
func object(v any, path string) (map[string]any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &FieldError{Field: path, Err: ErrNotObject}
	}
	return obj, nil
}
