package jsonx

import (
	"strconv"
	"strings"
)

// AsString coerces a decoded JSON value to a trimmed string
func AsString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// AsFloat coerces a decoded JSON value to a float64. Models sometimes quote
// numbers, so numeric strings are accepted too.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsInt coerces a decoded JSON value to an int
func AsInt(v any) (int, bool) {
	f, ok := AsFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// AsSlice coerces a decoded JSON value to a slice of values
func AsSlice(v any) []any {
	s, ok := v.([]any)
	if !ok {
		return nil
	}
	return s
}

// AsObject coerces a decoded JSON value to an object
func AsObject(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m
}
