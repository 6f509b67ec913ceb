package jsonkey

import (
	"strings"
	"unicode"

	"inventory-connector/core/utils"
)

// Resolve looks up key in obj, trying the exact key first (assumed
// camelCase), then its PascalCase form, then a case-insensitive scan over
// all keys. The second return value reports whether any variant matched.
// A present key with a nil value still counts as a match.
func Resolve(obj map[string]any, key string) (any, bool) {
	if obj == nil || key == "" {
		return nil, false
	}
	if v, ok := obj[key]; ok {
		return v, true
	}
	if v, ok := obj[pascal(key)]; ok {
		return v, true
	}
	for k, v := range obj {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// pascal upper-cases the first rune of s.
func pascal(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// String resolves key and coerces the value to a string, returning def when
// the key is absent or the value is nil.
func String(obj map[string]any, key, def string) string {
	v, ok := Resolve(obj, key)
	if !ok || v == nil {
		return def
	}
	return utils.ToString(v)
}

// Float resolves key and coerces the value to a float64.
func Float(obj map[string]any, key string, def float64) float64 {
	v, ok := Resolve(obj, key)
	if !ok || v == nil {
		return def
	}
	return utils.ToFloat(v)
}

// Int resolves key and coerces the value to an int.
func Int(obj map[string]any, key string, def int) int {
	v, ok := Resolve(obj, key)
	if !ok || v == nil {
		return def
	}
	return utils.ToInt(v)
}

// Bool resolves key and coerces the value to a bool.
func Bool(obj map[string]any, key string, def bool) bool {
	v, ok := Resolve(obj, key)
	if !ok || v == nil {
		return def
	}
	return utils.ToBool(v)
}

// Map resolves key and returns the value as a JSON object, or nil when the
// key is absent or holds something else.
func Map(obj map[string]any, key string) map[string]any {
	v, ok := Resolve(obj, key)
	if !ok {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}

// Slice resolves key and returns the value as a JSON array, or nil when the
// key is absent or holds something else.
func Slice(obj map[string]any, key string) []any {
	v, ok := Resolve(obj, key)
	if !ok {
		return nil
	}
	s, _ := v.([]any)
	return s
}
