// Package config holds the value conversions shared by the configuration
// store adapters.
package config

// Values is a flat set of dot-keyed settings ("pipeline.top_k") in the shapes
// the TOML decoder produces: int64 integers, float64 floats and []any arrays.
type Values map[string]any

// Normalize converts a Go value to the shape it would have after a round
// trip through the TOML file, so stores agree on what Get returns.
func Normalize(value any) any {
	switch v := value.(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float32:
		return float64(v)
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	default:
		return value
	}
}

// String returns the string at key, or "" if absent or not a string.
func (v Values) String(key string) string {
	s, _ := v[key].(string)
	return s
}

// Int returns the integer at key. Whole floats are accepted.
func (v Values) Int(key string) int {
	switch n := v[key].(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	}
	return 0
}

// Float returns the number at key as a float64.
func (v Values) Float(key string) float64 {
	switch n := v[key].(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

// Bool returns the boolean at key, or false.
func (v Values) Bool(key string) bool {
	b, _ := v[key].(bool)
	return b
}

// StringSlice returns the strings in the array at key. Non-string items are
// skipped; a missing or scalar value yields nil.
func (v Values) StringSlice(key string) []string {
	switch list := v[key].(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Clone returns a shallow copy.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
