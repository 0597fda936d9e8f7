package step

import "strings"

// Values maps field keys to their formatted value. Each value is either a
// string or, for fields declared Multiple, a []string.
type Values map[string]any

// String returns the value under key as a string. Multi-valued entries are
// joined with a comma.
func (v Values) String(key string) string {
	if v == nil {
		return ""
	}
	switch typed := v[key].(type) {
	case string:
		return typed
	case []string:
		return strings.Join(typed, ",")
	case nil:
		return ""
	default:
		return ""
	}
}

// Strings returns the value under key as a slice.
func (v Values) Strings(key string) []string {
	if v == nil {
		return nil
	}
	switch typed := v[key].(type) {
	case string:
		return []string{typed}
	case []string:
		return append([]string(nil), typed...)
	default:
		return nil
	}
}

// Clone returns a copy safe to mutate independently.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	out := make(Values, len(v))
	for key, value := range v {
		if list, ok := value.([]string); ok {
			out[key] = append([]string(nil), list...)
			continue
		}
		out[key] = value
	}
	return out
}
