package configloader

import (
	"encoding/json"
	"strings"
	"time"
)

// yamlMap is the shape gopkg.in/yaml.v3 produces for a mapping node
// unmarshaled into `any`.
type yamlMap = map[string]any

func asMap(v any) (yamlMap, bool) {
	m, ok := v.(yamlMap)
	return m, ok
}

func requiredString(data yamlMap, key string) (string, error) {
	raw, ok := data[key]
	if !ok {
		return "", errf("required field `%s` is missing", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", errf("field `%s` could not be converted to string", key)
	}
	return s, nil
}

func optionalString(data yamlMap, key string) (string, bool, error) {
	raw, ok := data[key]
	if !ok || raw == nil {
		return "", false, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", false, errf("field `%s` could not be converted to string", key)
	}
	return s, true, nil
}

func optionalBool(data yamlMap, key string) bool {
	return optionalBoolDefault(data, key, false)
}

func optionalBoolDefault(data yamlMap, key string, def bool) bool {
	raw, ok := data[key]
	if !ok || raw == nil {
		return def
	}
	b, ok := raw.(bool)
	if !ok {
		return def
	}
	return b
}

func optionalStringMap(data yamlMap, key string) map[string]string {
	out := map[string]string{}
	raw, ok := data[key]
	if !ok || raw == nil {
		return out
	}
	m, ok := asMap(raw)
	if !ok {
		return out
	}
	for k, v := range m {
		out[k] = toPlainString(v)
	}
	return out
}

// toPlainString collapses a YAML scalar or nested value to its string
// form the way the original implementation's params/headers maps do:
// whatever scalar is given becomes its string representation.
func toPlainString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func optionalDuration(data yamlMap, key string) (*time.Duration, error) {
	raw, ok := data[key]
	if !ok || raw == nil {
		return nil, nil
	}
	seconds, ok := toInt(raw)
	if !ok {
		return nil, errf("field `%s` could not be converted to an integer number of seconds", key)
	}
	d := time.Duration(seconds) * time.Second
	return &d, nil
}

func toInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case uint64:
		return int64(t), true
	case float64:
		return int64(t), true
	default:
		return 0, false
	}
}

func optionalDateTime(data yamlMap, key string) (*time.Time, error) {
	raw, ok := data[key]
	if !ok || raw == nil {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, errf("field `%s` could not be converted to string", key)
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, errf("field `%s` is not a valid RFC3339 instant: %v", key, err)
	}
	return &t, nil
}

// multilineFilter collapses a YAML block-scalar filter expression the
// way the original implementation does: strip newlines, then collapse
// internal whitespace runs to single spaces.
func multilineFilter(s string) string {
	collapsed := strings.ReplaceAll(s, "\n", "")
	return strings.Join(strings.Fields(collapsed), " ")
}

func stringSlice(v any) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, errf("expected a sequence of strings")
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, errf("expected a sequence of strings")
		}
		out = append(out, s)
	}
	return out, nil
}
