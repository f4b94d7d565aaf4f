package runner

import (
	"encoding/json"
	"time"
)

// normalizeParams accepts the two shapes a step's action_params can arrive
// in, a structured map or a raw JSON string, and always yields a map. Empty
// or unparseable input normalizes to an empty map rather than an error.
func normalizeParams(raw any) map[string]any {
	switch v := raw.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		if v == nil {
			return map[string]any{}
		}
		return v
	case string:
		if v == "" {
			return map[string]any{}
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(v), &m); err != nil || m == nil {
			return map[string]any{}
		}
		return m
	default:
		return map[string]any{}
	}
}

func stringParam(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

// timeoutParam reads a millisecond timeout from the param bag. JSON numbers
// decode as float64; integers appear when the map was built in-process.
func timeoutParam(params map[string]any, key string, fallback time.Duration) time.Duration {
	switch v := params[key].(type) {
	case float64:
		if v > 0 {
			return time.Duration(v) * time.Millisecond
		}
	case int:
		if v > 0 {
			return time.Duration(v) * time.Millisecond
		}
	case int64:
		if v > 0 {
			return time.Duration(v) * time.Millisecond
		}
	}
	return fallback
}
