package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// hasType reports whether v decodes as the JSON schema type t. Arguments
// arrive from JSON, so numbers are usually float64; integral floats count
// as integers.
func hasType(v any, t string) bool {
	switch t {
	case "", "any":
		return true
	case "string":
		_, ok := v.(string)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "number":
		_, ok := toFloat(v)
		return ok
	case "integer":
		f, ok := toFloat(v)
		return ok && f == math.Trunc(f)
	case "array":
		switch v.(type) {
		case []any, []string, []int, []float64:
			return true
		}
		return false
	case "object":
		_, ok := v.(map[string]any)
		return ok
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// StringArg returns a trimmed string argument, or "" when absent.
func StringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

// FloatArg returns a numeric argument. ok is false when the key is absent.
func FloatArg(args map[string]any, key string) (value float64, ok bool, err error) {
	v, present := args[key]
	if !present || v == nil {
		return 0, false, nil
	}
	f, isNum := toFloat(v)
	if !isNum {
		return 0, false, fmt.Errorf("%w: %s must be a number", ErrInvalidArgType, key)
	}
	return f, true, nil
}

// IntArg returns an integer argument, or fallback when absent.
func IntArg(args map[string]any, key string, fallback int) (int, error) {
	f, ok, err := FloatArg(args, key)
	if err != nil || !ok {
		return fallback, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidArgType, key)
	}
	return int(f), nil
}

// IntListArg accepts either a single integer or an array of integers.
func IntListArg(args map[string]any, key string) ([]int, error) {
	v, present := args[key]
	if !present || v == nil {
		return nil, nil
	}
	var items []any
	switch x := v.(type) {
	case []any:
		items = x
	case []int:
		return append([]int(nil), x...), nil
	default:
		items = []any{x}
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		f, ok := toFloat(item)
		if !ok || f != math.Trunc(f) {
			return nil, fmt.Errorf("%w: %s must contain integers", ErrInvalidArgType, key)
		}
		out = append(out, int(f))
	}
	return out, nil
}
