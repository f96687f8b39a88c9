package store

import (
	"fmt"
	"reflect"
)

// matchFilters reports whether meta satisfies every filter. A slice filter
// value matches when the metadata value equals any element.
func matchFilters(meta map[string]any, filters map[string]any) bool {
	for key, want := range filters {
		if want == nil {
			continue
		}
		got, ok := meta[key]
		if !ok {
			return false
		}
		if !matchValue(got, want) {
			return false
		}
	}
	return true
}

func matchValue(got, want any) bool {
	rv := reflect.ValueOf(want)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
		for i := 0; i < rv.Len(); i++ {
			if equalValue(got, rv.Index(i).Interface()) {
				return true
			}
		}
		return false
	}
	return equalValue(got, want)
}

// equalValue compares JSON-decoded metadata with Go filter values; all
// numbers compare as float64.
func equalValue(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
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
	}
	return 0, false
}
