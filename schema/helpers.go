package schema

import (
	"math"
	"regexp"
	"time"
)

// isoDatePattern matches strings that look like ISO-8601 timestamps.
var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`)

// RehydrateDates walks a decoded JSON tree and converts ISO-looking strings
// into time.Time values. Maps and slices are updated in place.
func RehydrateDates(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, inner := range t {
			t[k] = RehydrateDates(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = RehydrateDates(inner)
		}
		return t
	case string:
		if !isoDatePattern.MatchString(t) {
			return t
		}
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
		return t
	default:
		return v
	}
}

// RatingOf coerces an indicator rating into an int. Non-numeric and NaN
// values count as 0.
func RatingOf(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return int(n)
	default:
		return 0
	}
}
