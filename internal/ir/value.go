package ir

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// ListDelimiter separates list items packed into a single text value.
const ListDelimiter = ";"

// IsBlank reports whether v carries no data: nil, whitespace-only text, or a
// list whose every element is blank.
func IsBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case json.Number:
		return strings.TrimSpace(val.String()) == ""
	case []any:
		for _, e := range val {
			if !IsBlank(e) {
				return false
			}
		}
		return true
	case []string:
		for _, e := range val {
			if strings.TrimSpace(e) != "" {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Normalize converts decoder-specific values into the small set of Go types
// the engine works with: string, int64, float64, bool, []any and
// map[string]any. Integral numbers become int64.
func Normalize(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case uint64:
		return int64(val)
	case float32:
		return float64(val)
	case []string:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = e
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = Normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = Normalize(e)
		}
		return out
	default:
		return v
	}
}

// Stringify renders a scalar as text. Lists are joined with ListDelimiter.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1e15 {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, e := range val {
			parts = append(parts, Stringify(e))
		}
		return strings.Join(parts, ListDelimiter)
	case []string:
		return strings.Join(val, ListDelimiter)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// SplitList flattens v into trimmed, non-blank text items. Text values are
// split on delim; list values contribute one item per element.
func SplitList(v any, delim string) []string {
	var out []string
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		for _, e := range val {
			out = append(out, SplitList(e, delim)...)
		}
		return out
	case []string:
		for _, e := range val {
			out = append(out, SplitList(e, delim)...)
		}
		return out
	}
	for _, part := range strings.Split(Stringify(v), delim) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseInt parses an integer from text or a number, accepting integral
// floats such as "12.0".
func ParseInt(v any) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	case float64:
		if val != math.Trunc(val) {
			return 0, false
		}
		return int64(val), true
	case json.Number:
		return ParseInt(Normalize(val))
	case string:
		s := strings.TrimSpace(val)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
			return int64(f), true
		}
	}
	return 0, false
}

// ParseNumber parses a float from text or a number.
func ParseNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true
	case int:
		return float64(val), true
	case float64:
		return val, true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	}
	return 0, false
}

// Fold returns the trimmed, case-folded comparison form of s.
func Fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
