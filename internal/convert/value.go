package convert

import (
	"encoding/json"
	"strconv"
	"strings"
)

// candidateKeys is the ordered precedence list for extracting the numeric
// value out of a payload map. Upstream query results disagree on the field
// name, so the whole list is tried in order.
var candidateKeys = []string{"state", "value", "balance", "amount", "total"}

// ToFloat coerces any JSON-decoded value into a float64. It is total: maps
// are probed through the candidate-key table, lists are summed item by item,
// currency-formatted strings are cleaned up, and anything unparsable
// degrades to 0.
func ToFloat(v any) float64 {
	f, _ := toFloat(v)
	return f
}

// ToFloatOK is ToFloat with an explicit success flag, for call sites that
// need to distinguish "missing" from a genuine zero.
func ToFloatOK(v any) (float64, bool) {
	return toFloat(v)
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		return parseAmount(val)
	case map[string]any:
		for _, key := range candidateKeys {
			if inner, ok := val[key]; ok {
				if f, ok := toFloat(inner); ok {
					return f, true
				}
			}
		}
		return 0, false
	case []any:
		var total float64
		found := false
		for _, item := range val {
			if f, ok := toFloat(item); ok {
				total += f
				found = true
			}
		}
		return total, found
	default:
		return 0, false
	}
}

// parseAmount parses a currency-formatted string: "$1,234.56" -> 1234.56,
// "(500)" -> -500 (accounting-style negative).
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		f = -f
	}
	return f, true
}

// Nested walks a chain of map keys and returns the value at the end, or nil
// if any hop is missing.
func Nested(m map[string]any, keys ...string) any {
	var cur any = m
	for _, key := range keys {
		inner, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = inner[key]
		if !ok {
			return nil
		}
	}
	return cur
}

// NestedFloat is Nested followed by ToFloatOK.
func NestedFloat(m map[string]any, keys ...string) (float64, bool) {
	return toFloat(Nested(m, keys...))
}

// String extracts a string field, returning the fallback when missing or
// non-string.
func String(m map[string]any, key, fallback string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return fallback
}

// FirstString probes keys in order and returns the first non-empty string.
func FirstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
