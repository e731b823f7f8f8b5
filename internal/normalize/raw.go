package normalize

import (
	"strconv"
	"strings"
)

// RawItem is one accommodation record as decoded from a feed document.
// Every field is optional and may carry an unexpected type.
type RawItem map[string]any

// accessor reads one candidate value from a raw item. An empty string means
// the candidate is absent.
type accessor func(RawItem) string

// field returns an accessor for the string found at path.
func field(path ...string) accessor {
	return func(r RawItem) string {
		return r.str(path...)
	}
}

// firstOf evaluates accessors in order and returns the first non-empty value.
func firstOf(r RawItem, accessors ...accessor) string {
	for _, get := range accessors {
		if v := get(r); v != "" {
			return v
		}
	}
	return ""
}

// joinOf collects every non-empty accessor value separated by spaces.
func joinOf(r RawItem, accessors ...accessor) string {
	parts := make([]string, 0, len(accessors))
	for _, get := range accessors {
		if v := get(r); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func (r RawItem) value(path ...string) (any, bool) {
	var cur any = map[string]any(r)
	for _, key := range path {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// str returns the string at path, or "" when it is missing or not a string.
func (r RawItem) str(path ...string) string {
	v, _ := r.value(path...)
	s, _ := v.(string)
	return s
}

// num returns the number at path. Numeric strings are accepted.
func (r RawItem) num(path ...string) (float64, bool) {
	v, ok := r.value(path...)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// object returns the nested object at path, or nil.
func (r RawItem) object(path ...string) RawItem {
	v, _ := r.value(path...)
	m, _ := asMap(v)
	return m
}

// list returns the array at path, or nil.
func (r RawItem) list(path ...string) []any {
	v, _ := r.value(path...)
	l, _ := v.([]any)
	return l
}

// stringList returns the string elements of the array at path.
func (r RawItem) stringList(path ...string) []string {
	var out []string
	for _, v := range r.list(path...) {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asMap(v any) (RawItem, bool) {
	switch m := v.(type) {
	case RawItem:
		return m, true
	case map[string]any:
		return m, true
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// scalarString renders a string or number as a string.
func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	}
	return ""
}

// Text returns the string at path, or "".
func (r RawItem) Text(path ...string) string {
	return r.str(path...)
}

// Number returns the number at path and whether one was present.
func (r RawItem) Number(path ...string) (float64, bool) {
	return r.num(path...)
}
