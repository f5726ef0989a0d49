// Package query looks values up in decoded command output. Keys are passed
// to gojq as path segments, so names containing dots or slashes (Ethernet1/1.100)
// need no escaping.
package query

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/itchyny/gojq"
)

var getpath = mustCompile("getpath($path)", "$path")

func mustCompile(src string, vars ...string) *gojq.Code {
	q, err := gojq.Parse(src)
	if err != nil {
		panic(err)
	}
	code, err := gojq.Compile(q, gojq.WithVariables(vars))
	if err != nil {
		panic(err)
	}
	return code
}

// Lookup returns the value at path. It reports false when any segment is
// missing, the value is null, or the data cannot be traversed.
func Lookup(data any, path ...string) (any, bool) {
	p := make([]any, len(path))
	for i, seg := range path {
		p[i] = seg
	}
	iter := getpath.Run(data, p)
	v, ok := iter.Next()
	if !ok || v == nil {
		return nil, false
	}
	if _, isErr := v.(error); isErr {
		return nil, false
	}
	return v, true
}

// Map returns the JSON object at path.
func Map(data any, path ...string) (map[string]any, bool) {
	v, ok := Lookup(data, path...)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// RequireMap is Map for keys a well-formed response always carries; a
// missing key is an error rather than a finding.
func RequireMap(data any, path ...string) (map[string]any, error) {
	m, ok := Map(data, path...)
	if !ok {
		return nil, fmt.Errorf("response has no object at '%s'", strings.Join(path, "."))
	}
	return m, nil
}

// String returns the string at path.
func String(data any, path ...string) (string, bool) {
	v, ok := Lookup(data, path...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool returns the boolean at path.
func Bool(data any, path ...string) (bool, bool) {
	v, ok := Lookup(data, path...)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Float returns the number at path.
func Float(data any, path ...string) (float64, bool) {
	v, ok := Lookup(data, path...)
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// ToFloat converts any decoded JSON number to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Keys returns the keys of m in sorted order, giving evaluations a stable
// message order.
func Keys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
