// Package docpath reads values out of decoded JSON documents by dotted path
// and merges decoded mappings.
//
// Documents are the values produced by encoding/json (or yaml.v3) decoding into
// an empty interface: map[string]any, []any, string, json.Number, float64,
// bool and nil.
package docpath

import (
	"strconv"
	"strings"
)

// Split breaks a dotted path into its segments. Bracketed indexes are
// accepted as an alternative spelling, so "comments[0].body" and
// "comments.0.body" are equivalent. An empty path has no segments.
func Split(path string) []string {
	if path == "" {
		return nil
	}

	var segments []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			segments = append(segments, current.String())
			current.Reset()
		}
	}

	for _, r := range path {
		switch r {
		case '.', '[', ']':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return segments
}

// Lookup resolves path against doc. The boolean is false when any segment is
// absent, which is distinct from a present JSON null (nil, true).
func Lookup(doc any, path string) (any, bool) {
	segments := Split(path)
	if len(segments) == 0 {
		return nil, false
	}

	current := doc
	for _, segment := range segments {
		next, ok := step(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}

	return current, true
}

// step descends one segment into a mapping by key or a sequence by index.
func step(node any, segment string) (any, bool) {
	switch n := node.(type) {
	case map[string]any:
		v, ok := n[segment]
		return v, ok
	case []any:
		idx, err := strconv.Atoi(segment)
		if err != nil || idx < 0 || idx >= len(n) {
			return nil, false
		}
		return n[idx], true
	default:
		return nil, false
	}
}
