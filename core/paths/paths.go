// Package paths resolves dotted and bracketed field paths against nested
// data documents. Resolution is total: absence is reported, never thrown.
package paths

import (
	"strconv"
	"strings"
)

// Tokenize splits a path into segments. Bracket index suffixes are
// flattened during tokenization, so "a[2].b" and "a.2.b" produce the same
// tokens. A malformed bracket keeps the segment literal.
func Tokenize(path string) []string {
	var out []string
	for _, seg := range strings.Split(path, ".") {
		for seg != "" {
			i := strings.IndexByte(seg, '[')
			if i < 0 {
				out = append(out, seg)
				break
			}
			j := strings.IndexByte(seg, ']')
			if j < i {
				out = append(out, seg)
				break
			}
			if i > 0 {
				out = append(out, seg[:i])
			}
			out = append(out, seg[i+1:j])
			seg = seg[j+1:]
		}
	}
	return out
}

// Resolve walks root along path and returns the value found there. The
// second return is false when any intermediate value is nullish, a key is
// absent, or an index is out of range.
func Resolve(root any, path string) (any, bool) {
	current := root
	for _, tok := range Tokenize(path) {
		if current == nil {
			return nil, false
		}
		switch node := current.(type) {
		case map[string]any:
			v, ok := node[tok]
			if !ok {
				return nil, false
			}
			current = v
		case []any:
			idx, err := strconv.Atoi(tok)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// Join appends a segment to a dotted path prefix.
func Join(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}
