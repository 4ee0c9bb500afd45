package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Values are kept as JSON trees: map[string]any, []any, string, float64, bool.

// splitPath turns "a/b/c" into its segments. The empty path is the root.
func splitPath(path string) ([]string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, nil
	}
	segs := strings.Split(path, "/")
	for _, s := range segs {
		if s == "" || strings.ContainsAny(s, ".#$[]") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return segs, nil
}

// joinPath appends a relative path to a base path
func joinPath(base, rel string) string {
	base = strings.Trim(base, "/")
	rel = strings.Trim(rel, "/")
	switch {
	case base == "":
		return rel
	case rel == "":
		return base
	default:
		return base + "/" + rel
	}
}

// normalize converts any JSON-encodable value into a JSON tree.
// Empty objects normalize to nil, matching a store that never keeps them.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %v", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to decode value: %v", err)
	}
	return prune(out), nil
}

// prune drops empty objects recursively
func prune(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	for k, child := range m {
		if c := prune(child); c == nil {
			delete(m, k)
		} else {
			m[k] = c
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// getNode returns the value below root at segs
func getNode(root any, segs []string) (any, bool) {
	node := root
	for _, s := range segs {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[s]
		if !ok {
			return nil, false
		}
	}
	return node, node != nil
}

// setNode stores value below root at segs and returns the new root.
// A nil value deletes the node and prunes parents left empty.
func setNode(root any, segs []string, value any) any {
	if len(segs) == 0 {
		return value
	}
	m, ok := root.(map[string]any)
	if !ok {
		if value == nil {
			return root
		}
		m = make(map[string]any)
	}
	child := setNode(m[segs[0]], segs[1:], value)
	if child == nil {
		delete(m, segs[0])
	} else {
		m[segs[0]] = child
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// applyPatch applies patch at base below root. Every entry is validated
// before the tree is touched, and entries are applied in key order so a
// patch always yields the same tree.
func applyPatch(root any, base []string, patch Patch) (any, error) {
	type entry struct {
		segs  []string
		value any
	}

	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]entry, 0, len(keys))
	for _, k := range keys {
		rel, err := splitPath(k)
		if err != nil {
			return nil, err
		}
		value, err := normalize(patch[k])
		if err != nil {
			return nil, err
		}
		segs := append(append([]string{}, base...), rel...)
		entries = append(entries, entry{segs: segs, value: value})
	}

	for _, e := range entries {
		root = setNode(root, e.segs, e.value)
	}
	return root, nil
}

// decodeTree parses JSON into a tree
func decodeTree(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode value: %v", err)
	}
	return prune(out), nil
}

// encode returns the JSON encoding of a tree node, or nil when absent
func encode(node any, ok bool) ([]byte, error) {
	if !ok {
		return nil, nil
	}
	return json.Marshal(node)
}

// overlaps reports whether one path is a prefix of the other
func overlaps(a, b []string) bool {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
