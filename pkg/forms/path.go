package forms

import (
	"strconv"
	"strings"
)

// SplitPath breaks a dotted path into segments. Empty segments are dropped so
// "a..b" and ".a.b" address the same control as "a.b".
func SplitPath(path string) []string {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	raw := strings.Split(path, ".")
	out := make([]string, 0, len(raw))
	for _, segment := range raw {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		out = append(out, segment)
	}
	return out
}

// JoinPath appends child to a dotted parent path.
func JoinPath(parent, child string) string {
	parent = strings.TrimSpace(parent)
	child = strings.TrimSpace(child)
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}

func resolve(root Control, path string) Control {
	current := root
	for _, segment := range SplitPath(path) {
		switch node := current.(type) {
		case *Group:
			next, ok := node.controls[segment]
			if !ok {
				return nil
			}
			current = next
		case *Array:
			idx, err := strconv.Atoi(segment)
			if err != nil {
				return nil
			}
			next := node.At(idx)
			if next == nil {
				return nil
			}
			current = next
		default:
			return nil
		}
	}
	return current
}

// PathOf returns the dotted path of c relative to its root.
func PathOf(c Control) string {
	var segments []string
	for cur := c; cur != nil && cur.Parent() != nil; cur = cur.Parent() {
		switch parent := cur.Parent().(type) {
		case *Group:
			for _, key := range parent.keys {
				if parent.controls[key] == cur {
					segments = append(segments, key)
					break
				}
			}
		case *Array:
			for i, item := range parent.items {
				if item == cur {
					segments = append(segments, strconv.Itoa(i))
					break
				}
			}
		}
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, ".")
}

// Lookup resolves a dotted path inside a composite value as produced by
// Group.Value and Array.Value.
func Lookup(value any, path string) (any, bool) {
	current := value
	for _, segment := range SplitPath(path) {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
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
