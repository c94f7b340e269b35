package rules

import (
	"fmt"
	"strings"
)

func getPath(root map[string]any, path string) (any, bool) {
	if root == nil {
		return nil, false
	}
	parts := strings.Split(path, ".")
	current := root
	for i, part := range parts {
		val, ok := current[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return val, true
		}
		next, ok := asMap(val)
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

// setPath writes val at path, creating intermediate objects as needed.
func setPath(root map[string]any, path string, val any) error {
	parts := strings.Split(path, ".")
	current := root
	for i, part := range parts[:len(parts)-1] {
		raw, ok := current[part]
		if !ok || raw == nil {
			child := map[string]any{}
			current[part] = child
			current = child
			continue
		}
		child, ok := asMap(raw)
		if !ok {
			return fmt.Errorf("%q is not an object", strings.Join(parts[:i+1], "."))
		}
		current = child
	}
	current[parts[len(parts)-1]] = val
	return nil
}

func unsetPath(root map[string]any, path string) {
	parts := strings.Split(path, ".")
	current := root
	for _, part := range parts[:len(parts)-1] {
		child, ok := asMap(current[part])
		if !ok {
			return
		}
		current = child
	}
	delete(current, parts[len(parts)-1])
}
