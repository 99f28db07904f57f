package filterform

import (
	"strings"
)

// GetPath reads the value at a dotted path inside a JSON-like value tree.
// The second return is false when any step of the path is missing or
// traverses a non-object value. An empty path refers to the root itself.
func GetPath(root any, path string) (any, bool) {
	if path == "" {
		return root, true
	}
	current := root
	for _, segment := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		value, ok := obj[segment]
		if !ok {
			return nil, false
		}
		current = value
	}
	return current, true
}

// SetPath writes a value at a dotted path and returns the new root. The input
// is never mutated: every map along the path is shallow-copied, so unrelated
// subtrees stay reference-identical between old and new roots. Missing
// intermediates are materialized as empty objects; an unexpected non-object
// intermediate is overwritten with a fresh object so the caller can always
// repair a previously-invalid value. An empty path replaces the root.
func SetPath(root any, path string, value any) any {
	if path == "" {
		return value
	}
	return setSegments(root, strings.Split(path, "."), value)
}

func setSegments(current any, segments []string, value any) map[string]any {
	var copied map[string]any
	if obj, ok := current.(map[string]any); ok {
		copied = make(map[string]any, len(obj)+1)
		for k, v := range obj {
			copied[k] = v
		}
	} else {
		copied = make(map[string]any, 1)
	}

	key := segments[0]
	if len(segments) == 1 {
		copied[key] = value
		return copied
	}
	copied[key] = setSegments(copied[key], segments[1:], value)
	return copied
}

// DeletePath removes the value at a dotted path, returning the new root under
// the same copy-on-write contract as SetPath. Removing a missing path returns
// a root equal to the input.
func DeletePath(root any, path string) any {
	if path == "" {
		return nil
	}
	segments := strings.Split(path, ".")
	return deleteSegments(root, segments)
}

func deleteSegments(current any, segments []string) any {
	obj, ok := current.(map[string]any)
	if !ok {
		return current
	}
	key := segments[0]
	if _, exists := obj[key]; !exists {
		return current
	}

	copied := make(map[string]any, len(obj))
	for k, v := range obj {
		copied[k] = v
	}
	if len(segments) == 1 {
		delete(copied, key)
		return copied
	}
	copied[key] = deleteSegments(copied[key], segments[1:])
	return copied
}
