package formstate

import (
	"fmt"
	"strconv"
	"strings"
)

func getPath(root map[string]any, path string) (any, bool) {
	if root == nil || path == "" {
		return nil, false
	}
	var current any = root
	for _, segment := range strings.Split(path, ".") {
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

// setPath writes value at a dotted path, creating intermediate maps and
// growing slices when a numeric segment points past their end.
func setPath(root map[string]any, path string, value any) error {
	if root == nil {
		return fmt.Errorf("formstate: root map is nil")
	}
	segments := strings.Split(path, ".")
	return setIn(root, segments, value, path)
}

func setIn(container any, segments []string, value any, path string) error {
	segment := segments[0]
	last := len(segments) == 1

	switch node := container.(type) {
	case map[string]any:
		if last {
			node[segment] = value
			return nil
		}
		child, err := ensureChild(node[segment], segments[1])
		if err != nil {
			return err
		}
		if err := setIn(child, segments[1:], value, path); err != nil {
			return err
		}
		node[segment] = grown(child)
		return nil
	case *[]any:
		idx, err := strconv.Atoi(segment)
		if err != nil {
			return fmt.Errorf("formstate: expected numeric segment, got %q", segment)
		}
		if idx < 0 {
			return fmt.Errorf("formstate: negative index in path %q", path)
		}
		if len(*node) <= idx {
			*node = append(*node, make([]any, idx+1-len(*node))...)
		}
		if last {
			(*node)[idx] = value
			return nil
		}
		child, err := ensureChild((*node)[idx], segments[1])
		if err != nil {
			return err
		}
		if err := setIn(child, segments[1:], value, path); err != nil {
			return err
		}
		(*node)[idx] = grown(child)
		return nil
	default:
		return fmt.Errorf("formstate: unexpected container for segment %q", segment)
	}
}

// ensureChild returns the container the next segment writes into. Slices
// are passed by pointer so appends survive; grown unwraps them again.
func ensureChild(existing any, next string) (any, error) {
	if _, err := strconv.Atoi(next); err == nil {
		list, _ := existing.([]any)
		return &list, nil
	}
	child, ok := existing.(map[string]any)
	if !ok || child == nil {
		child = make(map[string]any)
	}
	return child, nil
}

func grown(child any) any {
	if list, ok := child.(*[]any); ok {
		return *list
	}
	return child
}

func rootName(path string) string {
	if idx := strings.IndexByte(path, '.'); idx >= 0 {
		return path[:idx]
	}
	return path
}
