package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// lookup resolves a dotted path. A flat key containing dots wins over
// traversal.
func lookup(values map[string]any, path string) (any, bool) {
	if values == nil || path == "" {
		return nil, false
	}
	if v, ok := values[path]; ok {
		return v, true
	}
	var current any = values
	for _, part := range strings.Split(path, ".") {
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(typed) {
				return nil, false
			}
			current = typed[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	if f, ok := number(value); ok {
		return f != 0
	}
	return true
}

func compare(op kind, left, right, hint any) bool {
	if _, ok := hint.(bool); ok {
		return equality(op, truthyOrParsed(left) == truthyOrParsed(right))
	}
	if left == nil || right == nil {
		if op == kindEq || op == kindNeq {
			return equality(op, left == nil && right == nil)
		}
		return false
	}

	_, textual := hint.(string)
	if !textual {
		lf, lok := number(left)
		rf, rok := number(right)
		switch {
		case lok && rok:
			return ordered(op, lf, rf)
		case hint != nil:
			// numeric literal against a non-numeric value
			return op == kindNeq
		}
	}
	return ordered(op, text(left), text(right))
}

func ordered[T float64 | string](op kind, a, b T) bool {
	switch op {
	case kindLt:
		return a < b
	case kindLte:
		return a <= b
	case kindGt:
		return a > b
	case kindGte:
		return a >= b
	default:
		return equality(op, a == b)
	}
}

func equality(op kind, equal bool) bool {
	if op == kindNeq {
		return !equal
	}
	return equal
}

func truthyOrParsed(value any) bool {
	if s, ok := value.(string); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return parsed
		}
	}
	return truthy(value)
}

func number(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func text(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}
