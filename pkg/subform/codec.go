package subform

import (
	"strings"

	json "github.com/goccy/go-json"
	"github.com/mohae/deepcopy"
)

// Decode reads a parent field value as an item list. Arrays are taken as
// is, a single object becomes one item (an empty object is no items) and a
// JSON string is parsed first. Anything unreadable yields no items.
func Decode(value any) []map[string]any {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return nil
		}
		var parsed any
		if err := json.Unmarshal([]byte(text), &parsed); err != nil {
			return nil
		}
		if _, nested := parsed.(string); nested {
			return nil
		}
		return Decode(parsed)
	case map[string]any:
		if len(v) == 0 {
			return nil
		}
		return []map[string]any{copyItem(v)}
	case []map[string]any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			out = append(out, copyItem(item))
		}
		return out
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, raw := range v {
			if item, ok := raw.(map[string]any); ok {
				out = append(out, copyItem(item))
			}
		}
		return out
	default:
		return nil
	}
}

// Encode produces the value stored under the parent field: an array when
// multiple items are allowed, otherwise the bare single item or an empty
// object.
func Encode(items []map[string]any, multiple bool) any {
	if multiple {
		out := make([]any, 0, len(items))
		for _, item := range items {
			out = append(out, copyItem(item))
		}
		return out
	}
	if len(items) == 0 {
		return map[string]any{}
	}
	return copyItem(items[0])
}

func copyItem(item map[string]any) map[string]any {
	if item == nil {
		return map[string]any{}
	}
	copied, ok := deepcopy.Copy(item).(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return copied
}
