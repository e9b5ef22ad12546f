package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formflow/pkg/model"
)

// ErrorMapping splits a server error payload into field messages keyed by
// the dotted names used by the form state, and form-level messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeFormErrors concatenates form-level messages, trimming whitespace and
// dropping duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// NormalizePayload reads the loosely typed "errors" member of a response
// body. Objects map a path to a message or a list of messages; lists hold
// plain messages or {path|field, message} entries. Entries without a path
// are filed under the empty key.
func NormalizePayload(raw any) map[string][]string {
	out := make(map[string][]string)
	switch v := raw.(type) {
	case nil:
	case string:
		out[""] = append(out[""], v)
	case map[string]any:
		for key, value := range v {
			out[key] = append(out[key], messagesOf(value)...)
		}
	case map[string][]string:
		for key, value := range v {
			out[key] = append(out[key], value...)
		}
	case []any:
		for _, entry := range v {
			key, messages := listEntry(entry)
			out[key] = append(out[key], messages...)
		}
	default:
		out[""] = append(out[""], fmt.Sprint(v))
	}
	return out
}

func listEntry(entry any) (string, []string) {
	obj, ok := entry.(map[string]any)
	if !ok {
		return "", messagesOf(entry)
	}
	var key string
	for _, candidate := range []string{"path", "field", "pointer", "name"} {
		if s, ok := obj[candidate].(string); ok && strings.TrimSpace(s) != "" {
			key = s
			break
		}
	}
	for _, candidate := range []string{"message", "msg", "error", "detail"} {
		if value, ok := obj[candidate]; ok {
			return key, messagesOf(value)
		}
	}
	return key, nil
}

func messagesOf(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, messagesOf(item)...)
		}
		return out
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			return []string{msg}
		}
		return nil
	default:
		return []string{fmt.Sprint(v)}
	}
}

// MapErrorPayload resolves each payload path (JSON pointer, dotted or
// bracketed, optionally wrapped in body/request/data segments) to the
// longest known field name. Unknown paths become form-level messages.
func MapErrorPayload(descriptors []model.Descriptor, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	known := make(map[string]struct{})
	collectNames(descriptors, "", known)

	for raw, messages := range payload {
		messages = normalizeMessages(messages)
		if len(messages) == 0 {
			continue
		}
		name, ok := resolvePath(raw, known)
		if !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		mapping.Fields[name] = append(mapping.Fields[name], messages...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func resolvePath(raw string, known map[string]struct{}) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if formLevelKey(trimmed) {
		return "", false
	}
	segments := splitPath(trimmed)
	if len(segments) == 0 {
		return "", false
	}

	best := ""
	for _, variant := range pathVariants(segments) {
		candidate := longestKnownPrefix(variant, known)
		if candidate != "" && (best == "" || strings.Count(candidate, ".") > strings.Count(best, ".")) {
			best = candidate
		}
	}
	return best, best != ""
}

func splitPath(path string) []string {
	clean := strings.TrimSpace(path)
	for _, prefix := range []string{"#/", "$/", "$."} {
		clean = strings.TrimPrefix(clean, prefix)
	}
	clean = strings.TrimLeft(clean, "#/.$")
	clean = strings.NewReplacer("[", ".", "]", "", "//", "/").Replace(clean)
	clean = strings.Trim(clean, "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

var wrapperSegments = map[string]struct{}{
	"body":       {},
	"request":    {},
	"payload":    {},
	"data":       {},
	"attributes": {},
	"values":     {},
}

func pathVariants(segments []string) [][]string {
	unwrapped := segments
	for len(unwrapped) > 0 {
		if _, ok := wrapperSegments[strings.ToLower(unwrapped[0])]; !ok {
			break
		}
		unwrapped = unwrapped[1:]
	}
	return [][]string{
		segments,
		unwrapped,
		withoutIndexes(segments),
		withoutIndexes(unwrapped),
	}
}

func withoutIndexes(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func longestKnownPrefix(segments []string, known map[string]struct{}) string {
	for end := len(segments); end > 0; end-- {
		candidate := strings.Join(segments[:end], ".")
		if _, ok := known[candidate]; ok {
			return candidate
		}
	}
	return ""
}

// collectNames records every name a value can be stored under. Groups hold
// no value so their children keep the surrounding prefix; group-checkbox
// children and sub-form fields nest under their parent name.
func collectNames(descriptors []model.Descriptor, prefix string, dest map[string]struct{}) {
	for _, d := range descriptors {
		if d.IsGroup() {
			collectNames(d.GroupControllers, prefix, dest)
			continue
		}
		name := strings.TrimSpace(d.Name)
		if name == "" {
			continue
		}
		path := joinPath(prefix, name)
		dest[path] = struct{}{}

		if d.Role() == model.RoleGroupCheckbox {
			collectNames(d.GroupCheckbox, path, dest)
		}
		if d.SubForm != nil {
			collectNames(d.SubForm.Descriptors(), path, dest)
		}
	}
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

func formLevelKey(key string) bool {
	switch strings.ToLower(key) {
	case "", ".", "/", "#", "$", "form", "base", "_form", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
