package controller

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// DateLayout is the stored representation of date and date-of-birth values.
const DateLayout = "2006-01-02"

func asString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func asNumber(value any) (float64, bool) {
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

func asBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && parsed
	case nil:
		return false
	}
	if f, ok := asNumber(value); ok {
		return f != 0
	}
	return false
}

// asDate normalises time values and date strings to DateLayout. Anything
// unparseable becomes "".
func asDate(value any) string {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(DateLayout)
	case *time.Time:
		if v == nil {
			return ""
		}
		return asDate(*v)
	case string:
		trimmed := strings.TrimSpace(v)
		for _, layout := range []string{DateLayout, time.RFC3339, time.RFC3339Nano} {
			if t, err := time.Parse(layout, trimmed); err == nil {
				return t.Format(DateLayout)
			}
		}
	}
	return ""
}

// decodeJSONString unwraps values that were persisted as JSON text.
func decodeJSONString(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return value
	}
	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return value
	}
	return decoded
}

func asStringList(value any) []string {
	value = decodeJSONString(value)
	switch v := value.(type) {
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := strings.TrimSpace(asString(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		out := []string{}
		for _, part := range strings.Split(v, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

func asList(value any) []any {
	value = decodeJSONString(value)
	switch v := value.(type) {
	case []any:
		return append([]any{}, v...)
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out
	case nil:
		return []any{}
	default:
		return []any{v}
	}
}

// asPhone returns {countryCode, number}. A bare string is kept as the
// number; malformed values yield empty parts.
func asPhone(value any) map[string]any {
	value = decodeJSONString(value)
	out := map[string]any{"countryCode": "", "number": ""}
	switch v := value.(type) {
	case map[string]any:
		out["countryCode"] = asString(v["countryCode"])
		out["number"] = asString(v["number"])
	case string:
		trimmed := strings.TrimSpace(v)
		if strings.HasPrefix(trimmed, "+") {
			if code, rest, ok := strings.Cut(trimmed, " "); ok {
				out["countryCode"] = code
				out["number"] = strings.TrimSpace(rest)
				return out
			}
		}
		out["number"] = trimmed
	}
	return out
}

// asLocation returns {latitude, longitude, address} or nil when the value
// carries no usable coordinates.
func asLocation(value any) map[string]any {
	value = decodeJSONString(value)
	m, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	lat, latOK := asNumber(firstOf(m, "latitude", "lat"))
	lng, lngOK := asNumber(firstOf(m, "longitude", "lng", "lon"))
	if !latOK || !lngOK {
		return nil
	}
	return map[string]any{
		"latitude":  lat,
		"longitude": lng,
		"address":   asString(m["address"]),
	}
}

func asLocations(value any) []any {
	out := []any{}
	for _, item := range asList(value) {
		if loc := asLocation(item); loc != nil {
			out = append(out, loc)
		}
	}
	return out
}

// asCurrency returns {amount, currency}; amount is nil when unset.
func asCurrency(value any, fallbackCode string) map[string]any {
	value = decodeJSONString(value)
	out := map[string]any{"amount": nil, "currency": fallbackCode}
	switch v := value.(type) {
	case map[string]any:
		if amount, ok := asNumber(v["amount"]); ok {
			out["amount"] = amount
		}
		if code := strings.TrimSpace(asString(v["currency"])); code != "" {
			out["currency"] = strings.ToUpper(code)
		}
	default:
		if amount, ok := asNumber(v); ok {
			out["amount"] = amount
		}
	}
	return out
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}
