// Package urlparams carries structured values through a URL query string.
// Scalars are plain strings, lists repeat the key, objects are JSON text and
// booleans are "true"/"false".
package urlparams

import (
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Encode writes params as URL values. Nil values and empty lists are skipped.
func Encode(params map[string]any) (url.Values, error) {
	out := url.Values{}
	for key, v := range params {
		if err := add(out, key, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func add(out url.Values, key string, v any) error {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		out.Add(key, val)
	case bool:
		out.Add(key, strconv.FormatBool(val))
	case float64:
		out.Add(key, strconv.FormatFloat(val, 'f', -1, 64))
	case int:
		out.Add(key, strconv.Itoa(val))
	case []string:
		for _, s := range val {
			out.Add(key, s)
		}
	case []any:
		for _, item := range val {
			if _, nested := item.(map[string]any); nested {
				return fmt.Errorf("param %q: lists of objects are not supported", key)
			}
			if err := add(out, key, item); err != nil {
				return err
			}
		}
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("param %q: %w", key, err)
		}
		out.Add(key, string(b))
	}
	return nil
}

// Decode reverses Encode. Repeated keys become lists; numeric strings become
// numbers, "true"/"false" become booleans and strings starting with { or [
// that parse as JSON become objects or lists. Keys named in keepString are
// never coerced.
func Decode(values url.Values, keepString ...string) map[string]any {
	out := make(map[string]any, len(values))
	for key, vals := range values {
		raw := slices.Contains(keepString, key)
		if len(vals) == 1 {
			out[key] = coerce(vals[0], raw)
			continue
		}
		list := make([]any, len(vals))
		for i, v := range vals {
			list[i] = coerce(v, raw)
		}
		out[key] = list
	}
	return out
}

func coerce(s string, raw bool) any {
	if raw {
		return s
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if trimmed := strings.TrimSpace(s); strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var v any
		if json.Unmarshal([]byte(trimmed), &v) == nil {
			return v
		}
		return s
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil && looksNumeric(s) {
		return n
	}
	return s
}

// looksNumeric accepts plain decimal notation only; ParseFloat alone would
// also take "NaN", "Inf" and exponent forms.
func looksNumeric(s string) bool {
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
		case r == '-' && i == 0:
		default:
			return false
		}
	}
	return s != "" && s != "-" && s != "."
}
