package extract

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Objects returns every balanced top-level brace-delimited substring of
// text, in order of appearance. Braces inside JSON strings and escaped
// quotes do not affect balance. Nested objects are returned only as part of
// their enclosing candidate; an unterminated object is not returned at all.
func Objects(text string) []string {
	var out []string
	depth := 0
	start := -1
	inString := false
	escaped := false
	for i, r := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				out = append(out, text[start:i+1])
				start = -1
			}
		}
	}
	return out
}

// decodeObjects parses every balanced candidate in text and keeps the ones
// that decode as JSON objects. Candidates that fail to parse are skipped;
// the caller decides which decoded objects carry recognized fields.
func decodeObjects(text string) []map[string]any {
	var out []map[string]any
	for _, candidate := range Objects(text) {
		var obj map[string]any
		if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
			continue
		}
		out = append(out, obj)
	}
	return out
}

// asInt coerces a decoded JSON value to an int. Accepts integral numbers
// and digit strings; everything else is rejected.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		i := int(n)
		if float64(i) == n {
			return i, true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, true
		}
	}
	return 0, false
}

// asStringList coerces a decoded JSON value to a list of non-empty strings.
func asStringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
