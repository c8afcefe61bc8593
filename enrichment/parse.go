package enrichment

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject pulls a JSON object out of a completion response body.
// Providers sometimes wrap the object in markdown code fences or surround it
// with prose, so after fence stripping the whole body is tried first, then a
// scan for the first balanced brace-delimited object. The returned status is
// StatusSuccess, StatusNoJSON (a JSON value was found but is not an object)
// or StatusErrorParse (no JSON object could be located at all).
func ExtractJSONObject(content string) (map[string]interface{}, string) {
	trimmed := stripCodeFences(content)

	var value interface{}
	if err := json.Unmarshal([]byte(trimmed), &value); err == nil {
		if obj, ok := value.(map[string]interface{}); ok {
			return obj, StatusSuccess
		}
		return nil, StatusNoJSON
	}

	if candidate, ok := firstBalancedObject(trimmed); ok {
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(candidate), &obj); err == nil {
			return obj, StatusSuccess
		}
	}
	return nil, StatusErrorParse
}

// stripCodeFences removes a leading ```/```json fence line and its closing
// fence, if present.
func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	} else {
		// fence with no body
		return strings.TrimSpace(strings.TrimSuffix(trimmed, "```"))
	}
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// firstBalancedObject scans for the first top-level {...} span, honoring
// string literals and escapes.
func firstBalancedObject(content string) (string, bool) {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		ch := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1], true
			}
		}
	}
	return "", false
}
