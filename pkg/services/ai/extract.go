package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractJSON pulls the first JSON object out of a model completion.
// Three strategies are tried in order: parse the whole text, parse the
// contents of a fenced code block, then scan for a balanced top-level
// object while respecting string literals and escapes. A false return
// is a normal outcome, not an error; it means the completion carried
// no usable structure.
func ExtractJSON(text string) (map[string]any, bool) {
	trimmed := strings.TrimSpace(text)

	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
		return obj, true
	}

	if m := fencedBlock.FindStringSubmatch(trimmed); m != nil {
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &obj); err == nil {
			return obj, true
		}
	}

	if candidate, ok := scanBraces(trimmed); ok {
		if err := json.Unmarshal([]byte(candidate), &obj); err == nil {
			return obj, true
		}
	}
	return nil, false
}

// scanBraces finds the substring from the first '{' to its matching
// '}', tracking brace depth outside quoted strings.
func scanBraces(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			if inString {
				escaped = true
			}
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
