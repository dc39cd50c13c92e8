package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	errNoProviders       = errors.New("no providers configured")
	errMalformedResponse = errors.New("response is not the expected JSON shape")

	codeBlockPattern = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")
)

// ExtractJSON pulls the first JSON object or array out of model output that
// may wrap it in code fences or prose. Returns "" when none is found.
func ExtractJSON(text string) string {
	if m := codeBlockPattern.FindStringSubmatch(text); len(m) > 1 {
		if candidate := scanBalanced(strings.TrimSpace(m[1])); candidate != "" {
			return candidate
		}
	}
	return scanBalanced(strings.TrimSpace(text))
}

// scanBalanced finds the first { or [ and returns the substring up to its
// matching close bracket, tracking string literals and escapes.
func scanBalanced(text string) string {
	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")

	start := startObj
	opener, closer := byte('{'), byte('}')
	if startObj < 0 || (startArr >= 0 && startArr < startObj) {
		start = startArr
		opener, closer = '[', ']'
	}
	if start < 0 {
		return ""
	}

	text = text[start:]
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == opener:
			depth++
		case ch == closer:
			depth--
			if depth == 0 {
				return text[:i+1]
			}
		}
	}
	return ""
}

// DecodeInto extracts JSON from text, verifies the required top-level keys
// are present and non-null, and unmarshals into out. Reports whether the
// response was usable; a false return leaves out untouched.
func DecodeInto(text string, required []string, out any) bool {
	raw := ExtractJSON(text)
	if raw == "" {
		return false
	}

	if len(required) > 0 {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal([]byte(raw), &probe); err != nil {
			return false
		}
		for _, key := range required {
			v, ok := probe[key]
			if !ok || string(v) == "null" {
				return false
			}
		}
	}

	return json.Unmarshal([]byte(raw), out) == nil
}
