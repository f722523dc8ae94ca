package llm

import (
	"encoding/json"
	"strings"
)

// CleanJSONBlock returns the first complete JSON object or array in an LLM response,
// skipping markdown fences and any prose around it. Text without one is returned
// trimmed and unfenced.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		n := balancedLen(text[i:])
		if n == 0 {
			continue
		}
		if candidate := text[i : i+n]; json.Valid([]byte(candidate)) {
			return candidate
		}
	}
	return stripFence(text)
}

// balancedLen returns the length of the bracketed value opening text, or 0 when it
// never closes. Brackets inside JSON strings are ignored.
func balancedLen(text string) int {
	open := text[0]
	closing := byte('}')
	if open == '[' {
		closing = ']'
	}

	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return 0
}

// stripFence removes a surrounding ``` block and its language tag.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = ""
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
