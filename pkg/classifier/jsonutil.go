package classifier

import (
	"strings"
)

const (
	jsonFence = "```json"
	fence     = "```"
)

// StripCodeFence returns the body of the first fenced block when the text has one.
// A ```json fence is preferred over a bare ``` fence; an unterminated fence
// keeps everything after the opening marker.
func StripCodeFence(content string) string {
	marker := ""
	switch {
	case strings.Contains(content, jsonFence):
		marker = jsonFence
	case strings.Contains(content, fence):
		marker = fence
	default:
		return content
	}

	_, body, _ := strings.Cut(content, marker)
	body, _, _ = strings.Cut(body, fence)
	return strings.TrimSpace(body)
}

// ExtractJSONObject recovers the span between the first '{' and the last '}'
// after removing any code fence. It returns false when no such span exists.
func ExtractJSONObject(content string) (string, bool) {
	cleaned := StripCodeFence(content)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}

	return cleaned[start : end+1], true
}

// snippet shortens text for error messages.
func snippet(text string) string {
	const limit = 200
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
