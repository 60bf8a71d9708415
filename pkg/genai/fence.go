package genai

import "strings"

// StripCodeFence removes an optional markdown code fence wrapping a
// model response, so the remainder can be parsed as JSON. Models often
// wrap structured output in ```json ... ``` despite instructions.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-len("```")]
	}
	return strings.TrimSpace(s)
}
