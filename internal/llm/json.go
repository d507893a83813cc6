package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\n?(.*?)\n?```")

// DecodeJSON pulls the first JSON object out of a model reply and decodes it into v.
// Markdown fences and surrounding prose are ignored.
func DecodeJSON(text string, v any) error {
	text = strings.TrimSpace(ExtractJSON(StripMarkdownFences(text)))
	if text == "" {
		return fmt.Errorf("no JSON content found in response")
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("invalid JSON: %w\nRaw text (first 200 chars): %s", err, Truncate(text, 200))
	}
	return nil
}

// StripMarkdownFences returns the body of a ```json fenced block, or text unchanged.
func StripMarkdownFences(text string) string {
	if matches := fenceRe.FindStringSubmatch(text); len(matches) > 1 {
		return matches[1]
	}
	return text
}

// ExtractJSON returns the span from the first '{' to the last '}'.
func ExtractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

// Truncate shortens s to maxLen bytes, adding "..." when cut.
func Truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
