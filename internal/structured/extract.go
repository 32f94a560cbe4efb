// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package structured

import "strings"

// ExtractObject locates the first complete JSON object in a completion.
// Markdown code fences are stripped first, then the text is scanned for a
// balanced top-level brace pair. The scan is aware of JSON strings and
// escapes, so braces inside string values do not confuse the depth count.
// It returns the empty string when no complete object is present.
func ExtractObject(text string) string {
	text = stripFences(text)

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag, leaving the fenced body.
func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return text
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
		// Drop the language tag line (e.g. "json").
		trimmed = trimmed[nl+1:]
	}
	if end := strings.LastIndex(trimmed, "```"); end >= 0 {
		trimmed = trimmed[:end]
	}
	return strings.TrimSpace(trimmed)
}
