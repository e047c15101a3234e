// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import "strings"

// CleanJSONBlock removes markdown code block wrappers and any conversational
// preamble or trailing text around the first JSON object or array.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	// Handle ```json ... ``` blocks
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return trimToJSON(strings.TrimSpace(text))
	}

	// Handle generic ``` ... ``` blocks
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip potential language identifier on first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return trimToJSON(strings.TrimSpace(text))
	}

	return trimToJSON(text)
}

// ExtractJSONObject returns the first balanced {...} object found in text, or "".
func ExtractJSONObject(text string) string {
	idx := strings.Index(text, "{")
	if idx < 0 {
		return ""
	}
	return extractJSONObject(text[idx:])
}

// trimToJSON cuts text down to the first balanced object or array. Text without
// one is returned unchanged so the caller's decoder reports the real error.
func trimToJSON(text string) string {
	obj := strings.Index(text, "{")
	arr := strings.Index(text, "[")
	var out string
	switch {
	case obj >= 0 && (arr < 0 || obj < arr):
		out = extractJSONObject(text[obj:])
	case arr >= 0:
		out = extractJSONArray(text[arr:])
	}
	if out == "" {
		return text
	}
	return out
}

// extractJSONObject returns the balanced object at the start of text.
func extractJSONObject(text string) string {
	return extractBalanced(text, '{', '}')
}

// extractJSONArray returns the balanced array at the start of text.
func extractJSONArray(text string) string {
	return extractBalanced(text, '[', ']')
}

func extractBalanced(text string, open, close byte) string {
	if text == "" || text[0] != open {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
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
		case close:
			depth--
			if depth == 0 {
				return text[:i+1]
			}
		}
	}
	return ""
}
