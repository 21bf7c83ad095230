package llm

import "strings"

// ParseResult is the outcome of extracting a JSON object from free-form
// model text. Failure is a value, not a panic, so callers can decide
// between retry and abort.
type ParseResult struct {
	OK     bool
	JSON   string
	Reason string
}

// ExtractObject pulls a balanced top-level JSON object out of model output
// that may wrap it in prose or markdown code fences. It tries, in order:
// a fenced ```json block, then balanced-brace scanning from the first '{'.
func ExtractObject(raw string) ParseResult {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ParseResult{Reason: "empty response"}
	}

	if fenced, ok := extractFenced(raw); ok {
		if obj, ok := scanBalanced(fenced); ok {
			return ParseResult{OK: true, JSON: obj}
		}
	}
	if obj, ok := scanBalanced(raw); ok {
		return ParseResult{OK: true, JSON: obj}
	}
	return ParseResult{Reason: "no balanced JSON object found"}
}

// extractFenced returns the content of the first ``` code fence, dropping a
// trailing language tag on the opening line.
func extractFenced(raw string) (string, bool) {
	start := strings.Index(raw, "```")
	if start < 0 {
		return "", false
	}
	rest := raw[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// Skip the "json" language tag line.
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine == "json" || firstLine == "" {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest), true
	}
	return strings.TrimSpace(rest[:end]), true
}

// scanBalanced finds the first '{' and walks forward counting brace depth,
// skipping string literals and escapes, until the object closes.
func scanBalanced(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
