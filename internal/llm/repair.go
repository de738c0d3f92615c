package llm

import "strings"

// StripFences removes a surrounding markdown code fence, if any.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-3]
	}
	return strings.TrimSpace(s)
}

// Repair makes a best-effort pass over model output that should have been
// JSON but is not: it cuts prose around the first top-level value, drops
// commas left dangling before closers or at a truncation point, closes an
// unterminated string, and balances braces and brackets. It never panics
// and returns its input unchanged when nothing JSON-shaped is found.
// Valid JSON passes through decode-equivalent.
func Repair(text string) (out string) {
	defer func() {
		if recover() != nil {
			out = text
		}
	}()

	s := StripFences(text)
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return text
	}
	s = s[start:]

	var (
		b            strings.Builder
		stack        []byte
		inString     bool
		escaped      bool
		pendingComma bool
		pendingWS    []byte
	)

	// Commas and whitespace are held back until the next significant
	// byte so a comma dangling before a closer (or before the cut) can
	// be dropped.
	flush := func(keepComma bool) {
		if pendingComma && keepComma {
			b.WriteByte(',')
		}
		b.Write(pendingWS)
		pendingComma = false
		pendingWS = pendingWS[:0]
	}

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			if len(stack) == 0 && !inString {
				break
			}
			continue
		}

		switch c {
		case '"':
			flush(true)
			inString = true
			b.WriteByte(c)
		case '{':
			flush(true)
			stack = append(stack, '}')
			b.WriteByte(c)
		case '[':
			flush(true)
			stack = append(stack, ']')
			b.WriteByte(c)
		case '}', ']':
			flush(false)
			if len(stack) > 0 {
				// Substitute the matching closer on mismatch.
				c = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
			}
			b.WriteByte(c)
		case ',':
			pendingComma = true
		case ' ', '\t', '\n', '\r':
			pendingWS = append(pendingWS, c)
		default:
			flush(true)
			b.WriteByte(c)
		}

		if len(stack) == 0 && !inString {
			// Top-level value closed; anything after is trailing prose.
			break
		}
	}

	repaired := b.String()
	if inString {
		if escaped {
			// A backslash cut mid-escape cannot be completed.
			repaired = repaired[:len(repaired)-1]
		}
		repaired += `"`
	}
	repaired = strings.TrimRight(repaired, " \t\n\r")
	if strings.HasSuffix(repaired, ":") {
		// Truncated right after a key.
		repaired += " null"
	}
	for i := len(stack) - 1; i >= 0; i-- {
		repaired += string(stack[i])
	}
	return repaired
}
