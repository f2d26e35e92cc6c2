package llm

import "strings"

// StripFences returns the content of the first ```json or ``` fenced block
// in s, or s itself when there is no complete fence.
func StripFences(s string) string {
	for _, fence := range []string{"```json", "```JSON", "```"} {
		idx := strings.Index(s, fence)
		if idx == -1 {
			continue
		}
		start := idx + len(fence)
		end := strings.Index(s[start:], "```")
		if end == -1 {
			continue
		}
		return strings.TrimSpace(s[start : start+end])
	}
	return s
}

// ObjectCandidates returns every balanced top-level {...} span of s, in order
// of appearance, after stripping markdown fences. Braces inside JSON string
// literals are ignored.
func ObjectCandidates(s string) []string {
	body := StripFences(s)

	var out []string
	for i := 0; i < len(body); i++ {
		if body[i] != '{' {
			continue
		}
		end := matchBalanced(body, i)
		if end < 0 {
			continue
		}
		out = append(out, body[i:end])
		i = end - 1
	}
	return out
}

// matchBalanced returns the index just past the bracket that closes s[start],
// or -1. It tracks string literals so "}" inside a value does not count.
func matchBalanced(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for j := start; j < len(s); j++ {
		c := s[j]
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
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return j + 1
			}
			if depth < 0 {
				return -1
			}
		}
	}
	return -1
}
