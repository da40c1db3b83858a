// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package critic

import (
	"log/slog"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Repair rewrites almost-JSON into JSON. Prose before the first bracket and
// after the bracket that closes it is dropped first; the rest (typographic
// and single quotes, unquoted keys, bare words, Python literals, missing
// and trailing commas, unterminated strings, unbalanced brackets) is left
// to jsonrepair. When the text cannot be repaired it is returned with only
// the prose removed, so the caller's parse fails on it.
func Repair(s string) string {
	cut := cutToValue(strings.TrimSpace(s))
	if cut == "" {
		return ""
	}
	repaired, err := jsonrepair.Repair(cut)
	if err != nil {
		slog.Debug("json repair failed", "error", err)
		return cut
	}
	return strings.TrimSpace(repaired)
}

// cutToValue drops text before the first '{' or '[' and after the bracket
// that closes it. Input without a bracket, or whose brackets never balance,
// keeps everything from the first bracket on.
func cutToValue(s string) string {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	s = s[start:]

	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
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
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return s
}
