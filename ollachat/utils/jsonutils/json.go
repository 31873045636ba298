package jsonutils

import (
	"regexp"
	"strings"
)

var (
	reFence         = regexp.MustCompile("(?s)```(?:json)?(.*?)```")
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// ExtractJSON pulls a JSON object out of free text.
//
// Priority:
// 1. Triple-backtick fenced block (```json or bare ```)
// 2. The first balanced {...} object
//
// Invisible Unicode characters and trailing commas are stripped. When nothing
// object-like is found the trimmed input is returned unchanged.
func ExtractJSON(input string) string {
	input = strings.TrimSpace(strings.Map(func(r rune) rune {
		if r == '\uFEFF' || r == '\u200B' || r == '\u200C' || r == '\u200D' {
			return -1
		}
		return r
	}, input))

	if match := reFence.FindStringSubmatch(input); len(match) > 1 {
		input = strings.TrimSpace(match[1])
	}
	if obj, ok := firstObject(input); ok {
		input = obj
	}
	return strings.TrimSpace(reTrailingComma.ReplaceAllString(input, "$1"))
}

// firstObject returns the first brace-balanced object, skipping braces that
// appear inside string literals.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
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
