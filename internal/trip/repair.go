package trip

import (
	"regexp"
	"strings"
)

var (
	repeatedCloseBracket = regexp.MustCompile(`\](\s*\])+`)
	trailingComma        = regexp.MustCompile(`,\s*([}\]])`)
	repeatedComma        = regexp.MustCompile(`,(\s*,)+`)
	adjacentObjects      = regexp.MustCompile(`}\s*{`)
	adjacentArrays       = regexp.MustCompile(`\]\s*\[`)
	lineBreaks           = regexp.MustCompile(`[\r\n\t]+`)
	controlChars         = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	repeatedSpace        = regexp.MustCompile(`\s{2,}`)
)

// normalize applies the full set of textual repairs for common assistant
// JSON mistakes. Order matters: bracket and comma fixes run before
// whitespace is flattened.
func normalize(s string) string {
	s = repeatedCloseBracket.ReplaceAllString(s, "]")
	s = trailingComma.ReplaceAllString(s, "$1")
	s = repeatedComma.ReplaceAllString(s, ",")
	s = adjacentObjects.ReplaceAllString(s, "},{")
	s = adjacentArrays.ReplaceAllString(s, "],[")
	s = lineBreaks.ReplaceAllString(s, " ")
	s = controlChars.ReplaceAllString(s, "")
	s = repeatedSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// lightRepair is the subset of normalize that cannot change the structure of
// an already balanced prefix.
func lightRepair(s string) string {
	s = trailingComma.ReplaceAllString(s, "$1")
	s = lineBreaks.ReplaceAllString(s, " ")
	s = controlChars.ReplaceAllString(s, "")
	return s
}

// isolateFence returns the content of the first ``` fenced block, dropping an
// optional "json" tag. A reply cut off before the closing fence yields
// everything after the opening one. ok is false when there is no fence.
func isolateFence(raw string) (string, bool) {
	open := strings.Index(raw, "```")
	if open < 0 {
		return raw, false
	}
	body := raw[open+3:]
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body), true
}

// candidate slices s from the first '{' to the last '}'. Without a closing
// brace after the first '{' the rest of the text is returned, so truncated
// replies still reach the salvage strategies.
func candidate(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}
	end := strings.LastIndex(s, "}")
	if end < start {
		return strings.TrimSpace(s[start:]), true
	}
	return s[start : end+1], true
}

// balancedEnds returns the end offsets (exclusive) at which the bracket depth
// of s returns to zero on a closing bracket. Brackets inside JSON strings are
// ignored.
func balancedEnds(s string) []int {
	var (
		ends     []int
		depth    int
		inString bool
		escaped  bool
	)
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
				ends = append(ends, i+1)
			}
		}
	}
	return ends
}

// matchingBracket returns the index just past the bracket that closes the
// one at s[open], or -1 when it is never closed.
func matchingBracket(s string, open int) int {
	ends := balancedEnds(s[open:])
	if len(ends) == 0 {
		return -1
	}
	return open + ends[0]
}
