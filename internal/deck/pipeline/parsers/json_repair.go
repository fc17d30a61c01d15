package parsers

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	ErrNoJSON        = errors.New("no json value in model output")
	ErrMalformedJSON = errors.New("malformed json in model output")
)

var (
	thinkBlockRe    = regexp.MustCompile(`(?is)<think(?:ing)?>.*?</think(?:ing)?>`)
	fenceRe         = regexp.MustCompile("(?s)```[a-zA-Z]*[ \t]*\r?\n?(.*?)```")
	openFenceRe     = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*[ \t]*\r?\n?")
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
)

var smartQuotes = strings.NewReplacer(
	"“", `"`, "”", `"`, "„", `"`,
	"‘", "'", "’", "'",
)

// maxRepairCuts bounds how many trailing elements closeTruncated may drop.
const maxRepairCuts = 8

// ExtractJSON pulls the first JSON object or array out of raw model output and
// repairs the usual damage: reasoning blocks, markdown fences, prose around
// the value, trailing commas, typographic quotes and output cut off mid-value.
func ExtractJSON(raw string) (string, error) {
	s := thinkBlockRe.ReplaceAllString(raw, "")
	if i := strings.LastIndex(s, "</think>"); i >= 0 {
		s = s[i+len("</think>"):]
	}

	if m := fenceRe.FindStringSubmatch(s); m != nil && strings.ContainsAny(m[1], "{[") {
		s = m[1]
	} else {
		s = openFenceRe.ReplaceAllString(s, "")
	}

	if out, ok := extractCandidate(s); ok {
		return out, nil
	}
	// Typographic quotes are only swapped as a last resort: inside valid
	// strings they are content, not delimiters.
	if out, ok := extractCandidate(smartQuotes.Replace(s)); ok {
		return out, nil
	}

	if !strings.ContainsAny(s, "{[") {
		return "", ErrNoJSON
	}
	return "", ErrMalformedJSON
}

// maxCandidates bounds how many opening brackets are tried before giving up.
const maxCandidates = 4

func extractCandidate(s string) (string, bool) {
	for tries := 0; tries < maxCandidates; tries++ {
		start := strings.IndexAny(s, "{[")
		if start < 0 {
			return "", false
		}
		s = s[start:]
		if out, ok := repairValue(s); ok {
			return out, true
		}
		// the bracket may belong to prose before the real value
		s = s[1:]
	}
	return "", false
}

func repairValue(s string) (string, bool) {
	end, _, _, _ := scanJSON(s)
	if end >= 0 {
		candidate := s[:end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
		fixed := trailingCommaRe.ReplaceAllString(candidate, "$1")
		if json.Valid([]byte(fixed)) {
			return fixed, true
		}
		return "", false
	}

	fixed := closeTruncated(s)
	if json.Valid([]byte(fixed)) {
		return fixed, true
	}
	return "", false
}

// scanJSON walks s, which starts with '{' or '['. end is the index of the
// bracket that balances the first one, or -1 if s ends first. stack holds the
// closers still owed, inString reports an unterminated string and lastComma
// the last top-level-or-nested comma outside a string.
func scanJSON(s string) (end int, stack []byte, inString bool, lastComma int) {
	lastComma = -1
	escaped := false
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
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 {
				return i, nil, false, lastComma
			}
		case ',':
			lastComma = i
		}
	}
	return -1, stack, inString, lastComma
}

// closeTruncated terminates a value that was cut off, dropping the trailing
// element when it cannot be completed (for example a dangling object key).
func closeTruncated(s string) string {
	candidate := s
	for cut := 0; cut <= maxRepairCuts; cut++ {
		_, stack, inString, lastComma := scanJSON(s)

		var b strings.Builder
		if inString {
			// A dangling escape would swallow the closing quote.
			b.WriteString(dropDanglingEscape(s))
			b.WriteByte('"')
		} else {
			b.WriteString(s)
		}
		candidate = strings.TrimRight(b.String(), " \t\r\n")
		candidate = strings.TrimSuffix(candidate, ",")
		if strings.HasSuffix(candidate, ":") {
			candidate += "null"
		}
		for i := len(stack) - 1; i >= 0; i-- {
			candidate += string(stack[i])
		}
		candidate = trailingCommaRe.ReplaceAllString(candidate, "$1")

		if json.Valid([]byte(candidate)) || lastComma < 0 {
			return candidate
		}
		s = s[:lastComma]
	}
	return candidate
}

// dropDanglingEscape removes a backslash left unpaired at the end of s.
func dropDanglingEscape(s string) string {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	if n%2 == 1 {
		return s[:len(s)-1]
	}
	return s
}
