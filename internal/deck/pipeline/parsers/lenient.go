package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// flexString accepts a JSON string, number, bool or an object carrying
// one of the usual text keys.
type flexString string

var textKeys = []string{"text", "content", "point", "title", "value", "description"}

func (f *flexString) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexString(strings.TrimSpace(stringify(v)))
	return nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any:
		for _, k := range textKeys {
			if s, ok := t[k].(string); ok {
				return s
			}
		}
		return ""
	case []any:
		parts := make([]string, 0, len(t))
		for _, it := range t {
			if s := strings.TrimSpace(stringify(it)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(t)
	}
}

// flexStrings accepts an array of strings or objects, or a single string
// with one item per line.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var raw []any
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		out := make([]string, 0, len(raw))
		for _, it := range raw {
			if s := cleanBullet(stringify(it)); s != "" {
				out = append(out, s)
			}
		}
		*f = out
		return nil
	}

	var one flexString
	if err := one.UnmarshalJSON(b); err != nil {
		return err
	}
	var out []string
	for _, line := range strings.Split(string(one), "\n") {
		if s := cleanBullet(line); s != "" {
			out = append(out, s)
		}
	}
	*f = out
	return nil
}

// flexInt accepts a number or a numeric string. Anything else decodes to -1
// so callers can tell it apart from an explicit zero.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*f = flexInt(int(t))
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			*f = -1
			return nil
		}
		*f = flexInt(n)
	default:
		*f = -1
	}
	return nil
}

// cleanBullet strips list markers and markdown emphasis models like to add.
func cleanBullet(s string) string {
	s = strings.TrimSpace(s)
	for _, marker := range bulletMarkers {
		if strings.HasPrefix(s, marker) {
			s = strings.TrimSpace(s[len(marker):])
			break
		}
	}
	// numbered markers such as "1. " or "2) "
	if i := strings.IndexAny(s, ".)"); i > 0 && i <= 3 && i+1 < len(s) && s[i+1] == ' ' {
		if _, err := strconv.Atoi(s[:i]); err == nil {
			s = strings.TrimSpace(s[i+1:])
		}
	}
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	return strings.TrimSpace(s)
}

var bulletMarkers = []string{"- ", "* ", "• ", "· ", "◦ ", "▪ "}

// firstNonEmpty returns the first argument that is not blank.
func firstNonEmpty(values ...flexString) string {
	for _, v := range values {
		if s := strings.TrimSpace(string(v)); s != "" {
			return s
		}
	}
	return ""
}

func firstNonEmptyList(lists ...flexStrings) []string {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}
