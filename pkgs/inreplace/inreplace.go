// Package inreplace edits generated build files as plain text.
//
// Every function here is a pure string transform; callers own the file I/O.
package inreplace

import (
	"regexp"
	"strings"
)

// RemoveOnce removes the first occurrence of substr from s.
// It reports whether anything was removed.
func RemoveOnce(s, substr string) (string, bool) {
	if substr == "" {
		return s, false
	}
	i := strings.Index(s, substr)
	if i < 0 {
		return s, false
	}
	return s[:i] + s[i+len(substr):], true
}

func assignment(name string) *regexp.Regexp {
	return regexp.MustCompile(`^(\s*` + regexp.QuoteMeta(name) + `\s*[:+?]?=\s*)(.*)$`)
}

// MakeVar returns the value of the first assignment to name in Makefile content.
func MakeVar(content, name string) (string, bool) {
	re := assignment(name)
	for _, line := range strings.Split(content, "\n") {
		if m := re.FindStringSubmatch(strings.TrimSuffix(line, "\r")); m != nil {
			return m[2], true
		}
	}
	return "", false
}

// RemoveFromMakeVar removes the first occurrence of flag from the value of
// the make variable name. Content that does not assign name, or whose
// assignment lacks flag, is returned unchanged.
func RemoveFromMakeVar(content, name, flag string) (string, bool) {
	if flag == "" {
		return content, false
	}
	re := assignment(name)
	lines := strings.SplitAfter(content, "\n")
	for i, line := range lines {
		body := strings.TrimRight(line, "\r\n")
		m := re.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		value, ok := RemoveOnce(m[2], flag)
		if !ok {
			continue
		}
		lines[i] = m[1] + value + line[len(body):]
		return strings.Join(lines, ""), true
	}
	return content, false
}
