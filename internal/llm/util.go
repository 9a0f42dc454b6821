// Package llm - util.go provides helpers for turning free-form model answers into lists.
package llm

import (
	"regexp"
	"strings"
)

var numberedLine = regexp.MustCompile(`^\d+\.\s+`)

// NumberedItems returns the text of every line shaped like "1. Item", in order.
// Lines without a leading number are ignored.
func NumberedItems(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !numberedLine.MatchString(line) {
			continue
		}
		item := strings.TrimSpace(numberedLine.ReplaceAllString(line, ""))
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// StripPreamble drops a leading "Here are...:" clause: everything up to and including
// the first colon on the first line. Text without one is returned unchanged.
func StripPreamble(text string) string {
	firstLine := text
	if nl := strings.Index(text, "\n"); nl >= 0 {
		firstLine = text[:nl]
	}
	if idx := strings.Index(firstLine, ":"); idx >= 0 {
		return text[idx+1:]
	}
	return text
}

// SplitList splits on commas, semicolons and newlines and trims every element.
// Empty elements are dropped.
func SplitList(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
