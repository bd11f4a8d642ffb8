// Package util holds small string helpers for the parser.
package util

import (
	"strings"
	"unicode"
)

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// SplitFields splits a line on whitespace, keeping double-quoted runs together.
// Quotes are stripped from the returned fields; `""` inside quotes is a literal quote.
func SplitFields(line string) []string {
	var (
		fields  []string
		cur     strings.Builder
		inQuote bool
		started bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' && inQuote && i+1 < len(runes) && runes[i+1] == '"':
			cur.WriteRune('"')
			i++
		case r == '"':
			inQuote = !inQuote
			started = true
		case unicode.IsSpace(r) && !inQuote:
			if started {
				fields = append(fields, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if started {
		fields = append(fields, cur.String())
	}
	return fields
}
