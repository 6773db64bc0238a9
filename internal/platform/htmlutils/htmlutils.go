// Package htmlutils provides HTML helpers for Telegram replies.
//
// The package handles:
//   - UTF-16 length calculation (Telegram's native encoding)
//   - Tag stripping for upstream rich text
//   - Splitting long plain-text replies at line boundaries
package htmlutils

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf16"
)

var tagRegex = regexp.MustCompile(`<(/?)([a-zA-Z0-9-]+)([^>]*)>`)

// UTF16Len returns the number of UTF-16 code units needed to encode the string.
// Telegram counts message length in UTF-16 code units, not Unicode code points.
func UTF16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// StripHTMLTags removes all HTML tags from text, keeping only the content.
// Dynamic bodies and opus summaries occasionally carry markup from the web
// renderer; replies are sent as plain text.
func StripHTMLTags(text string) string {
	result := tagRegex.ReplaceAllString(text, "")
	result = html.UnescapeString(result)

	return strings.TrimSpace(result)
}

// SplitPlain splits a plain-text message into parts within limit UTF-16 code
// units each, preferring line breaks as split points.
func SplitPlain(text string, limit int) []string {
	if UTF16Len(text) <= limit {
		return []string{text}
	}

	var parts []string

	var current strings.Builder

	currentLen := 0

	for _, line := range strings.SplitAfter(text, "\n") {
		lineLen := UTF16Len(line)

		if currentLen+lineLen > limit && currentLen > 0 {
			parts = append(parts, strings.TrimRight(current.String(), "\n"))
			current.Reset()

			currentLen = 0
		}

		// A single line over the limit is cut hard.
		for lineLen > limit {
			head := utf16Slice(line, limit)
			parts = append(parts, head)
			line = line[len(head):]
			lineLen = UTF16Len(line)
		}

		current.WriteString(line)

		currentLen += lineLen
	}

	if rest := strings.TrimRight(current.String(), "\n"); rest != "" {
		parts = append(parts, rest)
	}

	return parts
}

// utf16Slice safely slices a string by UTF-16 code unit count.
func utf16Slice(s string, maxUnits int) string {
	runes := []rune(s)
	units := 0

	for i, r := range runes {
		runeUnits := 1
		if r > 0xFFFF {
			runeUnits = 2 // Surrogate pair needed
		}

		if units+runeUnits > maxUnits {
			return string(runes[:i])
		}

		units += runeUnits
	}

	return s
}
