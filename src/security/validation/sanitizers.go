package validation

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxNoteLength bounds the free-text note stored on a report row.
const MaxNoteLength = 500

var strictHTMLPolicy = bluemonday.StrictPolicy()

// SanitizeText removes all HTML tags and attributes from an input string.
func SanitizeText(s string) string {
	return strictHTMLPolicy.Sanitize(s)
}

// StripUnprintable removes non-printable characters, allowing common whitespace
// like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}

// SanitizeNote cleans text that ends up in a report note, such as reader error messages
// that may echo file content. Entities are decoded again since notes are stored as plain text.
// The result is capped at MaxNoteLength runes.
func SanitizeNote(s string) string {
	cleaned := strings.TrimSpace(StripUnprintable(html.UnescapeString(SanitizeText(s))))
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if utf8.RuneCountInString(cleaned) > MaxNoteLength {
		runes := []rune(cleaned)
		cleaned = string(runes[:MaxNoteLength-3]) + "..."
	}
	return cleaned
}
