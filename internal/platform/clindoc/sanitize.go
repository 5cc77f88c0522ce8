// Package clindoc assembles heterogeneous clinical records (nursing notes,
// lab panels, consultation replies) into a single chronological markup
// document consumed by the summary-generation model. All functions are pure
// transformations over already-fetched rows; the package performs no I/O.
package clindoc

import (
	"fmt"
	"regexp"
	"strings"
)

var paragraphTags = regexp.MustCompile(`</?p>`)

// xmlEscaper escapes the five reserved markup characters. Ampersand is first
// so entities produced by the later replacements are not escaped again.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Sanitize coerces v to text, strips <p>/</p> artifacts left by rich-text
// editors, and trims surrounding whitespace. Nil input yields "".
func Sanitize(v any) string {
	if v == nil {
		return ""
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case *string:
		if t == nil {
			return ""
		}
		s = *t
	case fmt.Stringer:
		s = t.String()
	default:
		s = fmt.Sprintf("%v", t)
	}
	return strings.TrimSpace(paragraphTags.ReplaceAllString(s, ""))
}

// SanitizeForMarkup sanitizes v and additionally escapes the characters that
// are reserved inside the assembled document.
func SanitizeForMarkup(v any) string {
	return xmlEscaper.Replace(Sanitize(v))
}
