package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMissingField marks a response that parsed cleanly but carried no
// relevant_text payload. Callers treat this differently from a response that
// could not be parsed at all.
var ErrMissingField = errors.New("response has no relevant_text field")

// ErrUnparsableResponse marks a response no parsing strategy could decode.
var ErrUnparsableResponse = errors.New("response is not parsable")

// Reconciled is the structured form of one validation response.
type Reconciled struct {
	RelevantText []string
}

// escapeRepairs undoes invalid JSON escapes the generation model sometimes
// emits for clinical symbols. The table is deliberately narrow so legitimate
// escaped content is left alone.
var escapeRepairs = strings.NewReplacer(
	`\#`, "#",
	`\*`, "*",
	`\&`, "&",
	`\%`, "%",
	`\@`, "@",
	`\_`, "_",
	`\~`, "~",
	`\$`, "$",
)

// pythonToJSON rewrites a Python-literal payload into JSON. Quote and keyword
// handling is positional: only quotes that delimit strings are swapped and
// only bare True/False/None tokens are rewritten, so an apostrophe or a
// keyword-looking word inside span text survives intact.
func pythonToJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		switch c := s[i]; {
		case c == '\'' || c == '"':
			i = rewriteQuoted(&b, s, i)
		case isWordByte(c):
			j := i
			for j < len(s) && isWordByte(s[j]) {
				j++
			}
			switch word := s[i:j]; word {
			case "True":
				b.WriteString("true")
			case "False":
				b.WriteString("false")
			case "None":
				b.WriteString("null")
			default:
				b.WriteString(word)
			}
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// rewriteQuoted copies the quoted string starting at s[i] as a double-quoted
// JSON string and returns the index just past its closing quote.
func rewriteQuoted(b *strings.Builder, s string, i int) int {
	quote := s[i]
	b.WriteByte('"')
	i++
	for i < len(s) {
		switch c := s[i]; {
		case c == '\\' && i+1 < len(s):
			// \' is not a valid JSON escape; everything else passes through.
			if s[i+1] == '\'' {
				b.WriteByte('\'')
			} else {
				b.WriteByte('\\')
				b.WriteByte(s[i+1])
			}
			i += 2
		case c == quote:
			b.WriteByte('"')
			return i + 1
		case c == '"':
			b.WriteString(`\"`)
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	// unterminated string; close it so the decoder reports a clean failure
	b.WriteByte('"')
	return i
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

type parseStrategy struct {
	name    string
	prepare func(string) string
}

// strategies are attempted in order; each later entry is more permissive
// than the one before it.
var strategies = []parseStrategy{
	{name: "strict", prepare: func(s string) string { return s }},
	{name: "escape-repair", prepare: escapeRepairs.Replace},
	{name: "python-literal", prepare: func(s string) string { return pythonToJSON(escapeRepairs.Replace(s)) }},
}

// Reconcile decodes one raw validation response. Strategies run in order
// until one yields a JSON object; a successful parse without a usable
// relevant_text field returns ErrMissingField, and exhaustion of all
// strategies returns ErrUnparsableResponse.
func Reconcile(raw string) (*Reconciled, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty response", ErrUnparsableResponse)
	}
	for _, s := range strategies {
		var payload map[string]any
		if err := json.Unmarshal([]byte(s.prepare(trimmed)), &payload); err != nil {
			continue
		}
		spans, ok := relevantSpans(payload["relevant_text"])
		if !ok || len(spans) == 0 {
			return nil, ErrMissingField
		}
		return &Reconciled{RelevantText: spans}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnparsableResponse, preview(trimmed))
}

func relevantSpans(v any) ([]string, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, false
		}
		return []string{t}, true
	case []any:
		var spans []string
		for _, elem := range t {
			s, ok := elem.(string)
			if !ok {
				s = fmt.Sprintf("%v", elem)
			}
			if strings.TrimSpace(s) != "" {
				spans = append(spans, s)
			}
		}
		return spans, true
	default:
		return []string{fmt.Sprintf("%v", t)}, true
	}
}

func preview(s string) string {
	const max = 200
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

var answerPattern = regexp.MustCompile(`(?s)<answer>(.*?)</answer>`)

// ExtractAnswer returns the inner text of the first <answer> span, trimmed.
// When the response carries no answer tags the whole response is returned
// unchanged so downstream parsing can still try it.
func ExtractAnswer(raw string) string {
	if m := answerPattern.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return raw
}

// SliceJSONObject cuts the substring from the first '{' to the last '}' of
// raw. Generation output often wraps the JSON object in prose; slicing the
// braces out lets the strict strategy succeed anyway. Returns raw unchanged
// when no complete brace pair exists.
func SliceJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return raw
	}
	return raw[start : end+1]
}
