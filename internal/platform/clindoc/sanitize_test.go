package clindoc

import "testing"

func TestSanitize(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"plain", "hello", "hello"},
		{"paragraph tags", "<p>BP stable</p>", "BP stable"},
		{"nested paragraphs", "<p><p>note</p></p>", "note"},
		{"whitespace", "  wound care  ", "wound care"},
		{"nil string pointer", (*string)(nil), ""},
		{"number", 42, "42"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Sanitize(tc.in); got != tc.want {
				t.Errorf("Sanitize(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitizeForMarkup(t *testing.T) {
	got := SanitizeForMarkup(`Na+ <135 & K+ >5 "critical" 'low'`)
	want := "Na+ &lt;135 &amp; K+ &gt;5 &quot;critical&quot; &apos;low&apos;"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSanitizeForMarkupNoDoubleEscape(t *testing.T) {
	// An ampersand already part of the input must become &amp; exactly once.
	if got := SanitizeForMarkup("A&amp;B"); got != "A&amp;amp;B" {
		t.Errorf("got %q", got)
	}
}
