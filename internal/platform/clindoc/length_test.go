package clindoc

import "testing"

func TestClassifyChars(t *testing.T) {
	cases := []struct {
		n    int
		want LengthHint
	}{
		{-1, LengthUnknown},
		{0, LengthShort},
		{1199, LengthShort},
		{1200, LengthMedium},
		{2099, LengthMedium},
		{2100, LengthLong},
		{10000, LengthLong},
	}
	for _, tc := range cases {
		if got := ClassifyChars(tc.n); got != tc.want {
			t.Errorf("ClassifyChars(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestLengthHintTokens(t *testing.T) {
	want := map[LengthHint]string{
		LengthShort:   "short",
		LengthMedium:  "medium",
		LengthLong:    "long",
		LengthUnknown: "unknown",
	}
	for hint, token := range want {
		if string(hint) != token {
			t.Errorf("hint token = %q, want %q", hint, token)
		}
	}
}

func TestClassifyWords(t *testing.T) {
	cases := []struct {
		n    int
		want LengthHint
	}{
		{-5, LengthUnknown},
		{399, LengthShort},
		{400, LengthMedium},
		{699, LengthMedium},
		{700, LengthLong},
	}
	for _, tc := range cases {
		if got := ClassifyWords(tc.n); got != tc.want {
			t.Errorf("ClassifyWords(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}
