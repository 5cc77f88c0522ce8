package llm

import (
	"errors"
	"testing"
)

func TestReconcileStrict(t *testing.T) {
	got, err := Reconcile(`{"relevant_text": ["fever resolved", "wound clean"]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.RelevantText) != 2 || got.RelevantText[0] != "fever resolved" {
		t.Errorf("spans = %v", got.RelevantText)
	}
}

func TestReconcileSingleString(t *testing.T) {
	got, err := Reconcile(`{"relevant_text": "afebrile overnight"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.RelevantText) != 1 || got.RelevantText[0] != "afebrile overnight" {
		t.Errorf("spans = %v", got.RelevantText)
	}
}

func TestReconcileEscapeRepair(t *testing.T) {
	got, err := Reconcile(`{"relevant_text": ["order 50\#tab daily"]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RelevantText[0] != "order 50#tab daily" {
		t.Errorf("span = %q", got.RelevantText[0])
	}
}

func TestReconcilePythonLiteral(t *testing.T) {
	got, err := Reconcile(`{'relevant_text': ['on room air'], 'confirmed': True}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RelevantText[0] != "on room air" {
		t.Errorf("span = %q", got.RelevantText[0])
	}
}

func TestReconcilePythonLiteralPreservesSpanText(t *testing.T) {
	got, err := Reconcile(`{'relevant_text': ["patient's wound clean", 'reported None symptoms True to baseline'], 'confirmed': True}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RelevantText[0] != "patient's wound clean" {
		t.Errorf("span = %q, apostrophe mangled", got.RelevantText[0])
	}
	if got.RelevantText[1] != "reported None symptoms True to baseline" {
		t.Errorf("span = %q, keyword-looking words rewritten inside text", got.RelevantText[1])
	}
}

func TestReconcilePythonLiteralEscapedQuote(t *testing.T) {
	got, err := Reconcile(`{'relevant_text': ['patient\'s O2 at 94%'], 'flagged': False}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RelevantText[0] != "patient's O2 at 94%" {
		t.Errorf("span = %q", got.RelevantText[0])
	}
}

func TestReconcileMissingField(t *testing.T) {
	for _, raw := range []string{
		`{"summary": "no highlights"}`,
		`{"relevant_text": []}`,
		`{"relevant_text": ""}`,
		`{"relevant_text": null}`,
	} {
		_, err := Reconcile(raw)
		if !errors.Is(err, ErrMissingField) {
			t.Errorf("Reconcile(%s) err = %v, want ErrMissingField", raw, err)
		}
	}
}

func TestReconcileUnparsable(t *testing.T) {
	for _, raw := range []string{"", "not json at all", `["just", "a", "list"]`} {
		_, err := Reconcile(raw)
		if !errors.Is(err, ErrUnparsableResponse) {
			t.Errorf("Reconcile(%q) err = %v, want ErrUnparsableResponse", raw, err)
		}
	}
}

func TestExtractAnswer(t *testing.T) {
	raw := "thinking...\n<answer>\nPatient stable for discharge.\n</answer>\ntrailing"
	if got := ExtractAnswer(raw); got != "Patient stable for discharge." {
		t.Errorf("got %q", got)
	}
	if got := ExtractAnswer("no tags here"); got != "no tags here" {
		t.Errorf("got %q", got)
	}
}

func TestSliceJSONObject(t *testing.T) {
	raw := "Sure, here is the JSON: {\"relevant_text\": [\"x\"]} hope that helps"
	if got := SliceJSONObject(raw); got != `{"relevant_text": ["x"]}` {
		t.Errorf("got %q", got)
	}
	if got := SliceJSONObject("no braces"); got != "no braces" {
		t.Errorf("got %q", got)
	}
	if got := SliceJSONObject("} reversed {"); got != "} reversed {" {
		t.Errorf("got %q", got)
	}
}
