package clindoc

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DiagnosisEntry is one element of a patient's diagnosis list as stored in
// the record. Category is free text supplied by the documenting clinician.
type DiagnosisEntry struct {
	Category  string `json:"category"`
	Diagnosis string `json:"diagnosis"`
	Code      string `json:"code,omitempty"`
}

// DiagnosisBuckets holds the diagnosis list regrouped into the four summary
// fields. Each field is a "; "-joined list of sanitized diagnosis texts and
// is not yet markup-escaped.
type DiagnosisBuckets struct {
	Primary   string
	Secondary string
	Past      string
	Present   string
}

// NormalizeDiagnoses regroups a stored diagnosis list into summary buckets.
// It accepts a JSON-encoded string, []DiagnosisEntry, or the []any shape a
// generic JSON decode produces. Category matching is case-insensitive
// substring: "primary" wins over the others, then "secondary", "past",
// "present"/"current"; anything else lands in Secondary. List elements that
// are not objects are stringified into Primary. Input that cannot be
// interpreted as a list at all is treated as a single primary diagnosis.
func NormalizeDiagnoses(raw any) DiagnosisBuckets {
	entries, ok := diagnosisEntries(raw)
	if !ok {
		return DiagnosisBuckets{Primary: Sanitize(raw)}
	}
	var primary, secondary, past, present []string
	for _, e := range entries {
		text := e.format()
		category := strings.ToLower(e.Category)
		switch {
		case strings.Contains(category, "primary"):
			primary = append(primary, text)
		case strings.Contains(category, "secondary"):
			secondary = append(secondary, text)
		case strings.Contains(category, "past"):
			past = append(past, text)
		case strings.Contains(category, "present"), strings.Contains(category, "current"):
			present = append(present, text)
		default:
			secondary = append(secondary, text)
		}
	}
	return DiagnosisBuckets{
		Primary:   strings.Join(primary, "; "),
		Secondary: strings.Join(secondary, "; "),
		Past:      strings.Join(past, "; "),
		Present:   strings.Join(present, "; "),
	}
}

// format renders one entry for its bucket: "text (code)" when both are
// present, the bare text when only it is, and a stringified entry when the
// diagnosis text is missing entirely.
func (e DiagnosisEntry) format() string {
	text := Sanitize(e.Diagnosis)
	code := Sanitize(e.Code)
	switch {
	case text != "" && code != "":
		return text + " (" + code + ")"
	case text != "":
		return text
	default:
		return Sanitize(fmt.Sprintf("%v", e))
	}
}

func diagnosisEntries(raw any) ([]DiagnosisEntry, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, true
	case []DiagnosisEntry:
		return v, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, true
		}
		var list []any
		if err := json.Unmarshal([]byte(s), &list); err != nil {
			return nil, false
		}
		return diagnosisEntries(list)
	case []any:
		entries := make([]DiagnosisEntry, 0, len(v))
		for _, elem := range v {
			m, ok := elem.(map[string]any)
			if !ok {
				entries = append(entries, DiagnosisEntry{Category: "primary", Diagnosis: fmt.Sprintf("%v", elem)})
				continue
			}
			entries = append(entries, DiagnosisEntry{
				Category:  Sanitize(m["category"]),
				Diagnosis: Sanitize(m["diagnosis"]),
				Code:      Sanitize(m["code"]),
			})
		}
		return entries, true
	default:
		return nil, false
	}
}
