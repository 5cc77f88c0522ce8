package clindoc

import (
	"fmt"
	"strings"
)

// SummaryFields are the encounter-level header values rendered inside the
// Summary block. Values are raw record text; Assemble sanitizes and escapes
// them.
type SummaryFields struct {
	PrimaryDiagnosis   string
	SecondaryDiagnosis string
	PastMedicalHistory string
	ChiefComplaint     string
	PresentIllness     string
}

// Assemble merges the event groups in argument order, stable-sorts them by
// timestamp, and wraps them with the summary fields into one PatientEncounter
// document. Pass groups as consultations, labs, nursing so same-timestamp
// events keep that relative order. All five summary tags are rendered even
// when empty so the downstream model sees a fixed header shape.
func Assemble(fields SummaryFields, hint LengthHint, groups ...[]Event) string {
	merged := MergeEvents(groups...)
	markup := make([]string, len(merged))
	for i, e := range merged {
		markup[i] = e.Markup
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<PatientEncounter summary_length_style=\"%s\">\n", hint)
	b.WriteString("    <Summary>\n")
	fmt.Fprintf(&b, "        <PrimaryDiagnosis>%s</PrimaryDiagnosis>\n", SanitizeForMarkup(fields.PrimaryDiagnosis))
	fmt.Fprintf(&b, "        <SecondaryDiagnosis>%s</SecondaryDiagnosis>\n", SanitizeForMarkup(fields.SecondaryDiagnosis))
	fmt.Fprintf(&b, "        <PastMedicalHistory>%s</PastMedicalHistory>\n", SanitizeForMarkup(fields.PastMedicalHistory))
	fmt.Fprintf(&b, "        <ChiefComplaint>%s</ChiefComplaint>\n", SanitizeForMarkup(fields.ChiefComplaint))
	fmt.Fprintf(&b, "        <PresentIllness>%s</PresentIllness>\n", SanitizeForMarkup(fields.PresentIllness))
	b.WriteString("    </Summary>\n")
	b.WriteString("    <ChronologicalEvents>\n")
	if len(markup) > 0 {
		b.WriteString(strings.Join(markup, "\n"))
		b.WriteString("\n")
	}
	b.WriteString("    </ChronologicalEvents>\n")
	b.WriteString("</PatientEncounter>")
	return b.String()
}

// AssembleForEncounter derives the length hint from the combined size of the
// header fields and event markup, the way the live request path does, then
// assembles the document.
func AssembleForEncounter(fields SummaryFields, groups ...[]Event) string {
	merged := MergeEvents(groups...)
	total := len(fields.PrimaryDiagnosis) + len(fields.SecondaryDiagnosis) +
		len(fields.PastMedicalHistory) + len(fields.ChiefComplaint) + len(fields.PresentIllness)
	for _, e := range merged {
		total += len(e.Markup)
	}
	return Assemble(fields, ClassifyChars(total), merged)
}
