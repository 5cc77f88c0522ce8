package clindoc

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Timestamp is the wire format for event timestamps inside the document.
const Timestamp = "2006-01-02 15:04:05"

// DateOnly is the wire format for the LabReportGroup date attribute.
const DateOnly = "2006-01-02"

// Event is one timestamped markup fragment ready to be merged into a
// document. Markup is final; Assemble interpolates it verbatim.
type Event struct {
	When   time.Time
	Markup string
}

// NursingRow carries one nursing record. A zero RecordedAt marks a row whose
// timestamp could not be resolved; such rows produce no event. The vital-sign
// pair and the five note fields are all optional.
type NursingRow struct {
	RecordedAt    time.Time
	VitalCategory string
	VitalValue    string
	Subjective    string
	Objective     string
	Intervention  string
	Evaluation    string
	Narrative     string
}

// LabRow carries one laboratory result. TestDate is the collection date;
// time-of-day is ignored when grouping.
type LabRow struct {
	TestName    string
	ResultValue string
	Unit        string
	Flag        string
	TestDate    time.Time
}

// ConsultRow carries one consultation reply. Reply is the responding party's
// confirmed text; rows with an empty reply or zero timestamp produce no
// event.
type ConsultRow struct {
	RepliedAt time.Time
	Reply     string
}

var soapTags = [5]string{"Subjective", "Objective", "Intervention", "Evaluation", "NarrativeNote"}

func (r NursingRow) soapFields() [5]string {
	return [5]string{r.Subjective, r.Objective, r.Intervention, r.Evaluation, r.Narrative}
}

// FormatNursingEvents renders one NursingEvent per row. A VitalSign child is
// emitted only when both category and value are present; a SOAPNote child is
// emitted when at least one note field is non-empty after sanitization. Rows
// yielding neither child are dropped.
func FormatNursingEvents(rows []NursingRow) []Event {
	events := make([]Event, 0, len(rows))
	for _, r := range rows {
		if r.RecordedAt.IsZero() {
			continue
		}
		var parts []string
		category := SanitizeForMarkup(r.VitalCategory)
		value := SanitizeForMarkup(r.VitalValue)
		if category != "" && value != "" {
			parts = append(parts, fmt.Sprintf(`    <VitalSign type="%s" value="%s" />`, category, value))
		}
		var soap []string
		for i, field := range r.soapFields() {
			content := SanitizeForMarkup(field)
			if content != "" {
				soap = append(soap, fmt.Sprintf("        <%s>%s</%s>", soapTags[i], content, soapTags[i]))
			}
		}
		if len(soap) > 0 {
			parts = append(parts, "    <SOAPNote>\n"+strings.Join(soap, "\n")+"\n    </SOAPNote>")
		}
		if len(parts) == 0 {
			continue
		}
		markup := fmt.Sprintf("<NursingEvent timestamp=\"%s\">\n%s\n</NursingEvent>",
			r.RecordedAt.Format(Timestamp), strings.Join(parts, "\n"))
		events = append(events, Event{When: r.RecordedAt, Markup: markup})
	}
	return events
}

// FormatLabEvents groups rows by calendar day and renders one LabReportGroup
// per day with an Item child per result. The event timestamp is midnight of
// the group's day, so a day's panel sorts ahead of that day's timed events.
// Item content is the result value, followed by the unit when present and
// the flag in parentheses when present and not NORMAL.
func FormatLabEvents(rows []LabRow) []Event {
	type group struct {
		day   time.Time
		items []string
	}
	var order []time.Time
	groups := make(map[time.Time]*group)
	for _, r := range rows {
		if r.TestDate.IsZero() {
			continue
		}
		day := time.Date(r.TestDate.Year(), r.TestDate.Month(), r.TestDate.Day(), 0, 0, 0, 0, r.TestDate.Location())
		g, ok := groups[day]
		if !ok {
			g = &group{day: day}
			groups[day] = g
			order = append(order, day)
		}
		content := SanitizeForMarkup(r.ResultValue)
		if unit := SanitizeForMarkup(r.Unit); unit != "" {
			content += " " + unit
		}
		if flag := SanitizeForMarkup(r.Flag); flag != "" && flag != "NORMAL" {
			content += fmt.Sprintf(" (%s)", flag)
		}
		g.items = append(g.items, fmt.Sprintf(`    <Item name="%s">%s</Item>`, SanitizeForMarkup(r.TestName), content))
	}
	events := make([]Event, 0, len(order))
	for _, day := range order {
		g := groups[day]
		markup := fmt.Sprintf("<LabReportGroup date=\"%s\">\n%s\n</LabReportGroup>",
			day.Format(DateOnly), strings.Join(g.items, "\n"))
		events = append(events, Event{When: day, Markup: markup})
	}
	return events
}

// FormatConsultationEvents renders one Consultation event per row that has a
// non-empty confirmed reply. Draft consultations are represented by an empty
// reply and are skipped.
func FormatConsultationEvents(rows []ConsultRow) []Event {
	events := make([]Event, 0, len(rows))
	for _, r := range rows {
		if r.RepliedAt.IsZero() {
			continue
		}
		content := SanitizeForMarkup(r.Reply)
		if content == "" {
			continue
		}
		markup := fmt.Sprintf("<Consultation timestamp=\"%s\">\n    <Content>\n    %s\n    </Content>\n</Consultation>",
			r.RepliedAt.Format(Timestamp), content)
		events = append(events, Event{When: r.RepliedAt, Markup: markup})
	}
	return events
}

// MergeEvents concatenates the groups in argument order and stable-sorts by
// timestamp. Events sharing a timestamp keep the order of the groups they
// came from.
func MergeEvents(groups ...[]Event) []Event {
	var merged []Event
	for _, g := range groups {
		merged = append(merged, g...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].When.Before(merged[j].When)
	})
	return merged
}

var timestampLayouts = []string{
	Timestamp,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	DateOnly,
	"200601021504",
}

// ParseTimestamp tries the timestamp formats seen in hospital exports and
// API payloads. Values that match no layout come back as the zero time, which
// the formatters treat as an absent timestamp.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
