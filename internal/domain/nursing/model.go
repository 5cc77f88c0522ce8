package nursing

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecordTypes are the documentation categories a note can carry. VitalSign
// notes hold a "type:BP|value:120/80" style payload in Content.
var RecordTypes = []string{
	"Subjective", "Objective", "Intervention", "Evaluation", "NarrativeNote", "VitalSign",
}

// Note maps to the nursing_notes table.
type Note struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	RecordTime        time.Time  `db:"record_time" json:"record_time"`
	RecordType        string     `db:"record_type" json:"record_type"`
	Content           string     `db:"content" json:"content"`
	AudioFilePath     *string    `db:"audio_file_path" json:"audio_file_path,omitempty"`
	TranscriptionText *string    `db:"transcription_text" json:"transcription_text,omitempty"`
	CreatedBy         *uuid.UUID `db:"created_by" json:"created_by,omitempty"`
	Shift             *string    `db:"shift" json:"shift,omitempty"`
	Priority          string     `db:"priority" json:"priority"`
}

// Vital splits a structured VitalSign payload into its type and value parts.
// Unstructured content falls back to the record type as the category.
func (n *Note) Vital() (category, value string) {
	category, value = n.RecordType, n.Content
	if !strings.Contains(n.Content, "|") {
		return category, value
	}
	for _, part := range strings.Split(n.Content, "|") {
		switch {
		case strings.HasPrefix(part, "type:"):
			category = strings.TrimSpace(strings.TrimPrefix(part, "type:"))
		case strings.HasPrefix(part, "value:"):
			value = strings.TrimSpace(strings.TrimPrefix(part, "value:"))
		}
	}
	return category, value
}
