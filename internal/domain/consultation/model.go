package consultation

import (
	"time"

	"github.com/google/uuid"
)

// Record maps to the consultation_records table. RelevantHighlights keeps the
// spans the validation model grounded the confirmed summary on.
type Record struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	PatientID          uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorName         *string    `db:"doctor_name" json:"doctor_name,omitempty"`
	ConsultationDate   time.Time  `db:"consultation_date" json:"consultation_date"`
	Department         *string    `db:"department" json:"department,omitempty"`
	ConsultationType   string     `db:"consultation_type" json:"consultation_type"`
	OriginalContent    string     `db:"original_content" json:"original_content"`
	AISummary          *string    `db:"ai_summary" json:"ai_summary,omitempty"`
	NurseConfirmation  *string    `db:"nurse_confirmation" json:"nurse_confirmation,omitempty"`
	RelevantHighlights []string   `db:"relevant_highlights" json:"relevant_highlights,omitempty"`
	Status             string     `db:"status" json:"status"`
	CreatedBy          *uuid.UUID `db:"created_by" json:"created_by,omitempty"`
	ConfirmedBy        *uuid.UUID `db:"confirmed_by" json:"confirmed_by,omitempty"`
	ConfirmedAt        *time.Time `db:"confirmed_at" json:"confirmed_at,omitempty"`
}
