package discharge

import (
	"time"

	"github.com/google/uuid"

	"github.com/privnurse/api/internal/platform/clindoc"
)

// Note maps to the discharge_notes table. A patient carries at most one.
type Note struct {
	ID              uuid.UUID                `db:"id" json:"id"`
	PatientID       uuid.UUID                `db:"patient_id" json:"patient_id"`
	ChiefComplaint  *string                  `db:"chief_complaint" json:"chief_complaint,omitempty"`
	Diagnosis       []clindoc.DiagnosisEntry `db:"diagnosis" json:"diagnosis"`
	TreatmentCourse *string                  `db:"treatment_course" json:"treatment_course,omitempty"`
	DischargeDate   *time.Time               `db:"discharge_date" json:"discharge_date,omitempty"`
	CreatedBy       *uuid.UUID               `db:"created_by" json:"created_by,omitempty"`
	ApprovedBy      *uuid.UUID               `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time               `db:"approved_at" json:"approved_at,omitempty"`
	Status          string                   `db:"status" json:"status"`
}

// EncounterData is everything the document builder stitches together for one
// patient: the summary-field sources plus the chronology rows.
type EncounterData struct {
	ChiefComplaint string
	Diagnosis      any
	PatientNotes   string
	Nursing        []clindoc.NursingRow
	Labs           []clindoc.LabRow
	Consults       []clindoc.ConsultRow
}
