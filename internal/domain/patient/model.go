package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/privnurse/api/internal/platform/clindoc"
)

// Patient maps to the patients table. Diagnosis is stored as a jsonb list of
// categorized entries so the discharge document builder can bucket them.
type Patient struct {
	ID                    uuid.UUID                `db:"id" json:"id"`
	MedicalRecordNo       string                   `db:"medical_record_no" json:"medical_record_no"`
	PatientCategory       string                   `db:"patient_category" json:"patient_category"`
	Name                  string                   `db:"name" json:"name"`
	Gender                string                   `db:"gender" json:"gender"`
	Weight                *float64                 `db:"weight" json:"weight,omitempty"`
	Department            string                   `db:"department" json:"department"`
	Birthday              time.Time                `db:"birthday" json:"birthday"`
	AdmissionTime         *time.Time               `db:"admission_time" json:"admission_time,omitempty"`
	DischargeTime         *time.Time               `db:"discharge_time" json:"discharge_time,omitempty"`
	BedNumber             *string                  `db:"bed_number" json:"bed_number,omitempty"`
	Status                string                   `db:"status" json:"status"`
	ChiefComplaint        *string                  `db:"chief_complaint" json:"chief_complaint,omitempty"`
	Diagnosis             []clindoc.DiagnosisEntry `db:"diagnosis" json:"diagnosis,omitempty"`
	Notes                 *string                  `db:"notes" json:"notes,omitempty"`
	EmergencyContactName  *string                  `db:"emergency_contact_name" json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string                  `db:"emergency_contact_phone" json:"emergency_contact_phone,omitempty"`
	InsuranceNumber       *string                  `db:"insurance_number" json:"insurance_number,omitempty"`
	CreatedAt             time.Time                `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time                `db:"updated_at" json:"updated_at"`
	CreatedBy             *uuid.UUID               `db:"created_by" json:"created_by,omitempty"`
}

// FieldChange is one audited field edit on a patient record.
type FieldChange struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	PatientID uuid.UUID  `db:"patient_id" json:"patient_id"`
	FieldName string     `db:"field_name" json:"field_name"`
	OldValue  *string    `db:"old_value" json:"old_value,omitempty"`
	NewValue  *string    `db:"new_value" json:"new_value,omitempty"`
	ChangedBy *uuid.UUID `db:"changed_by" json:"changed_by,omitempty"`
	ChangedAt time.Time  `db:"changed_at" json:"changed_at"`
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timeVal(t *time.Time, layout string) string {
	if t == nil {
		return ""
	}
	return t.Format(layout)
}
