package lab

import (
	"time"

	"github.com/google/uuid"
)

// Report maps to the lab_reports table. TestDate carries day precision only;
// results from the same day are grouped in the discharge document.
type Report struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	TestName      string     `db:"test_name" json:"test_name"`
	TestDate      time.Time  `db:"test_date" json:"test_date"`
	ResultValue   string     `db:"result_value" json:"result_value"`
	ResultUnit    *string    `db:"result_unit" json:"result_unit,omitempty"`
	NormalRange   *string    `db:"normal_range" json:"normal_range,omitempty"`
	Flag          string     `db:"flag" json:"flag"`
	LabTechnician *string    `db:"lab_technician" json:"lab_technician,omitempty"`
	OrderedBy     *uuid.UUID `db:"ordered_by" json:"ordered_by,omitempty"`
}
