package consultation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/privnurse/api/internal/platform/auth"
)

// RecordAIConsultation persists a confirmed consultation produced by the
// AI-assisted workflow. Duplicates of an identical submission are rejected by
// CreateRecord.
func (s *Service) RecordAIConsultation(ctx context.Context, patientID uuid.UUID, original, summary, confirmation string, highlights []string) error {
	doctor := "AI-Assisted Consultation"
	department := "General"
	now := time.Now()
	rec := &Record{
		PatientID:          patientID,
		DoctorName:         &doctor,
		Department:         &department,
		ConsultationType:   "initial",
		OriginalContent:    original,
		AISummary:          &summary,
		NurseConfirmation:  &confirmation,
		RelevantHighlights: highlights,
		Status:             "confirmed",
		ConfirmedAt:        &now,
	}
	if id, err := uuid.Parse(auth.UserIDFromContext(ctx)); err == nil {
		rec.ConfirmedBy = &id
	}
	return s.CreateRecord(ctx, rec)
}
