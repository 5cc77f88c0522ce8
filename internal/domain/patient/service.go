package patient

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/privnurse/api/internal/platform/auth"
	"github.com/privnurse/api/internal/platform/clindoc"
)

type Service struct {
	repo PatientRepository
}

func NewService(repo PatientRepository) *Service {
	return &Service{repo: repo}
}

var validCategories = map[string]bool{
	"NHI General": true, "NHI Injury": true, "Self-Pay": true,
}

var validGenders = map[string]bool{"M": true, "F": true}

var validStatuses = map[string]bool{
	"HOSPITALIZED": true, "DISCHARGED": true, "TRANSFERRED": true,
}

func (s *Service) validate(p *Patient) error {
	if p.MedicalRecordNo == "" {
		return fmt.Errorf("medical_record_no is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !validCategories[p.PatientCategory] {
		return fmt.Errorf("invalid patient_category: %s", p.PatientCategory)
	}
	if !validGenders[p.Gender] {
		return fmt.Errorf("invalid gender: %s", p.Gender)
	}
	if p.Status != "" && !validStatuses[p.Status] {
		return fmt.Errorf("invalid status: %s", p.Status)
	}
	return nil
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.Status == "" {
		p.Status = "HOSPITALIZED"
	}
	if err := s.validate(p); err != nil {
		return err
	}
	if existing, err := s.repo.GetByMRN(ctx, p.MedicalRecordNo); err == nil && existing != nil {
		return fmt.Errorf("patient with medical record number %s already exists", p.MedicalRecordNo)
	}
	if actor := actorID(ctx); actor != nil {
		p.CreatedBy = actor
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetPatientByMRN(ctx context.Context, mrn string) (*Patient, error) {
	return s.repo.GetByMRN(ctx, mrn)
}

// UpdatePatient writes the new state and records a field-level change trail
// against the previous state.
func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.Status == "" {
		p.Status = "HOSPITALIZED"
	}
	if err := s.validate(p); err != nil {
		return err
	}
	prev, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("patient not found: %w", err)
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	changes := diffPatients(prev, p, actorID(ctx))
	if len(changes) > 0 {
		return s.repo.RecordChanges(ctx, changes)
	}
	return nil
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, filter ListFilter, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *Service) Departments(ctx context.Context) ([]string, error) {
	return s.repo.Departments(ctx)
}

func (s *Service) PatientHistory(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*FieldChange, int, error) {
	return s.repo.ListChanges(ctx, patientID, limit, offset)
}

func actorID(ctx context.Context) *uuid.UUID {
	id, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return nil
	}
	return &id
}

func diffPatients(prev, next *Patient, actor *uuid.UUID) []*FieldChange {
	fields := []struct {
		name     string
		old, new string
	}{
		{"medical_record_no", prev.MedicalRecordNo, next.MedicalRecordNo},
		{"patient_category", prev.PatientCategory, next.PatientCategory},
		{"name", prev.Name, next.Name},
		{"gender", prev.Gender, next.Gender},
		{"weight", floatVal(prev.Weight), floatVal(next.Weight)},
		{"department", prev.Department, next.Department},
		{"admission_time", timeVal(prev.AdmissionTime, clindoc.Timestamp), timeVal(next.AdmissionTime, clindoc.Timestamp)},
		{"discharge_time", timeVal(prev.DischargeTime, clindoc.Timestamp), timeVal(next.DischargeTime, clindoc.Timestamp)},
		{"bed_number", strVal(prev.BedNumber), strVal(next.BedNumber)},
		{"status", prev.Status, next.Status},
		{"chief_complaint", strVal(prev.ChiefComplaint), strVal(next.ChiefComplaint)},
		{"notes", strVal(prev.Notes), strVal(next.Notes)},
	}
	var changes []*FieldChange
	for _, f := range fields {
		if f.old == f.new {
			continue
		}
		ov, nv := f.old, f.new
		changes = append(changes, &FieldChange{
			PatientID: next.ID,
			FieldName: f.name,
			OldValue:  &ov,
			NewValue:  &nv,
			ChangedBy: actor,
		})
	}
	return changes
}

func floatVal(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
