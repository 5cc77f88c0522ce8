package lab

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo ReportRepository
}

func NewService(repo ReportRepository) *Service {
	return &Service{repo: repo}
}

var validFlags = map[string]bool{
	"HIGH": true, "LOW": true, "CRITICAL": true, "NORMAL": true,
}

func (s *Service) CreateReport(ctx context.Context, rep *Report) error {
	if rep.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if rep.TestName == "" {
		return fmt.Errorf("test_name is required")
	}
	if rep.ResultValue == "" {
		return fmt.Errorf("result_value is required")
	}
	if rep.TestDate.IsZero() {
		return fmt.Errorf("test_date is required")
	}
	if rep.Flag == "" {
		rep.Flag = "NORMAL"
	}
	if !validFlags[rep.Flag] {
		return fmt.Errorf("invalid flag: %s", rep.Flag)
	}
	return s.repo.Create(ctx, rep)
}

func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*Report, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) DeleteReport(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListReports(ctx context.Context, limit, offset int) ([]*Report, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Report, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListCritical(ctx context.Context, limit, offset int) ([]*Report, int, error) {
	return s.repo.ListCritical(ctx, limit, offset)
}
