package consultation

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/privnurse/api/internal/platform/auth"
	"github.com/privnurse/api/internal/platform/llm"
)

// Model types this domain asks the registry for.
const (
	summaryModelType    = "consultation_summary"
	validationModelType = "consultation_validation"
)

// Generator is the slice of the generation client this service needs.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
	GenerateStream(ctx context.Context, model, prompt string, w io.Writer) error
}

// ModelSelector resolves the active model name for a model type.
type ModelSelector interface {
	ActiveModel(ctx context.Context, modelType string) (string, error)
}

type Service struct {
	repo   RecordRepository
	gen    Generator
	models ModelSelector
}

func NewService(repo RecordRepository, gen Generator, models ModelSelector) *Service {
	return &Service{repo: repo, gen: gen, models: models}
}

var validTypes = map[string]bool{
	"initial": true, "follow_up": true, "emergency": true, "specialist": true,
}

var validStatuses = map[string]bool{
	"draft": true, "confirmed": true, "archived": true,
}

func (s *Service) validate(rec *Record) error {
	if rec.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if rec.OriginalContent == "" {
		return fmt.Errorf("original_content is required")
	}
	if !validTypes[rec.ConsultationType] {
		return fmt.Errorf("invalid consultation_type: %s", rec.ConsultationType)
	}
	if !validStatuses[rec.Status] {
		return fmt.Errorf("invalid status: %s", rec.Status)
	}
	return nil
}

func (s *Service) CreateRecord(ctx context.Context, rec *Record) error {
	if rec.ConsultationType == "" {
		rec.ConsultationType = "initial"
	}
	if rec.Status == "" {
		rec.Status = "draft"
	}
	if rec.ConsultationDate.IsZero() {
		rec.ConsultationDate = time.Now()
	}
	if err := s.validate(rec); err != nil {
		return err
	}
	dup, err := s.repo.ExistsDuplicate(ctx, rec)
	if err != nil {
		return err
	}
	if dup {
		return fmt.Errorf("duplicate consultation: this record already exists for the patient")
	}
	if id, err := uuid.Parse(auth.UserIDFromContext(ctx)); err == nil {
		rec.CreatedBy = &id
	}
	return s.repo.Create(ctx, rec)
}

func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateRecord(ctx context.Context, rec *Record) error {
	if rec.ConsultationType == "" {
		rec.ConsultationType = "initial"
	}
	if rec.Status == "" {
		rec.Status = "draft"
	}
	if err := s.validate(rec); err != nil {
		return err
	}
	existing, err := s.repo.GetByID(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("consultation not found: %w", err)
	}
	rec.PatientID = existing.PatientID
	rec.CreatedBy = existing.CreatedBy
	if rec.Status == "confirmed" && existing.Status != "confirmed" {
		now := time.Now()
		rec.ConfirmedAt = &now
		if id, err := uuid.Parse(auth.UserIDFromContext(ctx)); err == nil {
			rec.ConfirmedBy = &id
		}
	}
	return s.repo.Update(ctx, rec)
}

func (s *Service) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListRecords(ctx context.Context, limit, offset int) ([]*Record, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// StreamSummary streams a consultation summary for the request text straight
// to w in the generation service's chunked wire format.
func (s *Service) StreamSummary(ctx context.Context, content string, w io.Writer) error {
	if content == "" {
		return fmt.Errorf("content is required")
	}
	model, err := s.models.ActiveModel(ctx, summaryModelType)
	if err != nil {
		return err
	}
	return s.gen.GenerateStream(ctx, model, content, w)
}

// Validate compares a confirmed summary with the original request and returns
// the relevant source spans reported by the validation model. A summary
// wrapped in <answer> tags is unwrapped first.
func (s *Service) Validate(ctx context.Context, original, summary string) ([]string, error) {
	if original == "" || summary == "" {
		return nil, fmt.Errorf("original and summary are required")
	}
	model, err := s.models.ActiveModel(ctx, validationModelType)
	if err != nil {
		return nil, err
	}

	summary = llm.ExtractAnswer(summary)
	prompt := fmt.Sprintf("#申請會診單：\n%s\n\n#護理師確認結果：\n%s", original, summary)

	raw, err := s.gen.Generate(ctx, model, prompt)
	if err != nil {
		return nil, fmt.Errorf("validation generation: %w", err)
	}
	rec, err := llm.Reconcile(raw)
	if err != nil {
		return nil, err
	}
	return rec.RelevantText, nil
}
