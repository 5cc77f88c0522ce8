package discharge

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/privnurse/api/internal/domain/nursing"
	"github.com/privnurse/api/internal/platform/auth"
	"github.com/privnurse/api/internal/platform/clindoc"
	"github.com/privnurse/api/internal/platform/llm"
)

// Model types this domain asks the registry for.
const (
	summaryModelType    = "discharge_note_summary"
	validationModelType = "discharge_note_validation"
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
	repo   NoteRepository
	gen    Generator
	models ModelSelector
}

func NewService(repo NoteRepository, gen Generator, models ModelSelector) *Service {
	return &Service{repo: repo, gen: gen, models: models}
}

var validStatuses = map[string]bool{
	"draft": true, "pending_approval": true, "approved": true,
}

func (s *Service) CreateNote(ctx context.Context, note *Note) error {
	if note.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if note.Status == "" {
		note.Status = "draft"
	}
	if !validStatuses[note.Status] {
		return fmt.Errorf("invalid status: %s", note.Status)
	}
	if existing, err := s.repo.GetByPatient(ctx, note.PatientID); err == nil && existing != nil {
		return fmt.Errorf("patient already has a discharge note")
	}
	if id, err := uuid.Parse(auth.UserIDFromContext(ctx)); err == nil {
		note.CreatedBy = &id
	}
	return s.repo.Create(ctx, note)
}

func (s *Service) GetNote(ctx context.Context, id uuid.UUID) (*Note, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByPatient(ctx context.Context, patientID uuid.UUID) (*Note, error) {
	return s.repo.GetByPatient(ctx, patientID)
}

func (s *Service) UpdateNote(ctx context.Context, note *Note) error {
	existing, err := s.repo.GetByID(ctx, note.ID)
	if err != nil {
		return fmt.Errorf("discharge note not found: %w", err)
	}
	if existing.Status == "approved" {
		return fmt.Errorf("approved discharge note cannot be modified")
	}
	if note.Status == "" {
		note.Status = existing.Status
	}
	if !validStatuses[note.Status] {
		return fmt.Errorf("invalid status: %s", note.Status)
	}
	note.PatientID = existing.PatientID
	note.CreatedBy = existing.CreatedBy
	note.ApprovedBy = existing.ApprovedBy
	note.ApprovedAt = existing.ApprovedAt
	return s.repo.Update(ctx, note)
}

func (s *Service) DeleteNote(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListNotes(ctx context.Context, limit, offset int) ([]*Note, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListPendingApproval(ctx context.Context, limit, offset int) ([]*Note, int, error) {
	return s.repo.ListPendingApproval(ctx, limit, offset)
}

// SubmitFinal moves a draft note into the approval queue.
func (s *Service) SubmitFinal(ctx context.Context, id uuid.UUID) (*Note, error) {
	note, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("discharge note not found: %w", err)
	}
	if note.Status != "draft" {
		return nil, fmt.Errorf("only draft notes can be submitted, current status: %s", note.Status)
	}
	if note.TreatmentCourse == nil || *note.TreatmentCourse == "" {
		return nil, fmt.Errorf("treatment_course is required before submission")
	}
	note.Status = "pending_approval"
	if err := s.repo.Update(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// Approve finalizes a pending note and stamps the approver.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*Note, error) {
	note, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("discharge note not found: %w", err)
	}
	if note.Status != "pending_approval" {
		return nil, fmt.Errorf("only pending notes can be approved, current status: %s", note.Status)
	}
	note.Status = "approved"
	now := time.Now()
	note.ApprovedAt = &now
	if actor, err := uuid.Parse(auth.UserIDFromContext(ctx)); err == nil {
		note.ApprovedBy = &actor
	}
	if err := s.repo.Update(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// BuildDocument stitches the patient's recent record history into one
// chronology document. Header values prefer the discharge note's own
// fields over the admission-time patient record.
func (s *Service) BuildDocument(ctx context.Context, patientID uuid.UUID) (string, error) {
	data, err := s.repo.EncounterData(ctx, patientID)
	if err != nil {
		return "", fmt.Errorf("encounter data: %w", err)
	}

	diagnosis := data.Diagnosis
	chief := data.ChiefComplaint
	if note, err := s.repo.GetByPatient(ctx, patientID); err == nil && note != nil {
		if len(note.Diagnosis) > 0 {
			diagnosis = note.Diagnosis
		}
		if note.ChiefComplaint != nil && *note.ChiefComplaint != "" {
			chief = *note.ChiefComplaint
		}
	}

	buckets := clindoc.NormalizeDiagnoses(diagnosis)
	present := buckets.Present
	if present == "" {
		present = data.PatientNotes
	}
	fields := clindoc.SummaryFields{
		PrimaryDiagnosis:   buckets.Primary,
		SecondaryDiagnosis: buckets.Secondary,
		PastMedicalHistory: buckets.Past,
		ChiefComplaint:     chief,
		PresentIllness:     present,
	}
	return clindoc.AssembleForEncounter(fields,
		clindoc.FormatConsultationEvents(data.Consults),
		clindoc.FormatLabEvents(data.Labs),
		clindoc.FormatNursingEvents(data.Nursing)), nil
}

// StreamSummary streams a treatment-course draft for the patient's assembled
// chronology straight to w.
func (s *Service) StreamSummary(ctx context.Context, patientID uuid.UUID, w io.Writer) error {
	model, err := s.models.ActiveModel(ctx, summaryModelType)
	if err != nil {
		return err
	}
	doc, err := s.BuildDocument(ctx, patientID)
	if err != nil {
		return err
	}
	return s.gen.GenerateStream(ctx, model, doc, w)
}

// Validate checks a nurse-edited treatment course against the patient's
// chronology and returns the source spans the validation model grounded it
// on.
func (s *Service) Validate(ctx context.Context, patientID uuid.UUID, course string) ([]string, error) {
	if course == "" {
		return nil, fmt.Errorf("treatment_course is required")
	}
	model, err := s.models.ActiveModel(ctx, validationModelType)
	if err != nil {
		return nil, err
	}
	doc, err := s.BuildDocument(ctx, patientID)
	if err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf("%s\n<Discharge_Summary>\n%s\n</Discharge_Summary>", doc, course)

	raw, err := s.gen.Generate(ctx, model, prompt)
	if err != nil {
		return nil, fmt.Errorf("validation generation: %w", err)
	}
	rec, err := llm.Reconcile(llm.SliceJSONObject(llm.ExtractAnswer(raw)))
	if err != nil {
		return nil, err
	}
	return dedupe(rec.RelevantText), nil
}

func dedupe(spans []string) []string {
	seen := make(map[string]bool, len(spans))
	out := spans[:0]
	for _, s := range spans {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// chronologyRow maps one nursing note onto the document row shape. VitalSign
// notes carry their category and value inside Content.
func chronologyRow(recordedAt time.Time, recordType, content string) clindoc.NursingRow {
	row := clindoc.NursingRow{RecordedAt: recordedAt}
	switch recordType {
	case "VitalSign":
		n := nursing.Note{RecordType: recordType, Content: content}
		row.VitalCategory, row.VitalValue = n.Vital()
	case "Subjective":
		row.Subjective = content
	case "Objective":
		row.Objective = content
	case "Intervention":
		row.Intervention = content
	case "Evaluation":
		row.Evaluation = content
	default:
		row.Narrative = content
	}
	return row
}
