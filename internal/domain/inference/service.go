package inference

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/privnurse/api/internal/platform/auth"
	"github.com/privnurse/api/internal/platform/llm"
)

// ModelLister exposes the generation service's local model inventory.
type ModelLister interface {
	ListModels(ctx context.Context) ([]llm.ModelInfo, error)
}

// ConsultationRecorder persists a confirmed consultation produced by the
// AI-assisted workflow.
type ConsultationRecorder interface {
	RecordAIConsultation(ctx context.Context, patientID uuid.UUID, original, summary, confirmation string, highlights []string) error
}

type Service struct {
	models        ModelRepository
	inferences    InferenceRepository
	lister        ModelLister
	consultations ConsultationRecorder
}

func NewService(models ModelRepository, inferences InferenceRepository, lister ModelLister, consultations ConsultationRecorder) *Service {
	return &Service{models: models, inferences: inferences, lister: lister, consultations: consultations}
}

// SetConsultationRecorder wires the consultation domain in after both
// services exist. The two services reference each other, so one side is
// attached late.
func (s *Service) SetConsultationRecorder(r ConsultationRecorder) {
	s.consultations = r
}

// ActiveModel resolves the active model name for a registry slot. Other
// domains consume this through their own ModelSelector interfaces.
func (s *Service) ActiveModel(ctx context.Context, modelType string) (string, error) {
	m, err := s.models.ActiveByType(ctx, modelType)
	if err != nil {
		return "", fmt.Errorf("no active %s model found", modelType)
	}
	return m.ModelName, nil
}

// ActiveModels returns the active model for every registry slot, keyed by the
// slot names the UI uses. Slots with no active model are empty strings.
func (s *Service) ActiveModels(ctx context.Context) (map[string]string, error) {
	keys := map[string]string{
		"consultation_summary":      "consultationSummaryModel",
		"consultation_validation":   "consultationValidationModel",
		"discharge_note_summary":    "dischargeNoteSummaryModel",
		"discharge_note_validation": "dischargeNoteValidationModel",
		"audio_transcription":       "audioModel",
	}
	out := make(map[string]string, len(keys))
	for _, t := range ModelTypes {
		name := ""
		if m, err := s.models.ActiveByType(ctx, t); err == nil {
			name = m.ModelName
		}
		out[keys[t]] = name
	}
	return out, nil
}

// UpdateActiveModels activates the given model per slot. Empty names leave
// the slot untouched.
func (s *Service) UpdateActiveModels(ctx context.Context, byType map[string]string) error {
	for modelType, name := range byType {
		if name == "" {
			continue
		}
		valid := false
		for _, t := range ModelTypes {
			if t == modelType {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("unknown model type: %s", modelType)
		}
		if err := s.models.Activate(ctx, name, modelType); err != nil {
			return err
		}
	}
	return nil
}

// SeedDefaults registers the configured models and activates them for any
// slot that has no active model yet. Slots an administrator already
// configured are left alone.
func (s *Service) SeedDefaults(ctx context.Context, summaryModel, validatorModel string) error {
	defaults := map[string]string{
		"consultation_summary":      summaryModel,
		"consultation_validation":   validatorModel,
		"discharge_note_summary":    summaryModel,
		"discharge_note_validation": validatorModel,
	}
	for modelType, name := range defaults {
		if name == "" {
			continue
		}
		if _, err := s.models.Ensure(ctx, name, modelType); err != nil {
			return fmt.Errorf("ensure %s: %w", modelType, err)
		}
		if _, err := s.models.ActiveByType(ctx, modelType); err == nil {
			continue
		}
		if err := s.models.Activate(ctx, name, modelType); err != nil {
			return fmt.Errorf("activate %s: %w", modelType, err)
		}
	}
	return nil
}

func (s *Service) ListRegisteredModels(ctx context.Context, limit, offset int) ([]*Model, int, error) {
	return s.models.List(ctx, limit, offset)
}

// ListLocalModels proxies the generation service's model inventory.
func (s *Service) ListLocalModels(ctx context.Context) ([]llm.ModelInfo, error) {
	return s.lister.ListModels(ctx)
}

// Confirmation is a nurse's review of one AI generation.
type Confirmation struct {
	PatientID         *uuid.UUID `json:"patient_id"`
	InferenceType     string     `json:"inference_type"`
	OriginalContent   string     `json:"original_content"`
	AIGeneratedResult string     `json:"ai_generated_result"`
	NurseConfirmation string     `json:"nurse_confirmation"`
	RelevantText      []string   `json:"relevant_text"`
}

// SubmitConfirmation records the reviewed inference. An untouched result is
// stored as confirmed; an edited one as completed. Consultation-type
// submissions also create the consultation record.
func (s *Service) SubmitConfirmation(ctx context.Context, c *Confirmation) (*Inference, error) {
	if c.OriginalContent == "" {
		return nil, fmt.Errorf("original_content is required")
	}
	if c.InferenceType == "" {
		c.InferenceType = "consultation_summary"
	}

	modified := strings.TrimSpace(c.AIGeneratedResult) != strings.TrimSpace(c.NurseConfirmation)
	status := "confirmed"
	if modified {
		status = "completed"
	}

	modelName := ""
	if m, err := s.models.ActiveByType(ctx, "consultation_summary"); err == nil {
		modelName = m.ModelName
	}

	now := time.Now()
	inf := &Inference{
		PatientID:         c.PatientID,
		InferenceType:     c.InferenceType,
		OriginalContent:   c.OriginalContent,
		AIGeneratedResult: &c.AIGeneratedResult,
		NurseConfirmation: &c.NurseConfirmation,
		RelevantText:      c.RelevantText,
		Status:            status,
		ConfirmedAt:       &now,
	}
	if modelName != "" {
		inf.ModelUsed = &modelName
	}
	if id, err := uuid.Parse(auth.UserIDFromContext(ctx)); err == nil {
		inf.UserID = &id
	}

	if c.PatientID != nil && c.InferenceType == "consultation_summary" && s.consultations != nil {
		if err := s.consultations.RecordAIConsultation(ctx, *c.PatientID,
			c.OriginalContent, c.AIGeneratedResult, c.NurseConfirmation, c.RelevantText); err != nil {
			return nil, err
		}
	}

	if err := s.inferences.Create(ctx, inf); err != nil {
		return nil, err
	}
	return inf, nil
}

func (s *Service) GetInference(ctx context.Context, id uuid.UUID) (*Inference, error) {
	return s.inferences.GetByID(ctx, id)
}

func (s *Service) DeleteInference(ctx context.Context, id uuid.UUID) error {
	return s.inferences.Delete(ctx, id)
}

func (s *Service) History(ctx context.Context, filter HistoryFilter, limit, offset int) ([]*Inference, int, error) {
	return s.inferences.List(ctx, filter, limit, offset)
}

// HistoryStats reports aggregate counters, scoped to the user unless the
// caller is an admin.
func (s *Service) HistoryStats(ctx context.Context) (*Stats, error) {
	var userID *uuid.UUID
	if auth.RoleFromContext(ctx) != "admin" {
		if id, err := uuid.Parse(auth.UserIDFromContext(ctx)); err == nil {
			userID = &id
		}
	}
	return s.inferences.Stats(ctx, userID, time.Now().AddDate(0, 0, -7))
}
