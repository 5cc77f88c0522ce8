package inference

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/privnurse/api/internal/platform/llm"
)

type mockModelRepo struct {
	models map[string]*Model // keyed by name+"/"+type
}

func newMockModelRepo() *mockModelRepo {
	return &mockModelRepo{models: make(map[string]*Model)}
}

func (m *mockModelRepo) Ensure(_ context.Context, name, modelType string) (*Model, error) {
	key := name + "/" + modelType
	if mod, ok := m.models[key]; ok {
		return mod, nil
	}
	mod := &Model{ID: uuid.New(), ModelName: name, ModelType: modelType}
	m.models[key] = mod
	return mod, nil
}

func (m *mockModelRepo) ActiveByType(_ context.Context, modelType string) (*Model, error) {
	for _, mod := range m.models {
		if mod.ModelType == modelType && mod.IsActive {
			return mod, nil
		}
	}
	return nil, fmt.Errorf("no rows")
}

func (m *mockModelRepo) Activate(ctx context.Context, name, modelType string) error {
	if _, err := m.Ensure(ctx, name, modelType); err != nil {
		return err
	}
	for _, mod := range m.models {
		if mod.ModelType == modelType {
			mod.IsActive = mod.ModelName == name
		}
	}
	return nil
}

func (m *mockModelRepo) List(_ context.Context, limit, offset int) ([]*Model, int, error) {
	var result []*Model
	for _, mod := range m.models {
		result = append(result, mod)
	}
	return result, len(result), nil
}

type mockInferenceRepo struct {
	inferences map[uuid.UUID]*Inference
}

func newMockInferenceRepo() *mockInferenceRepo {
	return &mockInferenceRepo{inferences: make(map[uuid.UUID]*Inference)}
}

func (m *mockInferenceRepo) Create(_ context.Context, inf *Inference) error {
	inf.ID = uuid.New()
	inf.CreatedAt = time.Now()
	m.inferences[inf.ID] = inf
	return nil
}

func (m *mockInferenceRepo) GetByID(_ context.Context, id uuid.UUID) (*Inference, error) {
	inf, ok := m.inferences[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return inf, nil
}

func (m *mockInferenceRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.inferences, id)
	return nil
}

func (m *mockInferenceRepo) List(_ context.Context, filter HistoryFilter, limit, offset int) ([]*Inference, int, error) {
	var result []*Inference
	for _, inf := range m.inferences {
		if filter.Status != "" && inf.Status != filter.Status {
			continue
		}
		result = append(result, inf)
	}
	return result, len(result), nil
}

func (m *mockInferenceRepo) Stats(_ context.Context, userID *uuid.UUID, since time.Time) (*Stats, error) {
	stats := &Stats{ByStatus: map[string]int{}, ByType: map[string]int{}}
	for _, inf := range m.inferences {
		stats.Total++
		stats.ByStatus[inf.Status]++
		stats.ByType[inf.InferenceType]++
	}
	return stats, nil
}

type mockLister struct{ models []llm.ModelInfo }

func (m *mockLister) ListModels(_ context.Context) ([]llm.ModelInfo, error) {
	return m.models, nil
}

type mockRecorder struct {
	calls int
	err   error
}

func (m *mockRecorder) RecordAIConsultation(_ context.Context, _ uuid.UUID, _, _, _ string, _ []string) error {
	m.calls++
	return m.err
}

func TestActiveModelLifecycle(t *testing.T) {
	models := newMockModelRepo()
	svc := NewService(models, newMockInferenceRepo(), &mockLister{}, nil)
	ctx := context.Background()

	if _, err := svc.ActiveModel(ctx, "consultation_summary"); err == nil {
		t.Error("expected error before any model is activated")
	}

	err := svc.UpdateActiveModels(ctx, map[string]string{"consultation_summary": "gemma3n:e4b"})
	if err != nil {
		t.Fatalf("UpdateActiveModels: %v", err)
	}
	name, err := svc.ActiveModel(ctx, "consultation_summary")
	if err != nil || name != "gemma3n:e4b" {
		t.Errorf("ActiveModel = %q, %v", name, err)
	}

	// Switching replaces the previous active model of the same type.
	if err := svc.UpdateActiveModels(ctx, map[string]string{"consultation_summary": "gemma3n:e2b"}); err != nil {
		t.Fatalf("UpdateActiveModels: %v", err)
	}
	name, _ = svc.ActiveModel(ctx, "consultation_summary")
	if name != "gemma3n:e2b" {
		t.Errorf("ActiveModel after switch = %q", name)
	}
}

func TestUpdateActiveModelsRejectsUnknownType(t *testing.T) {
	svc := NewService(newMockModelRepo(), newMockInferenceRepo(), &mockLister{}, nil)
	if err := svc.UpdateActiveModels(context.Background(), map[string]string{"weather_forecast": "x"}); err == nil {
		t.Error("expected error for unknown model type")
	}
}

func TestSubmitConfirmationStatus(t *testing.T) {
	repo := newMockInferenceRepo()
	recorder := &mockRecorder{}
	svc := NewService(newMockModelRepo(), repo, &mockLister{}, recorder)
	pid := uuid.New()

	inf, err := svc.SubmitConfirmation(context.Background(), &Confirmation{
		PatientID:         &pid,
		OriginalContent:   "consult request",
		AIGeneratedResult: "summary text",
		NurseConfirmation: "summary text",
	})
	if err != nil {
		t.Fatalf("SubmitConfirmation: %v", err)
	}
	if inf.Status != "confirmed" {
		t.Errorf("status = %q, want confirmed for untouched result", inf.Status)
	}
	if inf.InferenceType != "consultation_summary" {
		t.Errorf("inference_type = %q", inf.InferenceType)
	}
	if recorder.calls != 1 {
		t.Errorf("consultation recorder calls = %d, want 1", recorder.calls)
	}

	inf, err = svc.SubmitConfirmation(context.Background(), &Confirmation{
		PatientID:         &pid,
		OriginalContent:   "consult request",
		AIGeneratedResult: "summary text",
		NurseConfirmation: "edited summary text",
	})
	if err != nil {
		t.Fatalf("SubmitConfirmation: %v", err)
	}
	if inf.Status != "completed" {
		t.Errorf("status = %q, want completed for edited result", inf.Status)
	}
}

func TestSubmitConfirmationDuplicateConsultation(t *testing.T) {
	recorder := &mockRecorder{err: fmt.Errorf("duplicate consultation")}
	svc := NewService(newMockModelRepo(), newMockInferenceRepo(), &mockLister{}, recorder)
	pid := uuid.New()

	_, err := svc.SubmitConfirmation(context.Background(), &Confirmation{
		PatientID:         &pid,
		OriginalContent:   "consult request",
		AIGeneratedResult: "s",
		NurseConfirmation: "s",
	})
	if err == nil {
		t.Error("expected duplicate consultation error to abort the submission")
	}
}

func TestSubmitConfirmationSkipsConsultationForOtherTypes(t *testing.T) {
	recorder := &mockRecorder{}
	svc := NewService(newMockModelRepo(), newMockInferenceRepo(), &mockLister{}, recorder)
	pid := uuid.New()

	_, err := svc.SubmitConfirmation(context.Background(), &Confirmation{
		PatientID:         &pid,
		InferenceType:     "discharge_note",
		OriginalContent:   "document",
		AIGeneratedResult: "course",
		NurseConfirmation: "course",
	})
	if err != nil {
		t.Fatalf("SubmitConfirmation: %v", err)
	}
	if recorder.calls != 0 {
		t.Errorf("recorder calls = %d, want 0 for discharge_note type", recorder.calls)
	}
}
