package consultation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
)

type mockRecordRepo struct {
	records map[uuid.UUID]*Record
}

func newMockRecordRepo() *mockRecordRepo {
	return &mockRecordRepo{records: make(map[uuid.UUID]*Record)}
}

func (m *mockRecordRepo) Create(_ context.Context, rec *Record) error {
	rec.ID = uuid.New()
	m.records[rec.ID] = rec
	return nil
}

func (m *mockRecordRepo) GetByID(_ context.Context, id uuid.UUID) (*Record, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return rec, nil
}

func (m *mockRecordRepo) Update(_ context.Context, rec *Record) error {
	m.records[rec.ID] = rec
	return nil
}

func (m *mockRecordRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.records, id)
	return nil
}

func (m *mockRecordRepo) List(_ context.Context, limit, offset int) ([]*Record, int, error) {
	var result []*Record
	for _, rec := range m.records {
		result = append(result, rec)
	}
	return result, len(result), nil
}

func (m *mockRecordRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	var result []*Record
	for _, rec := range m.records {
		if rec.PatientID == patientID {
			result = append(result, rec)
		}
	}
	return result, len(result), nil
}

func (m *mockRecordRepo) ExistsDuplicate(_ context.Context, rec *Record) (bool, error) {
	for _, existing := range m.records {
		if existing.PatientID != rec.PatientID || existing.OriginalContent != rec.OriginalContent {
			continue
		}
		if strPtrEq(existing.AISummary, rec.AISummary) && strPtrEq(existing.NurseConfirmation, rec.NurseConfirmation) {
			return true, nil
		}
	}
	return false, nil
}

func strPtrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type mockGenerator struct {
	response  string
	streamed  []string
	lastModel string
	prompt    string
}

func (m *mockGenerator) Generate(_ context.Context, model, prompt string) (string, error) {
	m.lastModel = model
	m.prompt = prompt
	return m.response, nil
}

func (m *mockGenerator) GenerateStream(_ context.Context, model, prompt string, w io.Writer) error {
	m.lastModel = model
	m.prompt = prompt
	for _, chunk := range m.streamed {
		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
	}
	return nil
}

type fixedModels map[string]string

func (f fixedModels) ActiveModel(_ context.Context, modelType string) (string, error) {
	name, ok := f[modelType]
	if !ok {
		return "", fmt.Errorf("no active %s model found", modelType)
	}
	return name, nil
}

func testModels() fixedModels {
	return fixedModels{
		"consultation_summary":    "gemma3n:e4b",
		"consultation_validation": "gemma3n:e4b-validator",
	}
}

func TestCreateRecordDedup(t *testing.T) {
	svc := NewService(newMockRecordRepo(), &mockGenerator{}, testModels())
	pid := uuid.New()

	rec := &Record{PatientID: pid, OriginalContent: "consult cardiology for new murmur"}
	if err := svc.CreateRecord(context.Background(), rec); err != nil {
		t.Fatalf("first create: %v", err)
	}

	dup := &Record{PatientID: pid, OriginalContent: "consult cardiology for new murmur"}
	if err := svc.CreateRecord(context.Background(), dup); err == nil {
		t.Error("expected duplicate consultation to be rejected")
	}

	other := &Record{PatientID: uuid.New(), OriginalContent: "consult cardiology for new murmur"}
	if err := svc.CreateRecord(context.Background(), other); err != nil {
		t.Errorf("same content for another patient should pass: %v", err)
	}
}

func TestCreateRecordDefaults(t *testing.T) {
	svc := NewService(newMockRecordRepo(), &mockGenerator{}, testModels())
	rec := &Record{PatientID: uuid.New(), OriginalContent: "x"}
	if err := svc.CreateRecord(context.Background(), rec); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if rec.ConsultationType != "initial" || rec.Status != "draft" {
		t.Errorf("defaults = %s/%s, want initial/draft", rec.ConsultationType, rec.Status)
	}
	if rec.ConsultationDate.IsZero() {
		t.Error("consultation_date was not defaulted")
	}
}

func TestStreamSummaryUsesActiveModel(t *testing.T) {
	gen := &mockGenerator{streamed: []string{`{"response":"摘要","done":false}` + "\n", `{"response":"","done":true}` + "\n"}}
	svc := NewService(newMockRecordRepo(), gen, testModels())

	var buf bytes.Buffer
	if err := svc.StreamSummary(context.Background(), "會診內容", &buf); err != nil {
		t.Fatalf("StreamSummary: %v", err)
	}
	if gen.lastModel != "gemma3n:e4b" {
		t.Errorf("model = %q", gen.lastModel)
	}
	if !strings.Contains(buf.String(), `"done":true`) {
		t.Errorf("stream output = %q", buf.String())
	}
}

func TestValidatePromptLayout(t *testing.T) {
	gen := &mockGenerator{response: `{"relevant_text": ["on room air"]}`}
	svc := NewService(newMockRecordRepo(), gen, testModels())

	spans, err := svc.Validate(context.Background(), "original request", "<answer>confirmed summary</answer>")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	want := "#申請會診單：\noriginal request\n\n#護理師確認結果：\nconfirmed summary"
	if gen.prompt != want {
		t.Errorf("prompt = %q, want %q", gen.prompt, want)
	}
	if len(spans) != 1 || spans[0] != "on room air" {
		t.Errorf("spans = %v", spans)
	}
	if gen.lastModel != "gemma3n:e4b-validator" {
		t.Errorf("model = %q", gen.lastModel)
	}
}

func TestValidateUnparsableResponse(t *testing.T) {
	gen := &mockGenerator{response: "sorry, I cannot help with that"}
	svc := NewService(newMockRecordRepo(), gen, testModels())
	if _, err := svc.Validate(context.Background(), "a", "b"); err == nil {
		t.Error("expected error for unparsable validation response")
	}
}

func TestValidateNoActiveModel(t *testing.T) {
	svc := NewService(newMockRecordRepo(), &mockGenerator{}, fixedModels{})
	if _, err := svc.Validate(context.Background(), "a", "b"); err == nil {
		t.Error("expected error when no validation model is active")
	}
}
