package nursing

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/privnurse/api/internal/platform/llm"
)

type mockNoteRepo struct {
	notes map[uuid.UUID]*Note
}

func newMockNoteRepo() *mockNoteRepo {
	return &mockNoteRepo{notes: make(map[uuid.UUID]*Note)}
}

func (m *mockNoteRepo) Create(_ context.Context, n *Note) error {
	n.ID = uuid.New()
	m.notes[n.ID] = n
	return nil
}

func (m *mockNoteRepo) GetByID(_ context.Context, id uuid.UUID) (*Note, error) {
	n, ok := m.notes[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return n, nil
}

func (m *mockNoteRepo) Update(_ context.Context, n *Note) error {
	m.notes[n.ID] = n
	return nil
}

func (m *mockNoteRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.notes, id)
	return nil
}

func (m *mockNoteRepo) List(_ context.Context, limit, offset int) ([]*Note, int, error) {
	var result []*Note
	for _, n := range m.notes {
		result = append(result, n)
	}
	return result, len(result), nil
}

func (m *mockNoteRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Note, int, error) {
	var result []*Note
	for _, n := range m.notes {
		if n.PatientID == patientID {
			result = append(result, n)
		}
	}
	return result, len(result), nil
}

type mockTranscriber struct {
	text string
	err  error
	got  llm.TranscribeRequest
}

func (m *mockTranscriber) Transcribe(_ context.Context, req llm.TranscribeRequest) (*llm.TranscribeResult, error) {
	m.got = req
	if m.err != nil {
		return nil, m.err
	}
	return &llm.TranscribeResult{GeneratedText: m.text}, nil
}

func TestCreateNoteValidation(t *testing.T) {
	svc := NewService(newMockNoteRepo(), nil)

	n := &Note{PatientID: uuid.New(), RecordType: "Assessment", Content: "x"}
	if err := svc.CreateNote(context.Background(), n); err == nil {
		t.Error("expected error for invalid record_type")
	}

	n = &Note{PatientID: uuid.New(), RecordType: "Subjective"}
	if err := svc.CreateNote(context.Background(), n); err == nil {
		t.Error("expected error for empty content")
	}

	n = &Note{PatientID: uuid.New(), RecordType: "Subjective", Content: "patient reports dizziness"}
	if err := svc.CreateNote(context.Background(), n); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if n.Priority != "medium" {
		t.Errorf("priority = %q, want medium default", n.Priority)
	}
	if n.RecordTime.IsZero() {
		t.Error("record_time was not defaulted")
	}
}

func TestUpdateNoteKeepsPatient(t *testing.T) {
	repo := newMockNoteRepo()
	svc := NewService(repo, nil)
	n := &Note{PatientID: uuid.New(), RecordType: "Objective", Content: "BP stable"}
	if err := svc.CreateNote(context.Background(), n); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}

	upd := &Note{ID: n.ID, PatientID: uuid.New(), RecordType: "Objective", Content: "BP trending down", RecordTime: time.Now()}
	if err := svc.UpdateNote(context.Background(), upd); err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}
	if upd.PatientID != n.PatientID {
		t.Error("update reassigned the note to another patient")
	}
}

func TestTranscribeNote(t *testing.T) {
	repo := newMockNoteRepo()
	tr := &mockTranscriber{text: "patient ambulating without assistance"}
	svc := NewService(repo, tr)

	n := &Note{PatientID: uuid.New(), RecordType: "NarrativeNote", Content: "pending dictation"}
	if err := svc.CreateNote(context.Background(), n); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}

	got, err := svc.TranscribeNote(context.Background(), n.ID, "round1.wav", strings.NewReader("audio-bytes"))
	if err != nil {
		t.Fatalf("TranscribeNote: %v", err)
	}
	if got.TranscriptionText == nil || *got.TranscriptionText != tr.text {
		t.Errorf("transcription = %v, want %q", got.TranscriptionText, tr.text)
	}
	if tr.got.Filename != "round1.wav" {
		t.Errorf("filename = %q", tr.got.Filename)
	}
	body, _ := io.ReadAll(tr.got.Audio)
	if string(body) != "audio-bytes" {
		t.Errorf("audio payload = %q", body)
	}
}

func TestTranscribeNoteWithoutTranscriber(t *testing.T) {
	repo := newMockNoteRepo()
	svc := NewService(repo, nil)
	n := &Note{PatientID: uuid.New(), RecordType: "NarrativeNote", Content: "x"}
	if err := svc.CreateNote(context.Background(), n); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if _, err := svc.TranscribeNote(context.Background(), n.ID, "a.wav", strings.NewReader("")); err == nil {
		t.Error("expected error when transcriber is not configured")
	}
}

func TestVitalParsing(t *testing.T) {
	n := &Note{RecordType: "VitalSign", Content: "type:BP|value:120/80 mmHg"}
	cat, val := n.Vital()
	if cat != "BP" || val != "120/80 mmHg" {
		t.Errorf("Vital() = %q, %q", cat, val)
	}

	n = &Note{RecordType: "VitalSign", Content: "Temp 37.2C"}
	cat, val = n.Vital()
	if cat != "VitalSign" || val != "Temp 37.2C" {
		t.Errorf("unstructured Vital() = %q, %q", cat, val)
	}
}
