package nursing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/privnurse/api/internal/platform/auth"
	"github.com/privnurse/api/internal/platform/llm"
)

// ErrTranscriptionUnavailable is returned when no transcription backend is
// configured for this deployment.
var ErrTranscriptionUnavailable = errors.New("audio transcription is not configured")

// Transcriber converts an uploaded audio recording into note text.
type Transcriber interface {
	Transcribe(ctx context.Context, req llm.TranscribeRequest) (*llm.TranscribeResult, error)
}

type Service struct {
	repo        NoteRepository
	transcriber Transcriber
}

func NewService(repo NoteRepository, transcriber Transcriber) *Service {
	return &Service{repo: repo, transcriber: transcriber}
}

var validRecordTypes = func() map[string]bool {
	m := make(map[string]bool, len(RecordTypes))
	for _, t := range RecordTypes {
		m[t] = true
	}
	return m
}()

var validShifts = map[string]bool{"day": true, "evening": true, "night": true}

var validPriorities = map[string]bool{"low": true, "medium": true, "high": true}

func (s *Service) validate(n *Note) error {
	if n.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if !validRecordTypes[n.RecordType] {
		return fmt.Errorf("invalid record_type: %s", n.RecordType)
	}
	if n.Content == "" {
		return fmt.Errorf("content is required")
	}
	if n.Shift != nil && !validShifts[*n.Shift] {
		return fmt.Errorf("invalid shift: %s", *n.Shift)
	}
	if !validPriorities[n.Priority] {
		return fmt.Errorf("invalid priority: %s", n.Priority)
	}
	return nil
}

func (s *Service) CreateNote(ctx context.Context, n *Note) error {
	if n.Priority == "" {
		n.Priority = "medium"
	}
	if n.RecordTime.IsZero() {
		n.RecordTime = time.Now()
	}
	if err := s.validate(n); err != nil {
		return err
	}
	if id, err := uuid.Parse(auth.UserIDFromContext(ctx)); err == nil {
		n.CreatedBy = &id
	}
	return s.repo.Create(ctx, n)
}

func (s *Service) GetNote(ctx context.Context, id uuid.UUID) (*Note, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateNote(ctx context.Context, n *Note) error {
	if n.Priority == "" {
		n.Priority = "medium"
	}
	if err := s.validate(n); err != nil {
		return err
	}
	existing, err := s.repo.GetByID(ctx, n.ID)
	if err != nil {
		return fmt.Errorf("nursing note not found: %w", err)
	}
	n.PatientID = existing.PatientID
	n.CreatedBy = existing.CreatedBy
	return s.repo.Update(ctx, n)
}

func (s *Service) DeleteNote(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListNotes(ctx context.Context, limit, offset int) ([]*Note, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Note, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// TranscribeNote runs an uploaded recording through the transcription service
// and stores the resulting text on the note.
func (s *Service) TranscribeNote(ctx context.Context, noteID uuid.UUID, filename string, audio io.Reader) (*Note, error) {
	if s.transcriber == nil {
		return nil, ErrTranscriptionUnavailable
	}
	n, err := s.repo.GetByID(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("nursing note not found: %w", err)
	}
	result, err := s.transcriber.Transcribe(ctx, llm.TranscribeRequest{
		Filename: filename,
		Audio:    audio,
	})
	if err != nil {
		return nil, fmt.Errorf("transcribe audio: %w", err)
	}
	n.TranscriptionText = &result.GeneratedText
	n.AudioFilePath = &filename
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}
