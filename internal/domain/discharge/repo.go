package discharge

import (
	"context"

	"github.com/google/uuid"
)

// NoteRepository is the storage contract for discharge notes plus the
// encounter stitch the document builder runs.
type NoteRepository interface {
	Create(ctx context.Context, note *Note) error
	GetByID(ctx context.Context, id uuid.UUID) (*Note, error)
	GetByPatient(ctx context.Context, patientID uuid.UUID) (*Note, error)
	Update(ctx context.Context, note *Note) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Note, int, error)
	ListPendingApproval(ctx context.Context, limit, offset int) ([]*Note, int, error)
	EncounterData(ctx context.Context, patientID uuid.UUID) (*EncounterData, error)
}
