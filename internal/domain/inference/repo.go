package inference

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ModelRepository interface {
	// Ensure returns the model row for name+type, creating an inactive one
	// when it does not exist yet.
	Ensure(ctx context.Context, name, modelType string) (*Model, error)
	ActiveByType(ctx context.Context, modelType string) (*Model, error)
	// Activate marks name as the only active model of its type.
	Activate(ctx context.Context, name, modelType string) error
	List(ctx context.Context, limit, offset int) ([]*Model, int, error)
}

// HistoryFilter narrows inference listings. Nil UUIDs mean no filter.
type HistoryFilter struct {
	UserID    *uuid.UUID
	PatientID *uuid.UUID
	Type      string
	Status    string
}

type InferenceRepository interface {
	Create(ctx context.Context, inf *Inference) error
	GetByID(ctx context.Context, id uuid.UUID) (*Inference, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter HistoryFilter, limit, offset int) ([]*Inference, int, error)
	Stats(ctx context.Context, userID *uuid.UUID, since time.Time) (*Stats, error)
}
