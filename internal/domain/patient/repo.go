package patient

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows patient listings. Zero values mean no filter. Search
// matches name or medical record number.
type ListFilter struct {
	Status     string
	Department string
	Search     string
}

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByMRN(ctx context.Context, mrn string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Patient, int, error)
	Departments(ctx context.Context) ([]string, error)
	RecordChanges(ctx context.Context, changes []*FieldChange) error
	ListChanges(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*FieldChange, int, error)
}
