package patient

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockPatientRepo struct {
	patients map[uuid.UUID]*Patient
	changes  []*FieldChange
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (m *mockPatientRepo) GetByMRN(_ context.Context, mrn string) (*Patient, error) {
	for _, p := range m.patients {
		if p.MedicalRecordNo == mrn {
			return p, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.patients, id)
	return nil
}

func (m *mockPatientRepo) List(_ context.Context, filter ListFilter, limit, offset int) ([]*Patient, int, error) {
	var result []*Patient
	for _, p := range m.patients {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Department != "" && p.Department != filter.Department {
			continue
		}
		result = append(result, p)
	}
	return result, len(result), nil
}

func (m *mockPatientRepo) Departments(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, p := range m.patients {
		if !seen[p.Department] {
			seen[p.Department] = true
			out = append(out, p.Department)
		}
	}
	return out, nil
}

func (m *mockPatientRepo) RecordChanges(_ context.Context, changes []*FieldChange) error {
	m.changes = append(m.changes, changes...)
	return nil
}

func (m *mockPatientRepo) ListChanges(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*FieldChange, int, error) {
	var result []*FieldChange
	for _, ch := range m.changes {
		if ch.PatientID == patientID {
			result = append(result, ch)
		}
	}
	return result, len(result), nil
}

func validPatient(mrn string) *Patient {
	return &Patient{
		MedicalRecordNo: mrn,
		PatientCategory: "NHI General",
		Name:            "Chen Mei-Ling",
		Gender:          "F",
		Department:      "Cardiology",
		Birthday:        time.Date(1955, 3, 12, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreatePatientDefaultsStatus(t *testing.T) {
	svc := NewService(newMockPatientRepo())
	p := validPatient("MRN-001")
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	if p.Status != "HOSPITALIZED" {
		t.Errorf("status = %q, want HOSPITALIZED", p.Status)
	}
}

func TestCreatePatientRejectsBadEnums(t *testing.T) {
	svc := NewService(newMockPatientRepo())

	p := validPatient("MRN-002")
	p.PatientCategory = "Unknown Plan"
	if err := svc.CreatePatient(context.Background(), p); err == nil {
		t.Error("expected error for invalid patient_category")
	}

	p = validPatient("MRN-003")
	p.Gender = "X"
	if err := svc.CreatePatient(context.Background(), p); err == nil {
		t.Error("expected error for invalid gender")
	}
}

func TestCreatePatientRejectsDuplicateMRN(t *testing.T) {
	svc := NewService(newMockPatientRepo())
	if err := svc.CreatePatient(context.Background(), validPatient("MRN-004")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := svc.CreatePatient(context.Background(), validPatient("MRN-004")); err == nil {
		t.Error("expected error for duplicate medical record number")
	}
}

func TestUpdatePatientRecordsFieldChanges(t *testing.T) {
	repo := newMockPatientRepo()
	svc := NewService(repo)
	p := validPatient("MRN-005")
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}

	updated := *p
	updated.Department = "Neurology"
	updated.Status = "TRANSFERRED"
	if err := svc.UpdatePatient(context.Background(), &updated); err != nil {
		t.Fatalf("UpdatePatient: %v", err)
	}

	changed := map[string]bool{}
	for _, ch := range repo.changes {
		changed[ch.FieldName] = true
	}
	if !changed["department"] || !changed["status"] {
		t.Errorf("recorded changes = %v, want department and status", changed)
	}
	if changed["name"] {
		t.Error("name was not edited but a change was recorded")
	}
}

func TestUpdatePatientUnknownID(t *testing.T) {
	svc := NewService(newMockPatientRepo())
	p := validPatient("MRN-006")
	p.ID = uuid.New()
	if err := svc.UpdatePatient(context.Background(), p); err == nil {
		t.Error("expected error updating unknown patient")
	}
}
