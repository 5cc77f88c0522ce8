package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/privnurse/api/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, medical_record_no, patient_category, name, gender, weight, department,
	birthday, admission_time, discharge_time, bed_number, status,
	chief_complaint, diagnosis, notes,
	emergency_contact_name, emergency_contact_phone, insurance_number,
	created_at, updated_at, created_by`

func (r *patientRepoPG) scanRow(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.MedicalRecordNo, &p.PatientCategory, &p.Name, &p.Gender, &p.Weight, &p.Department,
		&p.Birthday, &p.AdmissionTime, &p.DischargeTime, &p.BedNumber, &p.Status,
		&p.ChiefComplaint, &p.Diagnosis, &p.Notes,
		&p.EmergencyContactName, &p.EmergencyContactPhone, &p.InsuranceNumber,
		&p.CreatedAt, &p.UpdatedAt, &p.CreatedBy)
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (id, medical_record_no, patient_category, name, gender, weight, department,
			birthday, admission_time, discharge_time, bed_number, status,
			chief_complaint, diagnosis, notes,
			emergency_contact_name, emergency_contact_phone, insurance_number, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		p.ID, p.MedicalRecordNo, p.PatientCategory, p.Name, p.Gender, p.Weight, p.Department,
		p.Birthday, p.AdmissionTime, p.DischargeTime, p.BedNumber, p.Status,
		p.ChiefComplaint, p.Diagnosis, p.Notes,
		p.EmergencyContactName, p.EmergencyContactPhone, p.InsuranceNumber, p.CreatedBy)
	return err
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *patientRepoPG) GetByMRN(ctx context.Context, mrn string) (*Patient, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE medical_record_no = $1`, mrn))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET medical_record_no=$2, patient_category=$3, name=$4, gender=$5, weight=$6,
			department=$7, birthday=$8, admission_time=$9, discharge_time=$10, bed_number=$11, status=$12,
			chief_complaint=$13, diagnosis=$14, notes=$15,
			emergency_contact_name=$16, emergency_contact_phone=$17, insurance_number=$18, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.MedicalRecordNo, p.PatientCategory, p.Name, p.Gender, p.Weight,
		p.Department, p.Birthday, p.AdmissionTime, p.DischargeTime, p.BedNumber, p.Status,
		p.ChiefComplaint, p.Diagnosis, p.Notes,
		p.EmergencyContactName, p.EmergencyContactPhone, p.InsuranceNumber)
	return err
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	return err
}

func (r *patientRepoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Patient, int, error) {
	where := ""
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		clause := fmt.Sprintf(cond, len(args))
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Department != "" {
		add("department = $%d", filter.Department)
	}
	if filter.Search != "" {
		add("(name ILIKE $%[1]d OR medical_record_no ILIKE $%[1]d)", "%"+filter.Search+"%")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	q := fmt.Sprintf(`SELECT `+patientCols+` FROM patients`+where+` ORDER BY admission_time DESC NULLS LAST LIMIT $%d OFFSET $%d`,
		len(args)-1, len(args))
	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *patientRepoPG) Departments(ctx context.Context) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT DISTINCT department FROM patients ORDER BY department`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *patientRepoPG) RecordChanges(ctx context.Context, changes []*FieldChange) error {
	for _, ch := range changes {
		ch.ID = uuid.New()
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO patient_history (id, patient_id, field_name, old_value, new_value, changed_by)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			ch.ID, ch.PatientID, ch.FieldName, ch.OldValue, ch.NewValue, ch.ChangedBy)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *patientRepoPG) ListChanges(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*FieldChange, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient_history WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_id, field_name, old_value, new_value, changed_by, changed_at
		FROM patient_history WHERE patient_id = $1
		ORDER BY changed_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*FieldChange
	for rows.Next() {
		var ch FieldChange
		if err := rows.Scan(&ch.ID, &ch.PatientID, &ch.FieldName, &ch.OldValue, &ch.NewValue, &ch.ChangedBy, &ch.ChangedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &ch)
	}
	return items, total, rows.Err()
}
