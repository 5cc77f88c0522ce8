package consultation

import (
	"context"

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

type recordRepoPG struct{ pool *pgxpool.Pool }

func NewRecordRepoPG(pool *pgxpool.Pool) RecordRepository {
	return &recordRepoPG{pool: pool}
}

func (r *recordRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const recordCols = `id, patient_id, doctor_name, consultation_date, department, consultation_type,
	original_content, ai_summary, nurse_confirmation, relevant_highlights, status,
	created_by, confirmed_by, confirmed_at`

func (r *recordRepoPG) scanRow(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.PatientID, &rec.DoctorName, &rec.ConsultationDate, &rec.Department, &rec.ConsultationType,
		&rec.OriginalContent, &rec.AISummary, &rec.NurseConfirmation, &rec.RelevantHighlights, &rec.Status,
		&rec.CreatedBy, &rec.ConfirmedBy, &rec.ConfirmedAt)
	return &rec, err
}

func (r *recordRepoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consultation_records (id, patient_id, doctor_name, consultation_date, department,
			consultation_type, original_content, ai_summary, nurse_confirmation, relevant_highlights,
			status, created_by, confirmed_by, confirmed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		rec.ID, rec.PatientID, rec.DoctorName, rec.ConsultationDate, rec.Department,
		rec.ConsultationType, rec.OriginalContent, rec.AISummary, rec.NurseConfirmation, rec.RelevantHighlights,
		rec.Status, rec.CreatedBy, rec.ConfirmedBy, rec.ConfirmedAt)
	return err
}

func (r *recordRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+recordCols+` FROM consultation_records WHERE id = $1`, id))
}

func (r *recordRepoPG) Update(ctx context.Context, rec *Record) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE consultation_records SET doctor_name=$2, consultation_date=$3, department=$4,
			consultation_type=$5, original_content=$6, ai_summary=$7, nurse_confirmation=$8,
			relevant_highlights=$9, status=$10, confirmed_by=$11, confirmed_at=$12
		WHERE id = $1`,
		rec.ID, rec.DoctorName, rec.ConsultationDate, rec.Department,
		rec.ConsultationType, rec.OriginalContent, rec.AISummary, rec.NurseConfirmation,
		rec.RelevantHighlights, rec.Status, rec.ConfirmedBy, rec.ConfirmedAt)
	return err
}

func (r *recordRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM consultation_records WHERE id = $1`, id)
	return err
}

func (r *recordRepoPG) List(ctx context.Context, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM consultation_records`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+recordCols+` FROM consultation_records
		ORDER BY consultation_date DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return r.collect(rows, total)
}

func (r *recordRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM consultation_records WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+recordCols+` FROM consultation_records WHERE patient_id = $1
		ORDER BY consultation_date DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return r.collect(rows, total)
}

func (r *recordRepoPG) ExistsDuplicate(ctx context.Context, rec *Record) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM consultation_records
			WHERE patient_id = $1
			  AND original_content = $2
			  AND ai_summary IS NOT DISTINCT FROM $3
			  AND nurse_confirmation IS NOT DISTINCT FROM $4
		)`,
		rec.PatientID, rec.OriginalContent, rec.AISummary, rec.NurseConfirmation).Scan(&exists)
	return exists, err
}

func (r *recordRepoPG) collect(rows pgx.Rows, total int) ([]*Record, int, error) {
	defer rows.Close()
	var items []*Record
	for rows.Next() {
		rec, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, rows.Err()
}
