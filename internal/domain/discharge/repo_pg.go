package discharge

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/privnurse/api/internal/platform/clindoc"
	"github.com/privnurse/api/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type noteRepoPG struct{ pool *pgxpool.Pool }

func NewNoteRepoPG(pool *pgxpool.Pool) NoteRepository {
	return &noteRepoPG{pool: pool}
}

func (r *noteRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Window limits for the encounter stitch. Older records add noise without
// improving summaries, so the chronology keeps the recent slice of each table.
const (
	nursingWindow = 20
	consultWindow = 10
	labWindowDays = 365
)

const noteCols = `id, patient_id, chief_complaint, diagnosis, treatment_course,
	discharge_date, created_by, approved_by, approved_at, status`

func (r *noteRepoPG) scanRow(row pgx.Row) (*Note, error) {
	var n Note
	err := row.Scan(&n.ID, &n.PatientID, &n.ChiefComplaint, &n.Diagnosis, &n.TreatmentCourse,
		&n.DischargeDate, &n.CreatedBy, &n.ApprovedBy, &n.ApprovedAt, &n.Status)
	return &n, err
}

func (r *noteRepoPG) Create(ctx context.Context, note *Note) error {
	note.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO discharge_notes (id, patient_id, chief_complaint, diagnosis, treatment_course,
			discharge_date, created_by, approved_by, approved_at, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		note.ID, note.PatientID, note.ChiefComplaint, note.Diagnosis, note.TreatmentCourse,
		note.DischargeDate, note.CreatedBy, note.ApprovedBy, note.ApprovedAt, note.Status)
	return err
}

func (r *noteRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Note, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+noteCols+` FROM discharge_notes WHERE id = $1`, id))
}

func (r *noteRepoPG) GetByPatient(ctx context.Context, patientID uuid.UUID) (*Note, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+noteCols+` FROM discharge_notes WHERE patient_id = $1`, patientID))
}

func (r *noteRepoPG) Update(ctx context.Context, note *Note) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE discharge_notes SET chief_complaint=$2, diagnosis=$3, treatment_course=$4,
			discharge_date=$5, approved_by=$6, approved_at=$7, status=$8
		WHERE id = $1`,
		note.ID, note.ChiefComplaint, note.Diagnosis, note.TreatmentCourse,
		note.DischargeDate, note.ApprovedBy, note.ApprovedAt, note.Status)
	return err
}

func (r *noteRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM discharge_notes WHERE id = $1`, id)
	return err
}

func (r *noteRepoPG) List(ctx context.Context, limit, offset int) ([]*Note, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM discharge_notes`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+noteCols+` FROM discharge_notes
		ORDER BY discharge_date DESC NULLS LAST LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return r.collect(rows, total)
}

func (r *noteRepoPG) ListPendingApproval(ctx context.Context, limit, offset int) ([]*Note, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM discharge_notes WHERE status = 'pending_approval'`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+noteCols+` FROM discharge_notes WHERE status = 'pending_approval'
		ORDER BY discharge_date DESC NULLS LAST LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return r.collect(rows, total)
}

func (r *noteRepoPG) collect(rows pgx.Rows, total int) ([]*Note, int, error) {
	defer rows.Close()
	var items []*Note
	for rows.Next() {
		n, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}

// EncounterData pulls the patient header values and the recent chronology
// rows from the record tables in one pass.
func (r *noteRepoPG) EncounterData(ctx context.Context, patientID uuid.UUID) (*EncounterData, error) {
	conn := r.conn(ctx)
	data := &EncounterData{}

	var chief, diagnosis, notes *string
	err := conn.QueryRow(ctx, `
		SELECT chief_complaint, diagnosis, notes FROM patients WHERE id = $1`, patientID).
		Scan(&chief, &diagnosis, &notes)
	if err != nil {
		return nil, err
	}
	if chief != nil {
		data.ChiefComplaint = *chief
	}
	if diagnosis != nil {
		data.Diagnosis = *diagnosis
	}
	if notes != nil {
		data.PatientNotes = *notes
	}

	rows, err := conn.Query(ctx, `
		SELECT record_time, record_type, content FROM nursing_notes
		WHERE patient_id = $1 ORDER BY record_time DESC LIMIT $2`, patientID, nursingWindow)
	if err != nil {
		return nil, err
	}
	data.Nursing, err = collectNursing(rows)
	if err != nil {
		return nil, err
	}

	rows, err = conn.Query(ctx, `
		SELECT test_name, result_value, COALESCE(result_unit, ''), flag, test_date FROM lab_reports
		WHERE patient_id = $1 AND test_date >= $2 ORDER BY test_date`, patientID,
		time.Now().AddDate(0, 0, -labWindowDays))
	if err != nil {
		return nil, err
	}
	data.Labs, err = collectLabs(rows)
	if err != nil {
		return nil, err
	}

	rows, err = conn.Query(ctx, `
		SELECT consultation_date, COALESCE(nurse_confirmation, ai_summary, '') FROM consultation_records
		WHERE patient_id = $1 AND status = 'confirmed'
		ORDER BY consultation_date DESC LIMIT $2`, patientID, consultWindow)
	if err != nil {
		return nil, err
	}
	data.Consults, err = collectConsults(rows)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func collectNursing(rows pgx.Rows) ([]clindoc.NursingRow, error) {
	defer rows.Close()
	var out []clindoc.NursingRow
	for rows.Next() {
		var recordedAt time.Time
		var recordType, content string
		if err := rows.Scan(&recordedAt, &recordType, &content); err != nil {
			return nil, err
		}
		out = append(out, chronologyRow(recordedAt, recordType, content))
	}
	return out, rows.Err()
}

func collectLabs(rows pgx.Rows) ([]clindoc.LabRow, error) {
	defer rows.Close()
	var out []clindoc.LabRow
	for rows.Next() {
		var row clindoc.LabRow
		if err := rows.Scan(&row.TestName, &row.ResultValue, &row.Unit, &row.Flag, &row.TestDate); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func collectConsults(rows pgx.Rows) ([]clindoc.ConsultRow, error) {
	defer rows.Close()
	var out []clindoc.ConsultRow
	for rows.Next() {
		var row clindoc.ConsultRow
		if err := rows.Scan(&row.RepliedAt, &row.Reply); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
