package nursing

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

const noteCols = `id, patient_id, record_time, record_type, content,
	audio_file_path, transcription_text, created_by, shift, priority`

func (r *noteRepoPG) scanRow(row pgx.Row) (*Note, error) {
	var n Note
	err := row.Scan(&n.ID, &n.PatientID, &n.RecordTime, &n.RecordType, &n.Content,
		&n.AudioFilePath, &n.TranscriptionText, &n.CreatedBy, &n.Shift, &n.Priority)
	return &n, err
}

func (r *noteRepoPG) Create(ctx context.Context, n *Note) error {
	n.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO nursing_notes (id, patient_id, record_time, record_type, content,
			audio_file_path, transcription_text, created_by, shift, priority)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		n.ID, n.PatientID, n.RecordTime, n.RecordType, n.Content,
		n.AudioFilePath, n.TranscriptionText, n.CreatedBy, n.Shift, n.Priority)
	return err
}

func (r *noteRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Note, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+noteCols+` FROM nursing_notes WHERE id = $1`, id))
}

func (r *noteRepoPG) Update(ctx context.Context, n *Note) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE nursing_notes SET record_time=$2, record_type=$3, content=$4,
			audio_file_path=$5, transcription_text=$6, shift=$7, priority=$8
		WHERE id = $1`,
		n.ID, n.RecordTime, n.RecordType, n.Content,
		n.AudioFilePath, n.TranscriptionText, n.Shift, n.Priority)
	return err
}

func (r *noteRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM nursing_notes WHERE id = $1`, id)
	return err
}

func (r *noteRepoPG) List(ctx context.Context, limit, offset int) ([]*Note, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM nursing_notes`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+noteCols+` FROM nursing_notes ORDER BY record_time DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return r.collect(rows, total)
}

func (r *noteRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Note, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM nursing_notes WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+noteCols+` FROM nursing_notes WHERE patient_id = $1
		ORDER BY record_time DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
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
