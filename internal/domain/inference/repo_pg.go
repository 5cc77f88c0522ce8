package inference

import (
	"context"
	"fmt"
	"time"

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

type modelRepoPG struct{ pool *pgxpool.Pool }

func NewModelRepoPG(pool *pgxpool.Pool) ModelRepository {
	return &modelRepoPG{pool: pool}
}

func (r *modelRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const modelCols = `id, model_name, model_type, model_version, description, endpoint_url,
	is_active, created_at, updated_at`

func (r *modelRepoPG) scanRow(row pgx.Row) (*Model, error) {
	var m Model
	err := row.Scan(&m.ID, &m.ModelName, &m.ModelType, &m.ModelVersion, &m.Description, &m.EndpointURL,
		&m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *modelRepoPG) Ensure(ctx context.Context, name, modelType string) (*Model, error) {
	m, err := r.scanRow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+modelCols+` FROM ai_models WHERE model_name = $1 AND model_type = $2`, name, modelType))
	if err == nil {
		return m, nil
	}
	if err != pgx.ErrNoRows {
		return nil, err
	}
	id := uuid.New()
	desc := fmt.Sprintf("Auto-added %s model: %s", modelType, name)
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO ai_models (id, model_name, model_type, description, is_active)
		VALUES ($1,$2,$3,$4,false)`, id, name, modelType, desc)
	if err != nil {
		return nil, err
	}
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+modelCols+` FROM ai_models WHERE id = $1`, id))
}

func (r *modelRepoPG) ActiveByType(ctx context.Context, modelType string) (*Model, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+modelCols+` FROM ai_models WHERE model_type = $1 AND is_active LIMIT 1`, modelType))
}

func (r *modelRepoPG) Activate(ctx context.Context, name, modelType string) error {
	if _, err := r.Ensure(ctx, name, modelType); err != nil {
		return err
	}
	if _, err := r.conn(ctx).Exec(ctx,
		`UPDATE ai_models SET is_active = false, updated_at = NOW() WHERE model_type = $1`, modelType); err != nil {
		return err
	}
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE ai_models SET is_active = true, updated_at = NOW()
		WHERE model_name = $1 AND model_type = $2`, name, modelType)
	return err
}

func (r *modelRepoPG) List(ctx context.Context, limit, offset int) ([]*Model, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM ai_models`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+modelCols+` FROM ai_models ORDER BY model_type, model_name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Model
	for rows.Next() {
		m, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

type inferenceRepoPG struct{ pool *pgxpool.Pool }

func NewInferenceRepoPG(pool *pgxpool.Pool) InferenceRepository {
	return &inferenceRepoPG{pool: pool}
}

func (r *inferenceRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const inferenceCols = `id, user_id, patient_id, inference_type, original_content,
	ai_generated_result, nurse_confirmation, relevant_text, model_used,
	processing_time_ms, status, created_at, confirmed_at`

func (r *inferenceRepoPG) scanRow(row pgx.Row) (*Inference, error) {
	var inf Inference
	err := row.Scan(&inf.ID, &inf.UserID, &inf.PatientID, &inf.InferenceType, &inf.OriginalContent,
		&inf.AIGeneratedResult, &inf.NurseConfirmation, &inf.RelevantText, &inf.ModelUsed,
		&inf.ProcessingTimeMs, &inf.Status, &inf.CreatedAt, &inf.ConfirmedAt)
	return &inf, err
}

func (r *inferenceRepoPG) Create(ctx context.Context, inf *Inference) error {
	inf.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO ai_inferences (id, user_id, patient_id, inference_type, original_content,
			ai_generated_result, nurse_confirmation, relevant_text, model_used,
			processing_time_ms, status, confirmed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		inf.ID, inf.UserID, inf.PatientID, inf.InferenceType, inf.OriginalContent,
		inf.AIGeneratedResult, inf.NurseConfirmation, inf.RelevantText, inf.ModelUsed,
		inf.ProcessingTimeMs, inf.Status, inf.ConfirmedAt)
	return err
}

func (r *inferenceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Inference, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+inferenceCols+` FROM ai_inferences WHERE id = $1`, id))
}

func (r *inferenceRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM ai_inferences WHERE id = $1`, id)
	return err
}

func (r *inferenceRepoPG) List(ctx context.Context, filter HistoryFilter, limit, offset int) ([]*Inference, int, error) {
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
	if filter.UserID != nil {
		add("user_id = $%d", *filter.UserID)
	}
	if filter.PatientID != nil {
		add("patient_id = $%d", *filter.PatientID)
	}
	if filter.Type != "" {
		add("inference_type = $%d", filter.Type)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM ai_inferences`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	q := fmt.Sprintf(`SELECT `+inferenceCols+` FROM ai_inferences`+where+` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		len(args)-1, len(args))
	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Inference
	for rows.Next() {
		inf, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, inf)
	}
	return items, total, rows.Err()
}

func (r *inferenceRepoPG) Stats(ctx context.Context, userID *uuid.UUID, since time.Time) (*Stats, error) {
	where := ""
	var args []interface{}
	if userID != nil {
		args = append(args, *userID)
		where = " WHERE user_id = $1"
	}

	stats := &Stats{ByStatus: map[string]int{}, ByType: map[string]int{}}
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM ai_inferences`+where, args...).Scan(&stats.Total); err != nil {
		return nil, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT status, COUNT(*) FROM ai_inferences`+where+` GROUP BY status`, args...)
	if err != nil {
		return nil, err
	}
	if err := scanCounts(rows, stats.ByStatus); err != nil {
		return nil, err
	}

	rows, err = r.conn(ctx).Query(ctx,
		`SELECT inference_type, COUNT(*) FROM ai_inferences`+where+` GROUP BY inference_type`, args...)
	if err != nil {
		return nil, err
	}
	if err := scanCounts(rows, stats.ByType); err != nil {
		return nil, err
	}

	recentArgs := append(args, since)
	cond := " WHERE "
	if where != "" {
		cond = where + " AND "
	}
	err = r.conn(ctx).QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM ai_inferences%screated_at >= $%d`, cond, len(recentArgs)),
		recentArgs...).Scan(&stats.RecentActivity)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func scanCounts(rows pgx.Rows, into map[string]int) error {
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		into[key] = n
	}
	return rows.Err()
}
