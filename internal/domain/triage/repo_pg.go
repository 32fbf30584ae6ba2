package triage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carefolio/api/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Q(ctx, r.pool)
}

const recCols = `id, user_id, input_data, pathway, risk_level, recommendations,
	requires_doctor, confidence, created_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var inputs []byte
	err := row.Scan(&rec.ID, &rec.UserID, &inputs, &rec.Pathway, &rec.RiskLevel,
		&rec.Recommendations, &rec.RequiresDoctor, &rec.Confidence, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(inputs, &rec.Inputs); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	inputs, err := json.Marshal(rec.Inputs)
	if err != nil {
		return err
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO triage_records (id, user_id, input_data, pathway, risk_level,
			recommendations, requires_doctor, confidence)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at`,
		rec.ID, rec.UserID, inputs, rec.Pathway, rec.RiskLevel,
		rec.Recommendations, rec.RequiresDoctor, rec.Confidence).Scan(&rec.CreatedAt)
}

func (r *repoPG) Latest(ctx context.Context, userID uuid.UUID) (*Record, error) {
	rec, err := scanRecord(r.conn(ctx).QueryRow(ctx, `
		SELECT `+recCols+` FROM triage_records
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM triage_records WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+recCols+` FROM triage_records
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, rows.Err()
}
