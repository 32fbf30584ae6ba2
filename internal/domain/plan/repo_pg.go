package plan

import (
	"context"
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

const planCols = `id, user_id, doctor_id, variant, input_params, plan_body,
	generated_by, source, is_active, start_date, end_date, created_at`

func scanPlan(row pgx.Row) (*Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.UserID, &p.DoctorID, &p.Variant, &p.InputParams,
		&p.Body, &p.GeneratedBy, &p.Source, &p.IsActive, &p.StartDate,
		&p.EndDate, &p.CreatedAt)
	return &p, err
}

// CreateAndActivate runs insert plus deactivation in one transaction,
// serialized per (user, variant) by an advisory lock. Two concurrent
// generations for the same user and variant queue behind each other, so the
// single-active invariant holds at every commit point.
func (r *repoPG) CreateAndActivate(ctx context.Context, p *Plan) error {
	p.ID = uuid.New()
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := db.Q(ctx, r.pool)

		if _, err := q.Exec(ctx,
			`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
			p.UserID.String()+":"+string(p.Variant)); err != nil {
			return err
		}

		if err := q.QueryRow(ctx, `
			INSERT INTO care_plans (id, user_id, doctor_id, variant, input_params,
				plan_body, generated_by, source, is_active, start_date, end_date)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,TRUE,NOW(),$9)
			RETURNING start_date, created_at`,
			p.ID, p.UserID, p.DoctorID, p.Variant, p.InputParams, p.Body,
			p.GeneratedBy, p.Source, p.EndDate).Scan(&p.StartDate, &p.CreatedAt); err != nil {
			return err
		}
		p.IsActive = true

		_, err := q.Exec(ctx, `
			UPDATE care_plans SET is_active = FALSE
			WHERE user_id = $1 AND variant = $2 AND id <> $3 AND is_active`,
			p.UserID, p.Variant, p.ID)
		return err
	})
}

func (r *repoPG) Active(ctx context.Context, userID uuid.UUID, variant Variant) (*Plan, error) {
	p, err := scanPlan(r.conn(ctx).QueryRow(ctx, `
		SELECT `+planCols+` FROM care_plans
		WHERE user_id = $1 AND variant = $2 AND is_active
		ORDER BY created_at DESC LIMIT 1`, userID, variant))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) History(ctx context.Context, userID uuid.UUID, variant Variant, limit, offset int) ([]*Plan, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM care_plans WHERE user_id = $1 AND variant = $2`,
		userID, variant).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+planCols+` FROM care_plans
		WHERE user_id = $1 AND variant = $2
		ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`,
		userID, variant, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
