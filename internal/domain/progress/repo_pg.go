package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

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

const logCols = `id, user_id, date, vitals, activity, nutrition, wellness, notes, photos, created_at`

func scanLog(row pgx.Row) (*Log, error) {
	var (
		l                                     Log
		vitals, activity, nutrition, wellness []byte
	)
	if err := row.Scan(&l.ID, &l.UserID, &l.Date, &vitals, &activity, &nutrition,
		&wellness, &l.Notes, &l.Photos, &l.CreatedAt); err != nil {
		return nil, err
	}
	if len(vitals) > 0 && string(vitals) != "null" {
		if err := json.Unmarshal(vitals, &l.Vitals); err != nil {
			return nil, err
		}
	}
	if len(activity) > 0 && string(activity) != "null" {
		if err := json.Unmarshal(activity, &l.Activity); err != nil {
			return nil, err
		}
	}
	if len(nutrition) > 0 && string(nutrition) != "null" {
		if err := json.Unmarshal(nutrition, &l.Nutrition); err != nil {
			return nil, err
		}
	}
	if len(wellness) > 0 && string(wellness) != "null" {
		if err := json.Unmarshal(wellness, &l.Wellness); err != nil {
			return nil, err
		}
	}
	return &l, nil
}

// sectionJSON maps a nil section to SQL NULL instead of the JSON "null".
func sectionJSON[T any](s *T) (any, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (r *repoPG) Create(ctx context.Context, l *Log) error {
	l.ID = uuid.New()

	vitals, err := sectionJSON(l.Vitals)
	if err != nil {
		return err
	}
	activity, err := sectionJSON(l.Activity)
	if err != nil {
		return err
	}
	nutrition, err := sectionJSON(l.Nutrition)
	if err != nil {
		return err
	}
	wellness, err := sectionJSON(l.Wellness)
	if err != nil {
		return err
	}

	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO progress_logs (id, user_id, date, vitals, activity, nutrition, wellness, notes, photos)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at`,
		l.ID, l.UserID, l.Date, vitals, activity, nutrition, wellness,
		l.Notes, l.Photos).Scan(&l.CreatedAt)
}

func (r *repoPG) List(ctx context.Context, userID uuid.UUID, q Query) ([]*Log, error) {
	where := `WHERE user_id = $1`
	args := []any{userID}
	if !q.From.IsZero() {
		args = append(args, q.From)
		where += fmt.Sprintf(` AND date >= $%d`, len(args))
	}
	if !q.To.IsZero() {
		args = append(args, q.To)
		where += fmt.Sprintf(` AND date <= $%d`, len(args))
	}
	args = append(args, q.Limit)

	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT `+logCols+` FROM progress_logs %s ORDER BY date DESC LIMIT $%d`,
		where, len(args)), args...)
	if err != nil {
		return nil, err
	}
	return collectLogs(rows)
}

func (r *repoPG) ListSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*Log, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+logCols+` FROM progress_logs
		WHERE user_id = $1 AND date >= $2
		ORDER BY date ASC`, userID, since)
	if err != nil {
		return nil, err
	}
	return collectLogs(rows)
}

func collectLogs(rows pgx.Rows) ([]*Log, error) {
	defer rows.Close()
	var items []*Log
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}
