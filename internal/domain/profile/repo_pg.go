package profile

import (
	"context"
	"errors"
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

func (r *repoPG) Get(ctx context.Context, userID uuid.UUID) (*HealthProfile, error) {
	var p HealthProfile
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT user_id, age, height_cm, weight_kg, bmi, conditions, allergies,
			medications, blood_group, emergency_contact, updated_at
		FROM health_profiles WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.Age, &p.HeightCM, &p.WeightKG, &p.BMI, &p.Conditions,
			&p.Allergies, &p.Medications, &p.BloodGroup, &p.EmergencyContact, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Save(ctx context.Context, p *HealthProfile) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO health_profiles (user_id, age, height_cm, weight_kg, bmi,
			conditions, allergies, medications, blood_group, emergency_contact, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			age = EXCLUDED.age, height_cm = EXCLUDED.height_cm,
			weight_kg = EXCLUDED.weight_kg, bmi = EXCLUDED.bmi,
			conditions = EXCLUDED.conditions, allergies = EXCLUDED.allergies,
			medications = EXCLUDED.medications, blood_group = EXCLUDED.blood_group,
			emergency_contact = EXCLUDED.emergency_contact, updated_at = NOW()
		RETURNING updated_at`,
		p.UserID, p.Age, p.HeightCM, p.WeightKG, p.BMI, p.Conditions,
		p.Allergies, p.Medications, p.BloodGroup, p.EmergencyContact).
		Scan(&p.UpdatedAt)
}

func (r *repoPG) AppendVitals(ctx context.Context, v *VitalsRecord) error {
	v.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO vitals_records (id, user_id, systolic_bp, diastolic_bp,
			sugar_level, heart_rate, weight_kg, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING recorded_at`,
		v.ID, v.UserID, v.SystolicBP, v.DiastolicBP, v.SugarLevel,
		v.HeartRate, v.WeightKG, v.Notes).Scan(&v.RecordedAt)
}

func (r *repoPG) ListVitals(ctx context.Context, userID uuid.UUID, q VitalsQuery) ([]*VitalsRecord, error) {
	// Tail semantics: the query keeps the most recent N after date filtering,
	// then presents them oldest-first.
	sql := `
		SELECT id, user_id, recorded_at, systolic_bp, diastolic_bp, sugar_level,
			heart_rate, weight_kg, notes
		FROM vitals_records
		WHERE user_id = $1
			AND ($2::timestamptz IS NULL OR recorded_at >= $2)
			AND ($3::timestamptz IS NULL OR recorded_at <= $3)
		ORDER BY recorded_at DESC, id DESC`
	args := []any{userID, nullTime(q.From), nullTime(q.To)}
	if q.Limit > 0 {
		sql += ` LIMIT $4`
		args = append(args, q.Limit)
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*VitalsRecord
	for rows.Next() {
		var v VitalsRecord
		if err := rows.Scan(&v.ID, &v.UserID, &v.RecordedAt, &v.SystolicBP,
			&v.DiastolicBP, &v.SugarLevel, &v.HeartRate, &v.WeightKG, &v.Notes); err != nil {
			return nil, err
		}
		items = append(items, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to insertion order.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
