package consultation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

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

const consCols = `id, patient_id, doctor_id, type, status, scheduled_date,
	scheduled_time, duration_min, complaint, symptoms, notes, vitals,
	diagnosis, prescriptions, lab_tests, follow_up_date, follow_up_notes,
	rating, feedback, created_at, updated_at`

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var c Consultation
	var notes, vitals, prescriptions []byte
	err := row.Scan(&c.ID, &c.PatientID, &c.DoctorID, &c.Type, &c.Status,
		&c.ScheduledDate, &c.ScheduledTime, &c.DurationMin, &c.Complaint,
		&c.Symptoms, &notes, &vitals, &c.Diagnosis, &prescriptions,
		&c.LabTests, &c.FollowUpDate, &c.FollowUpNotes, &c.Rating,
		&c.Feedback, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(notes) > 0 {
		if err := json.Unmarshal(notes, &c.Notes); err != nil {
			return nil, err
		}
	}
	if len(vitals) > 0 && string(vitals) != "null" {
		c.Vitals = &VitalsSnapshot{}
		if err := json.Unmarshal(vitals, c.Vitals); err != nil {
			return nil, err
		}
	}
	if len(prescriptions) > 0 {
		if err := json.Unmarshal(prescriptions, &c.Prescriptions); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func (r *repoPG) Create(ctx context.Context, c *Consultation) error {
	c.ID = uuid.New()
	notes, err := json.Marshal(c.Notes)
	if err != nil {
		return err
	}
	vitals, err := json.Marshal(c.Vitals)
	if err != nil {
		return err
	}
	prescriptions, err := json.Marshal(c.Prescriptions)
	if err != nil {
		return err
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO consultations (id, patient_id, doctor_id, type, status,
			scheduled_date, scheduled_time, duration_min, complaint, symptoms,
			notes, vitals, diagnosis, prescriptions, lab_tests,
			follow_up_date, follow_up_notes, rating, feedback)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		RETURNING created_at, updated_at`,
		c.ID, c.PatientID, c.DoctorID, c.Type, c.Status, c.ScheduledDate,
		c.ScheduledTime, c.DurationMin, c.Complaint, c.Symptoms, notes, vitals,
		c.Diagnosis, prescriptions, c.LabTests, c.FollowUpDate, c.FollowUpNotes,
		c.Rating, c.Feedback).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *repoPG) Get(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	c, err := scanConsultation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+consCols+` FROM consultations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

func (r *repoPG) Update(ctx context.Context, c *Consultation) error {
	notes, err := json.Marshal(c.Notes)
	if err != nil {
		return err
	}
	vitals, err := json.Marshal(c.Vitals)
	if err != nil {
		return err
	}
	prescriptions, err := json.Marshal(c.Prescriptions)
	if err != nil {
		return err
	}
	return r.conn(ctx).QueryRow(ctx, `
		UPDATE consultations SET status=$2, notes=$3, vitals=$4, diagnosis=$5,
			prescriptions=$6, lab_tests=$7, follow_up_date=$8, follow_up_notes=$9,
			rating=$10, feedback=$11, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		c.ID, c.Status, notes, vitals, c.Diagnosis, prescriptions, c.LabTests,
		c.FollowUpDate, c.FollowUpNotes, c.Rating, c.Feedback).Scan(&c.UpdatedAt)
}

func (r *repoPG) SetRating(ctx context.Context, id uuid.UUID, rating int, feedback string) (*int, error) {
	var prev *int
	err := r.conn(ctx).QueryRow(ctx, `
		WITH old AS (
			SELECT rating FROM consultations WHERE id = $1 FOR UPDATE
		)
		UPDATE consultations c
		SET rating = $2, feedback = $3, updated_at = NOW()
		FROM old
		WHERE c.id = $1
		RETURNING old.rating`, id, rating, feedback).Scan(&prev)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return prev, err
}

func (r *repoPG) list(ctx context.Context, col string, id uuid.UUID, f Filter) ([]*Consultation, int, error) {
	where := `WHERE ` + col + ` = $1`
	args := []any{id}
	if f.Status != "" {
		where += ` AND status = $2`
		args = append(args, f.Status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM consultations `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	sql := fmt.Sprintf(`SELECT `+consCols+` FROM consultations %s
		ORDER BY scheduled_date DESC LIMIT $%d OFFSET $%d`, where, n+1, n+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, f Filter) ([]*Consultation, int, error) {
	return r.list(ctx, "patient_id", patientID, f)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, f Filter) ([]*Consultation, int, error) {
	return r.list(ctx, "doctor_id", doctorID, f)
}

func (r *repoPG) ListBetween(ctx context.Context, doctorID, patientID uuid.UUID, limit int) ([]*Consultation, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+consCols+` FROM consultations
		WHERE doctor_id = $1 AND patient_id = $2
		ORDER BY created_at DESC LIMIT $3`, doctorID, patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
