package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carefolio/api/internal/platform/auth"
	"github.com/carefolio/api/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Q(ctx, r.pool)
}

const userCols = `id, email, password_hash, first_name, last_name, phone, role,
	date_of_birth, gender, is_premium, premium_expiry, assigned_doctor,
	is_active, last_login, specialization, license_number, experience_years,
	consultation_fee, is_verified, rating, rating_sum, rating_count,
	total_consultations, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var dp DoctorProfile
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Phone, &u.Role, &u.DateOfBirth, &u.Gender, &u.IsPremium,
		&u.PremiumExpiry, &u.AssignedDoctor, &u.IsActive, &u.LastLogin,
		&dp.Specialization, &dp.LicenseNumber, &dp.ExperienceYears,
		&dp.ConsultationFee, &dp.IsVerified, &dp.Rating, &dp.RatingSum,
		&dp.RatingCount, &dp.TotalConsultations, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if u.Role == auth.RoleDoctor {
		u.DoctorProfile = &dp
	}
	return &u, nil
}

func (r *repoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	dp := u.DoctorProfile
	if dp == nil {
		dp = &DoctorProfile{}
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name,
			phone, role, date_of_birth, gender, is_premium, premium_expiry,
			assigned_doctor, is_active, specialization, license_number,
			experience_years, consultation_fee)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING created_at, updated_at`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone,
		u.Role, u.DateOfBirth, u.Gender, u.IsPremium, u.PremiumExpiry,
		u.AssignedDoctor, u.IsActive, dp.Specialization, dp.LicenseNumber,
		dp.ExperienceYears, dp.ConsultationFee).Scan(&u.CreatedAt, &u.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func (r *repoPG) Update(ctx context.Context, u *User) error {
	dp := u.DoctorProfile
	if dp == nil {
		dp = &DoctorProfile{}
	}
	return r.conn(ctx).QueryRow(ctx, `
		UPDATE users SET first_name=$2, last_name=$3, phone=$4,
			date_of_birth=$5, gender=$6, is_premium=$7, premium_expiry=$8,
			assigned_doctor=$9, is_active=$10, last_login=$11,
			specialization=$12, license_number=$13, experience_years=$14,
			consultation_fee=$15, is_verified=$16, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		u.ID, u.FirstName, u.LastName, u.Phone, u.DateOfBirth, u.Gender,
		u.IsPremium, u.PremiumExpiry, u.AssignedDoctor, u.IsActive,
		u.LastLogin, dp.Specialization, dp.LicenseNumber, dp.ExperienceYears,
		dp.ConsultationFee, dp.IsVerified).Scan(&u.UpdatedAt)
}

func (r *repoPG) ListDoctors(ctx context.Context, f DoctorFilter) ([]*User, error) {
	sql := `SELECT ` + userCols + ` FROM users WHERE role = 'doctor' AND is_active`
	var args []any
	if f.Specialization != "" {
		args = append(args, "%"+f.Specialization+"%")
		sql += fmt.Sprintf(` AND specialization ILIKE $%d`, len(args))
	}
	if f.Verified != nil {
		args = append(args, *f.Verified)
		sql += fmt.Sprintf(` AND is_verified = $%d`, len(args))
	}
	sql += ` ORDER BY rating DESC`

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *repoPG) ListUsers(ctx context.Context, f UserFilter) ([]*User, int, error) {
	where := `WHERE TRUE`
	var args []any
	if f.Role != "" {
		args = append(args, f.Role)
		where += fmt.Sprintf(` AND role = $%d`, len(args))
	}
	if f.IsPremium != nil {
		args = append(args, *f.IsPremium)
		where += fmt.Sprintf(` AND is_premium = $%d`, len(args))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM users `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	args = append(args, f.Limit, f.Offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT `+userCols+` FROM users %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, n+1, n+2), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items, err := collectUsers(rows)
	return items, total, err
}

func (r *repoPG) ListPatientsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*User, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+userCols+` FROM users
		WHERE assigned_doctor = $1 AND role = 'patient'
		ORDER BY created_at DESC`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *repoPG) IncrementConsultations(ctx context.Context, doctorID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE users SET total_consultations = total_consultations + 1, updated_at = NOW()
		WHERE id = $1 AND role = 'doctor'`, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ApplyRating(ctx context.Context, doctorID uuid.UUID, prev *int, rating int) (float64, error) {
	var mean float64
	err := db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		var sum, count int
		err := r.conn(ctx).QueryRow(ctx, `
			SELECT rating_sum, rating_count FROM users
			WHERE id = $1 AND role = 'doctor' FOR UPDATE`, doctorID).Scan(&sum, &count)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		sum, count, mean = foldRating(sum, count, prev, rating)

		_, err = r.conn(ctx).Exec(ctx, `
			UPDATE users SET rating_sum=$2, rating_count=$3, rating=$4, updated_at=NOW()
			WHERE id = $1`, doctorID, sum, count, mean)
		return err
	})
	return mean, err
}

func (r *repoPG) Stats(ctx context.Context) (*PlatformStats, error) {
	var s PlatformStats
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE role = 'patient'),
			COUNT(*) FILTER (WHERE role = 'patient' AND is_premium),
			COUNT(*) FILTER (WHERE role = 'doctor'),
			COUNT(*) FILTER (WHERE role = 'doctor' AND is_verified)
		FROM users`).Scan(&s.TotalPatients, &s.PremiumPatients,
		&s.TotalDoctors, &s.VerifiedDoctors); err != nil {
		return nil, err
	}
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'completed')
		FROM consultations`).Scan(&s.TotalConsultations,
		&s.PendingConsultations, &s.CompletedConsultations); err != nil {
		return nil, err
	}
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE variant = 'meal' AND is_active),
			COUNT(*) FILTER (WHERE variant = 'exercise' AND is_active)
		FROM care_plans`).Scan(&s.ActiveMealPlans, &s.ActiveExercisePlans); err != nil {
		return nil, err
	}
	return &s, nil
}

func collectUsers(rows pgx.Rows) ([]*User, error) {
	var items []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}
