package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// DoctorFilter narrows the doctor directory listing.
type DoctorFilter struct {
	Specialization string
	Verified       *bool
}

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Role      string
	IsPremium *bool
	Limit     int
	Offset    int
}

// PlatformStats is the admin dashboard aggregate.
type PlatformStats struct {
	TotalPatients          int `json:"total_patients"`
	PremiumPatients        int `json:"premium_patients"`
	TotalDoctors           int `json:"total_doctors"`
	VerifiedDoctors        int `json:"verified_doctors"`
	TotalConsultations     int `json:"total_consultations"`
	PendingConsultations   int `json:"pending_consultations"`
	CompletedConsultations int `json:"completed_consultations"`
	ActiveMealPlans        int `json:"active_meal_plans"`
	ActiveExercisePlans    int `json:"active_exercise_plans"`
}

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	ListDoctors(ctx context.Context, f DoctorFilter) ([]*User, error)
	ListUsers(ctx context.Context, f UserFilter) ([]*User, int, error)
	ListPatientsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*User, error)
	// IncrementConsultations bumps the doctor's lifetime consultation count.
	IncrementConsultations(ctx context.Context, doctorID uuid.UUID) error
	// ApplyRating folds a rating into the doctor's running average inside a
	// transaction and returns the new mean rounded to 2 decimals. prev is
	// the rating being replaced when a patient re-rates, nil otherwise.
	ApplyRating(ctx context.Context, doctorID uuid.UUID, prev *int, rating int) (float64, error)
	Stats(ctx context.Context) (*PlatformStats, error)
}
