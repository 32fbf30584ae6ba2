package consultation

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

// Filter narrows consultation listings.
type Filter struct {
	Status Status
	Limit  int
	Offset int
}

type Repository interface {
	Create(ctx context.Context, c *Consultation) error
	Get(ctx context.Context, id uuid.UUID) (*Consultation, error)
	Update(ctx context.Context, c *Consultation) error
	// SetRating replaces the consultation's rating and feedback, returning
	// the rating it replaced. The swap is atomic so concurrent re-ratings
	// each observe the value they displaced.
	SetRating(ctx context.Context, id uuid.UUID, rating int, feedback string) (*int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, f Filter) ([]*Consultation, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, f Filter) ([]*Consultation, int, error)
	// ListBetween returns the most recent consultations between a doctor
	// and one of their patients, newest first.
	ListBetween(ctx context.Context, doctorID, patientID uuid.UUID, limit int) ([]*Consultation, error)
}
