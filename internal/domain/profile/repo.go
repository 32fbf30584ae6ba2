package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when no row matches.
var ErrNotFound = errors.New("not found")

type Repository interface {
	Get(ctx context.Context, userID uuid.UUID) (*HealthProfile, error)
	Save(ctx context.Context, p *HealthProfile) error
	AppendVitals(ctx context.Context, v *VitalsRecord) error
	ListVitals(ctx context.Context, userID uuid.UUID, q VitalsQuery) ([]*VitalsRecord, error)
}
