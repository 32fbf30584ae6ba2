package plan

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

type Repository interface {
	// CreateAndActivate stores the plan as active and deactivates all other
	// plans of the same variant for the same user as one atomic unit.
	// Concurrent calls for the same (user, variant) pair must serialize.
	CreateAndActivate(ctx context.Context, p *Plan) error
	Active(ctx context.Context, userID uuid.UUID, variant Variant) (*Plan, error)
	History(ctx context.Context, userID uuid.UUID, variant Variant, limit, offset int) ([]*Plan, int, error)
}
