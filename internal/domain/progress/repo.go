package progress

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Query filters the log history. Zero times mean unbounded; results are
// newest first, capped at Limit.
type Query struct {
	From  time.Time
	To    time.Time
	Limit int
}

type Repository interface {
	Create(ctx context.Context, l *Log) error
	List(ctx context.Context, userID uuid.UUID, q Query) ([]*Log, error)
	// ListSince returns logs on or after the cutoff, oldest first, for
	// period aggregation.
	ListSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*Log, error)
}
