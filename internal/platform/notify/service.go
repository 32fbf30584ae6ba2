package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carefolio/api/internal/platform/httperr"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Notify records a notification for the user. Failures are logged and
// swallowed so callers can fire-and-forget from any domain operation.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, typ Type, title, message string) {
	if !typ.Valid() {
		typ = TypeSystem
	}
	n := &Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    typ,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error().Err(err).
			Str("user_id", userID.String()).
			Str("type", string(typ)).
			Str("title", title).
			Msg("failed to record notification")
	}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	items, total, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, httperr.Internal("list notifications", err)
	}
	return items, total, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.repo.MarkRead(ctx, userID, id)
	if err != nil {
		return httperr.Internal("mark notification read", err)
	}
	if !ok {
		return httperr.NotFound("notification not found")
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, httperr.Internal("mark all notifications read", err)
	}
	return n, nil
}
