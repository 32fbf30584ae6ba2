package progress

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carefolio/api/internal/platform/httperr"
	"github.com/carefolio/api/internal/platform/notify"
)

// Notifier delivers in-app notifications. Delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, typ notify.Type, title, message string)
}

const (
	defaultListLimit = 30
	defaultStatsDays = 30
)

type Service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// Create appends one daily log. A completed workout triggers an
// encouragement reminder.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in Input) (*Log, error) {
	if in.Vitals == nil && in.Activity == nil && in.Nutrition == nil &&
		in.Wellness == nil && in.Notes == "" {
		return nil, httperr.Validation("at least one progress section is required")
	}

	l := &Log{
		UserID:    userID,
		Date:      time.Now(),
		Vitals:    in.Vitals,
		Activity:  in.Activity,
		Nutrition: in.Nutrition,
		Wellness:  in.Wellness,
		Notes:     in.Notes,
		Photos:    in.Photos,
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, httperr.Internal("store progress log", err)
	}

	if a := in.Activity; a != nil && a.WorkoutCompleted != nil && *a.WorkoutCompleted {
		s.notifier.Notify(ctx, userID, notify.TypeReminder,
			"Great Job!",
			"You completed your workout today. Keep it up!")
	}
	return l, nil
}

// List returns the user's logs, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, q Query) ([]*Log, error) {
	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}
	items, err := s.repo.List(ctx, userID, q)
	if err != nil {
		return nil, httperr.Internal("list progress logs", err)
	}
	return items, nil
}

// Stats aggregates the trailing period of logs into averages and trends.
func (s *Service) Stats(ctx context.Context, userID uuid.UUID, days int) (Stats, error) {
	if days <= 0 {
		days = defaultStatsDays
	}
	since := time.Now().AddDate(0, 0, -days)
	logs, err := s.repo.ListSince(ctx, userID, since)
	if err != nil {
		return Stats{}, httperr.Internal("list progress logs", err)
	}
	return ComputeStats(logs), nil
}

// Recent returns the latest logs for the doctor's patient summary, newest
// first.
func (s *Service) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]*Log, error) {
	items, err := s.repo.List(ctx, userID, Query{Limit: limit})
	if err != nil {
		return nil, httperr.Internal("list progress logs", err)
	}
	return items, nil
}
