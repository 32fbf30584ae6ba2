package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carefolio/api/internal/platform/httperr"
	"github.com/carefolio/api/internal/platform/notify"
)

// ProfileMerger folds a triage input snapshot back into the user's health
// profile so the profile stays a superset of the most recent submission.
type ProfileMerger interface {
	MergeTriageInputs(ctx context.Context, userID uuid.UUID, in Inputs) error
}

type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, typ notify.Type, title, message string)
}

type Service struct {
	repo     Repository
	profiles ProfileMerger
	notifier Notifier
}

func NewService(repo Repository, profiles ProfileMerger, notifier Notifier) *Service {
	return &Service{repo: repo, profiles: profiles, notifier: notifier}
}

// Submit evaluates the inputs, persists the resulting record, merges the
// snapshot into the user's profile, and notifies the user of the outcome.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, in Inputs) (*Record, error) {
	res := Evaluate(in)

	rec := &Record{
		UserID:          userID,
		Inputs:          in,
		Pathway:         res.Pathway,
		RiskLevel:       res.RiskLevel,
		Recommendations: res.Recommendations,
		RequiresDoctor:  res.RequiresDoctor,
		Confidence:      res.Confidence,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, httperr.Internal("create triage record", err)
	}

	if err := s.profiles.MergeTriageInputs(ctx, userID, in); err != nil {
		return nil, fmt.Errorf("merge triage inputs: %w", err)
	}

	outcome := "Follow personalized wellness plan."
	if rec.RequiresDoctor {
		outcome = "Expert consultation recommended."
	}
	s.notifier.Notify(ctx, userID, notify.TypeSystem, "Health Assessment Complete",
		fmt.Sprintf("Your health pathway is: %s. %s", strings.ToUpper(string(rec.Pathway)), outcome))

	return rec, nil
}

func (s *Service) Latest(ctx context.Context, userID uuid.UUID) (*Record, error) {
	rec, err := s.repo.Latest(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, httperr.NotFound("no triage found")
	}
	if err != nil {
		return nil, httperr.Internal("get latest triage", err)
	}
	return rec, nil
}

func (s *Service) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	items, total, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, httperr.Internal("list triage records", err)
	}
	return items, total, nil
}
