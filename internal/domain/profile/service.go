package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/carefolio/api/internal/platform/httperr"
	"github.com/carefolio/api/internal/platform/notify"
)

// Notifier delivers in-app notifications. Delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, typ notify.Type, title, message string)
}

type Service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*HealthProfile, error) {
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, httperr.NotFound("profile not found")
	}
	if err != nil {
		return nil, httperr.Internal("get profile", err)
	}
	return p, nil
}

// Update shallow-merges the partial update into the stored profile and
// recomputes BMI when both height and weight resolve afterwards. A first
// update creates the profile.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, u Update) (*HealthProfile, error) {
	if u.Age != nil && (*u.Age < 0 || *u.Age > 150) {
		return nil, httperr.Validation("age out of range")
	}
	if u.HeightCM != nil && *u.HeightCM <= 0 {
		return nil, httperr.Validation("height_cm must be positive")
	}
	if u.WeightKG != nil && *u.WeightKG <= 0 {
		return nil, httperr.Validation("weight_kg must be positive")
	}

	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		p = &HealthProfile{UserID: userID}
	} else if err != nil {
		return nil, httperr.Internal("get profile", err)
	}

	p.Apply(u)
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, httperr.Internal("save profile", err)
	}
	return p, nil
}

// RecordVitals appends one entry to the user's vitals history, folds a
// supplied weight back into the profile, and runs the alert thresholds.
// Alert delivery happens after the record is durably stored and never fails
// the call.
func (s *Service) RecordVitals(ctx context.Context, userID uuid.UUID, in VitalsInput) (*VitalsRecord, error) {
	if in.SystolicBP == nil && in.DiastolicBP == nil && in.SugarLevel == nil &&
		in.HeartRate == nil && in.WeightKG == nil {
		return nil, httperr.Validation("at least one vitals measurement is required")
	}

	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, httperr.NotFound("profile not found")
	}
	if err != nil {
		return nil, httperr.Internal("get profile", err)
	}

	v := &VitalsRecord{
		UserID:      userID,
		SystolicBP:  in.SystolicBP,
		DiastolicBP: in.DiastolicBP,
		SugarLevel:  in.SugarLevel,
		HeartRate:   in.HeartRate,
		WeightKG:    in.WeightKG,
		Notes:       in.Notes,
	}
	if err := s.repo.AppendVitals(ctx, v); err != nil {
		return nil, httperr.Internal("append vitals", err)
	}

	if in.WeightKG != nil {
		p.WeightKG = in.WeightKG
		if bmi := CalcBMI(p.WeightKG, p.HeightCM); bmi != nil {
			p.BMI = bmi
		}
		if err := s.repo.Save(ctx, p); err != nil {
			return nil, httperr.Internal("save profile", err)
		}
	}

	for _, a := range EvaluateVitals(v) {
		s.notifier.Notify(ctx, userID, notify.TypeHealthAlert, a.Title, a.Message)
	}

	return v, nil
}

func (s *Service) ListVitals(ctx context.Context, userID uuid.UUID, q VitalsQuery) ([]*VitalsRecord, error) {
	if q.Limit <= 0 {
		q.Limit = 30
	}
	items, err := s.repo.ListVitals(ctx, userID, q)
	if err != nil {
		return nil, httperr.Internal("list vitals", err)
	}
	return items, nil
}

// MergeAttributes folds a triage input snapshot into the profile so the
// profile stays a superset of the most recent submission.
func (s *Service) MergeAttributes(ctx context.Context, userID uuid.UUID, u Update) error {
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		p = &HealthProfile{UserID: userID}
	} else if err != nil {
		return httperr.Internal("get profile", err)
	}
	p.Apply(u)
	if err := s.repo.Save(ctx, p); err != nil {
		return httperr.Internal("save profile", err)
	}
	return nil
}
