package plan

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carefolio/api/internal/platform/httperr"
	"github.com/carefolio/api/internal/platform/notify"
)

type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, typ notify.Type, title, message string)
}

// Assignments answers whether a doctor is assigned to a patient. Backed by
// the user store; wired in at construction.
type Assignments interface {
	IsAssigned(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error)
}

// ProfileSource supplies the patient attribute snapshot stored alongside
// doctor-authored plans. An empty object means the patient has no profile
// yet.
type ProfileSource interface {
	Snapshot(ctx context.Context, userID uuid.UUID) (json.RawMessage, error)
}

type Service struct {
	repo        Repository
	predictor   Predictor
	assignments Assignments
	profiles    ProfileSource
	notifier    Notifier
	logger      zerolog.Logger
}

func NewService(repo Repository, predictor Predictor, assignments Assignments, profiles ProfileSource, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		predictor:   predictor,
		assignments: assignments,
		profiles:    profiles,
		notifier:    notifier,
		logger:      logger,
	}
}

// Generate produces a new active plan for the user. The predictor is tried
// once; on any transport error, bad status, or body that does not match the
// plan shape, the deterministic fallback substitutes. Predictor failure is
// logged but never surfaced: with valid inputs this operation always yields
// a plan.
func (s *Service) Generate(ctx context.Context, userID uuid.UUID, variant Variant, rawInputs json.RawMessage) (*Plan, error) {
	if !variant.Valid() {
		return nil, httperr.Validation("unknown plan variant %q", variant)
	}
	if len(rawInputs) == 0 {
		return nil, httperr.Validation("input parameters required")
	}

	body, source, err := s.produceBody(ctx, variant, rawInputs)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		UserID:      userID,
		Variant:     variant,
		InputParams: rawInputs,
		Body:        body,
		GeneratedBy: GeneratedByModel,
		Source:      source,
	}
	if err := s.repo.CreateAndActivate(ctx, p); err != nil {
		return nil, httperr.Internal("store plan", err)
	}

	title, message := "New Meal Plan Generated", "Your personalized meal plan is ready!"
	if variant == VariantExercise {
		title, message = "New Exercise Plan Generated", "Your personalized workout plan is ready!"
	}
	s.notifier.Notify(ctx, userID, notify.TypeSystem, title, message)

	return p, nil
}

// produceBody validates inputs, tries the predictor once, and falls back.
func (s *Service) produceBody(ctx context.Context, variant Variant, rawInputs json.RawMessage) (json.RawMessage, string, error) {
	switch variant {
	case VariantMeal:
		var in MealInputs
		if err := json.Unmarshal(rawInputs, &in); err != nil {
			return nil, "", httperr.Validation("malformed input parameters: %v", err)
		}
		if in.TDEE <= 0 {
			return nil, "", httperr.Validation("tdee must be positive")
		}

		if raw, err := s.predictor.Predict(ctx, variant, rawInputs); err == nil {
			var parsed MealPlanBody
			if jsonErr := json.Unmarshal(raw, &parsed); jsonErr == nil && len(parsed.Meals) > 0 {
				return raw, SourcePredictor, nil
			}
			s.logger.Warn().Msg("meal predictor returned unusable body, using fallback")
		} else {
			s.logger.Warn().Err(err).Msg("meal predictor unavailable, using fallback")
		}

		body, err := json.Marshal(FallbackMealPlan(in))
		if err != nil {
			return nil, "", httperr.Internal("encode fallback meal plan", err)
		}
		return body, SourceFallback, nil

	default:
		var in ExerciseInputs
		if err := json.Unmarshal(rawInputs, &in); err != nil {
			return nil, "", httperr.Validation("malformed input parameters: %v", err)
		}
		if in.DaysPerWeek < 1 || in.DaysPerWeek > 7 {
			return nil, "", httperr.Validation("days_per_week must be between 1 and 7")
		}

		if raw, err := s.predictor.Predict(ctx, variant, rawInputs); err == nil {
			var parsed ExercisePlanBody
			if jsonErr := json.Unmarshal(raw, &parsed); jsonErr == nil && len(parsed.WeeklySchedule) > 0 {
				return raw, SourcePredictor, nil
			}
			s.logger.Warn().Msg("exercise predictor returned unusable body, using fallback")
		} else {
			s.logger.Warn().Err(err).Msg("exercise predictor unavailable, using fallback")
		}

		body, err := json.Marshal(FallbackExercisePlan(in))
		if err != nil {
			return nil, "", httperr.Internal("encode fallback exercise plan", err)
		}
		return body, SourceFallback, nil
	}
}

// CreateByDoctor stores a doctor-authored plan for a patient. The doctor
// must be the patient's assigned doctor. The patient's current profile
// attributes are snapshotted into the plan's input parameters.
func (s *Service) CreateByDoctor(ctx context.Context, doctorID, patientID uuid.UUID, variant Variant, body json.RawMessage) (*Plan, error) {
	if !variant.Valid() {
		return nil, httperr.Validation("unknown plan variant %q", variant)
	}
	if err := validateBody(variant, body); err != nil {
		return nil, err
	}

	assigned, err := s.assignments.IsAssigned(ctx, doctorID, patientID)
	if err != nil {
		return nil, httperr.Internal("check assignment", err)
	}
	if !assigned {
		return nil, httperr.Forbidden("doctor is not assigned to this patient")
	}

	snapshot, err := s.profiles.Snapshot(ctx, patientID)
	if err != nil {
		return nil, httperr.Internal("snapshot patient profile", err)
	}
	if len(snapshot) == 0 {
		snapshot = json.RawMessage(`{}`)
	}

	p := &Plan{
		UserID:      patientID,
		DoctorID:    &doctorID,
		Variant:     variant,
		InputParams: snapshot,
		Body:        body,
		GeneratedBy: GeneratedByDoctor,
		Source:      SourceDoctor,
	}
	if err := s.repo.CreateAndActivate(ctx, p); err != nil {
		return nil, httperr.Internal("store plan", err)
	}

	title, message := "New Meal Plan Generated", "Your doctor has prescribed a new meal plan."
	if variant == VariantExercise {
		title, message = "New Exercise Plan Generated", "Your doctor has prescribed a new workout plan."
	}
	s.notifier.Notify(ctx, patientID, notify.TypeSystem, title, message)

	return p, nil
}

func validateBody(variant Variant, body json.RawMessage) error {
	switch variant {
	case VariantMeal:
		var parsed MealPlanBody
		if err := json.Unmarshal(body, &parsed); err != nil {
			return httperr.Validation("malformed plan body: %v", err)
		}
		if parsed.DailyCalories <= 0 || len(parsed.Meals) == 0 {
			return httperr.Validation("plan body must include daily calories and meals")
		}
	default:
		var parsed ExercisePlanBody
		if err := json.Unmarshal(body, &parsed); err != nil {
			return httperr.Validation("malformed plan body: %v", err)
		}
		if len(parsed.WeeklySchedule) == 0 {
			return httperr.Validation("plan body must include a weekly schedule")
		}
	}
	return nil
}

func (s *Service) Active(ctx context.Context, userID uuid.UUID, variant Variant) (*Plan, error) {
	if !variant.Valid() {
		return nil, httperr.Validation("unknown plan variant %q", variant)
	}
	p, err := s.repo.Active(ctx, userID, variant)
	if errors.Is(err, ErrNotFound) {
		return nil, httperr.NotFound("no active %s plan found", variant)
	}
	if err != nil {
		return nil, httperr.Internal("get active plan", err)
	}
	return p, nil
}

func (s *Service) History(ctx context.Context, userID uuid.UUID, variant Variant, limit, offset int) ([]*Plan, int, error) {
	if !variant.Valid() {
		return nil, 0, httperr.Validation("unknown plan variant %q", variant)
	}
	items, total, err := s.repo.History(ctx, userID, variant, limit, offset)
	if err != nil {
		return nil, 0, httperr.Internal("list plans", err)
	}
	return items, total, nil
}
