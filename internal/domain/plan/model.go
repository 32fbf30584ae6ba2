// Package plan generates and version-manages meal and exercise care plans.
// Generation delegates to an external predictor with a deterministic
// rule-based fallback; at most one plan per variant is active per user.
package plan

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Variant distinguishes the two plan kinds. They share one lifecycle.
type Variant string

const (
	VariantMeal     Variant = "meal"
	VariantExercise Variant = "exercise"
)

func (v Variant) Valid() bool {
	return v == VariantMeal || v == VariantExercise
}

// GeneratedBy records who authored a plan.
const (
	GeneratedByModel  = "ml_model"
	GeneratedByDoctor = "doctor"
)

// Source records which path produced the plan body. It is an audit field
// and is not part of the user-facing contract.
const (
	SourcePredictor = "predictor"
	SourceFallback  = "fallback"
	SourceDoctor    = "doctor"
)

// Plan is one stored care plan. Plans are never deleted; superseded plans
// stay in history with IsActive false.
type Plan struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	DoctorID    *uuid.UUID      `json:"doctor_id,omitempty"`
	Variant     Variant         `json:"variant"`
	InputParams json.RawMessage `json:"input_params"`
	Body        json.RawMessage `json:"plan"`
	GeneratedBy string          `json:"generated_by"`
	Source      string          `json:"-"`
	IsActive    bool            `json:"is_active"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// MealInputs parameterize meal plan generation.
type MealInputs struct {
	Age             *int     `json:"age,omitempty"`
	WeightKG        *float64 `json:"weight_kg,omitempty"`
	HeightCM        *float64 `json:"height_cm,omitempty"`
	TDEE            float64  `json:"tdee"`
	FitnessGoal     string   `json:"fitness_goal"`
	HasDiabetes     bool     `json:"has_diabetes"`
	HasHypertension bool     `json:"has_hypertension"`
}

// ExerciseInputs parameterize exercise plan generation.
type ExerciseInputs struct {
	FitnessGoal     string   `json:"fitness_goal"`
	ExperienceLevel string   `json:"experience_level"`
	DaysPerWeek     int      `json:"days_per_week"`
	Conditions      []string `json:"conditions"`
}

// Macros is the daily macronutrient budget in grams.
type Macros struct {
	ProteinG int `json:"protein_g"`
	CarbsG   int `json:"carbs_g"`
	FatsG    int `json:"fats_g"`
}

// Meal is one entry of a meal plan.
type Meal struct {
	MealType     string   `json:"meal_type"`
	Name         string   `json:"name"`
	Calories     int      `json:"calories"`
	ProteinG     int      `json:"protein_g"`
	CarbsG       int      `json:"carbs_g"`
	FatsG        int      `json:"fats_g"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions"`
	Time         string   `json:"time"`
}

// MealPlanBody is the structured body of a meal plan.
type MealPlanBody struct {
	DailyCalories   int      `json:"daily_calories"`
	Macros          Macros   `json:"macros"`
	Meals           []Meal   `json:"meals"`
	HydrationLiters float64  `json:"hydration_liters"`
	Supplements     []string `json:"supplements"`
	Restrictions    []string `json:"restrictions"`
}

// Exercise is one exercise within a scheduled day.
type Exercise struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Sets         *int     `json:"sets"`
	Reps         *int     `json:"reps"`
	Duration     *string  `json:"duration"`
	Intensity    string   `json:"intensity"`
	RestSeconds  *int     `json:"rest_seconds"`
	Instructions string   `json:"instructions"`
	Precautions  []string `json:"precautions"`
}

// ScheduledDay is one day of an exercise plan's weekly schedule.
type ScheduledDay struct {
	Day              string     `json:"day"`
	Exercises        []Exercise `json:"exercises"`
	TotalDurationMin int        `json:"total_duration_min"`
	CaloriesBurned   int        `json:"calories_burned"`
}

// ExercisePlanBody is the structured body of an exercise plan.
type ExercisePlanBody struct {
	WeeklySchedule []ScheduledDay `json:"weekly_schedule"`
	WarmUp         []string       `json:"warm_up"`
	CoolDown       []string       `json:"cool_down"`
	WeeklyGoal     string         `json:"weekly_goal"`
	SafetyNotes    []string       `json:"safety_notes"`
}
