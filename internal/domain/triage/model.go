// Package triage classifies a patient's health inputs into a care pathway
// and risk level. Records are immutable; each submission appends one.
package triage

import (
	"time"

	"github.com/google/uuid"
)

type Pathway string

const (
	PathwayWellness Pathway = "wellness"
	PathwayExpert   Pathway = "expert"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Lifestyle captures the lifestyle sub-object of a triage submission.
// Missing fields stay nil and never escalate.
type Lifestyle struct {
	Smoking           *bool    `json:"smoking,omitempty"`
	Alcohol           *bool    `json:"alcohol,omitempty"`
	ExerciseFrequency *int     `json:"exercise_frequency,omitempty"`
	SleepHours        *float64 `json:"sleep_hours,omitempty"`
	StressLevel       *int     `json:"stress_level,omitempty"`
}

// Inputs is the snapshot of health attributes a triage submission evaluates.
type Inputs struct {
	Age        *int      `json:"age,omitempty"`
	WeightKG   *float64  `json:"weight_kg,omitempty"`
	HeightCM   *float64  `json:"height_cm,omitempty"`
	BMI        *float64  `json:"bmi,omitempty"`
	Conditions []string  `json:"conditions,omitempty"`
	Symptoms   []string  `json:"symptoms,omitempty"`
	Lifestyle  Lifestyle `json:"lifestyle"`
}

// Result is the outcome of evaluating triage inputs.
type Result struct {
	Pathway         Pathway   `json:"pathway"`
	RiskLevel       RiskLevel `json:"risk_level"`
	Recommendations []string  `json:"recommendations"`
	RequiresDoctor  bool      `json:"requires_doctor"`
	Confidence      float64   `json:"confidence"`
}

// Record is one persisted triage submission.
type Record struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Inputs          Inputs    `json:"input_data"`
	Pathway         Pathway   `json:"pathway"`
	RiskLevel       RiskLevel `json:"risk_level"`
	Recommendations []string  `json:"recommendations"`
	RequiresDoctor  bool      `json:"requires_doctor"`
	Confidence      float64   `json:"confidence"`
	CreatedAt       time.Time `json:"created_at"`
}
