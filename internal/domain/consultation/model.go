// Package consultation models the request/confirm/complete/rate lifecycle
// between patients and doctors.
package consultation

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeScheduled Type = "scheduled"
	TypeEmergency Type = "emergency"
	TypeFollowUp  Type = "followup"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// transitions is the allowed state table. completed and cancelled are
// terminal. Note-taking bypasses the table (see Service.AddNotes).
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether a direct status write from one state to
// another is allowed.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Notes is the clinical note block attached by the doctor.
type Notes struct {
	Subjective string `json:"subjective,omitempty"`
	Objective  string `json:"objective,omitempty"`
	Assessment string `json:"assessment,omitempty"`
	Plan       string `json:"plan,omitempty"`
}

type Prescription struct {
	Medicine     string `json:"medicine"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration"`
	Instructions string `json:"instructions,omitempty"`
}

// VitalsSnapshot is the point-in-time reading taken during a consultation.
type VitalsSnapshot struct {
	SystolicBP  *int     `json:"systolic_bp,omitempty"`
	DiastolicBP *int     `json:"diastolic_bp,omitempty"`
	SugarLevel  *float64 `json:"sugar_level,omitempty"`
	HeartRate   *int     `json:"heart_rate,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type Consultation struct {
	ID            uuid.UUID       `json:"id"`
	PatientID     uuid.UUID       `json:"patient_id"`
	DoctorID      uuid.UUID       `json:"doctor_id"`
	Type          Type            `json:"type"`
	Status        Status          `json:"status"`
	ScheduledDate time.Time       `json:"scheduled_date"`
	ScheduledTime string          `json:"scheduled_time,omitempty"`
	DurationMin   int             `json:"duration_min"`
	Complaint     string          `json:"complaint"`
	Symptoms      []string        `json:"symptoms,omitempty"`
	Notes         Notes           `json:"notes"`
	Vitals        *VitalsSnapshot `json:"vitals,omitempty"`
	Diagnosis     []string        `json:"diagnosis,omitempty"`
	Prescriptions []Prescription  `json:"prescriptions,omitempty"`
	LabTests      []string        `json:"lab_tests,omitempty"`
	FollowUpDate  *time.Time      `json:"follow_up_date,omitempty"`
	FollowUpNotes string          `json:"follow_up_notes,omitempty"`
	Rating        *int            `json:"rating,omitempty"`
	Feedback      string          `json:"feedback,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
