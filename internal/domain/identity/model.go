// Package identity holds user accounts: patients, doctors and admins, the
// premium entitlement, and the patient-doctor assignment that gates
// doctor-authored plans and the patient summary view.
package identity

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionPlan is the billing period a patient picks when upgrading.
type SubscriptionPlan string

const (
	PlanMonthly   SubscriptionPlan = "monthly"
	PlanQuarterly SubscriptionPlan = "quarterly"
	PlanYearly    SubscriptionPlan = "yearly"
)

// Days returns the premium duration the plan buys. Unknown plans fall back
// to a month.
func (p SubscriptionPlan) Days() int {
	switch p {
	case PlanQuarterly:
		return 90
	case PlanYearly:
		return 365
	default:
		return 30
	}
}

// DoctorProfile carries the clinical-side fields of a doctor account.
// RatingSum and RatingCount back the running average and never leave the
// server.
type DoctorProfile struct {
	Specialization     string  `json:"specialization"`
	LicenseNumber      string  `json:"license_number,omitempty"`
	ExperienceYears    int     `json:"experience_years"`
	ConsultationFee    float64 `json:"consultation_fee"`
	IsVerified         bool    `json:"is_verified"`
	Rating             float64 `json:"rating"`
	RatingSum          int     `json:"-"`
	RatingCount        int     `json:"-"`
	TotalConsultations int     `json:"total_consultations"`
}

type User struct {
	ID             uuid.UUID      `json:"id"`
	Email          string         `json:"email"`
	PasswordHash   string         `json:"-"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Phone          string         `json:"phone,omitempty"`
	Role           string         `json:"role"`
	DateOfBirth    *time.Time     `json:"date_of_birth,omitempty"`
	Gender         string         `json:"gender,omitempty"`
	IsPremium      bool           `json:"is_premium"`
	PremiumExpiry  *time.Time     `json:"premium_expiry,omitempty"`
	AssignedDoctor *uuid.UUID     `json:"assigned_doctor,omitempty"`
	IsActive       bool           `json:"is_active"`
	LastLogin      *time.Time     `json:"last_login,omitempty"`
	DoctorProfile  *DoctorProfile `json:"doctor_profile,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// PremiumActive reports whether the premium flag is set and unexpired at
// the given instant.
func (u *User) PremiumActive(now time.Time) bool {
	if !u.IsPremium {
		return false
	}
	return u.PremiumExpiry == nil || u.PremiumExpiry.After(now)
}
