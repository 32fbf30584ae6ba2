package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/carefolio/api/internal/platform/auth"
	"github.com/carefolio/api/internal/platform/httperr"
	"github.com/carefolio/api/internal/platform/notify"
)

const (
	tokenTTL                 = 7 * 24 * time.Hour
	summaryVitalsLimit       = 10
	summaryProgressLimit     = 7
	summaryConsultationLimit = 5
)

// ClinicalRecords supplies the health records aggregated into the doctor's
// patient summary. The owning domains implement it; payloads pass through
// untyped.
type ClinicalRecords interface {
	ProfileOf(ctx context.Context, userID uuid.UUID) (any, error)
	RecentVitals(ctx context.Context, userID uuid.UUID, limit int) (any, error)
	RecentProgress(ctx context.Context, userID uuid.UUID, limit int) (any, error)
	ActivePlan(ctx context.Context, userID uuid.UUID, variant string) (any, error)
	RecentConsultations(ctx context.Context, doctorID, patientID uuid.UUID, limit int) (any, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, typ notify.Type, title, message string)
}

type Service struct {
	repo      Repository
	records   ClinicalRecords
	notifier  Notifier
	jwtSecret []byte
}

func NewService(repo Repository, records ClinicalRecords, notifier Notifier, jwtSecret []byte) *Service {
	return &Service{repo: repo, records: records, notifier: notifier, jwtSecret: jwtSecret}
}

type RegisterInput struct {
	Email       string     `json:"email"`
	Password    string     `json:"password"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       string     `json:"phone"`
	Role        string     `json:"role"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Gender      string     `json:"gender"`
}

// Register creates an account and returns it with a signed token. Admin
// accounts cannot be self-registered.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, string, error) {
	if in.Email == "" || in.Password == "" || in.FirstName == "" || in.LastName == "" {
		return nil, "", httperr.Validation("email, password, first_name and last_name are required")
	}

	role := in.Role
	if role == "" || role == auth.RoleAdmin {
		role = auth.RolePatient
	}
	if role != auth.RolePatient && role != auth.RoleDoctor {
		return nil, "", httperr.Validation("invalid role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", httperr.Internal("hash password", err)
	}

	u := &User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Role:         role,
		DateOfBirth:  in.DateOfBirth,
		Gender:       in.Gender,
		IsActive:     true,
	}
	if role == auth.RoleDoctor {
		u.DoctorProfile = &DoctorProfile{}
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, "", httperr.Validation("Email already registered")
		}
		return nil, "", httperr.Internal("create user", err)
	}

	token, err := auth.IssueToken(s.jwtSecret, u.ID, u.Role, u.IsPremium, tokenTTL)
	if err != nil {
		return nil, "", httperr.Internal("issue token", err)
	}
	return u, token, nil
}

// Login verifies credentials and returns the user with a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	if email == "" || password == "" {
		return nil, "", httperr.Validation("Email and password required")
	}

	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrNotFound) {
		return nil, "", httperr.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, "", httperr.Internal("get user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", httperr.Unauthorized("Invalid credentials")
	}
	if !u.IsActive {
		return nil, "", httperr.Forbidden("Account is deactivated")
	}

	now := time.Now()
	u.LastLogin = &now
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, "", httperr.Internal("update last login", err)
	}

	token, err := auth.IssueToken(s.jwtSecret, u.ID, u.Role, u.PremiumActive(now), tokenTTL)
	if err != nil {
		return nil, "", httperr.Internal("issue token", err)
	}
	return u, token, nil
}

func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*User, error) {
	return s.getUser(ctx, userID)
}

// IsPremiumActive is the entitlement check consultations and messaging gate
// on. It goes to the store so expiry takes effect without re-login.
func (s *Service) IsPremiumActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.PremiumActive(time.Now()), nil
}

// IsAssigned reports whether the patient's assigned doctor is doctorID.
func (s *Service) IsAssigned(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	u, err := s.repo.GetByID(ctx, patientID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.AssignedDoctor != nil && *u.AssignedDoctor == doctorID, nil
}

// DoctorName resolves a doctor's display name for notification text.
func (s *Service) DoctorName(ctx context.Context, id uuid.UUID) (string, bool, error) {
	u, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if u.Role != auth.RoleDoctor {
		return "", false, nil
	}
	return u.FullName(), true, nil
}

func (s *Service) UserName(ctx context.Context, id uuid.UUID) (string, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return u.FullName(), nil
}

func (s *Service) ListDoctors(ctx context.Context, f DoctorFilter) ([]*User, error) {
	doctors, err := s.repo.ListDoctors(ctx, f)
	if err != nil {
		return nil, httperr.Internal("list doctors", err)
	}
	return doctors, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role != auth.RoleDoctor {
		return nil, httperr.NotFound("Doctor not found")
	}
	return u, nil
}

// DoctorProfileUpdate is a partial update of the clinical-side fields.
// Verification, rating and consultation counts are server-maintained and
// cannot be set here.
type DoctorProfileUpdate struct {
	Specialization  *string  `json:"specialization"`
	LicenseNumber   *string  `json:"license_number"`
	ExperienceYears *int     `json:"experience_years"`
	ConsultationFee *float64 `json:"consultation_fee"`
}

func (s *Service) UpdateDoctorProfile(ctx context.Context, doctorID uuid.UUID, in DoctorProfileUpdate) (*User, error) {
	u, err := s.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	dp := u.DoctorProfile
	if in.Specialization != nil {
		dp.Specialization = *in.Specialization
	}
	if in.LicenseNumber != nil {
		dp.LicenseNumber = *in.LicenseNumber
	}
	if in.ExperienceYears != nil {
		dp.ExperienceYears = *in.ExperienceYears
	}
	if in.ConsultationFee != nil {
		dp.ConsultationFee = *in.ConsultationFee
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, httperr.Internal("update doctor profile", err)
	}
	return u, nil
}

func (s *Service) ListPatients(ctx context.Context, doctorID uuid.UUID) ([]*User, error) {
	patients, err := s.repo.ListPatientsByDoctor(ctx, doctorID)
	if err != nil {
		return nil, httperr.Internal("list patients", err)
	}
	return patients, nil
}

// PatientSummary is the doctor's consolidated view of an assigned patient.
type PatientSummary struct {
	Patient            *User `json:"patient"`
	Profile            any   `json:"profile"`
	RecentVitals       any   `json:"recent_vitals"`
	RecentProgress     any   `json:"recent_progress"`
	ActiveMealPlan     any   `json:"active_meal_plan"`
	ActiveExercisePlan any   `json:"active_exercise_plan"`
	Consultations      any   `json:"consultations"`
}

// Summary aggregates a patient's records for their assigned doctor.
func (s *Service) Summary(ctx context.Context, doctorID, patientID uuid.UUID) (*PatientSummary, error) {
	patient, err := s.repo.GetByID(ctx, patientID)
	if errors.Is(err, ErrNotFound) {
		return nil, httperr.Forbidden("Access denied or patient not found")
	}
	if err != nil {
		return nil, httperr.Internal("get patient", err)
	}
	if patient.AssignedDoctor == nil || *patient.AssignedDoctor != doctorID {
		return nil, httperr.Forbidden("Access denied or patient not found")
	}

	sum := &PatientSummary{Patient: patient}
	if sum.Profile, err = s.records.ProfileOf(ctx, patientID); err != nil {
		return nil, httperr.Internal("patient profile", err)
	}
	if sum.RecentVitals, err = s.records.RecentVitals(ctx, patientID, summaryVitalsLimit); err != nil {
		return nil, httperr.Internal("patient vitals", err)
	}
	if sum.RecentProgress, err = s.records.RecentProgress(ctx, patientID, summaryProgressLimit); err != nil {
		return nil, httperr.Internal("patient progress", err)
	}
	if sum.ActiveMealPlan, err = s.records.ActivePlan(ctx, patientID, "meal"); err != nil {
		return nil, httperr.Internal("patient meal plan", err)
	}
	if sum.ActiveExercisePlan, err = s.records.ActivePlan(ctx, patientID, "exercise"); err != nil {
		return nil, httperr.Internal("patient exercise plan", err)
	}
	if sum.Consultations, err = s.records.RecentConsultations(ctx, doctorID, patientID, summaryConsultationLimit); err != nil {
		return nil, httperr.Internal("patient consultations", err)
	}
	return sum, nil
}

func (s *Service) ListUsers(ctx context.Context, f UserFilter) ([]*User, int, error) {
	users, total, err := s.repo.ListUsers(ctx, f)
	if err != nil {
		return nil, 0, httperr.Internal("list users", err)
	}
	return users, total, nil
}

// SetPremium flips a user's premium entitlement, optionally bounded by a
// duration in days, and notifies them.
func (s *Service) SetPremium(ctx context.Context, userID uuid.UUID, premium bool, durationDays int) (*User, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	u.IsPremium = premium
	if premium && durationDays > 0 {
		expiry := time.Now().AddDate(0, 0, durationDays)
		u.PremiumExpiry = &expiry
	}
	if !premium {
		u.PremiumExpiry = nil
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, httperr.Internal("update user", err)
	}

	message := "Your premium subscription has expired"
	if premium {
		message = "Your account has been upgraded to Premium!"
	}
	s.notifier.Notify(ctx, userID, notify.TypeSystem, "Premium Status Updated", message)
	return u, nil
}

// AssignDoctor links a premium patient to a doctor and notifies both.
func (s *Service) AssignDoctor(ctx context.Context, patientID, doctorID uuid.UUID) (*User, error) {
	u, err := s.getUser(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if u.Role != auth.RolePatient {
		return nil, httperr.NotFound("User not found")
	}
	if !u.PremiumActive(time.Now()) {
		return nil, httperr.Validation("User must have premium subscription")
	}

	doctorName, ok, err := s.DoctorName(ctx, doctorID)
	if err != nil {
		return nil, httperr.Internal("resolve doctor", err)
	}
	if !ok {
		return nil, httperr.NotFound("Doctor not found")
	}

	u.AssignedDoctor = &doctorID
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, httperr.Internal("update user", err)
	}

	s.notifier.Notify(ctx, patientID, notify.TypeSystem, "Doctor Assigned",
		fmt.Sprintf("Dr. %s has been assigned to you", doctorName))
	s.notifier.Notify(ctx, doctorID, notify.TypeSystem, "New Patient Assigned",
		fmt.Sprintf("%s has been assigned to you", u.FullName()))
	return u, nil
}

// VerifyDoctor sets the verification flag and notifies the doctor.
func (s *Service) VerifyDoctor(ctx context.Context, doctorID uuid.UUID, verified bool) (*User, error) {
	u, err := s.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	u.DoctorProfile.IsVerified = verified
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, httperr.Internal("update doctor", err)
	}

	message := "Your verification has been revoked"
	if verified {
		message = "Your profile has been verified!"
	}
	s.notifier.Notify(ctx, doctorID, notify.TypeSystem, "Verification Status Updated", message)
	return u, nil
}

// SetActive toggles whether the account can log in.
func (s *Service) SetActive(ctx context.Context, userID uuid.UUID, active bool) (*User, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.IsActive = active
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, httperr.Internal("update user", err)
	}
	return u, nil
}

func (s *Service) Stats(ctx context.Context) (*PlatformStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, httperr.Internal("platform stats", err)
	}
	return stats, nil
}

// Upgrade activates premium for the plan's duration and notifies the user.
func (s *Service) Upgrade(ctx context.Context, userID uuid.UUID, plan SubscriptionPlan) (*User, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	expiry := time.Now().AddDate(0, 0, plan.Days())
	u.IsPremium = true
	u.PremiumExpiry = &expiry
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, httperr.Internal("update user", err)
	}

	s.notifier.Notify(ctx, userID, notify.TypeSystem, "Premium Upgrade Successful",
		fmt.Sprintf("Your %s premium subscription is now active!", plan))
	return u, nil
}

// CancelSubscription drops premium and unlinks the assigned doctor.
func (s *Service) CancelSubscription(ctx context.Context, userID uuid.UUID) (*User, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	u.IsPremium = false
	u.PremiumExpiry = nil
	u.AssignedDoctor = nil
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, httperr.Internal("update user", err)
	}

	s.notifier.Notify(ctx, userID, notify.TypeSystem, "Premium Subscription Cancelled",
		"Your premium subscription has been cancelled")
	return u, nil
}

// ApplyRating and IncrementConsultations keep doctor aggregates consistent
// with completed consultations; the consultation service calls them.

func (s *Service) ApplyRating(ctx context.Context, doctorID uuid.UUID, prev *int, rating int) (float64, error) {
	return s.repo.ApplyRating(ctx, doctorID, prev, rating)
}

func (s *Service) IncrementConsultations(ctx context.Context, doctorID uuid.UUID) error {
	return s.repo.IncrementConsultations(ctx, doctorID)
}

func (s *Service) getUser(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, httperr.NotFound("User not found")
	}
	if err != nil {
		return nil, httperr.Internal("get user", err)
	}
	return u, nil
}
