package consultation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carefolio/api/internal/platform/auth"
	"github.com/carefolio/api/internal/platform/httperr"
	"github.com/carefolio/api/internal/platform/notify"
)

const defaultDurationMin = 30

// Entitlements answers whether a paid subscription is currently active for a
// user. Consultations are gated behind it.
type Entitlements interface {
	IsPremiumActive(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Directory resolves users for authorization checks and notification text.
type Directory interface {
	// DoctorName returns the doctor's display name. The bool is false when
	// the id does not belong to a doctor.
	DoctorName(ctx context.Context, id uuid.UUID) (string, bool, error)
	UserName(ctx context.Context, id uuid.UUID) (string, error)
}

// DoctorStats maintains per-doctor aggregates kept outside this package.
type DoctorStats interface {
	IncrementConsultations(ctx context.Context, doctorID uuid.UUID) error
	// ApplyRating folds a new rating into the doctor's average. prev is the
	// rating being replaced when the patient re-rates, nil otherwise.
	ApplyRating(ctx context.Context, doctorID uuid.UUID, prev *int, rating int) (float64, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, typ notify.Type, title, message string)
}

type Service struct {
	repo         Repository
	entitlements Entitlements
	directory    Directory
	stats        DoctorStats
	notifier     Notifier
}

func NewService(repo Repository, entitlements Entitlements, directory Directory, stats DoctorStats, notifier Notifier) *Service {
	return &Service{
		repo:         repo,
		entitlements: entitlements,
		directory:    directory,
		stats:        stats,
		notifier:     notifier,
	}
}

// RequestInput is what a patient submits to book a consultation.
type RequestInput struct {
	DoctorID      uuid.UUID `json:"doctor_id"`
	ScheduledDate time.Time `json:"scheduled_date"`
	ScheduledTime string    `json:"scheduled_time"`
	DurationMin   int       `json:"duration_min"`
	Complaint     string    `json:"complaint"`
	Symptoms      []string  `json:"symptoms"`
}

// Request books a pending consultation for a premium patient and notifies
// both parties.
func (s *Service) Request(ctx context.Context, patientID uuid.UUID, in RequestInput) (*Consultation, error) {
	if in.DoctorID == uuid.Nil || in.ScheduledDate.IsZero() || in.Complaint == "" {
		return nil, httperr.Validation("doctor_id, scheduled_date and complaint are required")
	}

	active, err := s.entitlements.IsPremiumActive(ctx, patientID)
	if err != nil {
		return nil, httperr.Internal("check subscription", err)
	}
	if !active {
		return nil, httperr.Forbidden("Premium subscription required for consultations")
	}

	doctorName, ok, err := s.directory.DoctorName(ctx, in.DoctorID)
	if err != nil {
		return nil, httperr.Internal("resolve doctor", err)
	}
	if !ok {
		return nil, httperr.NotFound("Doctor not found")
	}

	durationMin := in.DurationMin
	if durationMin <= 0 {
		durationMin = defaultDurationMin
	}

	c := &Consultation{
		PatientID:     patientID,
		DoctorID:      in.DoctorID,
		Type:          TypeScheduled,
		Status:        StatusPending,
		ScheduledDate: in.ScheduledDate,
		ScheduledTime: in.ScheduledTime,
		DurationMin:   durationMin,
		Complaint:     in.Complaint,
		Symptoms:      in.Symptoms,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, httperr.Internal("create consultation", err)
	}

	patientName, err := s.directory.UserName(ctx, patientID)
	if err != nil {
		patientName = "A patient"
	}
	s.notifier.Notify(ctx, in.DoctorID, notify.TypeConsultation,
		"New Consultation Request",
		fmt.Sprintf("New consultation request from %s", patientName))
	s.notifier.Notify(ctx, patientID, notify.TypeConsultation,
		"Consultation Requested",
		fmt.Sprintf("Your consultation with Dr. %s has been requested", doctorName))

	return c, nil
}

// UpdateStatus moves a consultation through the lifecycle table. Only the
// assigned doctor may call it.
func (s *Service) UpdateStatus(ctx context.Context, doctorID, id uuid.UUID, status Status) (*Consultation, error) {
	if !status.Valid() {
		return nil, httperr.Validation("invalid status %q", status)
	}

	c, err := s.getOwnedByDoctor(ctx, doctorID, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(c.Status, status) {
		return nil, httperr.Conflict("cannot move consultation from %s to %s", c.Status, status)
	}

	c.Status = status
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, httperr.Internal("update consultation", err)
	}

	s.notifier.Notify(ctx, c.PatientID, notify.TypeConsultation,
		"Consultation Updated",
		fmt.Sprintf("Your consultation status has been updated to: %s", status))

	return c, nil
}

// NotesInput is the doctor's write-up for a consultation. All fields are
// optional; present ones are merged onto the record.
type NotesInput struct {
	Notes         *Notes          `json:"notes"`
	Vitals        *VitalsSnapshot `json:"vitals"`
	Diagnosis     []string        `json:"diagnosis"`
	Prescriptions []Prescription  `json:"prescriptions"`
	LabTests      []string        `json:"lab_tests"`
	FollowUpDate  *time.Time      `json:"follow_up_date"`
	FollowUpNotes string          `json:"follow_up_notes"`
}

// AddNotes attaches the clinical write-up and marks the consultation
// completed regardless of its prior state, except cancelled. Each call counts
// toward the doctor's consultation total.
func (s *Service) AddNotes(ctx context.Context, doctorID, id uuid.UUID, in NotesInput) (*Consultation, error) {
	c, err := s.getOwnedByDoctor(ctx, doctorID, id)
	if err != nil {
		return nil, err
	}
	if c.Status == StatusCancelled {
		return nil, httperr.Conflict("cannot add notes to a cancelled consultation")
	}

	if in.Notes != nil {
		mergeNotes(&c.Notes, *in.Notes)
	}
	if in.Vitals != nil {
		c.Vitals = in.Vitals
	}
	if in.Diagnosis != nil {
		c.Diagnosis = in.Diagnosis
	}
	if in.Prescriptions != nil {
		c.Prescriptions = in.Prescriptions
	}
	if in.LabTests != nil {
		c.LabTests = in.LabTests
	}
	if in.FollowUpDate != nil {
		c.FollowUpDate = in.FollowUpDate
	}
	if in.FollowUpNotes != "" {
		c.FollowUpNotes = in.FollowUpNotes
	}
	c.Status = StatusCompleted

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, httperr.Internal("update consultation", err)
	}
	if err := s.stats.IncrementConsultations(ctx, doctorID); err != nil {
		return nil, httperr.Internal("update doctor stats", err)
	}

	s.notifier.Notify(ctx, c.PatientID, notify.TypeConsultation,
		"Consultation Completed",
		"Your consultation notes and prescription are ready")

	return c, nil
}

// Rate records the patient's rating for a completed consultation and updates
// the doctor's average. Re-rating replaces the previous value.
func (s *Service) Rate(ctx context.Context, patientID, id uuid.UUID, rating int, feedback string) (*Consultation, error) {
	if rating < 1 || rating > 5 {
		return nil, httperr.Validation("Rating must be between 1 and 5")
	}

	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.PatientID != patientID || c.Status != StatusCompleted {
		return nil, httperr.NotFound("Consultation not found or not completed")
	}

	// The swap returns the displaced rating so concurrent re-ratings each
	// subtract the value they actually replaced.
	prev, err := s.repo.SetRating(ctx, id, rating, feedback)
	if err != nil {
		return nil, httperr.Internal("update consultation", err)
	}
	c.Rating = &rating
	c.Feedback = feedback

	if _, err := s.stats.ApplyRating(ctx, c.DoctorID, prev, rating); err != nil {
		return nil, httperr.Internal("update doctor rating", err)
	}
	return c, nil
}

// ListMine lists consultations for the caller, scoped by role.
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID, role string, f Filter) ([]*Consultation, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, httperr.Validation("invalid status %q", f.Status)
	}

	var (
		items []*Consultation
		total int
		err   error
	)
	if role == auth.RoleDoctor {
		items, total, err = s.repo.ListByDoctor(ctx, userID, f)
	} else {
		items, total, err = s.repo.ListByPatient(ctx, userID, f)
	}
	if err != nil {
		return nil, 0, httperr.Internal("list consultations", err)
	}
	return items, total, nil
}

// Get returns a single consultation, restricted to its two participants.
// Admins may read any.
func (s *Service) Get(ctx context.Context, userID uuid.UUID, role string, id uuid.UUID) (*Consultation, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != auth.RoleAdmin && c.PatientID != userID && c.DoctorID != userID {
		return nil, httperr.Forbidden("Access denied")
	}
	return c, nil
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	c, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, httperr.NotFound("Consultation not found")
	}
	if err != nil {
		return nil, httperr.Internal("get consultation", err)
	}
	return c, nil
}

func (s *Service) getOwnedByDoctor(ctx context.Context, doctorID, id uuid.UUID) (*Consultation, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.DoctorID != doctorID {
		return nil, httperr.NotFound("Consultation not found")
	}
	return c, nil
}

func mergeNotes(dst *Notes, src Notes) {
	if src.Subjective != "" {
		dst.Subjective = src.Subjective
	}
	if src.Objective != "" {
		dst.Objective = src.Objective
	}
	if src.Assessment != "" {
		dst.Assessment = src.Assessment
	}
	if src.Plan != "" {
		dst.Plan = src.Plan
	}
}
