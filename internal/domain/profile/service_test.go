package profile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carefolio/api/internal/platform/httperr"
	"github.com/carefolio/api/internal/platform/notify"
)

type mockRepo struct {
	profiles map[uuid.UUID]*HealthProfile
	vitals   map[uuid.UUID][]*VitalsRecord
}

func newMockRepo() *mockRepo {
	return &mockRepo{profiles: make(map[uuid.UUID]*HealthProfile), vitals: make(map[uuid.UUID][]*VitalsRecord)}
}
func (m *mockRepo) Get(_ context.Context, userID uuid.UUID) (*HealthProfile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}
func (m *mockRepo) Save(_ context.Context, p *HealthProfile) error {
	p.UpdatedAt = time.Now()
	cp := *p
	m.profiles[p.UserID] = &cp
	return nil
}
func (m *mockRepo) AppendVitals(_ context.Context, v *VitalsRecord) error {
	v.ID = uuid.New()
	v.RecordedAt = time.Now()
	m.vitals[v.UserID] = append(m.vitals[v.UserID], v)
	return nil
}
func (m *mockRepo) ListVitals(_ context.Context, userID uuid.UUID, q VitalsQuery) ([]*VitalsRecord, error) {
	var r []*VitalsRecord
	for _, v := range m.vitals[userID] {
		if !q.From.IsZero() && v.RecordedAt.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && v.RecordedAt.After(q.To) {
			continue
		}
		r = append(r, v)
	}
	if q.Limit > 0 && len(r) > q.Limit {
		r = r[len(r)-q.Limit:]
	}
	return r, nil
}

type capturedAlert struct {
	typ   notify.Type
	title string
}

type mockNotifier struct{ sent []capturedAlert }

func (m *mockNotifier) Notify(_ context.Context, _ uuid.UUID, typ notify.Type, title, _ string) {
	m.sent = append(m.sent, capturedAlert{typ, title})
}

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }

func seedProfile(repo *mockRepo, userID uuid.UUID) {
	repo.profiles[userID] = &HealthProfile{UserID: userID, HeightCM: f(170)}
}

func TestUpdateRecomputesBMI(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockNotifier{})
	userID := uuid.New()

	p, err := svc.Update(context.Background(), userID, Update{HeightCM: f(180), WeightKG: f(81)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p.BMI == nil || *p.BMI != 25.0 {
		t.Fatalf("bmi = %v, want 25.00", p.BMI)
	}
}

func TestUpdateKeepsUnsetFields(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockNotifier{})
	userID := uuid.New()

	if _, err := svc.Update(context.Background(), userID, Update{Age: i(40), HeightCM: f(170)}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	p, err := svc.Update(context.Background(), userID, Update{WeightKG: f(70)})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if p.Age == nil || *p.Age != 40 {
		t.Errorf("age lost during shallow merge: %v", p.Age)
	}
	if p.BMI == nil || *p.BMI != 24.22 {
		t.Errorf("bmi = %v, want 24.22", p.BMI)
	}
}

func TestMergeExplicitBMIWithoutMeasurements(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockNotifier{})
	userID := uuid.New()

	if err := svc.MergeAttributes(context.Background(), userID, Update{BMI: f(31.5)}); err != nil {
		t.Fatalf("MergeAttributes: %v", err)
	}
	p, err := svc.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.BMI == nil || *p.BMI != 31.5 {
		t.Fatalf("bmi = %v, want 31.5", p.BMI)
	}

	// Once height and weight resolve, the computed value wins.
	if err := svc.MergeAttributes(context.Background(), userID, Update{HeightCM: f(180), WeightKG: f(81)}); err != nil {
		t.Fatalf("MergeAttributes: %v", err)
	}
	p, _ = svc.Get(context.Background(), userID)
	if p.BMI == nil || *p.BMI != 25.0 {
		t.Errorf("bmi = %v, want computed 25.00", p.BMI)
	}
}

func TestUpdateRejectsInvalidInput(t *testing.T) {
	svc := NewService(newMockRepo(), &mockNotifier{})
	_, err := svc.Update(context.Background(), uuid.New(), Update{WeightKG: f(-5)})
	if !httperr.IsKind(err, httperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecordVitalsRequiresProfile(t *testing.T) {
	svc := NewService(newMockRepo(), &mockNotifier{})
	_, err := svc.RecordVitals(context.Background(), uuid.New(), VitalsInput{SystolicBP: i(120)})
	if !httperr.IsKind(err, httperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRecordVitalsUpdatesWeightAndBMI(t *testing.T) {
	repo := newMockRepo()
	notifier := &mockNotifier{}
	svc := NewService(repo, notifier)
	userID := uuid.New()
	seedProfile(repo, userID)

	if _, err := svc.RecordVitals(context.Background(), userID, VitalsInput{WeightKG: f(72.25)}); err != nil {
		t.Fatalf("RecordVitals: %v", err)
	}
	p := repo.profiles[userID]
	if p.WeightKG == nil || *p.WeightKG != 72.25 {
		t.Errorf("weight not folded into profile: %v", p.WeightKG)
	}
	if p.BMI == nil || *p.BMI != 25.0 {
		t.Errorf("bmi = %v, want 25.00", p.BMI)
	}
}

func TestVitalsAlertSingleHighSystolic(t *testing.T) {
	repo := newMockRepo()
	notifier := &mockNotifier{}
	svc := NewService(repo, notifier)
	userID := uuid.New()
	seedProfile(repo, userID)

	_, err := svc.RecordVitals(context.Background(), userID,
		VitalsInput{SystolicBP: i(141), DiastolicBP: i(80), SugarLevel: f(100)})
	if err != nil {
		t.Fatalf("RecordVitals: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("got %d alerts, want exactly 1", len(notifier.sent))
	}
	if notifier.sent[0].title != "High Blood Pressure Detected" || notifier.sent[0].typ != notify.TypeHealthAlert {
		t.Errorf("unexpected alert %+v", notifier.sent[0])
	}
}

func TestVitalsAlertBoundaryDoesNotFire(t *testing.T) {
	repo := newMockRepo()
	notifier := &mockNotifier{}
	svc := NewService(repo, notifier)
	userID := uuid.New()
	seedProfile(repo, userID)

	_, err := svc.RecordVitals(context.Background(), userID,
		VitalsInput{SystolicBP: i(140), DiastolicBP: i(90), SugarLevel: f(180)})
	if err != nil {
		t.Fatalf("RecordVitals: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("boundary values fired %d alerts, want 0", len(notifier.sent))
	}
}

func TestVitalsAlertBothFire(t *testing.T) {
	repo := newMockRepo()
	notifier := &mockNotifier{}
	svc := NewService(repo, notifier)
	userID := uuid.New()
	seedProfile(repo, userID)

	_, err := svc.RecordVitals(context.Background(), userID,
		VitalsInput{SystolicBP: i(150), DiastolicBP: i(95), SugarLevel: f(200)})
	if err != nil {
		t.Fatalf("RecordVitals: %v", err)
	}
	if len(notifier.sent) != 2 {
		t.Fatalf("got %d alerts, want exactly 2", len(notifier.sent))
	}
	if notifier.sent[1].title != "High Blood Sugar Detected" {
		t.Errorf("second alert = %+v, want blood sugar", notifier.sent[1])
	}
}

func TestRecordVitalsRejectsEmptyInput(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockNotifier{})
	userID := uuid.New()
	seedProfile(repo, userID)

	_, err := svc.RecordVitals(context.Background(), userID, VitalsInput{Notes: "feeling fine"})
	if !httperr.IsKind(err, httperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListVitalsTailLimit(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockNotifier{})
	userID := uuid.New()
	seedProfile(repo, userID)

	for n := 110; n < 115; n++ {
		if _, err := svc.RecordVitals(context.Background(), userID, VitalsInput{SystolicBP: i(n)}); err != nil {
			t.Fatalf("RecordVitals: %v", err)
		}
	}
	items, err := svc.ListVitals(context.Background(), userID, VitalsQuery{Limit: 2})
	if err != nil {
		t.Fatalf("ListVitals: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d records, want tail of 2", len(items))
	}
	if *items[0].SystolicBP != 113 || *items[1].SystolicBP != 114 {
		t.Errorf("tail should keep most recent entries, got %d,%d", *items[0].SystolicBP, *items[1].SystolicBP)
	}
}

func TestEvaluateVitalsMessageFormat(t *testing.T) {
	alerts := EvaluateVitals(&VitalsRecord{SystolicBP: i(150), DiastolicBP: i(95), SugarLevel: f(200)})
	if len(alerts) != 2 {
		t.Fatalf("got %d alerts, want 2", len(alerts))
	}
	if alerts[0].Message != "Your BP reading is 150/95. Please consult your doctor." {
		t.Errorf("bp message = %q", alerts[0].Message)
	}
	if alerts[1].Message != "Your blood sugar is 200 mg/dL. Please monitor closely." {
		t.Errorf("sugar message = %q", alerts[1].Message)
	}
}
