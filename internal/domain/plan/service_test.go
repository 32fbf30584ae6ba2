package plan

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carefolio/api/internal/platform/httperr"
	"github.com/carefolio/api/internal/platform/notify"
)

// mockRepo serializes CreateAndActivate with a mutex, mirroring the
// advisory-lock contract of the postgres implementation.
type mockRepo struct {
	mu    sync.Mutex
	plans []*Plan
}

func (m *mockRepo) CreateAndActivate(_ context.Context, p *Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	p.IsActive = true
	p.StartDate = time.Now()
	p.CreatedAt = time.Now()
	for _, other := range m.plans {
		if other.UserID == p.UserID && other.Variant == p.Variant {
			other.IsActive = false
		}
	}
	m.plans = append(m.plans, p)
	return nil
}

func (m *mockRepo) Active(_ context.Context, userID uuid.UUID, variant Variant) (*Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.plans) - 1; i >= 0; i-- {
		p := m.plans[i]
		if p.UserID == userID && p.Variant == variant && p.IsActive {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) History(_ context.Context, userID uuid.UUID, variant Variant, limit, offset int) ([]*Plan, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var r []*Plan
	for i := len(m.plans) - 1; i >= 0; i-- {
		if m.plans[i].UserID == userID && m.plans[i].Variant == variant {
			r = append(r, m.plans[i])
		}
	}
	return r, len(r), nil
}

func (m *mockRepo) activeCount(userID uuid.UUID, variant Variant) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.plans {
		if p.UserID == userID && p.Variant == variant && p.IsActive {
			n++
		}
	}
	return n
}

type mockPredictor struct {
	body json.RawMessage
	err  error
}

func (m *mockPredictor) Predict(context.Context, Variant, json.RawMessage) (json.RawMessage, error) {
	return m.body, m.err
}

type mockAssignments struct{ assigned bool }

func (m *mockAssignments) IsAssigned(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return m.assigned, nil
}

type mockProfiles struct{ snap json.RawMessage }

func (m *mockProfiles) Snapshot(context.Context, uuid.UUID) (json.RawMessage, error) {
	return m.snap, nil
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (m *mockNotifier) Notify(_ context.Context, _ uuid.UUID, _ notify.Type, title, _ string) {
	m.mu.Lock()
	m.sent = append(m.sent, title)
	m.mu.Unlock()
}

func newTestService(repo *mockRepo, pred Predictor) *Service {
	return NewService(repo, pred, &mockAssignments{assigned: true}, &mockProfiles{}, &mockNotifier{}, zerolog.Nop())
}

func TestGenerateFallbackOnPredictorError(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, &mockPredictor{err: errors.New("connection refused")})

	p, err := svc.Generate(context.Background(), uuid.New(), VariantMeal,
		json.RawMessage(`{"tdee":2300,"fitness_goal":"weight_loss"}`))
	if err != nil {
		t.Fatalf("generation must absorb predictor failure: %v", err)
	}
	if p.Source != SourceFallback {
		t.Errorf("source = %s, want fallback", p.Source)
	}
	if p.GeneratedBy != GeneratedByModel {
		t.Errorf("generated_by = %s, want ml_model", p.GeneratedBy)
	}

	var body MealPlanBody
	if err := json.Unmarshal(p.Body, &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body.DailyCalories != 1800 || len(body.Meals) != 3 {
		t.Errorf("fallback body = %+v", body)
	}
}

func TestGenerateFallbackOnMalformedPredictorBody(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, &mockPredictor{body: json.RawMessage(`{"unexpected":true}`)})

	p, err := svc.Generate(context.Background(), uuid.New(), VariantExercise,
		json.RawMessage(`{"days_per_week":3,"experience_level":"beginner"}`))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if p.Source != SourceFallback {
		t.Errorf("source = %s, want fallback for body without schedule", p.Source)
	}
}

func TestGenerateUsesPredictorWhenHealthy(t *testing.T) {
	good, _ := json.Marshal(FallbackMealPlan(MealInputs{TDEE: 2500}))
	repo := &mockRepo{}
	svc := newTestService(repo, &mockPredictor{body: good})

	p, err := svc.Generate(context.Background(), uuid.New(), VariantMeal, json.RawMessage(`{"tdee":2500}`))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if p.Source != SourcePredictor {
		t.Errorf("source = %s, want predictor", p.Source)
	}
}

func TestGenerateValidation(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockPredictor{err: errors.New("down")})

	cases := map[string]struct {
		variant Variant
		inputs  string
	}{
		"zero tdee":      {VariantMeal, `{"tdee":0}`},
		"negative tdee":  {VariantMeal, `{"tdee":-100}`},
		"zero days":      {VariantExercise, `{"days_per_week":0}`},
		"eight days":     {VariantExercise, `{"days_per_week":8}`},
		"malformed meal": {VariantMeal, `{"tdee":"lots"}`},
	}
	for name, tc := range cases {
		_, err := svc.Generate(context.Background(), uuid.New(), tc.variant, json.RawMessage(tc.inputs))
		if !httperr.IsKind(err, httperr.KindValidation) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestGenerateDeactivatesPriorPlans(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, &mockPredictor{err: errors.New("down")})
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		if _, err := svc.Generate(context.Background(), userID, VariantMeal, json.RawMessage(`{"tdee":2000}`)); err != nil {
			t.Fatalf("Generate %d: %v", i, err)
		}
	}

	if n := repo.activeCount(userID, VariantMeal); n != 1 {
		t.Fatalf("active meal plans = %d, want exactly 1", n)
	}
	history, total, err := svc.History(context.Background(), userID, VariantMeal, 20, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if total != 3 || len(history) != 3 {
		t.Errorf("history should keep superseded plans, got %d", total)
	}
}

func TestGenerateVariantsIndependent(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, &mockPredictor{err: errors.New("down")})
	userID := uuid.New()

	if _, err := svc.Generate(context.Background(), userID, VariantMeal, json.RawMessage(`{"tdee":2000}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Generate(context.Background(), userID, VariantExercise, json.RawMessage(`{"days_per_week":3}`)); err != nil {
		t.Fatal(err)
	}

	if repo.activeCount(userID, VariantMeal) != 1 || repo.activeCount(userID, VariantExercise) != 1 {
		t.Error("each variant keeps its own active plan")
	}
}

func TestGenerateConcurrentSingleActive(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, &mockPredictor{err: errors.New("down")})
	userID := uuid.New()

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Generate(context.Background(), userID, VariantMeal, json.RawMessage(`{"tdee":2100}`)); err != nil {
				t.Errorf("concurrent Generate: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := repo.activeCount(userID, VariantMeal); n != 1 {
		t.Fatalf("after %d concurrent generations, %d plans active, want 1", workers, n)
	}
	if len(repo.plans) != workers {
		t.Errorf("all plans kept in history, got %d", len(repo.plans))
	}
}

func TestCreateByDoctorRequiresAssignment(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, &mockPredictor{err: errors.New("down")}, &mockAssignments{assigned: false}, &mockProfiles{}, &mockNotifier{}, zerolog.Nop())

	body, _ := json.Marshal(FallbackMealPlan(MealInputs{TDEE: 1900}))
	_, err := svc.CreateByDoctor(context.Background(), uuid.New(), uuid.New(), VariantMeal, body)
	if !httperr.IsKind(err, httperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCreateByDoctorStoresAttribution(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, &mockPredictor{err: errors.New("down")})
	doctorID, patientID := uuid.New(), uuid.New()

	body, _ := json.Marshal(FallbackMealPlan(MealInputs{TDEE: 1900}))
	p, err := svc.CreateByDoctor(context.Background(), doctorID, patientID, VariantMeal, body)
	if err != nil {
		t.Fatalf("CreateByDoctor: %v", err)
	}
	if p.GeneratedBy != GeneratedByDoctor || p.DoctorID == nil || *p.DoctorID != doctorID {
		t.Errorf("attribution = %s/%v", p.GeneratedBy, p.DoctorID)
	}
	if !p.IsActive {
		t.Error("doctor plan should activate")
	}
}

func TestCreateByDoctorSnapshotsPatientProfile(t *testing.T) {
	repo := &mockRepo{}
	snap := json.RawMessage(`{"age":52,"height_cm":171,"weight_kg":88,"conditions":["diabetes"]}`)
	svc := NewService(repo, &mockPredictor{err: errors.New("down")}, &mockAssignments{assigned: true}, &mockProfiles{snap: snap}, &mockNotifier{}, zerolog.Nop())

	body, _ := json.Marshal(FallbackMealPlan(MealInputs{TDEE: 1900}))
	p, err := svc.CreateByDoctor(context.Background(), uuid.New(), uuid.New(), VariantMeal, body)
	if err != nil {
		t.Fatalf("CreateByDoctor: %v", err)
	}
	if string(p.InputParams) != string(snap) {
		t.Errorf("input_params = %s, want patient profile snapshot", p.InputParams)
	}
}

func TestCreateByDoctorWithoutProfileStoresEmptyParams(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, &mockPredictor{err: errors.New("down")})

	body, _ := json.Marshal(FallbackMealPlan(MealInputs{TDEE: 1900}))
	p, err := svc.CreateByDoctor(context.Background(), uuid.New(), uuid.New(), VariantMeal, body)
	if err != nil {
		t.Fatalf("CreateByDoctor: %v", err)
	}
	if string(p.InputParams) != `{}` {
		t.Errorf("input_params = %s, want {}", p.InputParams)
	}
}

func TestCreateByDoctorRejectsEmptyBody(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockPredictor{err: errors.New("down")})
	_, err := svc.CreateByDoctor(context.Background(), uuid.New(), uuid.New(), VariantExercise, json.RawMessage(`{"weekly_schedule":[]}`))
	if !httperr.IsKind(err, httperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestActiveNotFound(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockPredictor{err: errors.New("down")})
	_, err := svc.Active(context.Background(), uuid.New(), VariantMeal)
	if !httperr.IsKind(err, httperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
