package plan

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carefolio/api/internal/platform/httperr"
)

func TestHTTPPredictorSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var in MealInputs
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(FallbackMealPlan(in))
	}))
	defer srv.Close()

	p := NewHTTPPredictor(srv.URL, srv.URL, time.Second)
	body, err := p.Predict(context.Background(), VariantMeal, json.RawMessage(`{"tdee":2000}`))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	var parsed MealPlanBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if parsed.DailyCalories != 2000 {
		t.Errorf("daily_calories = %d", parsed.DailyCalories)
	}
}

func TestHTTPPredictorNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHTTPPredictor(srv.URL, srv.URL, time.Second)
	_, err := p.Predict(context.Background(), VariantMeal, json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if !httperr.IsKind(err, httperr.KindUpstream) {
		t.Errorf("error kind = %v, want upstream", err)
	}
}

func TestHTTPPredictorMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"daily_calories": `))
	}))
	defer srv.Close()

	p := NewHTTPPredictor(srv.URL, srv.URL, time.Second)
	if _, err := p.Predict(context.Background(), VariantMeal, json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestHTTPPredictorTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	p := NewHTTPPredictor(srv.URL, srv.URL, 50*time.Millisecond)
	start := time.Now()
	_, err := p.Predict(context.Background(), VariantExercise, json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout took %s, bound not applied", elapsed)
	}
}
