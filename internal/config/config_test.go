package config

import (
	"testing"
	"time"
)

func TestValidateRequiresSecretOutsideDev(t *testing.T) {
	cfg := &Config{
		Env:                  "production",
		DatabaseURL:          "postgres://localhost/carefolio",
		PredictorTimeout:     5 * time.Second,
		MealPredictorURL:     "http://meal:8001/predict",
		ExercisePredictorURL: "http://exercise:8002/predict",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing JWT_SECRET in production")
	}
	cfg.JWTSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateAllowsMissingSecretInDev(t *testing.T) {
	cfg := &Config{
		Env:                  "development",
		DatabaseURL:          "postgres://localhost/carefolio",
		PredictorTimeout:     time.Second,
		MealPredictorURL:     "http://meal:8001/predict",
		ExercisePredictorURL: "http://exercise:8002/predict",
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsZeroTimeout(t *testing.T) {
	cfg := &Config{
		Env:                  "development",
		DatabaseURL:          "postgres://localhost/carefolio",
		MealPredictorURL:     "http://meal:8001/predict",
		ExercisePredictorURL: "http://exercise:8002/predict",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero predictor timeout")
	}
}

func TestIsDev(t *testing.T) {
	if !(&Config{Env: "development"}).IsDev() {
		t.Error("development should be dev")
	}
	if (&Config{Env: "production"}).IsDev() {
		t.Error("production should not be dev")
	}
}
