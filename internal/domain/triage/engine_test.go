package triage

import (
	"reflect"
	"testing"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func TestEvaluateEmptyInputs(t *testing.T) {
	res := Evaluate(Inputs{})
	if res.Pathway != PathwayWellness || res.RiskLevel != RiskLow || res.RequiresDoctor {
		t.Fatalf("empty inputs should stay wellness/low: %+v", res)
	}
	if len(res.Recommendations) != 0 {
		t.Errorf("empty inputs produced recommendations: %v", res.Recommendations)
	}
	if res.Confidence != 0.85 {
		t.Errorf("confidence = %v, want 0.85", res.Confidence)
	}
}

func TestEvaluateChronicCondition(t *testing.T) {
	res := Evaluate(Inputs{Conditions: []string{"Diabetes"}})
	if res.Pathway != PathwayExpert {
		t.Errorf("pathway = %s, want expert", res.Pathway)
	}
	if res.RiskLevel != RiskModerate {
		t.Errorf("risk = %s, want moderate", res.RiskLevel)
	}
	if !res.RequiresDoctor {
		t.Error("chronic condition must require doctor")
	}
	want := []string{
		"Consult with a specialist for your chronic condition",
		"Regular monitoring of vitals is essential",
	}
	if !reflect.DeepEqual(res.Recommendations, want) {
		t.Errorf("recommendations = %v", res.Recommendations)
	}
}

func TestEvaluateConditionCaseInsensitive(t *testing.T) {
	for _, c := range []string{"HYPERTENSION", "Heart_Disease", "copd", "Asthma"} {
		res := Evaluate(Inputs{Conditions: []string{c}})
		if res.Pathway != PathwayExpert {
			t.Errorf("condition %q should route to expert", c)
		}
	}
	if res := Evaluate(Inputs{Conditions: []string{"migraine"}}); res.Pathway != PathwayWellness {
		t.Errorf("non-chronic condition should stay wellness, got %s", res.Pathway)
	}
}

func TestEvaluateHighBMIEscalation(t *testing.T) {
	// From low: escalates to moderate.
	res := Evaluate(Inputs{BMI: fp(31)})
	if res.RiskLevel != RiskModerate {
		t.Errorf("bmi-only risk = %s, want moderate", res.RiskLevel)
	}
	if res.Pathway != PathwayWellness || res.RequiresDoctor {
		t.Errorf("bmi alone must not change pathway: %+v", res)
	}

	// From moderate (chronic condition): escalates to high.
	res = Evaluate(Inputs{Conditions: []string{"asthma"}, BMI: fp(32)})
	if res.RiskLevel != RiskHigh {
		t.Errorf("chronic+bmi risk = %s, want high", res.RiskLevel)
	}
	if len(res.Recommendations) != 4 {
		t.Errorf("expected 4 recommendations, got %d", len(res.Recommendations))
	}
}

func TestEvaluateBMIBoundary(t *testing.T) {
	if res := Evaluate(Inputs{BMI: fp(30)}); res.RiskLevel != RiskLow {
		t.Errorf("bmi=30 must not escalate (strict inequality), got %s", res.RiskLevel)
	}
}

func TestEvaluateLifestyleRecommendationsOnly(t *testing.T) {
	res := Evaluate(Inputs{Lifestyle: Lifestyle{StressLevel: ip(8)}})
	if res.RiskLevel != RiskLow {
		t.Errorf("stress must not change risk, got %s", res.RiskLevel)
	}
	want := []string{
		"Stress management techniques recommended",
		"Improve sleep hygiene - aim for 7-8 hours",
	}
	if !reflect.DeepEqual(res.Recommendations, want) {
		t.Errorf("recommendations = %v", res.Recommendations)
	}

	// Poor sleep alone triggers the same pair, once.
	res = Evaluate(Inputs{Lifestyle: Lifestyle{SleepHours: fp(5), StressLevel: ip(9)}})
	if len(res.Recommendations) != 2 {
		t.Errorf("stress+sleep should append pair once, got %v", res.Recommendations)
	}
}

func TestEvaluateLifestyleBoundaries(t *testing.T) {
	res := Evaluate(Inputs{Lifestyle: Lifestyle{StressLevel: ip(7), SleepHours: fp(6)}})
	if len(res.Recommendations) != 0 {
		t.Errorf("boundary lifestyle values must not recommend, got %v", res.Recommendations)
	}
}

func TestEvaluateDeterminism(t *testing.T) {
	in := Inputs{
		Age:        ip(45),
		BMI:        fp(33.5),
		Conditions: []string{"hypertension", "migraine"},
		Symptoms:   []string{"headache"},
		Lifestyle:  Lifestyle{SleepHours: fp(5.5), StressLevel: ip(8)},
	}
	first := Evaluate(in)
	for i := 0; i < 10; i++ {
		if got := Evaluate(in); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d diverged: %+v vs %+v", i, got, first)
		}
	}
	if first.RiskLevel != RiskHigh || first.Pathway != PathwayExpert {
		t.Errorf("combined inputs: %+v", first)
	}
	if len(first.Recommendations) != 6 {
		t.Errorf("expected all three recommendation pairs, got %d", len(first.Recommendations))
	}
}
