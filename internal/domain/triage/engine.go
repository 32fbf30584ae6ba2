package triage

import "strings"

// Confidence is fixed; the engine is rule-based and does not grade itself.
const Confidence = 0.85

var chronicConditions = map[string]bool{
	"diabetes":      true,
	"hypertension":  true,
	"heart_disease": true,
	"copd":          true,
	"asthma":        true,
}

// Evaluate runs the triage rules over the inputs. Rules are ordered and
// cumulative: each may escalate risk but never downgrade it. Evaluation is
// deterministic and side-effect free.
func Evaluate(in Inputs) Result {
	res := Result{
		Pathway:         PathwayWellness,
		RiskLevel:       RiskLow,
		Recommendations: []string{},
		Confidence:      Confidence,
	}

	hasChronic := false
	for _, c := range in.Conditions {
		if chronicConditions[strings.ToLower(c)] {
			hasChronic = true
			break
		}
	}

	if hasChronic {
		res.Pathway = PathwayExpert
		res.RiskLevel = RiskModerate
		res.RequiresDoctor = true
		res.Recommendations = append(res.Recommendations,
			"Consult with a specialist for your chronic condition",
			"Regular monitoring of vitals is essential")
	}

	if in.BMI != nil && *in.BMI > 30 {
		if res.RiskLevel == RiskLow {
			res.RiskLevel = RiskModerate
		} else {
			res.RiskLevel = RiskHigh
		}
		res.Recommendations = append(res.Recommendations,
			"Weight management program recommended",
			"Consult nutritionist for personalized diet plan")
	}

	highStress := in.Lifestyle.StressLevel != nil && *in.Lifestyle.StressLevel > 7
	poorSleep := in.Lifestyle.SleepHours != nil && *in.Lifestyle.SleepHours < 6
	if highStress || poorSleep {
		res.Recommendations = append(res.Recommendations,
			"Stress management techniques recommended",
			"Improve sleep hygiene - aim for 7-8 hours")
	}

	return res
}
