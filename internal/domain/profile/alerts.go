package profile

import (
	"fmt"
	"strconv"
)

// Alert is a threshold finding on a freshly recorded vitals entry.
type Alert struct {
	Title   string
	Message string
}

// EvaluateVitals applies the alert thresholds to one vitals record. All
// thresholds are strict inequalities; a boundary reading does not alert.
// The blood-pressure and blood-sugar checks run independently, so zero, one,
// or two alerts may result.
func EvaluateVitals(v *VitalsRecord) []Alert {
	var alerts []Alert

	sys, dia := 0, 0
	if v.SystolicBP != nil {
		sys = *v.SystolicBP
	}
	if v.DiastolicBP != nil {
		dia = *v.DiastolicBP
	}
	if sys > 140 || dia > 90 {
		alerts = append(alerts, Alert{
			Title:   "High Blood Pressure Detected",
			Message: fmt.Sprintf("Your BP reading is %d/%d. Please consult your doctor.", sys, dia),
		})
	}

	if v.SugarLevel != nil && *v.SugarLevel > 180 {
		alerts = append(alerts, Alert{
			Title:   "High Blood Sugar Detected",
			Message: fmt.Sprintf("Your blood sugar is %s mg/dL. Please monitor closely.", strconv.FormatFloat(*v.SugarLevel, 'f', -1, 64)),
		})
	}

	return alerts
}
