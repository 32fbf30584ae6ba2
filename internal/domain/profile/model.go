package profile

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// HealthProfile holds a user's current health attributes. It is mutated by
// explicit updates, by vitals recording (weight and BMI) and by triage
// submissions (merged, never replaced).
type HealthProfile struct {
	UserID           uuid.UUID `json:"user_id"`
	Age              *int      `json:"age,omitempty"`
	HeightCM         *float64  `json:"height_cm,omitempty"`
	WeightKG         *float64  `json:"weight_kg,omitempty"`
	BMI              *float64  `json:"bmi,omitempty"`
	Conditions       []string  `json:"conditions"`
	Allergies        []string  `json:"allergies"`
	Medications      []string  `json:"medications"`
	BloodGroup       string    `json:"blood_group,omitempty"`
	EmergencyContact string    `json:"emergency_contact,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Update is a partial profile change. Nil fields are left untouched;
// non-nil fields replace the stored value (shallow merge).
type Update struct {
	Age              *int      `json:"age"`
	HeightCM         *float64  `json:"height_cm"`
	WeightKG         *float64  `json:"weight_kg"`
	BMI              *float64  `json:"bmi"`
	Conditions       *[]string `json:"conditions"`
	Allergies        *[]string `json:"allergies"`
	Medications      *[]string `json:"medications"`
	BloodGroup       *string   `json:"blood_group"`
	EmergencyContact *string   `json:"emergency_contact"`
}

// VitalsRecord is one entry in a user's append-only vitals sequence.
type VitalsRecord struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	RecordedAt  time.Time `json:"recorded_at"`
	SystolicBP  *int      `json:"systolic_bp,omitempty"`
	DiastolicBP *int      `json:"diastolic_bp,omitempty"`
	SugarLevel  *float64  `json:"sugar_level,omitempty"`
	HeartRate   *int      `json:"heart_rate,omitempty"`
	WeightKG    *float64  `json:"weight_kg,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

// VitalsInput is the payload for recording vitals.
type VitalsInput struct {
	SystolicBP  *int     `json:"systolic_bp"`
	DiastolicBP *int     `json:"diastolic_bp"`
	SugarLevel  *float64 `json:"sugar_level"`
	HeartRate   *int     `json:"heart_rate"`
	WeightKG    *float64 `json:"weight_kg"`
	Notes       string   `json:"notes"`
}

// VitalsQuery filters the vitals history. Zero times mean unbounded; Limit
// keeps the most recent N entries after filtering.
type VitalsQuery struct {
	From  time.Time
	To    time.Time
	Limit int
}

// CalcBMI computes body mass index from weight in kilograms and height in
// centimeters, rounded to 2 decimals. Returns nil when either input is
// missing or non-positive.
func CalcBMI(weightKG, heightCM *float64) *float64 {
	if weightKG == nil || heightCM == nil || *weightKG <= 0 || *heightCM <= 0 {
		return nil
	}
	hm := *heightCM / 100
	bmi := math.Round(*weightKG/(hm*hm)*100) / 100
	return &bmi
}

// Apply merges the partial update into the profile and recomputes BMI when
// both height and weight are resolvable afterwards. An explicit BMI sticks
// only when it cannot be recomputed.
func (p *HealthProfile) Apply(u Update) {
	if u.Age != nil {
		p.Age = u.Age
	}
	if u.HeightCM != nil {
		p.HeightCM = u.HeightCM
	}
	if u.WeightKG != nil {
		p.WeightKG = u.WeightKG
	}
	if u.BMI != nil {
		p.BMI = u.BMI
	}
	if u.Conditions != nil {
		p.Conditions = *u.Conditions
	}
	if u.Allergies != nil {
		p.Allergies = *u.Allergies
	}
	if u.Medications != nil {
		p.Medications = *u.Medications
	}
	if u.BloodGroup != nil {
		p.BloodGroup = *u.BloodGroup
	}
	if u.EmergencyContact != nil {
		p.EmergencyContact = *u.EmergencyContact
	}
	if bmi := CalcBMI(p.WeightKG, p.HeightCM); bmi != nil {
		p.BMI = bmi
	}
}
