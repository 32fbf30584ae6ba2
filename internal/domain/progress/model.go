// Package progress stores daily self-tracking logs and aggregates them into
// period statistics. Logs are append-only; one entry captures whatever the
// user measured that day across vitals, activity, nutrition and wellness.
package progress

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Vitals are the day's point-in-time measurements.
type Vitals struct {
	SystolicBP  *int     `json:"systolic_bp,omitempty"`
	DiastolicBP *int     `json:"diastolic_bp,omitempty"`
	SugarLevel  *float64 `json:"sugar_level,omitempty"`
	HeartRate   *int     `json:"heart_rate,omitempty"`
	WeightKG    *float64 `json:"weight_kg,omitempty"`
	BodyTemp    *float64 `json:"body_temp,omitempty"`
}

// Activity is the day's movement and workout summary.
type Activity struct {
	Steps              *int     `json:"steps,omitempty"`
	CaloriesBurned     *int     `json:"calories_burned,omitempty"`
	ActiveMinutes      *int     `json:"active_minutes,omitempty"`
	DistanceKM         *float64 `json:"distance_km,omitempty"`
	WorkoutCompleted   *bool    `json:"workout_completed,omitempty"`
	WorkoutDurationMin *int     `json:"workout_duration_min,omitempty"`
}

// Nutrition is the day's intake summary.
type Nutrition struct {
	CaloriesConsumed *int     `json:"calories_consumed,omitempty"`
	ProteinG         *float64 `json:"protein_g,omitempty"`
	CarbsG           *float64 `json:"carbs_g,omitempty"`
	FatsG            *float64 `json:"fats_g,omitempty"`
	WaterLiters      *float64 `json:"water_liters,omitempty"`
	MealsLogged      []string `json:"meals_logged,omitempty"`
}

// Wellness is the day's subjective state.
type Wellness struct {
	SleepHours   *float64 `json:"sleep_hours,omitempty"`
	SleepQuality string   `json:"sleep_quality,omitempty"`
	StressLevel  *int     `json:"stress_level,omitempty"`
	Mood         string   `json:"mood,omitempty"`
	Symptoms     []string `json:"symptoms,omitempty"`
}

// Log is one persisted daily entry. Section pointers are nil when the user
// logged nothing for that section.
type Log struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Date      time.Time  `json:"date"`
	Vitals    *Vitals    `json:"vitals,omitempty"`
	Activity  *Activity  `json:"activity,omitempty"`
	Nutrition *Nutrition `json:"nutrition,omitempty"`
	Wellness  *Wellness  `json:"wellness,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	Photos    []string   `json:"photos,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Input is the payload for creating a log entry.
type Input struct {
	Vitals    *Vitals    `json:"vitals"`
	Activity  *Activity  `json:"activity"`
	Nutrition *Nutrition `json:"nutrition"`
	Wellness  *Wellness  `json:"wellness"`
	Notes     string     `json:"notes"`
	Photos    []string   `json:"photos"`
}

// TrendPoint is one dated sample in a metric trend.
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Averages holds the per-metric means over a period. A metric with no
// samples averages to zero.
type Averages struct {
	WeightKG         float64 `json:"weight_kg"`
	Steps            int     `json:"steps"`
	CaloriesConsumed int     `json:"calories_consumed"`
	CaloriesBurned   int     `json:"calories_burned"`
	SleepHours       float64 `json:"sleep_hours"`
	WaterLiters      float64 `json:"water_liters"`
	StressLevel      float64 `json:"stress_level"`
}

// Trends holds the dated sample series for the charted metrics.
type Trends struct {
	Weight []TrendPoint `json:"weight"`
	Steps  []TrendPoint `json:"steps"`
	Sleep  []TrendPoint `json:"sleep"`
}

// Stats aggregates a period of logs. WorkoutCompletion is the percentage of
// logs with a completed workout.
type Stats struct {
	TotalLogs         int      `json:"totalLogs"`
	Averages          Averages `json:"averages"`
	Trends            Trends   `json:"trends"`
	WorkoutCompletion float64  `json:"workoutCompletion"`
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// ComputeStats folds logs (oldest first) into period statistics. Absent or
// zero samples do not count toward a metric's average.
func ComputeStats(logs []*Log) Stats {
	st := Stats{
		TotalLogs: len(logs),
		Trends:    Trends{Weight: []TrendPoint{}, Steps: []TrendPoint{}, Sleep: []TrendPoint{}},
	}

	var (
		sumWeight, sumSleep, sumWater, sumStress        float64
		sumSteps, sumCaloriesIn, sumCaloriesOut         int
		nWeight, nSleep, nWater, nStress                int
		nSteps, nCaloriesIn, nCaloriesOut, workoutsDone int
	)

	for _, l := range logs {
		if v := l.Vitals; v != nil && v.WeightKG != nil && *v.WeightKG > 0 {
			sumWeight += *v.WeightKG
			nWeight++
			st.Trends.Weight = append(st.Trends.Weight, TrendPoint{Date: l.Date, Value: *v.WeightKG})
		}
		if a := l.Activity; a != nil {
			if a.Steps != nil && *a.Steps > 0 {
				sumSteps += *a.Steps
				nSteps++
				st.Trends.Steps = append(st.Trends.Steps, TrendPoint{Date: l.Date, Value: float64(*a.Steps)})
			}
			if a.CaloriesBurned != nil && *a.CaloriesBurned > 0 {
				sumCaloriesOut += *a.CaloriesBurned
				nCaloriesOut++
			}
			if a.WorkoutCompleted != nil && *a.WorkoutCompleted {
				workoutsDone++
			}
		}
		if n := l.Nutrition; n != nil {
			if n.CaloriesConsumed != nil && *n.CaloriesConsumed > 0 {
				sumCaloriesIn += *n.CaloriesConsumed
				nCaloriesIn++
			}
			if n.WaterLiters != nil && *n.WaterLiters > 0 {
				sumWater += *n.WaterLiters
				nWater++
			}
		}
		if w := l.Wellness; w != nil {
			if w.SleepHours != nil && *w.SleepHours > 0 {
				sumSleep += *w.SleepHours
				nSleep++
				st.Trends.Sleep = append(st.Trends.Sleep, TrendPoint{Date: l.Date, Value: *w.SleepHours})
			}
			if w.StressLevel != nil && *w.StressLevel > 0 {
				sumStress += float64(*w.StressLevel)
				nStress++
			}
		}
	}

	if nWeight > 0 {
		st.Averages.WeightKG = round1(sumWeight / float64(nWeight))
	}
	if nSteps > 0 {
		st.Averages.Steps = int(math.Round(float64(sumSteps) / float64(nSteps)))
	}
	if nCaloriesIn > 0 {
		st.Averages.CaloriesConsumed = int(math.Round(float64(sumCaloriesIn) / float64(nCaloriesIn)))
	}
	if nCaloriesOut > 0 {
		st.Averages.CaloriesBurned = int(math.Round(float64(sumCaloriesOut) / float64(nCaloriesOut)))
	}
	if nSleep > 0 {
		st.Averages.SleepHours = round1(sumSleep / float64(nSleep))
	}
	if nWater > 0 {
		st.Averages.WaterLiters = round1(sumWater / float64(nWater))
	}
	if nStress > 0 {
		st.Averages.StressLevel = round1(sumStress / float64(nStress))
	}
	if len(logs) > 0 {
		st.WorkoutCompletion = round1(float64(workoutsDone) / float64(len(logs)) * 100)
	}
	return st
}
