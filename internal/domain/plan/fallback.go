package plan

import "math"

// FallbackMealPlan synthesizes a deterministic meal plan from the inputs.
// Used when the external predictor is unavailable; given identical inputs
// it always produces an identical plan.
func FallbackMealPlan(in MealInputs) MealPlanBody {
	target := in.TDEE
	switch in.FitnessGoal {
	case "weight_loss":
		target = in.TDEE - 500
	case "weight_gain":
		target = in.TDEE + 500
	}

	supplements := []string{"Multivitamin"}
	if in.HasDiabetes {
		supplements = []string{"Vitamin D", "Omega-3"}
	}

	var restrictions []string
	if in.HasDiabetes {
		restrictions = append(restrictions, "Low sugar, complex carbs only")
	}
	if in.HasHypertension {
		restrictions = append(restrictions, "Low sodium")
	}
	if restrictions == nil {
		restrictions = []string{}
	}

	return MealPlanBody{
		DailyCalories: round(target),
		Macros: Macros{
			ProteinG: round(target * 0.3 / 4),
			CarbsG:   round(target * 0.4 / 4),
			FatsG:    round(target * 0.3 / 9),
		},
		Meals: []Meal{
			{
				MealType:     "breakfast",
				Name:         "Healthy Breakfast",
				Calories:     round(target * 0.25),
				ProteinG:     20,
				CarbsG:       40,
				FatsG:        10,
				Ingredients:  []string{"Oats", "Milk", "Banana", "Almonds"},
				Instructions: "Cook oats with milk, top with banana and almonds",
				Time:         "08:00",
			},
			{
				MealType:     "lunch",
				Name:         "Balanced Lunch",
				Calories:     round(target * 0.35),
				ProteinG:     30,
				CarbsG:       50,
				FatsG:        15,
				Ingredients:  []string{"Chicken", "Rice", "Vegetables", "Olive Oil"},
				Instructions: "Grilled chicken with brown rice and steamed vegetables",
				Time:         "13:00",
			},
			{
				MealType:     "dinner",
				Name:         "Light Dinner",
				Calories:     round(target * 0.3),
				ProteinG:     25,
				CarbsG:       35,
				FatsG:        12,
				Ingredients:  []string{"Fish", "Quinoa", "Salad"},
				Instructions: "Baked fish with quinoa and fresh salad",
				Time:         "19:00",
			},
		},
		HydrationLiters: 2.5,
		Supplements:     supplements,
		Restrictions:    restrictions,
	}
}

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// FallbackExercisePlan synthesizes a deterministic exercise plan. One
// schedule entry per requested day; intensity drops to low whenever any
// condition is present.
func FallbackExercisePlan(in ExerciseInputs) ExercisePlanBody {
	hasCondition := len(in.Conditions) > 0

	intensity := "high"
	if hasCondition {
		intensity = "low"
	} else if in.ExperienceLevel == "beginner" {
		intensity = "moderate"
	}

	var walkPrecautions []string
	if hasCondition {
		walkPrecautions = []string{"Monitor heart rate", "Stop if dizzy"}
	} else {
		walkPrecautions = []string{}
	}

	schedule := make([]ScheduledDay, 0, in.DaysPerWeek)
	for i := 0; i < in.DaysPerWeek; i++ {
		schedule = append(schedule, ScheduledDay{
			Day: weekdays[i%len(weekdays)],
			Exercises: []Exercise{
				{
					Name:         "Brisk Walk",
					Type:         "cardio",
					Duration:     strPtr("20 min"),
					Intensity:    "low",
					Instructions: "Walk at a comfortable but brisk pace",
					Precautions:  walkPrecautions,
				},
				{
					Name:         "Bodyweight Squats",
					Type:         "strength",
					Sets:         intPtr(3),
					Reps:         intPtr(12),
					Intensity:    intensity,
					RestSeconds:  intPtr(60),
					Instructions: "Keep back straight, knees behind toes",
					Precautions:  []string{},
				},
				{
					Name:         "Stretching",
					Type:         "flexibility",
					Duration:     strPtr("10 min"),
					Intensity:    "low",
					Instructions: "Hold each stretch for 30 seconds",
					Precautions:  []string{},
				},
			},
			TotalDurationMin: 45,
			CaloriesBurned:   250,
		})
	}

	weeklyGoal := "Build strength and endurance"
	if in.FitnessGoal == "weight_loss" {
		weeklyGoal = "Burn 1500 calories"
	}

	safetyNotes := []string{"Stay hydrated", "Listen to your body", "Rest when needed"}
	if hasCondition {
		safetyNotes = []string{"Consult doctor before starting", "Monitor vitals", "Start slow", "Stay hydrated"}
	}

	return ExercisePlanBody{
		WeeklySchedule: schedule,
		WarmUp:         []string{"Light jogging in place - 3 min", "Arm circles - 1 min", "Leg swings - 2 min"},
		CoolDown:       []string{"Walking - 3 min", "Full body stretching - 5 min"},
		WeeklyGoal:     weeklyGoal,
		SafetyNotes:    safetyNotes,
	}
}

func round(v float64) int     { return int(math.Round(v)) }
func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
