// Package prompts renders the natural-language instructions sent to the model.
// Every prompt carries labelled parameters, formatting requirements, one
// literal JSON example and a closing JSON-only directive.
package prompts

import (
	"fmt"
	"strconv"
	"strings"
)

// JSONOnlyDirective closes every prompt.
const JSONOnlyDirective = "IMPORTANT: Return ONLY valid JSON format with no additional text, no markdown, no code blocks. The response must be valid JSON that can be parsed directly."

// WithJSONOnly appends the directive to caller-supplied prompt text.
func WithJSONOnly(prompt string) string {
	return prompt + "\n\n" + JSONOnlyDirective
}

type MealPlanParams struct {
	Age              *int
	WeightKg         *float64
	HeightCm         *float64
	TargetWeightKg   *float64
	Goal             string
	WorkoutFrequency string
	Budget           string
	Preference       string
	Days             int
}

func MealPlan(p MealPlanParams) string {
	days := p.Days
	if days <= 0 {
		days = 7
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a %d-day meal plan based on the following user profile:\n\n", days)
	writeLine(&b, "AGE", intOrDash(p.Age))
	writeLine(&b, "CURRENT WEIGHT (KG)", floatOrDash(p.WeightKg))
	writeLine(&b, "HEIGHT (CM)", floatOrDash(p.HeightCm))
	writeLine(&b, "TARGET WEIGHT (KG)", floatOrDash(p.TargetWeightKg))
	writeLine(&b, "FITNESS GOAL", orDash(p.Goal))
	writeLine(&b, "WORKOUT FREQUENCY", orDash(p.WorkoutFrequency))
	writeLine(&b, "WEEKLY BUDGET", orDash(p.Budget))
	writeLine(&b, "DIETARY PREFERENCE", orDash(p.Preference))

	b.WriteString("\nREQUIREMENTS:\n")
	fmt.Fprintf(&b, "- Cover exactly %d days labelled \"Day 1\" to \"Day %d\"\n", days, days)
	b.WriteString("- Include Breakfast, Lunch, Dinner and Snacks for every day\n")
	fmt.Fprintf(&b, "- Respect the %s dietary preference\n", orDash(p.Preference))
	fmt.Fprintf(&b, "- Keep ingredients within the %s budget\n", orDash(p.Budget))
	fmt.Fprintf(&b, "- Support the user's goal: %s\n", orDash(p.Goal))
	b.WriteString("- Describe each meal in one short sentence with portion hints\n")

	b.WriteString("\nOUTPUT FORMAT:\n")
	b.WriteString("Return ONLY valid JSON with this structure:\n")
	b.WriteString(`{
  "Day 1": {
    "Breakfast": "Meal description",
    "Lunch": "Meal description",
    "Dinner": "Meal description",
    "Snacks": "Meal description"
  },
  "Day 2": { ... }
}
`)
	b.WriteString("\n")
	b.WriteString(JSONOnlyDirective)
	return b.String()
}

type WorkoutParams struct {
	TargetMuscles []string
	Frequency     string
	Experience    string
	Location      string
}

func Workout(p WorkoutParams) string {
	var b strings.Builder
	b.WriteString("Create a detailed workout plan based on the following user preferences:\n\n")
	writeLine(&b, "TARGET MUSCLES", strings.Join(p.TargetMuscles, ", "))
	writeLine(&b, "TRAINING FREQUENCY", p.Frequency)
	writeLine(&b, "EXPERIENCE LEVEL", p.Experience)
	writeLine(&b, "WORKOUT LOCATION", p.Location)

	b.WriteString("\nREQUIREMENTS:\n")
	b.WriteString("- Generate 6-8 exercises\n")
	fmt.Fprintf(&b, "- Include exercises appropriate for the location (%s)\n", p.Location)
	fmt.Fprintf(&b, "- Adjust difficulty based on experience level (%s)\n", p.Experience)
	b.WriteString("- Focus on the target muscle groups\n")
	b.WriteString("- Include proper sets, reps, and rest periods\n")
	b.WriteString("- Provide clear instructions for each exercise\n")
	b.WriteString("- Include YouTube video URLs for exercise tutorials\n")
	b.WriteString("- Specify primary and secondary muscles worked\n")

	b.WriteString("\nEXERCISE FORMAT FOR EACH EXERCISE:\n")
	fmt.Fprintf(&b, `{
  "name": "Exercise Name",
  "sets": 3,
  "reps": "8-12",
  "rest": "60-90s",
  "muscle": "Primary Muscle Group",
  "difficulty": %q,
  "videoUrl": "https://www.youtube.com/watch?v=video_id",
  "instructions": ["Step 1", "Step 2", "Step 3", "Step 4"],
  "primaryMuscles": ["muscle1", "muscle2"],
  "secondaryMuscles": ["muscle3", "muscle4"]
}
`, p.Experience)

	b.WriteString("\nOUTPUT FORMAT:\n")
	b.WriteString("Return ONLY valid JSON with this structure:\n")
	b.WriteString(`{
  "exercises": [ { ...exercise1 }, { ...exercise2 } ],
  "workoutType": "e.g., Upper Body, Push Day, etc.",
  "totalDuration": "e.g., 45-60 minutes",
  "totalExercises": 6
}
`)
	b.WriteString("\n")
	b.WriteString(JSONOnlyDirective)
	return b.String()
}

type WorkoutSplitParams struct {
	Experience    string
	DaysPerWeek   string
	Location      string
	Goal          string
	IncludeCardio bool
}

func WorkoutSplit(p WorkoutSplitParams) string {
	cardio := "No"
	cardioRequirement := "No cardio sessions needed"
	if p.IncludeCardio {
		cardio = "Yes"
		cardioRequirement = "Include cardio sessions where appropriate"
	}

	var b strings.Builder
	b.WriteString("Create a detailed weekly workout split based on the following user preferences:\n\n")
	writeLine(&b, "EXPERIENCE LEVEL", p.Experience)
	writeLine(&b, "DAYS PER WEEK", p.DaysPerWeek)
	writeLine(&b, "LOCATION", p.Location)
	writeLine(&b, "FITNESS GOAL", p.Goal)
	writeLine(&b, "INCLUDE CARDIO", cardio)

	b.WriteString("\nREQUIREMENTS:\n")
	fmt.Fprintf(&b, "- Create a %s-day weekly workout split\n", p.DaysPerWeek)
	if days, err := strconv.Atoi(strings.TrimSpace(p.DaysPerWeek)); err == nil && days >= 0 && days <= 7 {
		fmt.Fprintf(&b, "- Rest days should be 7 - %d = %d days\n", days, 7-days)
	}
	b.WriteString("- Include specific exercises with sets and reps\n")
	fmt.Fprintf(&b, "- Adjust difficulty based on experience level (%s)\n", p.Experience)
	fmt.Fprintf(&b, "- Use equipment appropriate for the location (%s)\n", p.Location)
	fmt.Fprintf(&b, "- Focus on the user's goal: %s\n", p.Goal)
	fmt.Fprintf(&b, "- %s\n", cardioRequirement)
	b.WriteString("- Provide rest periods between sets\n")
	b.WriteString("- Include workout duration estimates\n")

	b.WriteString("\nEXERCISE FORMAT FOR EACH EXERCISE:\n")
	b.WriteString(`{
  "name": "Exercise Name",
  "sets": 3,
  "reps": "8-12",
  "rest": "60-90s",
  "muscleGroup": "Primary muscle group",
  "equipment": "Required equipment"
}
`)

	b.WriteString("\nDAY FORMAT FOR EACH DAY:\n")
	b.WriteString(`{
  "day": "Day 1",
  "focus": "e.g., Chest & Triceps, Legs, etc.",
  "exercises": [ ...exercises ],
  "duration": "e.g., 45-60 minutes"
}
`)

	b.WriteString("\nOUTPUT FORMAT:\n")
	b.WriteString("Return ONLY valid JSON with this structure:\n")
	fmt.Fprintf(&b, `{
  "splitName": "e.g., %s %s Split",
  "goal": %q,
  "experience": %q,
  "location": %q,
  "days": [ { ...day1 }, { ...day2 } ],
  "totalDuration": "e.g., 4-6 hours weekly",
  "totalExercises": 15
}
`, p.Experience, p.Goal, p.Goal, p.Experience, p.Location)
	b.WriteString("\n")
	b.WriteString(JSONOnlyDirective)
	return b.String()
}

func writeLine(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%s: %s\n", label, value)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not specified"
	}
	return s
}

func intOrDash(v *int) string {
	if v == nil {
		return "not specified"
	}
	return strconv.Itoa(*v)
}

func floatOrDash(v *float64) string {
	if v == nil {
		return "not specified"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
