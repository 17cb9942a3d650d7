package profiles

import "time"

// ProfileDTO — DTO анкеты для API
type ProfileDTO struct {
	Age              *int      `json:"age"`
	WeightKg         *float64  `json:"weightKg"`
	HeightCm         *float64  `json:"heightCm"`
	Goal             *string   `json:"goal"`
	WorkoutFrequency *string   `json:"workoutFrequency"`
	TargetWeightKg   *float64  `json:"targetWeightKg"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// UpsertProfileRequest — запрос для PUT /api/profile
type UpsertProfileRequest struct {
	Age              *int     `json:"age" validate:"omitempty,min=13,max=100"`
	WeightKg         *float64 `json:"weightKg" validate:"omitempty,min=30,max=300"`
	HeightCm         *float64 `json:"heightCm" validate:"omitempty,min=100,max=250"`
	Goal             *string  `json:"goal" validate:"omitempty,oneof='Bulking' 'Cutting' 'Lean Bulk' 'Maintenance' 'General Fitness'"`
	WorkoutFrequency *string  `json:"workoutFrequency" validate:"omitempty,oneof='2-3 times/week' '3-4 times/week' '4-5 times/week' '5+ times/week' 'Light workout'"`
	TargetWeightKg   *float64 `json:"targetWeightKg" validate:"omitempty,min=30,max=300"`
}

// MealPlanPromptRequest — запрос для POST /api/profile/meal-plan-prompt
type MealPlanPromptRequest struct {
	Budget     string `json:"budget" validate:"required"`
	Preference string `json:"preference" validate:"required"`
	Days       int    `json:"days" validate:"omitempty,min=1,max=14"`
}

type MealPlanPromptResponse struct {
	Prompt string `json:"prompt"`
}

// ErrorResponse — формат ошибки
type ErrorResponse struct {
	Error string `json:"error"`
}
