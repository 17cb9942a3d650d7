package generation

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fdg312/fitgen/internal/prompts"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError is a 400-class request problem. An empty Message falls back to the
// content kind's default wording.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "invalid request"
}

func (e *ValidationError) Unwrap() error { return e.Err }

type MealPlanRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

func (r MealPlanRequest) Validate() error {
	r.Prompt = strings.TrimSpace(r.Prompt)
	if err := validate.Struct(r); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

func (r MealPlanRequest) Render() string {
	return prompts.WithJSONOnly(strings.TrimSpace(r.Prompt))
}

type WorkoutRequest struct {
	TargetMuscles []string `json:"targetMuscles" validate:"required,min=1,dive,required"`
	Frequency     string   `json:"frequency" validate:"required"`
	Experience    string   `json:"experience" validate:"required"`
	Location      string   `json:"location" validate:"required"`
}

func (r WorkoutRequest) Validate() error {
	if err := validate.Struct(r.trimmed()); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

func (r WorkoutRequest) Render() string {
	t := r.trimmed()
	return prompts.Workout(prompts.WorkoutParams{
		TargetMuscles: t.TargetMuscles,
		Frequency:     t.Frequency,
		Experience:    t.Experience,
		Location:      t.Location,
	})
}

func (r WorkoutRequest) trimmed() WorkoutRequest {
	muscles := make([]string, 0, len(r.TargetMuscles))
	for _, m := range r.TargetMuscles {
		muscles = append(muscles, strings.TrimSpace(m))
	}
	return WorkoutRequest{
		TargetMuscles: muscles,
		Frequency:     strings.TrimSpace(r.Frequency),
		Experience:    strings.TrimSpace(r.Experience),
		Location:      strings.TrimSpace(r.Location),
	}
}

type WorkoutSplitRequest struct {
	Experience    string        `json:"experience" validate:"required"`
	DaysPerWeek   NumericString `json:"daysPerWeek" validate:"required"`
	Location      string        `json:"location" validate:"required"`
	Goal          string        `json:"goal" validate:"required"`
	IncludeCardio bool          `json:"includeCardio"`
}

func (r WorkoutSplitRequest) Validate() error {
	t := r.trimmed()
	if err := validate.Struct(t); err != nil {
		return &ValidationError{Err: err}
	}
	days, err := strconv.Atoi(string(t.DaysPerWeek))
	if err != nil || days < 3 || days > 6 {
		return &ValidationError{Message: "daysPerWeek must be a whole number between 3 and 6"}
	}
	return nil
}

func (r WorkoutSplitRequest) Render() string {
	t := r.trimmed()
	return prompts.WorkoutSplit(prompts.WorkoutSplitParams{
		Experience:    t.Experience,
		DaysPerWeek:   string(t.DaysPerWeek),
		Location:      t.Location,
		Goal:          t.Goal,
		IncludeCardio: t.IncludeCardio,
	})
}

func (r WorkoutSplitRequest) trimmed() WorkoutSplitRequest {
	return WorkoutSplitRequest{
		Experience:    strings.TrimSpace(r.Experience),
		DaysPerWeek:   NumericString(strings.TrimSpace(string(r.DaysPerWeek))),
		Location:      strings.TrimSpace(r.Location),
		Goal:          strings.TrimSpace(r.Goal),
		IncludeCardio: r.IncludeCardio,
	}
}

// NumericString accepts either "4" or 4 on the wire.
type NumericString string

func (n *NumericString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = NumericString(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*n = NumericString(num.String())
	return nil
}
