package generation

import (
	"bytes"
	"encoding/json"
)

const (
	KindMealPlan     = "mealPlan"
	KindWorkoutPlan  = "workoutPlan"
	KindWorkoutSplit = "workoutSplit"
)

// Descriptor drives the shared generate-structured-content pipeline for one content kind.
type Descriptor[R any, T any] struct {
	// Kind doubles as the envelope payload key.
	Kind     string
	Validate func(R) error
	Render   func(R) string
	// Shape is the shallow check run on the parsed JSON before strict decoding.
	Shape    func(raw []byte) bool
	Decode   func(raw []byte) (T, error)
	Messages Messages
}

var MealPlanDescriptor = Descriptor[MealPlanRequest, WeeklyMealPlan]{
	Kind:     KindMealPlan,
	Validate: MealPlanRequest.Validate,
	Render:   MealPlanRequest.Render,
	Shape:    firstKeyIsObject,
	Decode:   decodeMealPlan,
	Messages: Messages{
		InvalidRequest:   "Prompt is required",
		Parse:            "Failed to parse AI response as JSON. Please try again.",
		InvalidStructure: "Invalid meal plan structure in AI response. Please try again.",
		Fallback:         "Failed to generate meal plan. Please try again.",
	},
}

var WorkoutDescriptor = Descriptor[WorkoutRequest, WorkoutPlan]{
	Kind:     KindWorkoutPlan,
	Validate: WorkoutRequest.Validate,
	Render:   WorkoutRequest.Render,
	Shape:    hasArray("exercises"),
	Decode:   decodeStrict[WorkoutPlan],
	Messages: Messages{
		InvalidRequest:   "All parameters are required",
		Parse:            "Failed to parse workout response as JSON",
		InvalidStructure: "Invalid workout plan structure",
		Fallback:         "Failed to generate workout plan",
	},
}

var WorkoutSplitDescriptor = Descriptor[WorkoutSplitRequest, WorkoutSplit]{
	Kind:     KindWorkoutSplit,
	Validate: WorkoutSplitRequest.Validate,
	Render:   WorkoutSplitRequest.Render,
	Shape:    hasArray("days"),
	Decode:   decodeStrict[WorkoutSplit],
	Messages: Messages{
		InvalidRequest:   "All parameters are required",
		Parse:            "Failed to parse workout split response as JSON",
		InvalidStructure: "Invalid workout split structure",
		Fallback:         "Failed to generate workout split",
	},
}

// firstKeyIsObject reports whether raw is a JSON object whose first key maps to an object.
func firstKeyIsObject(raw []byte) bool {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := expectDelim(dec, '{'); err != nil {
		return false
	}
	if !dec.More() {
		return false
	}
	if _, err := readKey(dec); err != nil {
		return false
	}
	tok, err := dec.Token()
	if err != nil {
		return false
	}
	d, ok := tok.(json.Delim)
	return ok && d == '{'
}

// hasArray reports whether raw is a JSON object carrying an array at field.
func hasArray(field string) func(raw []byte) bool {
	return func(raw []byte) bool {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return false
		}
		v, ok := obj[field]
		if !ok {
			return false
		}
		v = bytes.TrimSpace(v)
		return len(v) > 0 && v[0] == '['
	}
}

func decodeMealPlan(raw []byte) (WeeklyMealPlan, error) {
	var plan WeeklyMealPlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, err
	}
	if err := validate.Var(plan, "required,min=1,dive"); err != nil {
		return nil, err
	}
	return plan, nil
}

func decodeStrict[T any](raw []byte) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, err
	}
	if err := validate.Struct(v); err != nil {
		return v, err
	}
	return v, nil
}
