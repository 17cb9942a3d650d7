package ai

import (
	"context"
	"strings"
)

// MockProvider returns canned fenced JSON chosen by keywords in the prompt.
type MockProvider struct {
	models []string
}

func NewMockProvider(models []string) *MockProvider {
	return &MockProvider{models: models}
}

func (p *MockProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	if err := ctx.Err(); err != nil {
		return GenerateResponse{}, err
	}

	model := req.Model
	if model == "" && len(p.models) > 0 {
		model = p.models[0]
	}

	lowered := strings.ToLower(req.Prompt)
	var body string
	switch {
	case strings.Contains(lowered, "workout split"):
		body = mockWorkoutSplit
	case strings.Contains(lowered, "workout plan"):
		body = mockWorkoutPlan
	default:
		body = mockMealPlan
	}

	return GenerateResponse{Text: "```json\n" + body + "\n```", Model: model}, nil
}

func (p *MockProvider) ListModels(ctx context.Context) ([]Model, error) {
	_ = ctx
	models := make([]Model, 0, len(p.models))
	for _, name := range p.models {
		models = append(models, Model{
			Name:                       name,
			DisplayName:                strings.TrimPrefix(name, "models/"),
			SupportedGenerationMethods: []string{"generateContent"},
		})
	}
	return models, nil
}

const mockMealPlan = `{
  "Day 1": {
    "Breakfast": "Greek yogurt with oats and berries",
    "Lunch": "Grilled chicken, brown rice and broccoli",
    "Dinner": "Baked salmon with sweet potato and green beans",
    "Snacks": "Apple with peanut butter"
  },
  "Day 2": {
    "Breakfast": "Scrambled eggs on wholegrain toast",
    "Lunch": "Turkey and black bean wrap",
    "Dinner": "Lean beef stir-fry with vegetables and noodles",
    "Snacks": "Cottage cheese with pineapple"
  }
}`

const mockWorkoutPlan = `{
  "exercises": [
    {
      "name": "Push-up",
      "sets": 3,
      "reps": "10-12",
      "rest": "60s",
      "muscle": "Chest",
      "difficulty": "Beginner",
      "videoUrl": "https://www.youtube.com/watch?v=IODxDxX7oi4",
      "instructions": ["Start in a plank", "Lower your chest to the floor", "Push back up", "Keep your core tight"],
      "primaryMuscles": ["chest"],
      "secondaryMuscles": ["triceps", "shoulders"]
    },
    {
      "name": "Bodyweight Squat",
      "sets": "3-4",
      "reps": "12-15",
      "rest": "60-90s",
      "muscle": "Legs",
      "difficulty": "Beginner",
      "videoUrl": "https://www.youtube.com/watch?v=aclHkVaku9U",
      "instructions": ["Stand shoulder-width apart", "Sit back and down", "Drive through the heels", "Stand tall"],
      "primaryMuscles": ["quadriceps"],
      "secondaryMuscles": ["glutes", "hamstrings"]
    }
  ],
  "workoutType": "Full Body",
  "totalDuration": "30-40 minutes",
  "totalExercises": 2
}`

const mockWorkoutSplit = `{
  "splitName": "Upper/Lower Split",
  "goal": "Build Muscle",
  "experience": "Intermediate",
  "location": "Gym",
  "days": [
    {
      "day": "Day 1",
      "focus": "Upper Body",
      "exercises": [
        {"name": "Bench Press", "sets": 4, "reps": "6-8", "rest": "90s", "muscleGroup": "Chest", "equipment": "Barbell"},
        {"name": "Bent-over Row", "sets": 4, "reps": "8-10", "rest": "90s", "muscleGroup": "Back", "equipment": "Barbell"}
      ],
      "duration": "60 minutes"
    },
    {
      "day": "Day 2",
      "focus": "Lower Body",
      "exercises": [
        {"name": "Back Squat", "sets": 4, "reps": "6-8", "rest": "120s", "muscleGroup": "Legs", "equipment": "Barbell"},
        {"name": "Romanian Deadlift", "sets": 3, "reps": "8-10", "rest": "90s", "muscleGroup": "Hamstrings", "equipment": "Barbell"}
      ],
      "duration": "60 minutes"
    }
  ],
  "totalDuration": "120 minutes per week",
  "totalExercises": 4
}`
