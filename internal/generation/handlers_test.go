package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/fitgen/internal/ai"
	"github.com/fdg312/fitgen/internal/config"
)

type fakeProvider struct {
	mu      sync.Mutex
	calls   int
	reply   string
	err     error
	prompts []string
}

func (p *fakeProvider) Generate(ctx context.Context, req ai.GenerateRequest) (ai.GenerateResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.prompts = append(p.prompts, req.Prompt)
	if p.err != nil {
		return ai.GenerateResponse{}, p.err
	}
	return ai.GenerateResponse{Text: p.reply, Model: "models/test"}, nil
}

func (p *fakeProvider) ListModels(ctx context.Context) ([]ai.Model, error) {
	return nil, nil
}

func (p *fakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func testConfig() *config.Config {
	return &config.Config{
		AIMode:                config.AIModeGemini,
		GeminiAPIKey:          "test-key",
		IdempotencyTTLSeconds: 0,
	}
}

func newTestHandler(cfg *config.Config, provider ai.Provider) *Handler {
	return NewHandler(NewService(cfg, provider, zerolog.Nop()))
}

func doRequest(t *testing.T, h http.HandlerFunc, method, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, "/api/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)

	var decoded map[string]any
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decoded), rr.Body.String())
	}
	return rr, decoded
}

const validWorkoutBody = `{"targetMuscles":["chest"],"frequency":"3x per week","experience":"Beginner","location":"Gym"}`
const validSplitBody = `{"experience":"Intermediate","daysPerWeek":"4","location":"Gym","goal":"Build Muscle","includeCardio":false}`

const fencedWorkoutReply = "```json\n" + `{"exercises":[{"name":"Push-up","sets":3,"reps":"10-12","rest":"60s","muscle":"Chest","difficulty":"Beginner","instructions":["Plank","Lower","Push"],"primaryMuscles":["chest"],"secondaryMuscles":["triceps"]}],"workoutType":"Push Day","totalDuration":"45 minutes","totalExercises":1}` + "\n```"

func TestValidationHappensBeforeNetwork(t *testing.T) {
	tests := []struct {
		name    string
		handler func(h *Handler) http.HandlerFunc
		body    string
		wantMsg string
	}{
		{"meal plan missing prompt", func(h *Handler) http.HandlerFunc { return h.HandleMealPlan }, `{}`, "Prompt is required"},
		{"meal plan blank prompt", func(h *Handler) http.HandlerFunc { return h.HandleMealPlan }, `{"prompt":"   "}`, "Prompt is required"},
		{"meal plan empty body", func(h *Handler) http.HandlerFunc { return h.HandleMealPlan }, ``, "Prompt is required"},
		{"workout missing muscles", func(h *Handler) http.HandlerFunc { return h.HandleWorkout }, `{"frequency":"3x","experience":"Beginner","location":"Gym"}`, "All parameters are required"},
		{"workout empty muscles", func(h *Handler) http.HandlerFunc { return h.HandleWorkout }, `{"targetMuscles":[],"frequency":"3x","experience":"Beginner","location":"Gym"}`, "All parameters are required"},
		{"workout blank muscle", func(h *Handler) http.HandlerFunc { return h.HandleWorkout }, `{"targetMuscles":[" "],"frequency":"3x","experience":"Beginner","location":"Gym"}`, "All parameters are required"},
		{"workout missing frequency", func(h *Handler) http.HandlerFunc { return h.HandleWorkout }, `{"targetMuscles":["chest"],"experience":"Beginner","location":"Gym"}`, "All parameters are required"},
		{"workout missing experience", func(h *Handler) http.HandlerFunc { return h.HandleWorkout }, `{"targetMuscles":["chest"],"frequency":"3x","location":"Gym"}`, "All parameters are required"},
		{"workout missing location", func(h *Handler) http.HandlerFunc { return h.HandleWorkout }, `{"targetMuscles":["chest"],"frequency":"3x","experience":"Beginner"}`, "All parameters are required"},
		{"split missing experience", func(h *Handler) http.HandlerFunc { return h.HandleWorkoutSplit }, `{"daysPerWeek":"4","location":"Gym","goal":"Strength"}`, "All parameters are required"},
		{"split missing days", func(h *Handler) http.HandlerFunc { return h.HandleWorkoutSplit }, `{"experience":"Beginner","location":"Gym","goal":"Strength"}`, "All parameters are required"},
		{"split missing location", func(h *Handler) http.HandlerFunc { return h.HandleWorkoutSplit }, `{"experience":"Beginner","daysPerWeek":"4","goal":"Strength"}`, "All parameters are required"},
		{"split missing goal", func(h *Handler) http.HandlerFunc { return h.HandleWorkoutSplit }, `{"experience":"Beginner","daysPerWeek":"4","location":"Gym"}`, "All parameters are required"},
		{"split days out of range", func(h *Handler) http.HandlerFunc { return h.HandleWorkoutSplit }, `{"experience":"Beginner","daysPerWeek":"9","location":"Gym","goal":"Strength"}`, "daysPerWeek must be a whole number between 3 and 6"},
		{"split days below three", func(h *Handler) http.HandlerFunc { return h.HandleWorkoutSplit }, `{"experience":"Beginner","daysPerWeek":"2","location":"Gym","goal":"Strength"}`, "daysPerWeek must be a whole number between 3 and 6"},
		{"split days above six", func(h *Handler) http.HandlerFunc { return h.HandleWorkoutSplit }, `{"experience":"Beginner","daysPerWeek":"7","location":"Gym","goal":"Strength"}`, "daysPerWeek must be a whole number between 3 and 6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{reply: fencedWorkoutReply}
			h := newTestHandler(testConfig(), provider)

			rr, body := doRequest(t, tt.handler(h), http.MethodPost, tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.wantMsg, body["error"])
			assert.Equal(t, 0, provider.Calls())
		})
	}
}

func TestPreconditionOrder(t *testing.T) {
	t.Run("method checked before credential", func(t *testing.T) {
		cfg := testConfig()
		cfg.GeminiAPIKey = ""
		provider := &fakeProvider{}
		h := newTestHandler(cfg, provider)

		rr, body := doRequest(t, h.HandleWorkout, http.MethodGet, "")
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
		assert.Equal(t, "Method not allowed", body["error"])
		assert.Equal(t, http.MethodPost, rr.Header().Get("Allow"))
	})

	t.Run("credential checked before fields", func(t *testing.T) {
		cfg := testConfig()
		cfg.GeminiAPIKey = ""
		provider := &fakeProvider{}
		h := newTestHandler(cfg, provider)

		for _, handler := range []http.HandlerFunc{h.HandleMealPlan, h.HandleWorkout, h.HandleWorkoutSplit} {
			rr, body := doRequest(t, handler, http.MethodPost, `{}`)
			assert.Equal(t, http.StatusInternalServerError, rr.Code)
			assert.Equal(t, "Gemini API key not configured on server", body["error"])
		}
		assert.Equal(t, 0, provider.Calls())
	})

	t.Run("malformed body", func(t *testing.T) {
		provider := &fakeProvider{}
		h := newTestHandler(testConfig(), provider)

		rr, body := doRequest(t, h.HandleWorkout, http.MethodPost, `{"targetMuscles":`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid JSON body", body["error"])
		assert.Equal(t, 0, provider.Calls())
	})
}

func TestMealPlanShapeRejection(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantMsg string
	}{
		{"number", "42", MealPlanDescriptor.Messages.InvalidStructure},
		{"array", "[]", MealPlanDescriptor.Messages.InvalidStructure},
		{"fenced array", "```json\n[1,2]\n```", MealPlanDescriptor.Messages.InvalidStructure},
		{"empty object", "{}", MealPlanDescriptor.Messages.InvalidStructure},
		{"first key not object", `{"Day 1":"rest"}`, MealPlanDescriptor.Messages.InvalidStructure},
		{"null", "null", MealPlanDescriptor.Messages.InvalidStructure},
		{"nested meal object", `{"Day 1":{"Breakfast":{"name":"Oats"}}}`, MealPlanDescriptor.Messages.InvalidStructure},
		{"not json", "not json", MealPlanDescriptor.Messages.Parse},
		{"truncated", "```json\n{\"Day 1\": {\"Breakfast\": \"Oats", MealPlanDescriptor.Messages.Parse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(testConfig(), &fakeProvider{reply: tt.reply})

			rr, body := doRequest(t, h.HandleMealPlan, http.MethodPost, `{"prompt":"plan my week"}`)

			assert.Equal(t, http.StatusInternalServerError, rr.Code)
			assert.Equal(t, tt.wantMsg, body["error"])
		})
	}

	assert.NotEqual(t, MealPlanDescriptor.Messages.Parse, MealPlanDescriptor.Messages.InvalidStructure)
}

func TestMealPlanSuccessKeepsOrder(t *testing.T) {
	reply := "```json\n{\"Day 2\":{\"Lunch\":\"Soup\",\"Breakfast\":\"Eggs\"},\"Day 1\":{\"Dinner\":\"Fish\",\"Snacks\":3}}\n```"
	provider := &fakeProvider{reply: reply}
	h := newTestHandler(testConfig(), provider)

	rr, _ := doRequest(t, h.HandleMealPlan, http.MethodPost, `{"prompt":"plan my week"}`)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t,
		`{"success":true,"mealPlan":{"Day 2":{"Lunch":"Soup","Breakfast":"Eggs"},"Day 1":{"Dinner":"Fish","Snacks":"3"}}}`,
		rr.Body.String())

	raw := rr.Body.String()
	assert.Less(t, strings.Index(raw, `"Day 2"`), strings.Index(raw, `"Day 1"`))
	assert.Less(t, strings.Index(raw, `"Lunch"`), strings.Index(raw, `"Breakfast"`))

	require.Len(t, provider.prompts, 1)
	assert.True(t, strings.HasPrefix(provider.prompts[0], "plan my week\n\nIMPORTANT: Return ONLY valid JSON"))
}

func TestUpstreamStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantSubstr string
	}{
		{"rate limited", &ai.UpstreamError{StatusCode: 429}, http.StatusTooManyRequests, "Rate limit exceeded"},
		{"bad key", &ai.UpstreamError{StatusCode: 401, Message: "API key not valid"}, http.StatusUnauthorized, "API key"},
		{"unknown model", &ai.UpstreamError{StatusCode: 404}, http.StatusNotFound, "endpoint"},
		{"timeout", ai.ErrTimeout, http.StatusRequestTimeout, "timeout"},
		{"upstream message", &ai.UpstreamError{StatusCode: 503, Message: "The model is overloaded."}, http.StatusInternalServerError, "The model is overloaded."},
		{"upstream fallback", &ai.UpstreamError{StatusCode: 500}, http.StatusInternalServerError, "Failed to generate workout plan"},
		{"no candidates", ai.ErrInvalidResponse, http.StatusInternalServerError, "Invalid response format"},
		{"no content", ai.ErrNoContent, http.StatusInternalServerError, "No content received"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{err: tt.err}
			h := newTestHandler(testConfig(), provider)

			rr, body := doRequest(t, h.HandleWorkout, http.MethodPost, validWorkoutBody)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, body["error"], tt.wantSubstr)
			assert.Equal(t, 1, provider.Calls(), "gateway must not retry")
		})
	}
}

func TestModelMessagesMentionEndpointAndKey(t *testing.T) {
	status, msg := WorkoutDescriptor.Messages.StatusFor(&ai.UpstreamError{StatusCode: 404})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, msg, "model")

	status, msg = MealPlanDescriptor.Messages.StatusFor(&ai.UpstreamError{StatusCode: 401})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, msg, "API key")
}

func TestWorkoutHappyPath(t *testing.T) {
	provider := &fakeProvider{reply: fencedWorkoutReply}
	h := newTestHandler(testConfig(), provider)

	rr, _ := doRequest(t, h.HandleWorkout, http.MethodPost, validWorkoutBody)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var envelope struct {
		Success     bool        `json:"success"`
		WorkoutPlan WorkoutPlan `json:"workoutPlan"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	require.Len(t, envelope.WorkoutPlan.Exercises, 1)
	assert.Equal(t, "Push Day", envelope.WorkoutPlan.WorkoutType)
	assert.Equal(t, FlexInt(3), envelope.WorkoutPlan.Exercises[0].Sets)

	require.Len(t, provider.prompts, 1)
	assert.Contains(t, provider.prompts[0], "TARGET MUSCLES: chest")
	assert.Contains(t, provider.prompts[0], "WORKOUT LOCATION: Gym")
}

func TestWorkoutCoercesNumericFields(t *testing.T) {
	reply := `{"exercises":[{"name":"Squat","sets":"3-4","reps":"8-12"}],"workoutType":"Legs","totalDuration":"40 minutes","totalExercises":"1"}`
	h := newTestHandler(testConfig(), &fakeProvider{reply: reply})

	rr, _ := doRequest(t, h.HandleWorkout, http.MethodPost, validWorkoutBody)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"sets":3`)
	assert.Contains(t, rr.Body.String(), `"totalExercises":1`)
}

func TestWorkoutStrictValidation(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantMsg string
	}{
		{"missing exercises", `{"workoutType":"Legs"}`, WorkoutDescriptor.Messages.InvalidStructure},
		{"exercises not array", `{"exercises":{}}`, WorkoutDescriptor.Messages.InvalidStructure},
		{"exercise without name", `{"exercises":[{"sets":3,"reps":"10"}]}`, WorkoutDescriptor.Messages.InvalidStructure},
		{"sets not numeric", `{"exercises":[{"name":"Squat","sets":"many","reps":"10"}]}`, WorkoutDescriptor.Messages.InvalidStructure},
		{"empty exercises", `{"exercises":[]}`, WorkoutDescriptor.Messages.InvalidStructure},
		{"total exercises overflows", `{"exercises":[{"name":"Squat","sets":3,"reps":"10"}],"totalExercises":1e300}`, WorkoutDescriptor.Messages.InvalidStructure},
		{"negative total exercises", `{"exercises":[{"name":"Squat","sets":3,"reps":"10"}],"totalExercises":-2}`, WorkoutDescriptor.Messages.InvalidStructure},
		{"prose", "Here is your plan!", WorkoutDescriptor.Messages.Parse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(testConfig(), &fakeProvider{reply: tt.reply})
			rr, body := doRequest(t, h.HandleWorkout, http.MethodPost, validWorkoutBody)
			assert.Equal(t, http.StatusInternalServerError, rr.Code)
			assert.Equal(t, tt.wantMsg, body["error"])
		})
	}
}

func TestWorkoutSplitHappyPath(t *testing.T) {
	reply := "```\n" + `{"splitName":"Upper/Lower","goal":"Build Muscle","experience":"Intermediate","location":"Gym","days":[{"day":"Day 1","focus":"Upper","exercises":[{"name":"Bench Press","sets":4,"reps":"6-8","rest":"90s","muscleGroup":"Chest","equipment":"Barbell"}],"duration":"60 minutes"}],"totalDuration":"4 hours","totalExercises":1}` + "\n```"
	provider := &fakeProvider{reply: reply}
	h := newTestHandler(testConfig(), provider)

	rr, _ := doRequest(t, h.HandleWorkoutSplit, http.MethodPost, `{"experience":"Intermediate","daysPerWeek":4,"location":"Gym","goal":"Build Muscle","includeCardio":true}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var envelope struct {
		Success      bool         `json:"success"`
		WorkoutSplit WorkoutSplit `json:"workoutSplit"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	require.Len(t, envelope.WorkoutSplit.Days, 1)
	assert.Equal(t, "Bench Press", envelope.WorkoutSplit.Days[0].Exercises[0].Name)

	require.Len(t, provider.prompts, 1)
	assert.Contains(t, provider.prompts[0], "DAYS PER WEEK: 4")
	assert.Contains(t, provider.prompts[0], "INCLUDE CARDIO: Yes")
}

func TestWorkoutSplitShapeRejection(t *testing.T) {
	h := newTestHandler(testConfig(), &fakeProvider{reply: `{"days":"Monday"}`})
	rr, body := doRequest(t, h.HandleWorkoutSplit, http.MethodPost, validSplitBody)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Invalid workout split structure", body["error"])
}

func TestDuplicateSubmissionsShareOneCall(t *testing.T) {
	cfg := testConfig()
	cfg.IdempotencyTTLSeconds = 30
	cfg.IdempotencyCacheSize = 16
	provider := &fakeProvider{reply: fencedWorkoutReply}
	h := newTestHandler(cfg, provider)

	for i := 0; i < 3; i++ {
		rr, _ := doRequest(t, h.HandleWorkout, http.MethodPost, validWorkoutBody)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	assert.Equal(t, 1, provider.Calls())

	rr, _ := doRequest(t, h.HandleWorkout, http.MethodPost, `{"targetMuscles":["legs"],"frequency":"3x per week","experience":"Beginner","location":"Gym"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, provider.Calls())
}

func TestFailuresAreNotCached(t *testing.T) {
	cfg := testConfig()
	cfg.IdempotencyTTLSeconds = 30
	provider := &fakeProvider{reply: "not json"}
	h := newTestHandler(cfg, provider)

	for i := 0; i < 2; i++ {
		rr, _ := doRequest(t, h.HandleWorkout, http.MethodPost, validWorkoutBody)
		require.Equal(t, http.StatusInternalServerError, rr.Code)
	}
	assert.Equal(t, 2, provider.Calls())
}

func TestWithoutCacheEveryRequestCallsUpstream(t *testing.T) {
	provider := &fakeProvider{reply: fencedWorkoutReply}
	h := newTestHandler(testConfig(), provider)

	for i := 0; i < 2; i++ {
		rr, _ := doRequest(t, h.HandleWorkout, http.MethodPost, validWorkoutBody)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	assert.Equal(t, 2, provider.Calls())
}
