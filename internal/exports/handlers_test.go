package exports

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/fitgen/internal/storage/memory"
	"github.com/fdg312/fitgen/internal/userctx"
)

// fakeBlobStore keeps objects in memory
type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) PutObject(_ context.Context, key string, data []byte, _ string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = append([]byte(nil), data...)
	return int64(len(data)), nil
}

func (f *fakeBlobStore) GetObject(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key: %s", key)
	}
	return data, nil
}

func (f *fakeBlobStore) PresignGet(_ context.Context, key string, ttlSeconds int) (string, error) {
	return fmt.Sprintf("https://blob.test/%s?ttl=%d", key, ttlSeconds), nil
}

func (f *fakeBlobStore) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

const mealPlanBody = `{"kind":"mealPlan","title":"My week","mealPlan":{"Day 1":{"Breakfast":"Eggs","Lunch":"Soup"},"Day 2":{"Dinner":"Pasta"}}}`

func newHandlers(store *fakeBlobStore) *Handlers {
	svc := NewService(memory.New(), NewGenerator(""), nil, 900, zerolog.Nop())
	if store != nil {
		svc = NewService(memory.New(), NewGenerator(""), store, 900, zerolog.Nop())
	}
	return NewHandlers(svc, 1<<20)
}

func request(method, path, body, userID string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		req = req.WithContext(userctx.WithUserID(req.Context(), userID))
	}
	return req
}

func TestExportLocalModeReturnsPDF(t *testing.T) {
	h := newHandlers(nil)

	w := httptest.NewRecorder()
	h.HandleCreatePDF(w, request(http.MethodPost, "/api/export/pdf", mealPlanBody, ""))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "mealPlan-")
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF-"))
}

func TestExportStoredMode(t *testing.T) {
	store := newFakeBlobStore()
	h := newHandlers(store)

	w := httptest.NewRecorder()
	h.HandleCreatePDF(w, request(http.MethodPost, "/api/export/pdf", mealPlanBody, "user-1"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created ExportDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "mealPlan", created.Kind)
	assert.Equal(t, "My week", created.Title)
	assert.Positive(t, created.SizeBytes)

	key := fmt.Sprintf("exports/user-1/%s.pdf", created.ID)
	assert.Contains(t, store.objects, key)
	assert.Equal(t, "https://blob.test/"+key+"?ttl=900", created.URL)

	// список
	w = httptest.NewRecorder()
	h.HandleList(w, request(http.MethodGet, "/api/exports", "", "user-1"))
	require.Equal(t, http.StatusOK, w.Code)
	var list ExportsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Exports, 1)
	assert.Equal(t, created.ID, list.Exports[0].ID)

	// чужой пользователь не видит экспорт
	w = httptest.NewRecorder()
	h.HandleList(w, request(http.MethodGet, "/api/exports", "", "user-2"))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list.Exports)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/exports/{id}", h.HandleByID)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, request(http.MethodGet, "/api/exports/"+created.ID.String(), "", "user-2"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, request(http.MethodGet, "/api/exports/"+created.ID.String(), "", "user-1"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, request(http.MethodDelete, "/api/exports/"+created.ID.String(), "", "user-1"))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, store.objects)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, request(http.MethodGet, "/api/exports/not-a-uuid", "", "user-1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"bad json", `{"kind":`, "Invalid JSON body"},
		{"unknown kind", `{"kind":"yoga"}`, "kind must be one of: mealPlan, workoutPlan, workoutSplit"},
		{"missing payload", `{"kind":"workoutPlan"}`, "workoutPlan payload is required"},
		{"null payload", `{"kind":"workoutSplit","workoutSplit":null}`, "workoutSplit payload is required"},
		{"empty exercises", `{"kind":"workoutPlan","workoutPlan":{"exercises":[]}}`, "Invalid workoutPlan payload"},
		{"meal plan array", `{"kind":"mealPlan","mealPlan":[]}`, "Invalid mealPlan payload"},
		{"split without day", `{"kind":"workoutSplit","workoutSplit":{"days":[{"focus":"Push"}]}}`, "Invalid workoutSplit payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newHandlers(nil).HandleCreatePDF(w, request(http.MethodPost, "/api/export/pdf", tt.body, ""))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"error":"`+tt.message+`"}`, w.Body.String())
		})
	}
}

func TestExportWorkoutAcceptsCoercedSets(t *testing.T) {
	body := `{"kind":"workoutPlan","workoutPlan":{"exercises":[{"name":"Squat","sets":"3-4","reps":"8"}]}}`

	w := httptest.NewRecorder()
	newHandlers(nil).HandleCreatePDF(w, request(http.MethodPost, "/api/export/pdf", body, ""))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestExportBodyTooLarge(t *testing.T) {
	svc := NewService(memory.New(), NewGenerator(""), nil, 900, zerolog.Nop())
	h := NewHandlers(svc, 32)

	w := httptest.NewRecorder()
	h.HandleCreatePDF(w, request(http.MethodPost, "/api/export/pdf", mealPlanBody, ""))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestExportsLocalModeLookups(t *testing.T) {
	h := newHandlers(nil)

	w := httptest.NewRecorder()
	h.HandleList(w, request(http.MethodGet, "/api/exports", "", ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"exports":[]}`, w.Body.String())

	mux := http.NewServeMux()
	mux.HandleFunc("/api/exports/{id}", h.HandleByID)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, request(http.MethodGet, "/api/exports/7b0c7f55-7a4a-4c39-a1f4-6fd3d0fdc0a1", "", ""))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
