package generation

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fdg312/fitgen/internal/metrics"
)

const maxRequestBytes = 1 << 20

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler exposes the three generation gateways.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleMealPlan обрабатывает POST /api/generate-meal-plan
func (h *Handler) HandleMealPlan(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, MealPlanDescriptor)
}

// HandleWorkout обрабатывает POST /api/generate-workout
func (h *Handler) HandleWorkout(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, WorkoutDescriptor)
}

// HandleWorkoutSplit обрабатывает POST /api/generate-workout-split
func (h *Handler) HandleWorkoutSplit(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, WorkoutSplitDescriptor)
}

// serve checks method, credential and body in that order before running the pipeline.
func serve[R any, T any](h *Handler, w http.ResponseWriter, r *http.Request, d Descriptor[R, T]) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		sendError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	if !h.service.Configured() {
		metrics.RecordGeneration(d.Kind, "not_configured")
		sendError(w, http.StatusInternalServerError, msgNotConfigured)
		return
	}

	var req R
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			sendError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		metrics.RecordGeneration(d.Kind, "invalid_request")
		sendError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	payload, err := Generate(r.Context(), h.service, d, req)
	if err != nil {
		status, message := d.Messages.StatusFor(err)
		sendError(w, status, message)
		return
	}

	sendJSON(w, http.StatusOK, map[string]any{
		"success": true,
		d.Kind:    payload,
	})
}

func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, status int, message string) {
	sendJSON(w, status, ErrorResponse{Error: message})
}
