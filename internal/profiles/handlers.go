package profiles

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

const maxBodyBytes = 64 << 10

// Handler содержит HTTP обработчики для анкеты
type Handler struct {
	service *Service
}

// NewHandler создаёт новый handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleProfile обрабатывает GET/PUT/DELETE /api/profile
func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodPut:
		h.handlePut(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		h.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetProfile(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to load profile")
		return
	}

	h.sendJSON(w, http.StatusOK, profile)
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	var req UpsertProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	profile, err := h.service.UpsertProfile(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to save profile")
		return
	}

	h.sendJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProfile(r.Context()); err != nil {
		h.handleServiceError(w, r, err, "Failed to delete profile")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleMealPlanPrompt обрабатывает POST /api/profile/meal-plan-prompt
func (h *Handler) HandleMealPlanPrompt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req MealPlanPromptRequest
	if !h.decode(w, r, &req) {
		return
	}

	prompt, err := h.service.MealPlanPrompt(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to build meal plan prompt")
		return
	}

	h.sendJSON(w, http.StatusOK, MealPlanPromptResponse{Prompt: prompt})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.sendError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		h.sendError(w, http.StatusBadRequest, vErr.Message)
	case errors.Is(err, ErrNotFound):
		h.sendError(w, http.StatusNotFound, "Profile not found")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg(fallback)
		h.sendError(w, http.StatusInternalServerError, fallback)
	}
}

// sendJSON отправляет JSON ответ
func (h *Handler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// sendError отправляет ошибку в формате ErrorResponse
func (h *Handler) sendError(w http.ResponseWriter, status int, message string) {
	h.sendJSON(w, status, ErrorResponse{Error: message})
}
