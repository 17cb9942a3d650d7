package exports

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Handlers handles HTTP requests for exports
type Handlers struct {
	service  *Service
	maxBytes int64
}

// NewHandlers creates new handlers
func NewHandlers(service *Service, maxBytes int) *Handlers {
	return &Handlers{service: service, maxBytes: int64(maxBytes)}
}

// HandleCreatePDF handles POST /api/export/pdf
func (h *Handlers) HandleCreatePDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	result, err := h.service.Export(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidKind):
			writeError(w, http.StatusBadRequest, "kind must be one of: mealPlan, workoutPlan, workoutSplit")
		case errors.Is(err, ErrMissingPayload):
			writeError(w, http.StatusBadRequest, req.Kind+" payload is required")
		case errors.Is(err, ErrInvalidPayload):
			writeError(w, http.StatusBadRequest, "Invalid "+req.Kind+" payload")
		default:
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("export failed")
			writeError(w, http.StatusInternalServerError, "Failed to export PDF")
		}
		return
	}

	if result.Stored != nil {
		writeJSON(w, http.StatusCreated, result.Stored)
		return
	}

	w.Header().Set("Content-Type", contentTypePDF)
	w.Header().Set("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(result.PDF)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.PDF)
}

// HandleList handles GET /api/exports
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	exports, err := h.service.ListExports(r.Context(), limit, offset)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("list exports failed")
		writeError(w, http.StatusInternalServerError, "Failed to list exports")
		return
	}

	writeJSON(w, http.StatusOK, ExportsResponse{Exports: exports})
}

// HandleByID handles GET and DELETE /api/exports/{id}
func (h *Handlers) HandleByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid export ID")
		return
	}

	switch r.Method {
	case http.MethodGet:
		export, err := h.service.GetExport(r.Context(), id)
		if err != nil {
			h.writeLookupError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, export)
	case http.MethodDelete:
		if err := h.service.DeleteExport(r.Context(), id); err != nil {
			h.writeLookupError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "GET, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *Handlers) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrStorageOff):
		writeError(w, http.StatusNotFound, "Export not found")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("export lookup failed")
		writeError(w, http.StatusInternalServerError, "Failed to load export")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
