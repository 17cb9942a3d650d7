package exports

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	ModeLocal  = "local"
	ModeStored = "s3"

	contentTypePDF = "application/pdf"
)

// ExportRequest is the body of POST /api/export/pdf. Exactly the payload
// named by Kind is read; the other two are ignored.
type ExportRequest struct {
	Kind         string          `json:"kind"`
	Title        string          `json:"title"`
	MealPlan     json.RawMessage `json:"mealPlan"`
	WorkoutPlan  json.RawMessage `json:"workoutPlan"`
	WorkoutSplit json.RawMessage `json:"workoutSplit"`
}

// ExportDTO is the response representation of a stored export
type ExportDTO struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// ExportsResponse is the list response
type ExportsResponse struct {
	Exports []ExportDTO `json:"exports"`
}

// Result carries either the rendered bytes (local mode) or the stored export.
type Result struct {
	PDF      []byte
	Filename string
	Stored   *ExportDTO
}

type ErrorResponse struct {
	Error string `json:"error"`
}
