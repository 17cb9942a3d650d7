package generation

import (
	"errors"
	"net/http"

	"github.com/fdg312/fitgen/internal/ai"
)

var (
	// ErrMalformedOutput means the sanitized model text is not valid JSON.
	ErrMalformedOutput = errors.New("model output is not valid json")
	// ErrInvalidStructure means the JSON parsed but does not have the expected shape.
	ErrInvalidStructure = errors.New("model output has invalid structure")
)

const (
	msgMethodNotAllowed = "Method not allowed"
	msgNotConfigured    = "Gemini API key not configured on server"
	msgInvalidBody      = "Invalid JSON body"
	msgRateLimited      = "Rate limit exceeded. Please try again later."
	msgInvalidAPIKey    = "Invalid API key. Please check your Gemini API key."
	msgNotFound         = "API endpoint not found. The model might not be available."
	msgTimeout          = "Request timeout. Please try again."
	msgInvalidResponse  = "Invalid response format from Gemini API"
	msgNoContent        = "No content received from Gemini API"
)

// Messages holds the user-facing wording for one content kind.
type Messages struct {
	InvalidRequest   string
	Parse            string
	InvalidStructure string
	Fallback         string
}

// StatusFor maps a pipeline error to the HTTP status and message written to the client.
func (m Messages) StatusFor(err error) (int, string) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		if validationErr.Message != "" {
			return http.StatusBadRequest, validationErr.Message
		}
		return http.StatusBadRequest, m.InvalidRequest
	}

	var upstream *ai.UpstreamError
	if errors.As(err, &upstream) {
		switch upstream.StatusCode {
		case http.StatusTooManyRequests:
			return http.StatusTooManyRequests, msgRateLimited
		case http.StatusUnauthorized:
			return http.StatusUnauthorized, msgInvalidAPIKey
		case http.StatusNotFound:
			return http.StatusNotFound, msgNotFound
		}
		if upstream.Message != "" {
			return http.StatusInternalServerError, upstream.Message
		}
		return http.StatusInternalServerError, m.Fallback
	}

	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		return http.StatusInternalServerError, msgNotConfigured
	case errors.Is(err, ai.ErrTimeout):
		return http.StatusRequestTimeout, msgTimeout
	case errors.Is(err, ai.ErrInvalidResponse):
		return http.StatusInternalServerError, msgInvalidResponse
	case errors.Is(err, ai.ErrNoContent):
		return http.StatusInternalServerError, msgNoContent
	case errors.Is(err, ErrMalformedOutput):
		return http.StatusInternalServerError, m.Parse
	case errors.Is(err, ErrInvalidStructure):
		return http.StatusInternalServerError, m.InvalidStructure
	}

	return http.StatusInternalServerError, m.Fallback
}

// outcome is the metrics label for an error returned by the pipeline.
func outcome(err error) string {
	var validationErr *ValidationError
	var upstream *ai.UpstreamError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &validationErr):
		return "invalid_request"
	case errors.As(err, &upstream):
		return "upstream_error"
	case errors.Is(err, ai.ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrMalformedOutput):
		return "parse_error"
	case errors.Is(err, ErrInvalidStructure):
		return "invalid_structure"
	default:
		return "error"
	}
}
