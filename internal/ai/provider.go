package ai

import (
	"context"
	"errors"
	"fmt"
)

// Provider generates free text from a prompt using an external model.
type Provider interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
	ListModels(ctx context.Context) ([]Model, error)
}

type GenerateRequest struct {
	Prompt string
	// Model overrides the provider default when set.
	Model string
}

type GenerateResponse struct {
	Text  string
	Model string
}

// Model describes an upstream model as reported by the models listing.
type Model struct {
	Name                       string   `json:"name"`
	Version                    string   `json:"version,omitempty"`
	DisplayName                string   `json:"displayName,omitempty"`
	Description                string   `json:"description,omitempty"`
	InputTokenLimit            int      `json:"inputTokenLimit,omitempty"`
	OutputTokenLimit           int      `json:"outputTokenLimit,omitempty"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods,omitempty"`
}

// SupportsGenerateContent reports whether the model can serve generateContent calls.
func (m Model) SupportsGenerateContent() bool {
	for _, method := range m.SupportedGenerationMethods {
		if method == "generateContent" {
			return true
		}
	}
	return false
}

var (
	ErrNotConfigured   = errors.New("gemini api key not configured")
	ErrInvalidResponse = errors.New("invalid response format from gemini api")
	ErrNoContent       = errors.New("no content received from gemini api")
	ErrTimeout         = errors.New("upstream request timed out")
)

// UpstreamError is a non-2xx answer from the model API.
type UpstreamError struct {
	StatusCode int
	// Message is the upstream error.message when the body carried one.
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gemini request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("gemini request failed with status %d: %s", e.StatusCode, e.Message)
}
