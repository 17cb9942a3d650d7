package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/fitgen/internal/config"
)

func newTestProvider(baseURL string) *GeminiProvider {
	return NewGeminiProvider(&config.Config{
		GeminiAPIKey:      "test-key",
		GeminiBaseURL:     baseURL,
		GeminiModels:      []string{"models/gemini-1.5-flash-002"},
		AITemperature:     0.7,
		AITopP:            0.8,
		AITopK:            40,
		AIMaxOutputTokens: 4000,
		AITimeoutSeconds:  30,
	})
}

func TestGeminiGenerateSendsSamplingConfig(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateContentRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"a\":1}"}]}}]}`))
	}))
	defer srv.Close()

	resp, err := newTestProvider(srv.URL).Generate(context.Background(), GenerateRequest{Prompt: "hello"})
	require.NoError(t, err)

	assert.Equal(t, `{"a":1}`, resp.Text)
	assert.Equal(t, "models/gemini-1.5-flash-002", resp.Model)
	assert.Equal(t, "/models/gemini-1.5-flash-002:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	require.Len(t, gotBody.Contents, 1)
	assert.Equal(t, "hello", gotBody.Contents[0].Parts[0].Text)
	assert.InDelta(t, 0.7, gotBody.GenerationConfig.Temperature, 1e-9)
	assert.InDelta(t, 0.8, gotBody.GenerationConfig.TopP, 1e-9)
	assert.Equal(t, 40, gotBody.GenerationConfig.TopK)
	assert.Equal(t, 4000, gotBody.GenerationConfig.MaxOutputTokens)
}

func TestGeminiGenerateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"Request contains an invalid argument.","status":"INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	_, err := newTestProvider(srv.URL).Generate(context.Background(), GenerateRequest{Prompt: "hello"})
	require.Error(t, err)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusBadRequest, upstream.StatusCode)
	assert.Equal(t, "Request contains an invalid argument.", upstream.Message)
}

func TestGeminiGenerateMissingCandidates(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{name: "no candidates", body: `{}`, want: ErrInvalidResponse},
		{name: "empty candidates", body: `{"candidates":[]}`, want: ErrInvalidResponse},
		{name: "empty text", body: `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`, want: ErrNoContent},
		{name: "no parts", body: `{"candidates":[{"content":{"parts":[]}}]}`, want: ErrNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestProvider(srv.URL).Generate(context.Background(), GenerateRequest{Prompt: "x"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGeminiGenerateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	p.timeout = 50 * time.Millisecond

	_, err := p.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestGeminiNotConfigured(t *testing.T) {
	p := newTestProvider("http://127.0.0.1:0")
	p.apiKey = ""

	_, err := p.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = p.ListModels(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGeminiListModelsFiltersGenerateContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[
			{"name":"models/gemini-1.5-flash","supportedGenerationMethods":["generateContent","countTokens"]},
			{"name":"models/embedding-001","supportedGenerationMethods":["embedContent"]}
		]}`))
	}))
	defer srv.Close()

	models, err := newTestProvider(srv.URL).ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "models/gemini-1.5-flash", models[0].Name)
}

func TestMockProviderPicksPayloadByPrompt(t *testing.T) {
	p := NewMockProvider([]string{"models/mock"})

	split, err := p.Generate(context.Background(), GenerateRequest{Prompt: "Create a weekly workout split"})
	require.NoError(t, err)
	assert.Contains(t, split.Text, `"splitName"`)
	assert.Equal(t, "models/mock", split.Model)

	workout, err := p.Generate(context.Background(), GenerateRequest{Prompt: "Create a detailed workout plan"})
	require.NoError(t, err)
	assert.Contains(t, workout.Text, `"exercises"`)

	meal, err := p.Generate(context.Background(), GenerateRequest{Prompt: "Create a 7-day meal plan"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(meal.Text, "```json"))
	assert.Contains(t, meal.Text, `"Day 1"`)
}

func TestNewProviderByMode(t *testing.T) {
	_, isMock := NewProvider(&config.Config{AIMode: config.AIModeMock}).(*MockProvider)
	assert.True(t, isMock)

	_, isGemini := NewProvider(&config.Config{AIMode: config.AIModeGemini}).(*GeminiProvider)
	assert.True(t, isGemini)
}
