package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fdg312/fitgen/internal/config"
)

type GeminiProvider struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	topP        float64
	topK        int
	maxTokens   int
	timeout     time.Duration
	httpClient  *http.Client
}

func NewGeminiProvider(cfg *config.Config) *GeminiProvider {
	timeoutSeconds := cfg.AITimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}

	return &GeminiProvider{
		apiKey:      cfg.GeminiAPIKey,
		baseURL:     strings.TrimRight(cfg.GeminiBaseURL, "/"),
		model:       cfg.DefaultModel(),
		temperature: cfg.AITemperature,
		topP:        cfg.AITopP,
		topK:        cfg.AITopK,
		maxTokens:   cfg.AIMaxOutputTokens,
		timeout:     time.Duration(timeoutSeconds) * time.Second,
		httpClient:  &http.Client{},
	}
}

// WithHTTPClient swaps the transport, mostly for tests.
func (p *GeminiProvider) WithHTTPClient(c *http.Client) *GeminiProvider {
	p.httpClient = c
	return p
}

func (p *GeminiProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	if strings.TrimSpace(p.apiKey) == "" {
		return GenerateResponse{}, ErrNotConfigured
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	payload := generateContentRequest{
		Contents: []content{{Parts: []part{{Text: req.Prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     p.temperature,
			MaxOutputTokens: p.maxTokens,
			TopP:            p.topP,
			TopK:            p.topK,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return GenerateResponse{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s", p.baseURL, model, url.QueryEscape(p.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return GenerateResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	responseBody, status, err := p.do(httpReq)
	if err != nil {
		return GenerateResponse{}, err
	}
	if status < 200 || status >= 300 {
		return GenerateResponse{}, newUpstreamError(status, responseBody)
	}

	var parsed generateContentResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return GenerateResponse{}, ErrInvalidResponse
	}
	if len(parsed.Candidates) == 0 {
		return GenerateResponse{}, ErrInvalidResponse
	}

	parts := parsed.Candidates[0].Content.Parts
	if len(parts) == 0 || parts[0].Text == "" {
		return GenerateResponse{}, ErrNoContent
	}

	return GenerateResponse{Text: parts[0].Text, Model: model}, nil
}

func (p *GeminiProvider) ListModels(ctx context.Context) ([]Model, error) {
	if strings.TrimSpace(p.apiKey) == "" {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/models?key=%s", p.baseURL, url.QueryEscape(p.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	responseBody, status, err := p.do(httpReq)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, newUpstreamError(status, responseBody)
	}

	var parsed listModelsResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return nil, ErrInvalidResponse
	}

	models := make([]Model, 0, len(parsed.Models))
	for _, m := range parsed.Models {
		if m.SupportsGenerateContent() {
			models = append(models, m)
		}
	}
	return models, nil
}

func (p *GeminiProvider) do(req *http.Request) ([]byte, int, error) {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, 0, ErrTimeout
		}
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, 0, ErrTimeout
		}
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func newUpstreamError(status int, body []byte) *UpstreamError {
	var parsed errorResponse
	_ = json.Unmarshal(body, &parsed)
	return &UpstreamError{
		StatusCode: status,
		Message:    strings.TrimSpace(parsed.Error.Message),
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type listModelsResponse struct {
	Models []Model `json:"models"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
