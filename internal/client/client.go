// Package client calls the generation gateways over HTTP and unwraps their envelopes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/fdg312/fitgen/internal/generation"
)

const (
	SubsystemMealPlan     = "Meal Plan API"
	SubsystemWorkout      = "Workout API"
	SubsystemWorkoutSplit = "Workout Split API"
	SubsystemHealth       = "Health API"

	DefaultMaxAttempts = 3
	DefaultBackoffBase = 2 * time.Second

	DevelopmentBaseURL = "http://localhost:3001/api"
	ProductionBaseURL  = "/api"
)

// ErrMaxRetries is wrapped when every attempt was rate limited.
var ErrMaxRetries = errors.New("max retries reached")

// APIError carries the gateway's message annotated with the calling subsystem.
type APIError struct {
	Subsystem  string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Subsystem, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// ResolveBaseURL picks the gateway base URL: an explicit override wins, then the
// local development gateway, then the same-origin path.
func ResolveBaseURL(override string, development bool) string {
	if v := strings.TrimSpace(override); v != "" {
		return strings.TrimRight(v, "/")
	}
	if development {
		return DevelopmentBaseURL
	}
	return ProductionBaseURL
}

type Client struct {
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
	backoffBase time.Duration
	token       string
	logger      zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry sets the total attempt budget and the first backoff delay; later delays double.
func WithRetry(maxAttempts int, base time.Duration) Option {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if base > 0 {
			c.backoffBase = base
		}
	}
}

// WithToken sends a bearer token issued by the auth provider.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{},
		maxAttempts: DefaultMaxAttempts,
		backoffBase: DefaultBackoffBase,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) GenerateMealPlan(ctx context.Context, prompt string) (generation.WeeklyMealPlan, error) {
	req := generation.MealPlanRequest{Prompt: prompt}
	if err := req.Validate(); err != nil {
		return nil, &APIError{Subsystem: SubsystemMealPlan, Message: "Prompt is required", Err: err}
	}
	return postGeneration[generation.WeeklyMealPlan](ctx, c, SubsystemMealPlan, "/generate-meal-plan", generation.KindMealPlan, req)
}

func (c *Client) GenerateWorkout(ctx context.Context, req generation.WorkoutRequest) (generation.WorkoutPlan, error) {
	if err := req.Validate(); err != nil {
		return generation.WorkoutPlan{}, &APIError{Subsystem: SubsystemWorkout, Message: validationMessage(err), Err: err}
	}
	return postGeneration[generation.WorkoutPlan](ctx, c, SubsystemWorkout, "/generate-workout", generation.KindWorkoutPlan, req)
}

func (c *Client) GenerateWorkoutSplit(ctx context.Context, req generation.WorkoutSplitRequest) (generation.WorkoutSplit, error) {
	if err := req.Validate(); err != nil {
		return generation.WorkoutSplit{}, &APIError{Subsystem: SubsystemWorkoutSplit, Message: validationMessage(err), Err: err}
	}
	return postGeneration[generation.WorkoutSplit](ctx, c, SubsystemWorkoutSplit, "/generate-workout-split", generation.KindWorkoutSplit, req)
}

type HealthResponse struct {
	Status          string    `json:"status"`
	Message         string    `json:"message"`
	Timestamp       time.Time `json:"timestamp"`
	AvailableModels []string  `json:"availableModels"`
}

func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	body, err := c.do(ctx, SubsystemHealth, http.MethodGet, "/health", nil)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, &APIError{Subsystem: SubsystemHealth, Message: "invalid health response", Err: err}
	}
	return out, nil
}

func validationMessage(err error) string {
	var v *generation.ValidationError
	if errors.As(err, &v) && v.Message != "" {
		return v.Message
	}
	return "All parameters are required"
}

func postGeneration[T any](ctx context.Context, c *Client, subsystem, path, payloadKey string, payload any) (T, error) {
	var zero T

	body, err := c.do(ctx, subsystem, http.MethodPost, path, payload)
	if err != nil {
		return zero, err
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return zero, &APIError{Subsystem: subsystem, StatusCode: http.StatusOK, Message: "invalid response envelope", Err: err}
	}

	var success bool
	_ = json.Unmarshal(envelope["success"], &success)
	raw, ok := envelope[payloadKey]
	if !success || !ok {
		msg := errorMessage(envelope)
		if msg == "" {
			msg = "Failed to generate " + payloadKey
		}
		return zero, &APIError{Subsystem: subsystem, StatusCode: http.StatusOK, Message: msg}
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, &APIError{Subsystem: subsystem, StatusCode: http.StatusOK, Message: "invalid " + payloadKey + " payload", Err: err}
	}
	return out, nil
}

// do sends one logical request, retrying only on 429 with exponential backoff.
func (c *Client) do(ctx context.Context, subsystem, method, path string, payload any) ([]byte, error) {
	var encoded []byte
	if payload != nil {
		var err error
		encoded, err = json.Marshal(payload)
		if err != nil {
			return nil, &APIError{Subsystem: subsystem, Message: err.Error(), Err: err}
		}
	}

	backoff := retry.WithMaxRetries(uint64(c.maxAttempts-1), retry.NewExponential(c.backoffBase))

	var body []byte
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		var reader io.Reader
		if encoded != nil {
			reader = bytes.NewReader(encoded)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return &APIError{Subsystem: subsystem, Message: err.Error(), Err: err}
		}
		if encoded != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &APIError{Subsystem: subsystem, Message: err.Error(), Err: err}
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return &APIError{Subsystem: subsystem, StatusCode: resp.StatusCode, Message: err.Error(), Err: err}
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			c.logger.Warn().Str("subsystem", subsystem).Int("attempt", attempt).Int("max_attempts", c.maxAttempts).Msg("rate limited, backing off")
			return retry.RetryableError(&APIError{Subsystem: subsystem, StatusCode: resp.StatusCode, Message: bodyMessage(respBody, resp.StatusCode)})
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &APIError{Subsystem: subsystem, StatusCode: resp.StatusCode, Message: bodyMessage(respBody, resp.StatusCode)}
		}

		body = respBody
		return nil
	})
	if err == nil {
		return body, nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return nil, &APIError{
			Subsystem:  subsystem,
			StatusCode: http.StatusTooManyRequests,
			Message:    "Max retries reached. Please try again later.",
			Err:        fmt.Errorf("%w after %d attempts: %s", ErrMaxRetries, attempt, apiErr.Message),
		}
	}
	if apiErr != nil {
		return nil, apiErr
	}
	return nil, &APIError{Subsystem: subsystem, Message: err.Error(), Err: err}
}

func bodyMessage(body []byte, status int) string {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err == nil {
		if msg := errorMessage(envelope); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("Server error: %d", status)
}

func errorMessage(envelope map[string]json.RawMessage) string {
	raw, ok := envelope["error"]
	if !ok {
		return ""
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ""
	}
	return msg
}
