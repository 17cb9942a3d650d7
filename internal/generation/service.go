package generation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/fdg312/fitgen/internal/ai"
	"github.com/fdg312/fitgen/internal/config"
	"github.com/fdg312/fitgen/internal/logging"
	"github.com/fdg312/fitgen/internal/metrics"
)

const rawLogLimit = 200

// Service runs prompts through the model and turns replies into typed payloads.
type Service struct {
	provider   ai.Provider
	configured bool
	logger     zerolog.Logger

	// cache and group are nil when duplicate suppression is disabled.
	cache *expirable.LRU[string, any]
	group *singleflight.Group
}

func NewService(cfg *config.Config, provider ai.Provider, logger zerolog.Logger) *Service {
	s := &Service{
		provider:   provider,
		configured: cfg.AICredentialConfigured(),
		logger:     logger.With().Str("component", "generation").Logger(),
	}
	if cfg.IdempotencyTTLSeconds > 0 {
		size := cfg.IdempotencyCacheSize
		if size <= 0 {
			size = 256
		}
		s.cache = expirable.NewLRU[string, any](size, nil, time.Duration(cfg.IdempotencyTTLSeconds)*time.Second)
		s.group = &singleflight.Group{}
	}
	return s
}

// Configured reports whether a model credential is available.
func (s *Service) Configured() bool {
	return s.configured
}

// Generate validates req, asks the model for content and returns the decoded payload.
// Identical requests arriving within the cache TTL share one upstream call.
func Generate[R any, T any](ctx context.Context, s *Service, d Descriptor[R, T], req R) (T, error) {
	var zero T

	if !s.configured {
		return zero, ai.ErrNotConfigured
	}
	if err := d.Validate(req); err != nil {
		metrics.RecordGeneration(d.Kind, outcome(err))
		return zero, err
	}

	prompt := d.Render(req)

	if s.cache == nil {
		v, err := run(ctx, s, d, prompt)
		metrics.RecordGeneration(d.Kind, outcome(err))
		return v, err
	}

	key := cacheKey(d.Kind, prompt)
	if cached, ok := s.cache.Get(key); ok {
		if v, ok := cached.(T); ok {
			metrics.RecordCacheHit(d.Kind)
			metrics.RecordGeneration(d.Kind, "ok")
			return v, nil
		}
	}

	// The shared call outlives any single caller; the provider still enforces its own timeout.
	shared := context.WithoutCancel(ctx)
	res, err, _ := s.group.Do(key, func() (any, error) {
		v, err := run(shared, s, d, prompt)
		if err != nil {
			return nil, err
		}
		s.cache.Add(key, v)
		return v, nil
	})
	metrics.RecordGeneration(d.Kind, outcome(err))
	if err != nil {
		return zero, err
	}

	v, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("generation: unexpected cached type %T", res)
	}
	return v, nil
}

func run[R any, T any](ctx context.Context, s *Service, d Descriptor[R, T], prompt string) (T, error) {
	var zero T
	logger := s.logger.With().Str("kind", d.Kind).Logger()
	if reqLogger := zerolog.Ctx(ctx); reqLogger.GetLevel() != zerolog.Disabled {
		logger = reqLogger.With().Str("component", "generation").Str("kind", d.Kind).Logger()
	}

	start := time.Now()
	resp, err := s.provider.Generate(ctx, ai.GenerateRequest{Prompt: prompt})
	metrics.ObserveUpstream(d.Kind, time.Since(start))
	if err != nil {
		logger.Error().Err(err).Dur("upstream", time.Since(start)).Msg("model call failed")
		return zero, err
	}
	logger.Debug().Str("model", resp.Model).Dur("upstream", time.Since(start)).Msg("received model reply")

	cleaned := Sanitize(resp.Text)
	raw := []byte(cleaned)

	if !json.Valid(raw) {
		logger.Warn().Str("raw", logging.Truncate(cleaned, rawLogLimit)).Msg("model output is not valid json")
		return zero, ErrMalformedOutput
	}
	if !d.Shape(raw) {
		logger.Warn().Str("raw", logging.Truncate(cleaned, rawLogLimit)).Msg("model output failed shape check")
		return zero, ErrInvalidStructure
	}

	v, err := d.Decode(raw)
	if err != nil {
		logger.Warn().Err(err).Str("raw", logging.Truncate(cleaned, rawLogLimit)).Msg("model output failed validation")
		return zero, fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}
	return v, nil
}

func cacheKey(kind, prompt string) string {
	sum := sha256.Sum256([]byte(kind + "\x00" + prompt))
	return hex.EncodeToString(sum[:])
}
