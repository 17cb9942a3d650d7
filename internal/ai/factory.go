package ai

import (
	"strings"

	"github.com/fdg312/fitgen/internal/config"
)

func NewProvider(cfg *config.Config) Provider {
	mode := strings.ToLower(strings.TrimSpace(cfg.AIMode))
	if mode == "" {
		mode = config.AIModeGemini
	}

	switch mode {
	case config.AIModeMock:
		return NewMockProvider(cfg.GeminiModels)
	default:
		return NewGeminiProvider(cfg)
	}
}
