package generativeAI

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/go-sg-itinerary-curator/config"
)

// NewProposer returns the provider selected by cfg.Provider.
func NewProposer(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (Proposer, error) {
	l := logger.With(slog.String("component", "llm"), slog.String("provider", cfg.Provider))
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		return NewGeminiProposer(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL, l)
	case "openai":
		return NewOpenAIProposer(cfg.APIKey, cfg.Model, cfg.BaseURL, l)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
