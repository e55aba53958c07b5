package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hsi-mcp/internal/common"
	"github.com/ternarybob/hsi-mcp/internal/interfaces"
)

// SelectProvider returns the provider to use: the configured default when
// it has credentials, otherwise any provider that does. ok is false when
// no provider is configured.
func SelectProvider(cfg *common.Config) (provider ProviderType, ok bool) {
	available := map[ProviderType]bool{
		ProviderGemini: cfg.HasGemini(),
		ProviderClaude: cfg.HasClaude(),
	}

	preferred := ProviderType(cfg.LLM.DefaultProvider)
	if available[preferred] {
		return preferred, true
	}
	for _, candidate := range []ProviderType{ProviderGemini, ProviderClaude} {
		if available[candidate] {
			return candidate, true
		}
	}
	return "", false
}

// NewGenerator creates the text generator for the configured provider.
// It returns a nil generator and no error when no provider has credentials;
// summaries then use the keyword fallback and company lookups are unavailable.
func NewGenerator(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (interfaces.TextGenerator, error) {
	provider, ok := SelectProvider(cfg)
	if !ok {
		logger.Warn().Msg("No AI provider configured, summaries use keyword fallback and company lookup is disabled")
		return nil, nil
	}

	if preferred := ProviderType(cfg.LLM.DefaultProvider); preferred != provider {
		logger.Info().
			Str("preferred", string(preferred)).
			Str("provider", string(provider)).
			Msg("Default AI provider has no credentials, using alternative")
	}

	switch provider {
	case ProviderClaude:
		generator, err := NewClaudeGenerator(cfg.Claude, logger)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("generator", generator.Name()).Msg("AI provider initialized")
		return generator, nil
	case ProviderGemini:
		generator, err := NewGeminiGenerator(ctx, cfg.Gemini, logger)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("generator", generator.Name()).Msg("AI provider initialized")
		return generator, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", provider)
	}
}
