// Package llm adapts Gemini and Claude to the TextGenerator interface.
package llm

import (
	"strings"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderClaude ProviderType = "claude"
)

var modelPrefixes = []string{"claude/", "anthropic/", "gemini/", "google/"}

// DetectProvider determines the provider from a model string, e.g.
// "claude-3-5-haiku-20241022", "anthropic/claude-3-5-haiku" or
// "gemini-2.0-flash". Unknown models return fallback.
func DetectProvider(model string, fallback ProviderType) ProviderType {
	model = strings.ToLower(strings.TrimSpace(model))

	switch {
	case strings.HasPrefix(model, "claude/"), strings.HasPrefix(model, "anthropic/"):
		return ProviderClaude
	case strings.HasPrefix(model, "gemini/"), strings.HasPrefix(model, "google/"):
		return ProviderGemini
	case strings.HasPrefix(model, "claude-"):
		return ProviderClaude
	case strings.HasPrefix(model, "gemini-"):
		return ProviderGemini
	}
	return fallback
}

// NormalizeModel removes a provider prefix from a model name
func NormalizeModel(model string) string {
	lower := strings.ToLower(model)
	for _, prefix := range modelPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return model[len(prefix):]
		}
	}
	return model
}
