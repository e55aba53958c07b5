package interfaces

import (
	"context"
)

// GenerationPurpose selects the model tier a provider should use
type GenerationPurpose string

const (
	PurposeDefault       GenerationPurpose = "default"
	PurposeSummarization GenerationPurpose = "summarization"
	PurposeLookup        GenerationPurpose = "lookup"
)

// GenerationConfig holds sampling parameters for one generation call
type GenerationConfig struct {
	Purpose         GenerationPurpose
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32

	// Grounded requests web-search grounding. Providers without grounding
	// support return an error so callers fall back to a plain call.
	Grounded bool
}

// TextGenerator produces free text from a prompt.
// Failures wrap models.ErrGeneration.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, config GenerationConfig) (string, error)

	// Name identifies the provider and model in logs
	Name() string
}
