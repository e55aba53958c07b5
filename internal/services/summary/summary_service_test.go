package summary

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hsi-mcp/internal/interfaces"
	"github.com/ternarybob/hsi-mcp/internal/models"
)

type stubGenerator struct {
	text   string
	err    error
	prompt string
	config interfaces.GenerationConfig
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string, config interfaces.GenerationConfig) (string, error) {
	g.prompt = prompt
	g.config = config
	return g.text, g.err
}

func (g *stubGenerator) Name() string {
	return "stub"
}

func headlines(texts ...string) []models.Headline {
	out := make([]models.Headline, 0, len(texts))
	for _, text := range texts {
		out = append(out, models.Headline{Headline: text})
	}
	return out
}

func TestFallbackSummary(t *testing.T) {
	tests := []struct {
		name      string
		headlines []models.Headline
		want      string
	}{
		{
			name:      "empty",
			headlines: nil,
			want:      NoHeadlinesSummary,
		},
		{
			name:      "no themes",
			headlines: headlines("Hang Seng Index closes flat"),
			want:      "Market news update covering 1 recent developments in Hong Kong financial markets.",
		},
		{
			name:      "mixed sentiment",
			headlines: headlines("Stocks fall", "Stocks climb"),
			want:      "Mixed market sentiment with both gains and losses reported. Summary based on 2 recent headlines.",
		},
		{
			name:      "gains with regions",
			headlines: headlines("Hang Seng Index rises on Beijing stimulus hopes"),
			want:      "Generally positive market sentiment with reported gains. International focus on China, US. Summary based on 1 recent headlines.",
		},
		{
			name:      "sector only",
			headlines: headlines("Oil prices steady"),
			want:      "Key activity in energy sectors. Summary based on 1 recent headlines.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FallbackSummary(tt.headlines))
		})
	}
}

func TestService_Summarize(t *testing.T) {
	input := headlines("Stocks fall", "Stocks climb")
	fallback := FallbackSummary(input)

	tests := []struct {
		name      string
		generator interfaces.TextGenerator
		want      string
	}{
		{
			name:      "provider answer trimmed",
			generator: &stubGenerator{text: "  Markets were mixed today.  \n"},
			want:      "Markets were mixed today.",
		},
		{
			name:      "provider error",
			generator: &stubGenerator{err: errors.New("quota exhausted")},
			want:      fallback,
		},
		{
			name:      "provider empty",
			generator: &stubGenerator{text: "   "},
			want:      fallback,
		},
		{
			name:      "no provider",
			generator: nil,
			want:      fallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewService(tt.generator, arbor.NewLogger())
			assert.Equal(t, tt.want, service.Summarize(context.Background(), input))
		})
	}
}

func TestService_SummarizeNoHeadlines(t *testing.T) {
	generator := &stubGenerator{text: "should not be used"}
	service := NewService(generator, arbor.NewLogger())

	assert.Equal(t, NoHeadlinesSummary, service.Summarize(context.Background(), nil))
	assert.Empty(t, generator.prompt)
}

func TestService_SummarizeSendsNumberedPrompt(t *testing.T) {
	generator := &stubGenerator{text: "ok"}
	service := NewService(generator, arbor.NewLogger())

	service.Summarize(context.Background(), headlines("First headline", "Second headline"))

	require.NotEmpty(t, generator.prompt)
	assert.Contains(t, generator.prompt, "Headlines:\n1. First headline\n2. Second headline\n\nSummary:")
	assert.Equal(t, interfaces.PurposeSummarization, generator.config.Purpose)
	assert.Equal(t, int32(200), generator.config.MaxOutputTokens)
	assert.False(t, generator.config.Grounded)
}
