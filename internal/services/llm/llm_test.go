package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/hsi-mcp/internal/common"
	"github.com/ternarybob/hsi-mcp/internal/interfaces"
	"github.com/ternarybob/hsi-mcp/internal/models"
)

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		model string
		want  ProviderType
	}{
		{"claude-3-5-haiku-20241022", ProviderClaude},
		{"anthropic/claude-3-5-haiku", ProviderClaude},
		{"Claude/claude-sonnet-4", ProviderClaude},
		{"gemini-2.0-flash", ProviderGemini},
		{"google/gemini-2.0-flash", ProviderGemini},
		{"gpt-4o", ProviderGemini},
		{"", ProviderGemini},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectProvider(tt.model, ProviderGemini))
		})
	}
}

func TestNormalizeModel(t *testing.T) {
	assert.Equal(t, "gemini-2.0-flash", NormalizeModel("google/gemini-2.0-flash"))
	assert.Equal(t, "claude-3-5-haiku", NormalizeModel("Anthropic/claude-3-5-haiku"))
	assert.Equal(t, "gemini-2.0-flash", NormalizeModel("gemini-2.0-flash"))
}

func TestSelectProvider(t *testing.T) {
	tests := []struct {
		name      string
		preferred string
		gemini    string
		claude    string
		want      ProviderType
		wantOK    bool
	}{
		{name: "preferred gemini available", preferred: "gemini", gemini: "g", claude: "c", want: ProviderGemini, wantOK: true},
		{name: "preferred claude available", preferred: "claude", gemini: "g", claude: "c", want: ProviderClaude, wantOK: true},
		{name: "preferred missing falls back", preferred: "claude", gemini: "g", want: ProviderGemini, wantOK: true},
		{name: "only claude", preferred: "gemini", claude: "c", want: ProviderClaude, wantOK: true},
		{name: "none", preferred: "gemini", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := common.NewDefaultConfig()
			cfg.LLM.DefaultProvider = tt.preferred
			cfg.Gemini.APIKey = tt.gemini
			cfg.Claude.APIKey = tt.claude

			got, ok := SelectProvider(cfg)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSelectProvider_VertexProject(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Gemini.Project = "hsi-project"

	got, ok := SelectProvider(cfg)
	require.True(t, ok)
	assert.Equal(t, ProviderGemini, got)
}

func TestNewGenerator_NoCredentials(t *testing.T) {
	cfg := common.NewDefaultConfig()

	generator, err := NewGenerator(context.Background(), cfg, arbor.NewLogger())
	require.NoError(t, err)
	assert.Nil(t, generator)
}

func TestNewGenerator_Claude(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.LLM.DefaultProvider = "claude"
	cfg.Claude.APIKey = "test-key"

	generator, err := NewGenerator(context.Background(), cfg, arbor.NewLogger())
	require.NoError(t, err)
	require.NotNil(t, generator)
	assert.Equal(t, "claude/claude-3-5-haiku-20241022", generator.Name())
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, IsRateLimitError(errors.New("Error 429, Message: too many requests")))
	assert.True(t, IsRateLimitError(errors.New("Status: RESOURCE_EXHAUSTED")))
	assert.True(t, IsRateLimitError(errors.New("Quota exceeded for metric")))
	assert.False(t, IsRateLimitError(errors.New("invalid argument")))
	assert.False(t, IsRateLimitError(nil))
}

func TestExtractRetryDelay(t *testing.T) {
	err := errors.New("Error 429, Message: Please retry in 4.5s., Status: RESOURCE_EXHAUSTED")
	assert.Equal(t, 4500*time.Millisecond, ExtractRetryDelay(err))
	assert.Equal(t, 3*time.Second, ExtractRetryDelay(errors.New("retryDelay: 3s")))
	assert.Zero(t, ExtractRetryDelay(errors.New("no hint")))
	assert.Zero(t, ExtractRetryDelay(nil))
}

func TestRetryConfig_CalculateBackoff(t *testing.T) {
	cfg := NewDefaultRetryConfig()

	assert.Equal(t, 2*time.Second, cfg.CalculateBackoff(0, 0))
	assert.Equal(t, 3*time.Second, cfg.CalculateBackoff(1, 0))
	assert.Equal(t, 4*time.Second, cfg.CalculateBackoff(0, 3500*time.Millisecond))
	assert.Equal(t, cfg.MaxBackoff, cfg.CalculateBackoff(5, 0))
}

func TestRetryConfig_Do(t *testing.T) {
	cfg := &RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2,
	}
	logger := arbor.NewLogger()

	t.Run("retries rate limits until success", func(t *testing.T) {
		calls := 0
		err := cfg.Do(context.Background(), logger, "test", func() error {
			calls++
			if calls < 3 {
				return errors.New("Error 429")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := cfg.Do(context.Background(), logger, "test", func() error {
			calls++
			return errors.New("RESOURCE_EXHAUSTED")
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		calls := 0
		err := cfg.Do(context.Background(), logger, "test", func() error {
			calls++
			return errors.New("invalid model")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestGeminiGenerator_ModelFor(t *testing.T) {
	g := &GeminiGenerator{config: common.GeminiConfig{
		Model:              "gemini/gemini-default",
		SummarizationModel: "gemini-summary",
		GroundingModel:     "gemini-grounded",
	}}

	assert.Equal(t, "gemini-default", g.modelFor(interfaces.GenerationConfig{Purpose: interfaces.PurposeDefault}))
	assert.Equal(t, "gemini-summary", g.modelFor(interfaces.GenerationConfig{Purpose: interfaces.PurposeSummarization}))
	assert.Equal(t, "gemini-grounded", g.modelFor(interfaces.GenerationConfig{Purpose: interfaces.PurposeLookup, Grounded: true}))
	assert.Equal(t, "gemini-default", g.modelFor(interfaces.GenerationConfig{Purpose: interfaces.PurposeLookup}))
}

func TestBuildGeminiConfig(t *testing.T) {
	cfg := buildGeminiConfig(interfaces.GenerationConfig{
		Temperature:     0.1,
		TopP:            0.8,
		TopK:            10,
		MaxOutputTokens: 50,
		Grounded:        true,
	})

	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.1, *cfg.Temperature, 1e-6)
	require.NotNil(t, cfg.TopP)
	assert.InDelta(t, 0.8, *cfg.TopP, 1e-6)
	require.NotNil(t, cfg.TopK)
	assert.InDelta(t, 10, *cfg.TopK, 1e-6)
	assert.Equal(t, int32(50), cfg.MaxOutputTokens)
	require.Len(t, cfg.Tools, 1)
	assert.NotNil(t, cfg.Tools[0].GoogleSearch)

	plain := buildGeminiConfig(interfaces.GenerationConfig{Temperature: 0.3})
	assert.Nil(t, plain.TopP)
	assert.Nil(t, plain.TopK)
	assert.Empty(t, plain.Tools)
}

func TestGeminiResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "Symbol: 00005, "},
				{Text: "Company: HSBC Holdings\n"},
			}},
		}},
	}
	assert.Equal(t, "Symbol: 00005, Company: HSBC Holdings", geminiResponseText(resp))
	assert.Empty(t, geminiResponseText(&genai.GenerateContentResponse{}))
	assert.Empty(t, geminiResponseText(nil))
}

func TestClaudeGenerator_GroundedUnsupported(t *testing.T) {
	c := &ClaudeGenerator{
		config: common.ClaudeConfig{Model: "claude-3-5-haiku-20241022"},
		retry:  NewDefaultRetryConfig(),
		logger: arbor.NewLogger(),
	}

	_, err := c.Generate(context.Background(), "prompt", interfaces.GenerationConfig{Grounded: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrGeneration))
}

func TestBuildClaudeParams(t *testing.T) {
	params := buildClaudeParams("claude-3-5-haiku-20241022", "hello", interfaces.GenerationConfig{
		Temperature:     0.3,
		TopK:            40,
		MaxOutputTokens: 200,
	})
	assert.Equal(t, anthropic.Model("claude-3-5-haiku-20241022"), params.Model)
	assert.Equal(t, int64(200), params.MaxTokens)
	assert.Len(t, params.Messages, 1)

	defaults := buildClaudeParams("claude-3-5-haiku-20241022", "hello", interfaces.GenerationConfig{})
	assert.Equal(t, int64(defaultClaudeMaxTokens), defaults.MaxTokens)
}

func TestClaudeResponseText(t *testing.T) {
	resp := &anthropic.Message{Content: []anthropic.ContentBlockUnion{
		{Type: "text", Text: " Tencent "},
	}}
	assert.Equal(t, "Tencent", claudeResponseText(resp))
	assert.Empty(t, claudeResponseText(nil))
}
