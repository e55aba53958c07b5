package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/hsi-mcp/internal/common"
	"github.com/ternarybob/hsi-mcp/internal/interfaces"
	"github.com/ternarybob/hsi-mcp/internal/models"
)

const defaultGeminiTimeout = 30 * time.Second

// GeminiGenerator implements interfaces.TextGenerator with Google Gemini.
// Grounded calls attach the Google Search tool and use the grounding model.
type GeminiGenerator struct {
	config  common.GeminiConfig
	client  *genai.Client
	timeout time.Duration
	retry   *RetryConfig
	logger  arbor.ILogger
}

var _ interfaces.TextGenerator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a Gemini client. An API key selects the Gemini
// API backend; otherwise a project selects Vertex AI.
func NewGeminiGenerator(ctx context.Context, config common.GeminiConfig, logger arbor.ILogger) (*GeminiGenerator, error) {
	clientConfig := &genai.ClientConfig{}
	switch {
	case config.APIKey != "":
		clientConfig.APIKey = config.APIKey
		clientConfig.Backend = genai.BackendGeminiAPI
	case config.Project != "":
		clientConfig.Project = config.Project
		clientConfig.Location = config.Location
		clientConfig.Backend = genai.BackendVertexAI
	default:
		return nil, fmt.Errorf("gemini requires an API key or a project")
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	retry := NewDefaultRetryConfig()
	retry.MaxRetries = config.MaxRetries

	return &GeminiGenerator{
		config:  config,
		client:  client,
		timeout: common.ParseDuration(config.Timeout, defaultGeminiTimeout),
		retry:   retry,
		logger:  logger,
	}, nil
}

// Name identifies the provider and default model
func (g *GeminiGenerator) Name() string {
	return fmt.Sprintf("%s/%s", ProviderGemini, g.config.Model)
}

// Generate produces text for a prompt
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, config interfaces.GenerationConfig) (string, error) {
	model := g.modelFor(config)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	genConfig := buildGeminiConfig(config)

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	var resp *genai.GenerateContentResponse
	err := g.retry.Do(callCtx, g.logger, string(ProviderGemini), func() error {
		var apiErr error
		resp, apiErr = g.client.Models.GenerateContent(callCtx, model, contents, genConfig)
		return apiErr
	})
	if err != nil {
		return "", fmt.Errorf("%w: gemini %s: %v", models.ErrGeneration, model, err)
	}

	if config.Grounded {
		logGroundingQueries(g.logger, resp)
	}

	text := geminiResponseText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: empty response from gemini %s", models.ErrGeneration, model)
	}

	g.logger.Debug().
		Str("model", model).
		Str("purpose", string(config.Purpose)).
		Bool("grounded", config.Grounded).
		Dur("elapsed", time.Since(start)).
		Int("chars", len(text)).
		Msg("Gemini generation complete")
	return text, nil
}

// modelFor picks the grounding model for grounded calls, the summarization
// model for summaries, and the default model otherwise
func (g *GeminiGenerator) modelFor(config interfaces.GenerationConfig) string {
	switch {
	case config.Grounded && g.config.GroundingModel != "":
		return NormalizeModel(g.config.GroundingModel)
	case config.Purpose == interfaces.PurposeSummarization && g.config.SummarizationModel != "":
		return NormalizeModel(g.config.SummarizationModel)
	default:
		return NormalizeModel(g.config.Model)
	}
}

func buildGeminiConfig(config interfaces.GenerationConfig) *genai.GenerateContentConfig {
	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(config.Temperature),
	}
	if config.TopP > 0 {
		genConfig.TopP = genai.Ptr(config.TopP)
	}
	if config.TopK > 0 {
		genConfig.TopK = genai.Ptr(config.TopK)
	}
	if config.MaxOutputTokens > 0 {
		genConfig.MaxOutputTokens = config.MaxOutputTokens
	}
	if config.Grounded {
		genConfig.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return genConfig
}

// geminiResponseText concatenates the text parts of the first candidate
func geminiResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(text.String())
}

func logGroundingQueries(logger arbor.ILogger, resp *genai.GenerateContentResponse) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return
	}
	gm := resp.Candidates[0].GroundingMetadata
	logger.Debug().
		Str("queries", strings.Join(gm.WebSearchQueries, "; ")).
		Int("sources", len(gm.GroundingChunks)).
		Msg("Grounded search used")
}
