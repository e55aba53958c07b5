package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hsi-mcp/internal/common"
	"github.com/ternarybob/hsi-mcp/internal/interfaces"
	"github.com/ternarybob/hsi-mcp/internal/models"
)

const (
	defaultClaudeTimeout   = 30 * time.Second
	defaultClaudeMaxTokens = 1024
)

// errGroundingUnsupported is returned for grounded requests; callers fall
// back to a plain call
var errGroundingUnsupported = fmt.Errorf("%w: claude does not support search grounding", models.ErrGeneration)

// ClaudeGenerator implements interfaces.TextGenerator with Anthropic Claude
type ClaudeGenerator struct {
	config  common.ClaudeConfig
	client  anthropic.Client
	timeout time.Duration
	retry   *RetryConfig
	logger  arbor.ILogger
}

var _ interfaces.TextGenerator = (*ClaudeGenerator)(nil)

// NewClaudeGenerator creates a Claude client
func NewClaudeGenerator(config common.ClaudeConfig, logger arbor.ILogger) (*ClaudeGenerator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("claude requires an API key")
	}

	return &ClaudeGenerator{
		config:  config,
		client:  anthropic.NewClient(option.WithAPIKey(config.APIKey)),
		timeout: common.ParseDuration(config.Timeout, defaultClaudeTimeout),
		retry:   NewDefaultRetryConfig(),
		logger:  logger,
	}, nil
}

// Name identifies the provider and model
func (c *ClaudeGenerator) Name() string {
	return fmt.Sprintf("%s/%s", ProviderClaude, c.config.Model)
}

// Generate produces text for a prompt
func (c *ClaudeGenerator) Generate(ctx context.Context, prompt string, config interfaces.GenerationConfig) (string, error) {
	if config.Grounded {
		return "", errGroundingUnsupported
	}

	params := buildClaudeParams(NormalizeModel(c.config.Model), prompt, config)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	var resp *anthropic.Message
	err := c.retry.Do(callCtx, c.logger, string(ProviderClaude), func() error {
		var apiErr error
		resp, apiErr = c.client.Messages.New(callCtx, params)
		return apiErr
	})
	if err != nil {
		return "", fmt.Errorf("%w: claude %s: %v", models.ErrGeneration, params.Model, err)
	}

	text := claudeResponseText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: empty response from claude %s", models.ErrGeneration, params.Model)
	}

	c.logger.Debug().
		Str("model", string(params.Model)).
		Str("purpose", string(config.Purpose)).
		Dur("elapsed", time.Since(start)).
		Int("chars", len(text)).
		Msg("Claude generation complete")
	return text, nil
}

func buildClaudeParams(model, prompt string, config interfaces.GenerationConfig) anthropic.MessageNewParams {
	maxTokens := int64(config.MaxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = defaultClaudeMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(float64(config.Temperature)),
	}
	if config.TopK > 0 {
		params.TopK = anthropic.Int(int64(config.TopK))
	}
	return params
}

func claudeResponseText(resp *anthropic.Message) string {
	if resp == nil {
		return ""
	}
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(text.String())
}
