// Package summary condenses news headlines into a short market summary.
package summary

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hsi-mcp/internal/interfaces"
	"github.com/ternarybob/hsi-mcp/internal/models"
)

// NoHeadlinesSummary is returned when there is nothing to summarize
const NoHeadlinesSummary = "No headlines available for summarization."

// SummarizationConfig is the sampling preset for headline summaries
var SummarizationConfig = interfaces.GenerationConfig{
	Purpose:         interfaces.PurposeSummarization,
	Temperature:     0.3,
	TopP:            0.8,
	TopK:            40,
	MaxOutputTokens: 200,
}

const summarizationPromptTemplate = `Analyze the following Hong Kong stock market news headlines and provide a brief paragraph summary (2-3 sentences) that captures the key market themes and sentiment. Focus on major trends, market movements, and significant developments that may impact the Hang Seng Index.

Headlines:
%s

Summary:`

type theme struct {
	name  string
	terms []string
}

// Themes in tie-break order
var themes = []theme{
	{name: "gain", terms: []string{"gain", "rise", "up", "higher", "surge", "rally", "climb"}},
	{name: "loss", terms: []string{"fall", "drop", "down", "lower", "decline", "tumble", "slide"}},
	{name: "tech", terms: []string{"tech", "technology", "ai", "semiconductor", "chip"}},
	{name: "finance", terms: []string{"bank", "financial", "finance", "credit"}},
	{name: "energy", terms: []string{"oil", "energy", "gas", "petrochemical"}},
	{name: "china", terms: []string{"china", "chinese", "mainland", "beijing"}},
	{name: "us", terms: []string{"us", "america", "american", "fed", "federal"}},
}

// Service produces headline summaries with an AI provider, degrading to a
// keyword-count summary when the provider is missing, fails or answers empty.
type Service struct {
	generator interfaces.TextGenerator
	logger    arbor.ILogger
}

// NewService creates a summary service. generator may be nil.
func NewService(generator interfaces.TextGenerator, logger arbor.ILogger) *Service {
	return &Service{generator: generator, logger: logger}
}

// Summarize returns a 2-3 sentence summary of headlines
func (s *Service) Summarize(ctx context.Context, headlines []models.Headline) string {
	if len(headlines) == 0 {
		return NoHeadlinesSummary
	}
	if s.generator == nil {
		s.logger.Debug().Int("headlines", len(headlines)).Msg("No AI provider configured, using keyword summary")
		return FallbackSummary(headlines)
	}

	prompt := BuildPrompt(headlines)
	text, err := s.generator.Generate(ctx, prompt, SummarizationConfig)
	if err != nil {
		s.logger.Error().Err(err).Str("provider", s.generator.Name()).Msg("Error generating summary")
		return FallbackSummary(headlines)
	}

	summary := strings.TrimSpace(text)
	if summary == "" {
		s.logger.Warn().Str("provider", s.generator.Name()).Msg("Provider returned empty summary")
		return FallbackSummary(headlines)
	}

	s.logger.Debug().Int("headlines", len(headlines)).Msg("Generated AI summary")
	return summary
}

// BuildPrompt numbers the headlines into the summarization prompt
func BuildPrompt(headlines []models.Headline) string {
	lines := make([]string, 0, len(headlines))
	for i, h := range headlines {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, h.Headline))
	}
	return fmt.Sprintf(summarizationPromptTemplate, strings.Join(lines, "\n"))
}

// FallbackSummary builds a summary from keyword counts across the headlines
func FallbackSummary(headlines []models.Headline) string {
	if len(headlines) == 0 {
		return NoHeadlinesSummary
	}

	texts := make([]string, 0, len(headlines))
	for _, h := range headlines {
		texts = append(texts, strings.ToLower(h.Headline))
	}
	corpus := strings.Join(texts, " ")

	type themeCount struct {
		name  string
		count int
	}
	var counts []themeCount
	for _, th := range themes {
		count := 0
		for _, term := range th.terms {
			count += strings.Count(corpus, term)
		}
		if count > 0 {
			counts = append(counts, themeCount{name: th.name, count: count})
		}
	}

	if len(counts) == 0 {
		return fmt.Sprintf("Market news update covering %d recent developments in Hong Kong financial markets.", len(headlines))
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].count > counts[j].count
	})
	if len(counts) > 3 {
		counts = counts[:3]
	}

	top := make(map[string]bool, len(counts))
	for _, c := range counts {
		top[c.name] = true
	}

	var parts []string
	switch {
	case top["gain"] && top["loss"]:
		parts = append(parts, "Mixed market sentiment with both gains and losses reported")
	case top["gain"]:
		parts = append(parts, "Generally positive market sentiment with reported gains")
	case top["loss"]:
		parts = append(parts, "Market showing decline with reported losses")
	}

	var sectors, regions []string
	for _, c := range counts {
		switch c.name {
		case "tech", "finance", "energy":
			sectors = append(sectors, c.name)
		case "us":
			regions = append(regions, "US")
		case "china":
			regions = append(regions, "China")
		}
	}
	if len(sectors) > 0 {
		parts = append(parts, fmt.Sprintf("Key activity in %s sectors", strings.Join(sectors, ", ")))
	}
	if len(regions) > 0 {
		parts = append(parts, fmt.Sprintf("International focus on %s", strings.Join(regions, ", ")))
	}

	if len(parts) == 0 {
		return fmt.Sprintf("Market update covering %d recent developments across Hong Kong financial markets.", len(headlines))
	}
	return fmt.Sprintf("%s. Summary based on %d recent headlines.", strings.Join(parts, ". "), len(headlines))
}
