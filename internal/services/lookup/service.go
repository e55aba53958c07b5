package lookup

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hsi-mcp/internal/interfaces"
	"github.com/ternarybob/hsi-mcp/internal/models"
)

// LookupConfig is the sampling preset for symbol lookups
var LookupConfig = interfaces.GenerationConfig{
	Purpose:         interfaces.PurposeLookup,
	Temperature:     0.1,
	TopP:            0.8,
	TopK:            10,
	MaxOutputTokens: 50,
}

const lookupPromptTemplate = `Find the Hong Kong Stock Exchange (HKEX) symbol and official company name for "%[1]s".

Examples:
- HSBC Holdings → Symbol: 00005, Company: HSBC Holdings Limited
- Hang Seng Bank → Symbol: 00011, Company: Hang Seng Bank Limited
- Tencent → Symbol: 00700, Company: Tencent Holdings Limited
- AIA Group → Symbol: 01299, Company: AIA Group Limited

Respond in this exact format: "Symbol: [5-digit code], Company: [official company name]"
If not found, respond "NOT_FOUND".

Company: %[1]s
Response:`

// Service resolves company names to stock codes.
// A grounded call is tried first; any failure or unusable answer falls back
// to a plain call with the same prompt.
type Service struct {
	generator interfaces.TextGenerator
	logger    arbor.ILogger
}

// NewService creates a lookup service
func NewService(generator interfaces.TextGenerator, logger arbor.ILogger) *Service {
	return &Service{generator: generator, logger: logger}
}

// BuildPrompt returns the lookup prompt for a company name
func BuildPrompt(companyName string) string {
	return fmt.Sprintf(lookupPromptTemplate, companyName)
}

// Lookup resolves companyName. It returns (nil, nil) when the provider
// answers but no symbol can be read from the answer, and an error wrapping
// models.ErrGeneration when the plain call itself fails.
func (s *Service) Lookup(ctx context.Context, companyName string) (*models.SymbolLookupResult, error) {
	companyName = strings.TrimSpace(companyName)
	if companyName == "" {
		return nil, nil
	}
	if s.generator == nil {
		return nil, models.ErrLookupUnavailable
	}

	prompt := BuildPrompt(companyName)

	grounded := LookupConfig
	grounded.Grounded = true
	if result := s.attempt(ctx, prompt, companyName, grounded); result != nil {
		return result, nil
	}

	text, err := s.generator.Generate(ctx, prompt, LookupConfig)
	if err != nil {
		s.logger.Error().Err(err).Str("company", companyName).Str("provider", s.generator.Name()).Msg("Fallback lookup failed")
		return nil, err
	}

	result := Interpret(text)
	if result == nil {
		s.logger.Warn().Str("company", companyName).Msg("Could not find stock symbol")
		return nil, nil
	}

	s.logger.Info().
		Str("company", companyName).
		Str("symbol", result.Symbol).
		Str("official_name", result.CompanyName).
		Msg("Fallback lookup successful")
	return result, nil
}

// attempt runs the grounded call and swallows its failures
func (s *Service) attempt(ctx context.Context, prompt, companyName string, config interfaces.GenerationConfig) *models.SymbolLookupResult {
	text, err := s.generator.Generate(ctx, prompt, config)
	if err != nil {
		s.logger.Warn().Err(err).Str("company", companyName).Msg("Grounded lookup failed")
		return nil
	}

	result := Interpret(text)
	if result == nil {
		s.logger.Debug().Str("company", companyName).Msg("Grounded lookup returned no usable symbol")
		return nil
	}

	s.logger.Info().
		Str("company", companyName).
		Str("symbol", result.Symbol).
		Str("official_name", result.CompanyName).
		Msg("Grounded lookup successful")
	return result
}
