package interfaces

import (
	"context"

	"github.com/ternarybob/hsi-mcp/internal/models"
)

// SummaryService condenses headlines into a short market summary
type SummaryService interface {
	// Summarize never fails: without a provider, or when generation errors,
	// it returns a keyword-based fallback.
	Summarize(ctx context.Context, headlines []models.Headline) string
}

// SymbolLookupService resolves a company name to an HKEX code
type SymbolLookupService interface {
	// Lookup returns nil, nil when the provider answered without a usable symbol.
	Lookup(ctx context.Context, companyName string) (*models.SymbolLookupResult, error)
}
