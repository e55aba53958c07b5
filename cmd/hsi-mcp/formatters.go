package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ternarybob/hsi-mcp/internal/models"
	"github.com/ternarybob/hsi-mcp/internal/services/market"
)

// formatResponse renders a tool envelope as indented JSON
func formatResponse(resp models.ToolResponse) string {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		fallback, _ := json.MarshalIndent(models.Failed(fmt.Sprintf("Failed to encode response: %v", err)), "", "  ")
		return string(fallback)
	}
	return string(data)
}

// quoteErrorMessage maps a quote failure to the message returned to clients
func quoteErrorMessage(input string, err error) string {
	var lookupErr *market.LookupError
	switch {
	case errors.Is(err, models.ErrSymbolNotFound):
		return fmt.Sprintf("Could not find Hong Kong stock symbol for company: %s", input)
	case errors.As(err, &lookupErr):
		return fmt.Sprintf("Failed to lookup stock symbol for company '%s': %v", lookupErr.Company, lookupErr.Err)
	default:
		return fmt.Sprintf("Failed to retrieve stock quote: %v", err)
	}
}
