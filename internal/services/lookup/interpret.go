// Package lookup resolves company names to HKEX stock codes with an AI provider.
package lookup

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/hsi-mcp/internal/models"
	"github.com/ternarybob/hsi-mcp/internal/services/extract"
)

const notFoundMarker = "NOT_FOUND"

var (
	structuredAnswerPattern = regexp.MustCompile(`(?i)Symbol:\s*(\d{1,5}),\s*Company:\s*(.+)`)

	// Fallback scans, tried in order
	bareSymbolPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(\d{5})\b`),
		regexp.MustCompile(`\b(\d{1,4})\b`),
		regexp.MustCompile(`(?i)\b(\d{1,5})\.HK\b`),
	}
)

// Interpret normalizes free AI text into a lookup result.
// It returns nil for empty text, an explicit NOT_FOUND, or text without a
// usable code. When only a bare code is found the company name is a
// "Company <symbol>" placeholder.
func Interpret(text string) *models.SymbolLookupResult {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if strings.Contains(strings.ToUpper(text), notFoundMarker) {
		return nil
	}

	if match := structuredAnswerPattern.FindStringSubmatch(text); match != nil {
		company := strings.TrimSpace(match[2])
		if utf8.RuneCountInString(company) > 2 {
			return &models.SymbolLookupResult{
				Symbol:      extract.PadSymbol(match[1]),
				CompanyName: company,
			}
		}
	}

	for _, pattern := range bareSymbolPatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			symbol := extract.PadSymbol(match[1])
			return &models.SymbolLookupResult{
				Symbol:      symbol,
				CompanyName: fmt.Sprintf("Company %s", symbol),
			}
		}
	}

	return nil
}
