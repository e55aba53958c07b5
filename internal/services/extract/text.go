// Package extract turns AAStocks markup and AJAX payloads into market data.
// Every function here is pure: no network access, no shared state.
package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ternarybob/hsi-mcp/internal/models"
)

// Magnitude suffixes and their power-of-ten exponents
var (
	IndexUnits = map[string]int32{"K": 3, "M": 6, "B": 9}
	QuoteUnits = map[string]int32{"K": 3, "M": 6, "B": 9, "T": 12}
)

var (
	magnitudePattern = regexp.MustCompile(`(?i)^(\d[\d,.]*)\s*([KMBT])?$`)

	// Exponents are rejected: decimal expands 1e-N into an N-digit integer
	plainNumberPattern = regexp.MustCompile(`^[+-]?\d+(?:\.\d+)?$`)
)

// Clean collapses whitespace runs to a single space and trims the ends
func Clean(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ParseNumber parses a display number such as "1,234.56" or "(12.5)".
// Parenthesised values are negative. Anything that is not a finite decimal
// number yields an absent field.
func ParseNumber(text string) models.NumericField {
	d, ok := parseDecimal(text)
	if !ok {
		return models.Absent()
	}
	return models.Present(d.InexactFloat64(), "")
}

// ParseScaled parses a number with an optional trailing magnitude letter
// ("85.3B", "1.2 M") and multiplies by the unit from units. The whole text
// must be the number and unit; text without a unit is parsed as a plain number. The matched unit is returned
// upper-cased, or empty when none applied.
func ParseScaled(text string, units map[string]int32) (models.NumericField, string) {
	cleaned := Clean(text)
	match := magnitudePattern.FindStringSubmatch(cleaned)
	if match == nil {
		return ParseNumber(cleaned), ""
	}

	unit := strings.ToUpper(match[2])
	exponent, known := units[unit]
	if unit == "" || !known {
		if value := ParseNumber(cleaned); value.Valid {
			return value, ""
		}
		return ParseNumber(match[1]), ""
	}

	mantissa, ok := parseDecimal(match[1])
	if !ok {
		return models.Absent(), ""
	}
	scaled := mantissa.Mul(decimal.New(1, exponent))
	return models.Present(scaled.InexactFloat64(), ""), unit
}

func parseDecimal(text string) (decimal.Decimal, bool) {
	cleaned := strings.ReplaceAll(Clean(text), ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return decimal.Decimal{}, false
	}

	negative := false
	if len(cleaned) > 2 && strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = cleaned[1 : len(cleaned)-1]
		negative = true
	}

	if !plainNumberPattern.MatchString(cleaned) {
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}
