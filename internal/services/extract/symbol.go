package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/hsi-mcp/internal/models"
)

// SymbolLength is the width of an HKEX stock code
const SymbolLength = 5

var (
	exchangeSuffixPattern = regexp.MustCompile(`\.(HK|HKG)$`)
	digitRunPattern       = regexp.MustCompile(`\d+`)
)

// FormatSymbol normalizes "5", "0005.HK" or " 00700 " to a zero-padded
// 5-digit code. Empty input, input without digits, or a digit run longer
// than five returns an error wrapping models.ErrInvalidSymbol.
func FormatSymbol(input string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(input))
	if symbol == "" {
		return "", fmt.Errorf("%w: empty input", models.ErrInvalidSymbol)
	}

	symbol = exchangeSuffixPattern.ReplaceAllString(symbol, "")
	digits := digitRunPattern.FindString(symbol)
	if digits == "" {
		return "", fmt.Errorf("%w: no digits in %q", models.ErrInvalidSymbol, input)
	}
	if len(digits) > SymbolLength {
		return "", fmt.Errorf("%w: %q has more than %d digits", models.ErrInvalidSymbol, input, SymbolLength)
	}

	return PadSymbol(digits), nil
}

// PadSymbol left-pads a digit string with zeros to SymbolLength
func PadSymbol(digits string) string {
	if len(digits) >= SymbolLength {
		return digits
	}
	return strings.Repeat("0", SymbolLength-len(digits)) + digits
}

// ContainsDigit reports whether input looks like a symbol rather than a company name
func ContainsDigit(input string) bool {
	return strings.ContainsAny(input, "0123456789")
}
