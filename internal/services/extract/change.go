package extract

import (
	"regexp"
	"strings"

	"github.com/ternarybob/hsi-mcp/internal/models"
)

const (
	glyphUp   = "▲"
	glyphDown = "▼"
)

var (
	changePattern = regexp.MustCompile(`^([+-]?[\d,.]+)\s*\(([+-]?[\d,.]+)%\)$`)
	glyphStripper = strings.NewReplacer(glyphUp, "", glyphDown, "")
)

// ParseChangeString parses "<point> (<percent>%)" into unsigned magnitudes.
// Callers resolve the sign and apply it with ChangeValue.WithDirection.
// Text that does not match yields two absent fields.
func ParseChangeString(text string) models.ChangeValue {
	match := changePattern.FindStringSubmatch(Clean(text))
	if match == nil {
		return models.ChangeValue{}
	}
	return models.ChangeValue{
		Point:   ParseNumber(match[1]).Abs(),
		Percent: ParseNumber(match[2]).Abs(),
	}
}

// ChangeSignToken reports the direction given by an explicit leading + or -
func ChangeSignToken(text string) models.Direction {
	cleaned := Clean(StripGlyphs(text))
	switch {
	case strings.HasPrefix(cleaned, "-"):
		return models.DirectionDown
	case strings.HasPrefix(cleaned, "+"):
		return models.DirectionUp
	default:
		return models.DirectionUnknown
	}
}

// DirectionFromGlyph reports the direction of a ▲ or ▼ glyph in text
func DirectionFromGlyph(text string) models.Direction {
	switch {
	case strings.Contains(text, glyphDown):
		return models.DirectionDown
	case strings.Contains(text, glyphUp):
		return models.DirectionUp
	default:
		return models.DirectionUnknown
	}
}

// DirectionFromClass maps the pos/neg CSS convention to a direction
func DirectionFromClass(class string) models.Direction {
	for _, name := range strings.Fields(strings.ToLower(class)) {
		switch name {
		case "neg":
			return models.DirectionDown
		case "pos":
			return models.DirectionUp
		}
	}
	return models.DirectionUnknown
}

// StripGlyphs removes direction glyphs and tidies the remaining whitespace
func StripGlyphs(text string) string {
	return Clean(glyphStripper.Replace(text))
}
