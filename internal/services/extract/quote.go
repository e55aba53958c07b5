package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hsi-mcp/internal/models"
)

// Quote feed field keys
const (
	feedKeyPrice       = "a"
	feedKeyChange      = "b"
	feedKeyTurnover    = "d"
	feedKeyLastUpdated = "e"
)

var markupChangePattern = regexp.MustCompile(`([+-]?)([\d,.]+)\s*\(([+-]?[\d,.]+)%\)`)

// QuoteFeed holds the values decoded from one AJAX quote entry
type QuoteFeed struct {
	Price        models.NumericField
	Change       models.ChangeValue
	Turnover     models.NumericField
	TurnoverUnit string
	LastUpdated  string
}

// Apply copies the feed values onto quote
func (f *QuoteFeed) Apply(quote *models.Quote) {
	quote.CurrentPrice = f.Price
	quote.SetChange(f.Change)
	quote.Turnover = f.Turnover
	quote.TurnoverUnit = models.StringPtr(f.TurnoverUnit)
	quote.LastUpdatedTime = models.StringPtr(f.LastUpdated)
}

// QuoteExtractor decodes the real-time quote feed
type QuoteExtractor struct {
	logger arbor.ILogger
}

// NewQuoteExtractor creates a quote feed extractor
func NewQuoteExtractor(logger arbor.ILogger) *QuoteExtractor {
	return &QuoteExtractor{logger: logger}
}

// Decode parses the feed payload. The payload must be a non-empty JSON
// array; anything else returns an error wrapping models.ErrNoDataForSymbol.
// Malformed JSON gets one repair attempt before being rejected.
func (e *QuoteExtractor) Decode(payload []byte) (*QuoteFeed, error) {
	entries, err := e.decodeEntries(payload)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty feed", models.ErrNoDataForSymbol)
	}

	entry := entries[0]
	feed := &QuoteFeed{}

	feed.Price = ParseNumber(feedString(entry[feedKeyPrice])).WithSource("ajax:" + feedKeyPrice)
	if !feed.Price.Valid {
		logMiss(e.logger, "quote_feed", "current_price")
	}

	feed.Change = e.ParseChangeMarkup(feedString(entry[feedKeyChange]))
	if feed.Change.IsEmpty() {
		logMiss(e.logger, "quote_feed", "price_change")
	}

	turnover, unit := ParseScaled(feedString(entry[feedKeyTurnover]), QuoteUnits)
	feed.Turnover = turnover.WithSource("ajax:" + feedKeyTurnover)
	feed.TurnoverUnit = unit
	if !feed.Turnover.Valid {
		logMiss(e.logger, "quote_feed", "turnover")
	}

	feed.LastUpdated = Clean(feedString(entry[feedKeyLastUpdated]))

	return feed, nil
}

func (e *QuoteExtractor) decodeEntries(payload []byte) ([]map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty payload", models.ErrNoDataForSymbol)
	}

	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err == nil {
		return entries, nil
	} else if trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: payload is not an array", models.ErrNoDataForSymbol)
	} else if e.logger != nil {
		e.logger.Debug().Err(err).Msg("Quote feed is not valid JSON, attempting repair")
	}

	repaired, err := jsonrepair.RepairJSON(string(trimmed))
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable payload: %v", models.ErrNoDataForSymbol, err)
	}
	if err := json.Unmarshal([]byte(repaired), &entries); err != nil {
		return nil, fmt.Errorf("%w: unreadable payload: %v", models.ErrNoDataForSymbol, err)
	}
	return entries, nil
}

// ParseChangeMarkup reads a fragment such as
// <span class='neg'>-0.45(0.85%)</span>. The pos/neg class decides the sign
// when present; otherwise an explicit leading sign token is used.
func (e *QuoteExtractor) ParseChangeMarkup(fragment string) models.ChangeValue {
	if strings.TrimSpace(fragment) == "" {
		return models.ChangeValue{}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return models.ChangeValue{}
	}
	body := doc.Find("body")

	match := markupChangePattern.FindStringSubmatch(Clean(body.Text()))
	if match == nil {
		return models.ChangeValue{}
	}

	change := models.ChangeValue{
		Point:   ParseNumber(match[2]).Abs().WithSource("ajax:" + feedKeyChange),
		Percent: ParseNumber(match[3]).Abs().WithSource("ajax:" + feedKeyChange),
	}

	classDirection := directionFromClasses(body.Children())
	tokenDirection := ChangeSignToken(match[1])

	direction := classDirection
	if direction == models.DirectionUnknown {
		direction = tokenDirection
	} else if tokenDirection != models.DirectionUnknown && tokenDirection != classDirection && e.logger != nil {
		e.logger.Warn().
			Str("class_direction", classDirection.String()).
			Str("sign_direction", tokenDirection.String()).
			Msg("Change sign disagrees with markup class, using class")
	}

	return change.WithDirection(direction)
}

// feedString renders a feed value as text whether it arrived as a JSON
// string or a bare number
func feedString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return ""
	}
	return text
}
