package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hsi-mcp/internal/models"
)

var (
	pagePriceSelectors = []string{
		"#tbQuote > tbody > tr:nth-child(1) > td.rel.lastBox.c1 > div.abs.txt_c.ss3.cls.font-num.font-b > span > span",
		"#tbQuote td.lastBox span span",
		"#tbQuote .font-num span",
		".lastBox span",
		"[class*='lastBox'] span",
	}
	pageChangeSelectors = []string{
		"#dc7bd > span",
		"#dc7bd",
		"[id*='dc7bd']",
		".change span",
		"[class*='change'] span",
	}
	pagePercentSelectors = []string{
		"#tbQuote > tbody > tr:nth-child(2) > td > div.ss4.abs.cls.bold.font-num > span > span:nth-child(1)",
		"#tbQuote .ss4 span span",
		"[class*='percent'] span",
		"[class*='change'] span",
	}
	pageTurnoverSelectors = []string{
		"#tbQuote > tbody > tr:nth-child(4) > td:nth-child(1) > div.ss2.abs.lbl_r.font-num.cls",
		"#tbQuote .lbl_r",
		"#tbQuote [class*='turnover']",
		".ss2 .font-num",
		"[class*='turnover'] span",
	}
	pageLastUpdateSelectors = []string{
		"#mainForm > div.container_16.resize > div > div.content > div.lastUpdate.mar10B",
		".lastUpdate",
		"[class*='update']",
		"[class*='time']",
		".mar10B",
		"[class*='last']",
	}

	unitWords = map[string]string{
		"thousand": "K",
		"million":  "M",
		"billion":  "B",
		"trillion": "T",
	}

	percentPattern    = regexp.MustCompile(`([+-]?[\d,.]+)\s*%`)
	unitLetterPattern = regexp.MustCompile(`(?i)^[KMBT]$`)
	updatePattern     = regexp.MustCompile(`(?i)(last\s+update|updated|\d{4}[/-]\d{2}[/-]\d{2}|\d{1,2}:\d{2})`)
	serverDatePattern = regexp.MustCompile(`(?:ServerDate|last_update)\s*[:=]\s*["']?(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?Z?)`)
)

// PageQuote holds the values read from the quick-quote HTML page
type PageQuote struct {
	Price        models.NumericField
	Change       models.ChangeValue
	Turnover     models.NumericField
	TurnoverUnit string
	CompanyName  string
	LastUpdated  string
}

// FillMissing copies page values into quote fields that are still empty.
// The point and percent change are filled only when both are empty.
func (p *PageQuote) FillMissing(quote *models.Quote) {
	if !quote.CurrentPrice.Valid {
		quote.CurrentPrice = p.Price
	}
	if !quote.PriceChange.Valid && !quote.PriceChangePercent.Valid {
		quote.SetChange(p.Change)
	}
	if !quote.Turnover.Valid {
		quote.Turnover = p.Turnover
		quote.TurnoverUnit = models.StringPtr(p.TurnoverUnit)
	}
	if quote.CompanyName == nil {
		quote.CompanyName = models.StringPtr(p.CompanyName)
	}
	if quote.LastUpdatedTime == nil {
		quote.LastUpdatedTime = models.StringPtr(p.LastUpdated)
	}
}

// QuotePageExtractor reads a stock quote from the quick-quote page
type QuotePageExtractor struct {
	logger  arbor.ILogger
	company *CompanyNameExtractor
}

// NewQuotePageExtractor creates a quick-quote page extractor
func NewQuotePageExtractor(logger arbor.ILogger) *QuotePageExtractor {
	return &QuotePageExtractor{
		logger:  logger,
		company: NewCompanyNameExtractor(logger),
	}
}

// Extract resolves each field through its own selector chain
func (e *QuotePageExtractor) Extract(doc *goquery.Document) PageQuote {
	var page PageQuote
	if doc == nil {
		return page
	}
	root := doc.Selection

	page.Price = e.price(root)
	page.Change = e.change(root)
	page.Turnover, page.TurnoverUnit = e.turnover(root)
	page.CompanyName = e.company.Extract(doc)
	page.LastUpdated = e.lastUpdated(root)

	return page
}

func (e *QuotePageExtractor) price(root *goquery.Selection) models.NumericField {
	value, selector, ok := firstMatch(root, pagePriceSelectors, func(sel *goquery.Selection) (models.NumericField, bool) {
		field := ParseNumber(sel.Text())
		return field, field.Valid && field.Value > 0
	})
	if !ok {
		logMiss(e.logger, "quote_page", "current_price")
		return models.Absent()
	}
	logHit(e.logger, "quote_page", "current_price", selector)
	return value.WithSource("selector:" + selector)
}

func (e *QuotePageExtractor) change(root *goquery.Selection) models.ChangeValue {
	point, pointSelector, pointOK := firstMatch(root, pageChangeSelectors, func(sel *goquery.Selection) (models.NumericField, bool) {
		text := StripGlyphs(sel.Text())
		if strings.Contains(text, "%") {
			combined := ParseChangeString(text)
			return combined.Point, combined.Point.Valid
		}
		field := ParseNumber(text)
		return field, field.Valid
	})

	percent, percentSelector, percentOK := firstMatch(root, pagePercentSelectors, func(sel *goquery.Selection) (models.NumericField, bool) {
		match := percentPattern.FindStringSubmatch(StripGlyphs(sel.Text()))
		if match == nil {
			return models.Absent(), false
		}
		field := ParseNumber(match[1])
		return field, field.Valid
	})

	change := models.ChangeValue{}
	if pointOK {
		change.Point = point.WithSource("selector:" + pointSelector)
	} else {
		logMiss(e.logger, "quote_page", "price_change")
	}
	if percentOK {
		change.Percent = percent.WithSource("selector:" + percentSelector)
	} else {
		logMiss(e.logger, "quote_page", "price_change_percent")
	}
	if change.IsEmpty() {
		return change
	}

	direction := e.changeDirection(root, pointSelector)
	return models.ChangeValue{Point: change.Point.Abs(), Percent: change.Percent.Abs()}.WithDirection(direction)
}

// changeDirection prefers the class or glyph around the change element and
// falls back to whichever component carried an explicit sign
func (e *QuotePageExtractor) changeDirection(root *goquery.Selection, selector string) models.Direction {
	if selector != "" {
		sel := root.Find(selector).First()
		if direction := directionFromClasses(sel.Parent().AddSelection(sel)); direction != models.DirectionUnknown {
			return direction
		}
		if direction := DirectionFromGlyph(sel.Text()); direction != models.DirectionUnknown {
			return direction
		}
		if direction := ChangeSignToken(sel.Text()); direction != models.DirectionUnknown {
			return direction
		}
	}
	for _, percentSelector := range pagePercentSelectors {
		sel := root.Find(percentSelector).First()
		if sel.Length() == 0 {
			continue
		}
		if direction := ChangeSignToken(sel.Text()); direction != models.DirectionUnknown {
			return direction
		}
	}
	return models.DirectionUnknown
}

func (e *QuotePageExtractor) turnover(root *goquery.Selection) (models.NumericField, string) {
	type scaled struct {
		value models.NumericField
		unit  string
	}
	result, selector, ok := firstMatch(root, pageTurnoverSelectors, func(sel *goquery.Selection) (scaled, bool) {
		unit := pageTurnoverUnit(sel)
		text := Clean(sel.Clone().Children().Remove().End().Text())
		if text == "" {
			text = Clean(sel.Text())
		}

		if unit == "" {
			value, letter := ParseScaled(text, QuoteUnits)
			return scaled{value: value, unit: letter}, value.Valid
		}

		mantissa, ok := parseDecimal(text)
		if !ok {
			return scaled{}, false
		}
		value := models.Present(mantissa.Shift(QuoteUnits[unit]).InexactFloat64(), "")
		return scaled{value: value, unit: unit}, value.Valid
	})
	if !ok {
		logMiss(e.logger, "quote_page", "turnover")
		return models.Absent(), ""
	}
	logHit(e.logger, "quote_page", "turnover", selector)
	return result.value.WithSource("selector:" + selector), result.unit
}

// pageTurnoverUnit reads the unit from a child span as either a letter or a word
func pageTurnoverUnit(sel *goquery.Selection) string {
	unitText := strings.ToLower(Clean(sel.Find("span").First().Text()))
	if unitText == "" {
		return ""
	}
	if unitLetterPattern.MatchString(unitText) {
		return strings.ToUpper(unitText)
	}
	for word, unit := range unitWords {
		if strings.Contains(unitText, word) {
			return unit
		}
	}
	return ""
}

func (e *QuotePageExtractor) lastUpdated(root *goquery.Selection) string {
	value, selector, ok := firstMatch(root, pageLastUpdateSelectors, func(sel *goquery.Selection) (string, bool) {
		text := Clean(sel.Text())
		return text, text != "" && updatePattern.MatchString(text)
	})
	if ok {
		logHit(e.logger, "quote_page", "last_updated_time", selector)
		return value
	}

	var found string
	root.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		if match := serverDatePattern.FindStringSubmatch(script.Text()); match != nil {
			found = match[1]
			return false
		}
		return true
	})
	if found != "" {
		logHit(e.logger, "quote_page", "last_updated_time", "script")
		return found
	}

	logMiss(e.logger, "quote_page", "last_updated_time")
	return ""
}
