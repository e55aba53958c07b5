package extract

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hsi-mcp/internal/models"
)

var (
	indexCurrentSelectors = []string{
		"#hkIdxContainer > div.hkidx-last.txt_r",
		"#hkIdxContainer .hkidx-last",
		".hkidx-last",
	}
	indexTurnoverSelectors = []string{
		"#hkIdxContainer > div.hkidx-turnover.cls > span",
		"#hkIdxContainer .hkidx-turnover span",
		".hkidx-turnover",
	}
	indexChangeSelectors = []string{
		"#hkIdxContainer > div.hkidx-change.cls > span",
		"#hkIdxContainer .hkidx-change span",
		".hkidx-change",
	}
)

// IndexExtractor reads the Hang Seng Index figures from the constituents page
type IndexExtractor struct {
	logger arbor.ILogger
}

// NewIndexExtractor creates an index extractor
func NewIndexExtractor(logger arbor.ILogger) *IndexExtractor {
	return &IndexExtractor{logger: logger}
}

// Extract resolves current point, turnover and daily change independently.
// Fields no strategy can read are left absent. Timestamp, source and URL are
// stamped by the caller.
func (e *IndexExtractor) Extract(doc *goquery.Document) models.IndexSnapshot {
	var snapshot models.IndexSnapshot
	if doc == nil {
		return snapshot
	}

	snapshot.CurrentPoint = e.currentPoint(doc.Selection)
	snapshot.Turnover = e.turnover(doc.Selection)

	change := e.change(doc.Selection)
	snapshot.DailyChangePoint = change.Point
	snapshot.DailyChangePercent = change.Percent

	return snapshot
}

func (e *IndexExtractor) currentPoint(root *goquery.Selection) models.NumericField {
	value, selector, ok := firstMatch(root, indexCurrentSelectors, func(sel *goquery.Selection) (models.NumericField, bool) {
		field := ParseNumber(sel.Text())
		return field, field.Valid
	})
	if !ok {
		logMiss(e.logger, "index", "current_point")
		return models.Absent()
	}
	logHit(e.logger, "index", "current_point", selector)
	return value.WithSource("selector:" + selector)
}

func (e *IndexExtractor) turnover(root *goquery.Selection) models.NumericField {
	value, selector, ok := firstMatch(root, indexTurnoverSelectors, func(sel *goquery.Selection) (models.NumericField, bool) {
		field, _ := ParseScaled(sel.Text(), IndexUnits)
		return field, field.Valid
	})
	if !ok {
		logMiss(e.logger, "index", "turnover")
		return models.Absent()
	}
	logHit(e.logger, "index", "turnover", selector)
	return value.WithSource("selector:" + selector)
}

func (e *IndexExtractor) change(root *goquery.Selection) models.ChangeValue {
	value, selector, ok := firstMatch(root, indexChangeSelectors, func(sel *goquery.Selection) (models.ChangeValue, bool) {
		text := sel.Text()
		change := ParseChangeString(StripGlyphs(text))
		if change.IsEmpty() {
			return change, false
		}

		direction := resolveIndexDirection(sel)
		if direction == models.DirectionUnknown {
			direction = ChangeSignToken(text)
		}
		return change.WithDirection(direction), true
	})
	if !ok {
		logMiss(e.logger, "index", "daily_change")
		return models.ChangeValue{}
	}
	logHit(e.logger, "index", "daily_change", selector)
	source := "selector:" + selector
	return models.ChangeValue{
		Point:   value.Point.WithSource(source),
		Percent: value.Percent.WithSource(source),
	}
}

// resolveIndexDirection reads the ▲/▼ glyph first, then a pos/neg class on
// the element or any descendant.
func resolveIndexDirection(sel *goquery.Selection) models.Direction {
	if direction := DirectionFromGlyph(sel.Text()); direction != models.DirectionUnknown {
		return direction
	}
	return directionFromClasses(sel)
}

// directionFromClasses returns the first pos/neg class found on sel or below it
func directionFromClasses(sel *goquery.Selection) models.Direction {
	direction := models.DirectionUnknown
	sel.AddSelection(sel.Find("*")).EachWithBreak(func(_ int, node *goquery.Selection) bool {
		class, _ := node.Attr("class")
		direction = DirectionFromClass(class)
		return direction == models.DirectionUnknown
	})
	return direction
}
