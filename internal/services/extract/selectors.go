package extract

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
)

// firstMatch walks selectors in priority order and returns the first value
// parse accepts, together with the selector that produced it.
func firstMatch[T any](root *goquery.Selection, selectors []string, parse func(*goquery.Selection) (T, bool)) (T, string, bool) {
	var zero T
	if root == nil {
		return zero, "", false
	}
	for _, selector := range selectors {
		sel := root.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if value, ok := parse(sel); ok {
			return value, selector, true
		}
	}
	return zero, "", false
}

// logMiss records a field that no strategy could populate
func logMiss(logger arbor.ILogger, component, field string) {
	if logger == nil {
		return
	}
	logger.Debug().Str("component", component).Str("field", field).Msg("No strategy matched, field left empty")
}

// logHit records which strategy populated a field
func logHit(logger arbor.ILogger, component, field, source string) {
	if logger == nil {
		return
	}
	logger.Debug().Str("component", component).Str("field", field).Str("source", source).Msg("Field extracted")
}
