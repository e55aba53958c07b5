package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
)

const minCompanyNameLength = 4

var (
	scriptNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)StockName["']?\s*[:=]\s*["']([^"']+)["']`),
		regexp.MustCompile(`(?i)CompanyName["']?\s*[:=]\s*["']([^"']+)["']`),
		regexp.MustCompile(`(?i)name["']?\s*[:=]\s*["']([^"']{10,})["']`),
	}
	titleNamePattern = regexp.MustCompile(`^([^(]+)\s*\(\d{5}\)`)
	metaNamePattern  = regexp.MustCompile(`^([^(,]+)\s*\(\d{5}\)`)

	// Substrings that mark a script value as markup or code rather than a company
	webElementMarkers = []string{
		"quote", "chart", "analysis", "hk stock", "real-time", "free",
		"sb-", "txt", "btn", "div", "span", "css", "js", "function",
		"var", "class", "id", "element", "container", "wrapper", "_",
		"-symbol", "-btn", "-txt", "ctrl", "control",
	}
	webResourceMarkers = []string{".js", ".css", ".html", "www.", "http"}

	companyMetaNames = map[string]bool{"description": true, "keywords": true, "title": true}
)

type companyStrategy struct {
	name    string
	extract func(doc *goquery.Document) string
}

// CompanyNameExtractor finds the company name on a quick-quote page.
// Strategies are tried in priority order and the first plausible name wins.
type CompanyNameExtractor struct {
	logger     arbor.ILogger
	strategies []companyStrategy
}

// NewCompanyNameExtractor creates a company name extractor
func NewCompanyNameExtractor(logger arbor.ILogger) *CompanyNameExtractor {
	e := &CompanyNameExtractor{logger: logger}
	e.strategies = []companyStrategy{
		{name: "script", extract: e.fromScripts},
		{name: "title", extract: fromTitle},
		{name: "meta", extract: fromMeta},
		{name: "sq_name", extract: fromNameElement},
	}
	return e
}

// Extract returns the company name, or "" when no strategy succeeds
func (e *CompanyNameExtractor) Extract(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	for _, strategy := range e.strategies {
		if name := strategy.extract(doc); name != "" {
			logHit(e.logger, "company_name", "company_name", strategy.name)
			return name
		}
	}
	logMiss(e.logger, "company_name", "company_name")
	return ""
}

func (e *CompanyNameExtractor) fromScripts(doc *goquery.Document) string {
	var found string
	doc.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		text := script.Text()
		if text == "" {
			return true
		}
		for _, pattern := range scriptNamePatterns {
			match := pattern.FindStringSubmatch(text)
			if match == nil {
				continue
			}
			name := Clean(match[1])
			if !longEnoughName(name) {
				continue
			}
			if looksLikeWebElement(name) {
				if e.logger != nil {
					e.logger.Debug().Str("candidate", name).Msg("Rejected script value as company name")
				}
				continue
			}
			found = name
			return false
		}
		return true
	})
	return found
}

func fromTitle(doc *goquery.Document) string {
	title := Clean(doc.Find("title").First().Text())
	if match := titleNamePattern.FindStringSubmatch(title); match != nil {
		if name := Clean(match[1]); longEnoughName(name) {
			return name
		}
	}
	return ""
}

func fromMeta(doc *goquery.Document) string {
	var found string
	doc.Find("meta").EachWithBreak(func(_ int, meta *goquery.Selection) bool {
		name, _ := meta.Attr("name")
		if !companyMetaNames[name] {
			return true
		}
		content, _ := meta.Attr("content")
		if match := metaNamePattern.FindStringSubmatch(content); match != nil {
			if candidate := Clean(match[1]); longEnoughName(candidate) {
				found = candidate
				return false
			}
		}
		return true
	})
	return found
}

func fromNameElement(doc *goquery.Document) string {
	name := Clean(doc.Find("#SQ_Name").First().Text())
	if longEnoughName(name) {
		return name
	}
	return ""
}

func longEnoughName(name string) bool {
	return utf8.RuneCountInString(name) >= minCompanyNameLength
}

// looksLikeWebElement rejects CSS class names, identifiers, file names and
// other values that are mostly not letters
func looksLikeWebElement(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range webElementMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	for _, marker := range webResourceMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	letters, total := 0, 0
	for _, r := range name {
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return total == 0 || float64(letters)/float64(total) < 0.6
}
