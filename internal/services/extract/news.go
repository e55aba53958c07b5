package extract

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hsi-mcp/internal/models"
)

// DefaultNewsKeywords mark an anchor as finance news in the keyword fallback
var DefaultNewsKeywords = []string{
	"stock", "market", "hong kong", "hk", "china",
	"economic", "trade", "financial", "investment", "company",
}

var (
	newsLinkPattern      = regexp.MustCompile(`(?i)news|article`)
	newsContainerPattern = regexp.MustCompile(`(?i)news|headline|article`)
)

// NewsConfig controls headline filtering
type NewsConfig struct {
	BaseURL   string
	MinLength int
	MaxLength int
	Keywords  []string
}

// DefaultNewsConfig returns the AAStocks headline settings
func DefaultNewsConfig() NewsConfig {
	return NewsConfig{
		BaseURL:   "https://www.aastocks.com",
		MinLength: 20,
		MaxLength: 200,
		Keywords:  DefaultNewsKeywords,
	}
}

// NewsExtractor collects headlines with three strategies of decreasing precision
type NewsExtractor struct {
	config NewsConfig
	base   *url.URL
	logger arbor.ILogger
}

// NewNewsExtractor creates a news extractor. An unparsable BaseURL leaves
// relative links unresolved.
func NewNewsExtractor(config NewsConfig, logger arbor.ILogger) *NewsExtractor {
	if len(config.Keywords) == 0 {
		config.Keywords = DefaultNewsKeywords
	}
	base, err := url.Parse(config.BaseURL)
	if err != nil || config.BaseURL == "" {
		base = nil
	}
	return &NewsExtractor{config: config, base: base, logger: logger}
}

type newsStrategy struct {
	name    string
	collect func(root *goquery.Selection, c *headlineCollector)
}

// Extract returns at most limit headlines with unique text, in strategy order
func (e *NewsExtractor) Extract(doc *goquery.Document, limit int) []models.Headline {
	collector := newHeadlineCollector(limit)
	if doc == nil || limit <= 0 {
		return collector.headlines
	}

	strategies := []newsStrategy{
		{name: "direct_links", collect: e.directLinks},
		{name: "news_containers", collect: e.containerLinks},
		{name: "keyword_links", collect: e.keywordLinks},
	}

	for _, strategy := range strategies {
		if collector.full() {
			break
		}
		before := len(collector.headlines)
		strategy.collect(doc.Selection, collector)
		if e.logger != nil {
			e.logger.Debug().
				Str("strategy", strategy.name).
				Int("added", len(collector.headlines)-before).
				Int("total", len(collector.headlines)).
				Msg("News strategy applied")
		}
	}

	if len(collector.headlines) == 0 {
		logMiss(e.logger, "news", "headlines")
	}
	return collector.headlines
}

// directLinks scans anchors whose href or class mentions news/article.
// Only the first limit*2 candidates are considered.
func (e *NewsExtractor) directLinks(root *goquery.Selection, c *headlineCollector) {
	candidates := root.Find("a").FilterFunction(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		class, _ := a.Attr("class")
		return newsLinkPattern.MatchString(href) || newsLinkPattern.MatchString(class)
	})

	scanned := 0
	candidates.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if scanned >= c.limit*2 {
			return false
		}
		scanned++
		text := Clean(a.Text())
		if e.longEnough(text) {
			c.add(text, e.resolve(a))
		}
		return !c.full()
	})
}

// containerLinks takes anchors inside blocks classed as news, headline or article
func (e *NewsExtractor) containerLinks(root *goquery.Selection, c *headlineCollector) {
	containers := root.Find("div, section, article").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		return newsContainerPattern.MatchString(class)
	})

	containers.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text := Clean(a.Text())
		if e.longEnough(text) {
			c.add(text, e.resolve(a))
		}
		return !c.full()
	})
}

// keywordLinks accepts any anchor of plausible length mentioning a finance keyword
func (e *NewsExtractor) keywordLinks(root *goquery.Selection, c *headlineCollector) {
	root.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text := Clean(a.Text())
		length := utf8.RuneCountInString(text)
		if length >= e.config.MinLength && length <= e.config.MaxLength && e.mentionsKeyword(text) {
			c.add(text, e.resolve(a))
		}
		return !c.full()
	})
}

func (e *NewsExtractor) longEnough(text string) bool {
	return utf8.RuneCountInString(text) > e.config.MinLength
}

func (e *NewsExtractor) mentionsKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range e.config.Keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// resolve turns the anchor href into an absolute URL; no href gives ""
func (e *NewsExtractor) resolve(a *goquery.Selection) string {
	href, _ := a.Attr("href")
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if e.base == nil {
		return ref.String()
	}
	return e.base.ResolveReference(ref).String()
}

// headlineCollector accumulates headlines with exact-text dedup across strategies
type headlineCollector struct {
	limit     int
	seen      map[string]struct{}
	headlines []models.Headline
}

func newHeadlineCollector(limit int) *headlineCollector {
	if limit < 0 {
		limit = 0
	}
	return &headlineCollector{
		limit:     limit,
		seen:      make(map[string]struct{}),
		headlines: make([]models.Headline, 0, limit),
	}
}

func (c *headlineCollector) add(text, link string) {
	if c.full() {
		return
	}
	if _, dup := c.seen[text]; dup {
		return
	}
	c.seen[text] = struct{}{}
	c.headlines = append(c.headlines, models.Headline{Headline: text, URL: link})
}

func (c *headlineCollector) full() bool {
	return len(c.headlines) >= c.limit
}
