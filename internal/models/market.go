package models

// IndexSnapshot is the Hang Seng Index state scraped from the constituents page
type IndexSnapshot struct {
	CurrentPoint       NumericField `json:"current_point"`
	DailyChangePoint   NumericField `json:"daily_change_point"`
	DailyChangePercent NumericField `json:"daily_change_percent"`
	Turnover           NumericField `json:"turnover"`
	Timestamp          string       `json:"timestamp"`
	Source             string       `json:"source"`
	URL                string       `json:"url"`
}

// Change returns the daily change as a pair
func (s *IndexSnapshot) Change() ChangeValue {
	return ChangeValue{Point: s.DailyChangePoint, Percent: s.DailyChangePercent}
}

// Headline is one news link. URL is absolute, or empty when the anchor had no href.
type Headline struct {
	Headline string `json:"headline"`
	URL      string `json:"url"`
}

// NewsSummary is the get_hsi_news_summary payload
type NewsSummary struct {
	Headlines []Headline `json:"headlines"`
	Summary   string     `json:"summary"`
	Count     int        `json:"count"`
	Timestamp *string    `json:"timestamp"`
}

// Quote is a single stock quote
type Quote struct {
	Symbol             string       `json:"symbol"`
	CompanyName        *string      `json:"company_name"`
	CurrentPrice       NumericField `json:"current_price"`
	PriceChange        NumericField `json:"price_change"`
	PriceChangePercent NumericField `json:"price_change_percent"`
	Turnover           NumericField `json:"turnover"`
	TurnoverUnit       *string      `json:"turnover_unit"`
	LastUpdatedTime    *string      `json:"last_updated_time"`
	Timestamp          string       `json:"timestamp"`
	Source             string       `json:"source"`
	URL                string       `json:"url"`
}

// SetChange stores a change pair on the quote
func (q *Quote) SetChange(change ChangeValue) {
	q.PriceChange = change.Point
	q.PriceChangePercent = change.Percent
}

// SymbolLookupResult is a company name resolved to a 5-digit HKEX code
type SymbolLookupResult struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"company_name"`
}

// StringPtr returns a pointer to s, or nil when s is empty
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
