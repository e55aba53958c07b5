// Package market retrieves Hang Seng Index data, news and stock quotes from AAStocks.
package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"github.com/ternarybob/hsi-mcp/internal/common"
	"github.com/ternarybob/hsi-mcp/internal/interfaces"
	"github.com/ternarybob/hsi-mcp/internal/models"
	"github.com/ternarybob/hsi-mcp/internal/services/extract"
)

const (
	SourceName = "AAStocks"

	DefaultNewsLimit = 10
	MaxNewsLimit     = 20

	// NoHeadlinesSummary is the summary returned when the news page yields nothing
	NoHeadlinesSummary = "No headlines available at this time."
)

// LookupError is returned when resolving a company name fails outright,
// as opposed to the provider answering without a usable symbol
type LookupError struct {
	Company string
	Err     error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %q: %v", e.Company, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Service orchestrates fetching and extraction for the three tools
type Service struct {
	config    common.ScraperConfig
	fetcher   interfaces.PageFetcher
	lookup    interfaces.SymbolLookupService
	summary   interfaces.SummaryService
	index     *extract.IndexExtractor
	news      *extract.NewsExtractor
	quotes    *extract.QuoteExtractor
	quotePage *extract.QuotePageExtractor
	now       func() time.Time
	logger    arbor.ILogger
}

var _ interfaces.MarketService = (*Service)(nil)

// NewService creates a market service
func NewService(
	config common.ScraperConfig,
	fetcher interfaces.PageFetcher,
	lookupService interfaces.SymbolLookupService,
	summaryService interfaces.SummaryService,
	logger arbor.ILogger,
) *Service {
	newsConfig := extract.DefaultNewsConfig()
	if config.BaseURL != "" {
		newsConfig.BaseURL = config.BaseURL
	}
	if config.MinHeadlineLength > 0 {
		newsConfig.MinLength = config.MinHeadlineLength
	}
	if config.MaxHeadlineLength > 0 {
		newsConfig.MaxLength = config.MaxHeadlineLength
	}

	return &Service{
		config:    config,
		fetcher:   fetcher,
		lookup:    lookupService,
		summary:   summaryService,
		index:     extract.NewIndexExtractor(logger),
		news:      extract.NewNewsExtractor(newsConfig, logger),
		quotes:    extract.NewQuoteExtractor(logger),
		quotePage: extract.NewQuotePageExtractor(logger),
		now:       time.Now,
		logger:    logger,
	}
}

// GetIndexData scrapes the current Hang Seng Index snapshot
func (s *Service) GetIndexData(ctx context.Context) (*models.IndexSnapshot, error) {
	doc, err := s.fetcher.Fetch(ctx, s.config.IndexURL)
	if err != nil {
		return nil, err
	}

	snapshot := s.index.Extract(doc)
	snapshot.Timestamp = s.timestamp()
	snapshot.Source = SourceName
	snapshot.URL = s.config.IndexURL

	s.logger.Debug().
		Bool("current_point", snapshot.CurrentPoint.Valid).
		Bool("daily_change", snapshot.DailyChangePoint.Valid).
		Bool("turnover", snapshot.Turnover.Valid).
		Msg("Index data extracted")
	return &snapshot, nil
}

// ClampNewsLimit bounds a requested headline count to [1, MaxNewsLimit]
func ClampNewsLimit(limit int) int {
	switch {
	case limit < 1:
		return 1
	case limit > MaxNewsLimit:
		return MaxNewsLimit
	default:
		return limit
	}
}

// GetNewsSummary scrapes popular headlines and summarizes them. The index
// page is fetched alongside for the timestamp; its failure only leaves the
// timestamp empty.
func (s *Service) GetNewsSummary(ctx context.Context, limit int) (*models.NewsSummary, error) {
	limit = ClampNewsLimit(limit)

	var headlines []models.Headline
	var timestamp *string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, err := s.fetcher.Fetch(gctx, s.config.NewsURL)
		if err != nil {
			return err
		}
		headlines = s.news.Extract(doc, limit)
		return nil
	})
	g.Go(func() error {
		snapshot, err := s.GetIndexData(gctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Could not get timestamp from index data")
			return nil
		}
		timestamp = &snapshot.Timestamp
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(headlines) == 0 {
		s.logger.Warn().Msg("No headlines found")
		return &models.NewsSummary{
			Headlines: []models.Headline{},
			Summary:   NoHeadlinesSummary,
			Count:     0,
		}, nil
	}

	return &models.NewsSummary{
		Headlines: headlines,
		Summary:   s.summary.Summarize(ctx, headlines),
		Count:     len(headlines),
		Timestamp: timestamp,
	}, nil
}

// GetStockQuote returns a quote for a symbol or a company name. Input that
// contains a digit is treated as a symbol; anything else is resolved with
// the lookup service. A company name that cannot be resolved returns an
// error wrapping models.ErrSymbolNotFound; a failed lookup returns a
// *LookupError.
func (s *Service) GetStockQuote(ctx context.Context, symbolOrCompany string) (*models.Quote, error) {
	input := strings.TrimSpace(symbolOrCompany)

	var symbol, companyName string
	if extract.ContainsDigit(input) {
		symbol = input
		s.logger.Debug().Str("symbol", symbol).Msg("Processing as stock symbol")
	} else {
		s.logger.Debug().Str("company", input).Msg("Processing as company name")
		result, err := s.lookup.Lookup(ctx, input)
		if err != nil {
			return nil, &LookupError{Company: input, Err: err}
		}
		if result == nil {
			return nil, fmt.Errorf("%w: %s", models.ErrSymbolNotFound, input)
		}
		symbol = result.Symbol
		companyName = result.CompanyName
		s.logger.Info().
			Str("company", input).
			Str("symbol", symbol).
			Str("official_name", companyName).
			Msg("Symbol lookup successful")
	}

	return s.quote(ctx, symbol, companyName)
}

func (s *Service) quote(ctx context.Context, rawSymbol, companyName string) (*models.Quote, error) {
	symbol, err := extract.FormatSymbol(rawSymbol)
	if err != nil {
		return nil, err
	}

	pageURL := fmt.Sprintf(s.config.QuoteURL, symbol)
	feedURL := fmt.Sprintf(s.config.FeedURL, symbol)

	payload, err := s.fetcher.FetchJSON(ctx, feedURL, map[string]string{
		"Accept":           "application/json, text/javascript, */*; q=0.01",
		"X-Requested-With": "XMLHttpRequest",
		"Referer":          pageURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get stock quote for %s: %w", symbol, err)
	}

	feed, err := s.quotes.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock quote for %s: %w", symbol, err)
	}

	quote := &models.Quote{
		Symbol:      symbol,
		CompanyName: models.StringPtr(companyName),
	}
	feed.Apply(quote)

	if companyName == "" {
		s.fillFromPage(ctx, quote, pageURL)
	} else {
		s.logger.Info().Str("symbol", symbol).Str("company", companyName).Msg("Using provided company name")
	}

	quote.Timestamp = s.timestamp()
	quote.Source = SourceName
	quote.URL = pageURL

	s.logger.Info().Str("symbol", symbol).Msg("Quote extracted")
	return quote, nil
}

// fillFromPage reads the quick-quote page for the company name and any
// fields the feed left empty. Failures are logged and ignored.
func (s *Service) fillFromPage(ctx context.Context, quote *models.Quote, pageURL string) {
	doc, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Warn().Err(err).Str("symbol", quote.Symbol).Msg("Quote page unavailable, company name left empty")
		return
	}

	page := s.quotePage.Extract(doc)
	page.FillMissing(quote)
	if quote.CompanyName == nil {
		s.logger.Debug().Str("symbol", quote.Symbol).Msg("No company name on quote page")
	}
}

func (s *Service) timestamp() string {
	return s.now().Format(time.RFC3339)
}
