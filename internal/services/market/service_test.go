package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hsi-mcp/internal/common"
	"github.com/ternarybob/hsi-mcp/internal/interfaces"
	"github.com/ternarybob/hsi-mcp/internal/models"
	"github.com/ternarybob/hsi-mcp/internal/services/lookup"
	"github.com/ternarybob/hsi-mcp/internal/services/summary"
)

const (
	indexPage = `<html><body><div id="hkIdxContainer">
  <div class="hkidx-last txt_r">26,345.12</div>
  <div class="hkidx-change cls"><span class="pos"><span>▲</span> 120.50 (0.46%)</span></div>
  <div class="hkidx-turnover cls"><span>85.30B</span></div>
</div></body></html>`

	newsPage = `<html><body><div class="news-list">
  <a href="/en/stocks/news/aafn-con/1/article">HK stocks rally as China tech shares gain momentum</a>
  <a href="/en/stocks/news/aafn-con/2/article">Hong Kong market closes lower on profit taking</a>
  <a href="/en/stocks/news/aafn-con/3/article">Oil prices surge, energy counters advance in HK trade</a>
</div></body></html>`

	quotePage = `<html><head><title>HSBC HOLDINGS (00005) Quote</title></head><body></body></html>`

	quoteFeed = `[{"a":"62.10","b":"<span class='pos'>+0.35(0.57%)</span>","d":"1.5B","e":"16:08"}]`
)

type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	feeds   map[string]string
	fail    map[string]error
	headers map[string]map[string]string
	calls   []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages:   map[string]string{},
		feeds:   map[string]string{},
		fail:    map[string]error{},
		headers: map[string]map[string]string{},
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	html, ok := f.pages[url]
	err := f.fail[url]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: GET %s: HTTP 404", models.ErrFetch, url)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (f *fakeFetcher) FetchJSON(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.headers[url] = headers
	body, ok := f.feeds[url]
	err := f.fail[url]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: GET %s: HTTP 404", models.ErrFetch, url)
	}
	return []byte(body), nil
}

func (f *fakeFetcher) called(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, call := range f.calls {
		if call == url {
			return true
		}
	}
	return false
}

type fakeGenerator struct {
	text string
	err  error
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string, config interfaces.GenerationConfig) (string, error) {
	return g.text, g.err
}

func (g *fakeGenerator) Name() string { return "fake" }

func newTestService(t *testing.T, fetcher *fakeFetcher, generator interfaces.TextGenerator) (*Service, common.ScraperConfig) {
	t.Helper()
	logger := arbor.NewLogger()
	config := common.NewDefaultConfig().Scraper

	svc := NewService(
		config,
		fetcher,
		lookup.NewService(generator, logger),
		summary.NewService(generator, logger),
		logger,
	)
	svc.now = func() time.Time { return time.Date(2025, 3, 14, 16, 10, 0, 0, time.UTC) }
	return svc, config
}

func TestService_GetIndexData(t *testing.T) {
	fetcher := newFakeFetcher()
	svc, config := newTestService(t, fetcher, nil)
	fetcher.pages[config.IndexURL] = indexPage

	snapshot, err := svc.GetIndexData(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 26345.12, snapshot.CurrentPoint.Value, 1e-9)
	assert.InDelta(t, 120.50, snapshot.DailyChangePoint.Value, 1e-9)
	assert.InDelta(t, 0.46, snapshot.DailyChangePercent.Value, 1e-9)
	assert.InDelta(t, 85.3e9, snapshot.Turnover.Value, 1)
	assert.Equal(t, "2025-03-14T16:10:00Z", snapshot.Timestamp)
	assert.Equal(t, "AAStocks", snapshot.Source)
	assert.Equal(t, config.IndexURL, snapshot.URL)
}

func TestService_GetIndexDataFetchError(t *testing.T) {
	fetcher := newFakeFetcher()
	svc, _ := newTestService(t, fetcher, nil)

	_, err := svc.GetIndexData(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrFetch))
}

func TestClampNewsLimit(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: -5, want: 1},
		{in: 0, want: 1},
		{in: 1, want: 1},
		{in: 10, want: 10},
		{in: 20, want: 20},
		{in: 50, want: 20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampNewsLimit(tt.in), "limit %d", tt.in)
	}
}

func TestService_GetNewsSummary(t *testing.T) {
	fetcher := newFakeFetcher()
	svc, config := newTestService(t, fetcher, &fakeGenerator{text: "Markets were mixed as tech rallied."})
	fetcher.pages[config.IndexURL] = indexPage
	fetcher.pages[config.NewsURL] = newsPage

	news, err := svc.GetNewsSummary(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, 2, news.Count)
	require.Len(t, news.Headlines, 2)
	assert.Equal(t, "HK stocks rally as China tech shares gain momentum", news.Headlines[0].Headline)
	assert.Equal(t, "https://www.aastocks.com/en/stocks/news/aafn-con/1/article", news.Headlines[0].URL)
	assert.Equal(t, "Markets were mixed as tech rallied.", news.Summary)
	require.NotNil(t, news.Timestamp)
	assert.Equal(t, "2025-03-14T16:10:00Z", *news.Timestamp)
}

func TestService_GetNewsSummaryIndexFailureBlanksTimestamp(t *testing.T) {
	fetcher := newFakeFetcher()
	svc, config := newTestService(t, fetcher, nil)
	fetcher.pages[config.NewsURL] = newsPage

	news, err := svc.GetNewsSummary(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 3, news.Count)
	assert.Nil(t, news.Timestamp)
	assert.Equal(t, summary.FallbackSummary(news.Headlines), news.Summary)
}

func TestService_GetNewsSummaryNoHeadlines(t *testing.T) {
	fetcher := newFakeFetcher()
	svc, config := newTestService(t, fetcher, &fakeGenerator{text: "unused"})
	fetcher.pages[config.IndexURL] = indexPage
	fetcher.pages[config.NewsURL] = `<html><body><p>Maintenance</p></body></html>`

	news, err := svc.GetNewsSummary(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 0, news.Count)
	assert.Empty(t, news.Headlines)
	assert.NotNil(t, news.Headlines)
	assert.Equal(t, "No headlines available at this time.", news.Summary)
	assert.Nil(t, news.Timestamp)
}

func TestService_GetNewsSummaryFetchError(t *testing.T) {
	fetcher := newFakeFetcher()
	svc, config := newTestService(t, fetcher, nil)
	fetcher.pages[config.IndexURL] = indexPage

	_, err := svc.GetNewsSummary(context.Background(), 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrFetch))
}

func TestService_GetStockQuoteBySymbol(t *testing.T) {
	fetcher := newFakeFetcher()
	svc, config := newTestService(t, fetcher, nil)
	feedURL := fmt.Sprintf(config.FeedURL, "00005")
	pageURL := fmt.Sprintf(config.QuoteURL, "00005")
	fetcher.feeds[feedURL] = quoteFeed
	fetcher.pages[pageURL] = quotePage

	quote, err := svc.GetStockQuote(context.Background(), " 5.HK ")
	require.NoError(t, err)

	assert.Equal(t, "00005", quote.Symbol)
	require.NotNil(t, quote.CompanyName)
	assert.Equal(t, "HSBC HOLDINGS", *quote.CompanyName)
	assert.Equal(t, 62.10, quote.CurrentPrice.Value)
	assert.InDelta(t, 0.35, quote.PriceChange.Value, 1e-9)
	assert.InDelta(t, 0.57, quote.PriceChangePercent.Value, 1e-9)
	assert.InDelta(t, 1.5e9, quote.Turnover.Value, 1e-3)
	require.NotNil(t, quote.TurnoverUnit)
	assert.Equal(t, "B", *quote.TurnoverUnit)
	require.NotNil(t, quote.LastUpdatedTime)
	assert.Equal(t, "16:08", *quote.LastUpdatedTime)
	assert.Equal(t, "AAStocks", quote.Source)
	assert.Equal(t, pageURL, quote.URL)

	headers := fetcher.headers[feedURL]
	assert.Equal(t, "XMLHttpRequest", headers["X-Requested-With"])
	assert.Equal(t, pageURL, headers["Referer"])
	assert.Contains(t, headers["Accept"], "application/json")
}

func TestService_GetStockQuotePageFailureIsIgnored(t *testing.T) {
	fetcher := newFakeFetcher()
	svc, config := newTestService(t, fetcher, nil)
	fetcher.feeds[fmt.Sprintf(config.FeedURL, "00700")] = quoteFeed

	quote, err := svc.GetStockQuote(context.Background(), "700")
	require.NoError(t, err)

	assert.Equal(t, "00700", quote.Symbol)
	assert.Nil(t, quote.CompanyName)
	assert.Equal(t, 62.10, quote.CurrentPrice.Value)
}

func TestService_GetStockQuoteByCompany(t *testing.T) {
	fetcher := newFakeFetcher()
	svc, config := newTestService(t, fetcher, &fakeGenerator{text: "Symbol: 00005, Company: HSBC Holdings plc"})
	fetcher.feeds[fmt.Sprintf(config.FeedURL, "00005")] = quoteFeed

	quote, err := svc.GetStockQuote(context.Background(), "HSBC")
	require.NoError(t, err)

	assert.Equal(t, "00005", quote.Symbol)
	require.NotNil(t, quote.CompanyName)
	assert.Equal(t, "HSBC Holdings plc", *quote.CompanyName)
	assert.False(t, fetcher.called(fmt.Sprintf(config.QuoteURL, "00005")), "a looked-up name is not re-derived")
}

func TestService_GetStockQuoteCompanyNotFound(t *testing.T) {
	fetcher := newFakeFetcher()
	svc, _ := newTestService(t, fetcher, &fakeGenerator{text: "NOT_FOUND"})

	_, err := svc.GetStockQuote(context.Background(), "Unknown Widgets")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrSymbolNotFound))
}

func TestService_GetStockQuoteLookupFailure(t *testing.T) {
	fetcher := newFakeFetcher()
	svc, _ := newTestService(t, fetcher, &fakeGenerator{err: fmt.Errorf("%w: quota", models.ErrGeneration)})

	_, err := svc.GetStockQuote(context.Background(), "HSBC")
	require.Error(t, err)

	var lookupErr *LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, "HSBC", lookupErr.Company)
	assert.True(t, errors.Is(err, models.ErrGeneration))
}

func TestService_GetStockQuoteWithoutProvider(t *testing.T) {
	fetcher := newFakeFetcher()
	svc, _ := newTestService(t, fetcher, nil)

	_, err := svc.GetStockQuote(context.Background(), "Tencent")
	require.Error(t, err)

	var lookupErr *LookupError
	assert.True(t, errors.As(err, &lookupErr))
	assert.True(t, errors.Is(err, models.ErrLookupUnavailable))
}

func TestService_GetStockQuoteNoData(t *testing.T) {
	fetcher := newFakeFetcher()
	svc, config := newTestService(t, fetcher, nil)
	fetcher.feeds[fmt.Sprintf(config.FeedURL, "99999")] = `[]`

	_, err := svc.GetStockQuote(context.Background(), "99999")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNoDataForSymbol))
}

func TestService_GetStockQuoteInvalidSymbol(t *testing.T) {
	fetcher := newFakeFetcher()
	svc, _ := newTestService(t, fetcher, nil)

	_, err := svc.GetStockQuote(context.Background(), "1234567")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidSymbol))
}
