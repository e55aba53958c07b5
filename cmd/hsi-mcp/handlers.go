package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hsi-mcp/internal/interfaces"
	"github.com/ternarybob/hsi-mcp/internal/models"
	"github.com/ternarybob/hsi-mcp/internal/services/market"
)

const hsiDataCacheKey = "hsi_data"

// toolService renders market results as envelopes and caches successes
type toolService struct {
	market interfaces.MarketService
	cache  interfaces.ResponseCache // nil disables caching
	logger arbor.ILogger
}

func newToolService(marketService interfaces.MarketService, cache interfaces.ResponseCache, logger arbor.ILogger) *toolService {
	return &toolService{market: marketService, cache: cache, logger: logger}
}

// cached returns the stored response for key, or produces, renders and
// stores a new one. Failures are never stored.
func (t *toolService) cached(ctx context.Context, key string, produce func(ctx context.Context) models.ToolResponse) string {
	if t.cache != nil {
		if value, ok := t.cache.Get(ctx, key); ok {
			return value
		}
	}

	resp := produce(ctx)
	rendered := formatResponse(resp)

	if resp.Success && t.cache != nil {
		if err := t.cache.Set(ctx, key, rendered); err != nil {
			t.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache response")
		}
	}
	return rendered
}

func (t *toolService) hsiData(ctx context.Context) models.ToolResponse {
	snapshot, err := t.market.GetIndexData(ctx)
	if err != nil {
		t.logger.Error().Err(err).Msg("Failed to get HSI data")
		return models.Failed(fmt.Sprintf("Failed to retrieve HSI data: %v", err))
	}
	return models.Succeeded(snapshot)
}

func (t *toolService) newsSummary(ctx context.Context, limit int) models.ToolResponse {
	news, err := t.market.GetNewsSummary(ctx, limit)
	if err != nil {
		t.logger.Error().Err(err).Int("limit", limit).Msg("Failed to get news summary")
		return models.Failed(fmt.Sprintf("Failed to retrieve news summary: %v", err))
	}
	return models.Succeeded(news)
}

func (t *toolService) stockQuote(ctx context.Context, input string) models.ToolResponse {
	quote, err := t.market.GetStockQuote(ctx, input)
	if err != nil {
		t.logger.Error().Err(err).Str("input", input).Msg("Failed to get stock quote")
		return models.Failed(quoteErrorMessage(input, err))
	}
	return models.Succeeded(quote)
}

// warmHSIData refreshes the cached index response regardless of its age
func (t *toolService) warmHSIData(ctx context.Context) error {
	if t.cache == nil {
		return nil
	}
	resp := t.hsiData(ctx)
	if !resp.Success {
		return errors.New(resp.Error)
	}
	return t.cache.Set(ctx, hsiDataCacheKey, formatResponse(resp))
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func logCall(logger arbor.ILogger, tool string) (string, time.Time) {
	requestID := uuid.New().String()
	logger.Debug().Str("request_id", requestID).Str("tool", tool).Msg("Tool call")
	return requestID, time.Now()
}

func logDone(logger arbor.ILogger, tool, requestID string, start time.Time) {
	logger.Debug().
		Str("request_id", requestID).
		Str("tool", tool).
		Dur("elapsed", time.Since(start)).
		Msg("Tool call complete")
}

// handleGetHSIData implements the get_hsi_data tool
func handleGetHSIData(tools *toolService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		requestID, start := logCall(logger, "get_hsi_data")
		defer logDone(logger, "get_hsi_data", requestID, start)

		return textResult(tools.cached(ctx, hsiDataCacheKey, tools.hsiData)), nil
	}
}

// handleGetNewsSummary implements the get_hsi_news_summary tool
func handleGetNewsSummary(tools *toolService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		requestID, start := logCall(logger, "get_hsi_news_summary")
		defer logDone(logger, "get_hsi_news_summary", requestID, start)

		limit := market.ClampNewsLimit(request.GetInt("limit", market.DefaultNewsLimit))
		key := fmt.Sprintf("hsi_news_%d", limit)

		return textResult(tools.cached(ctx, key, func(ctx context.Context) models.ToolResponse {
			return tools.newsSummary(ctx, limit)
		})), nil
	}
}

// handleGetStockQuote implements the get_stock_quote tool
func handleGetStockQuote(tools *toolService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		requestID, start := logCall(logger, "get_stock_quote")
		defer logDone(logger, "get_stock_quote", requestID, start)

		input, err := request.RequireString("symbol_or_company")
		input = strings.TrimSpace(input)
		if err != nil || input == "" {
			return textResult(formatResponse(models.Failed(
				"Failed to retrieve stock quote: symbol_or_company parameter is required",
			))), nil
		}

		key := "stock_quote_" + input
		return textResult(tools.cached(ctx, key, func(ctx context.Context) models.ToolResponse {
			return tools.stockQuote(ctx, input)
		})), nil
	}
}
