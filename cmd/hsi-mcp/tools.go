package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createHSIDataTool returns the get_hsi_data tool definition
func createHSIDataTool() mcp.Tool {
	return mcp.NewTool("get_hsi_data",
		mcp.WithDescription("Get current Hang Seng Index data including point, daily change, turnover, and timestamp. "+
			"Returns JSON with current_point, daily_change_point, daily_change_percent, turnover (HKD), timestamp, source and url."),
	)
}

// createNewsSummaryTool returns the get_hsi_news_summary tool definition
func createNewsSummaryTool() mcp.Tool {
	return mcp.NewTool("get_hsi_news_summary",
		mcp.WithDescription("Get top Hong Kong market news headlines with an AI-generated summary. "+
			"Returns JSON with headlines (headline, url), summary, count and timestamp."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of headlines to retrieve (default: 10, max: 20)"),
		),
	)
}

// createStockQuoteTool returns the get_stock_quote tool definition
func createStockQuoteTool() mcp.Tool {
	return mcp.NewTool("get_stock_quote",
		mcp.WithDescription("Get the current quote for a Hong Kong listed stock by symbol or company name. "+
			"Returns JSON with symbol, company_name, current_price, price_change, price_change_percent, "+
			"turnover, turnover_unit, last_updated_time, timestamp, source and url."),
		mcp.WithString("symbol_or_company",
			mcp.Required(),
			mcp.Description("HK stock symbol (e.g. \"00005\", \"388\", \"700.HK\") or company name (e.g. \"HSBC\")"),
		),
	)
}
