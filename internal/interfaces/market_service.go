package interfaces

import (
	"context"

	"github.com/ternarybob/hsi-mcp/internal/models"
)

// MarketService answers the three market tools
type MarketService interface {
	GetIndexData(ctx context.Context) (*models.IndexSnapshot, error)
	GetNewsSummary(ctx context.Context, limit int) (*models.NewsSummary, error)
	GetStockQuote(ctx context.Context, symbolOrCompany string) (*models.Quote, error)
}
