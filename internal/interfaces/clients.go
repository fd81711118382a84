package interfaces

import (
	"context"

	"github.com/bobmcallan/carteira/internal/models"
)

// QuoteClient is the price-lookup collaborator (market-data provider).
// Provider failures surface as nil/empty results with an error the caller
// may log; they never carry provider-level detail into the engine.
type QuoteClient interface {
	// GetCurrentPrice returns the latest close for a ticker, or 0 and an
	// error when the provider has no data.
	GetCurrentPrice(ctx context.Context, ticker string) (float64, error)

	// GetHistoricalPrices returns daily (date, close) observations in
	// [start, end], oldest first. Dates use the provider's day-first
	// textual format; the return-series builder normalizes them.
	GetHistoricalPrices(ctx context.Context, ticker, start, end string) ([]models.PricePoint, error)
}

// Notifier is the optional presentation sink for human-readable advisories
// (insufficient data warnings, triggered alerts). The engine functions
// correctly when no sink is attached.
type Notifier interface {
	Notify(message string)
}
