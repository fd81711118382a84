package interfaces

import (
	"context"

	"github.com/bobmcallan/carteira/internal/models"
)

// ValuationService aggregates positions and marks them to market.
type ValuationService interface {
	// Snapshot values the active portfolio at current prices.
	Snapshot(ctx context.Context) (*models.PortfolioSnapshot, error)

	// Position folds one ticker's ledger into its current position.
	Position(ctx context.Context, ticker string) (*models.Position, error)

	// RecordTrade appends a transaction, creating the asset on first use.
	RecordTrade(ctx context.Context, ticker string, category models.AssetCategory, direction models.TransactionDirection, quantity, price float64, date string) (*models.Transaction, error)

	// RefreshQuotes fetches current prices for all active holdings and
	// persists today's observation per asset. Returns the tickers updated.
	RefreshQuotes(ctx context.Context) ([]string, error)
}

// RiskService computes risk statistics from persisted price history.
type RiskService interface {
	// Volatility returns the annualized volatility of daily returns over
	// [start, end]. Returns 0 with an advisory when data is insufficient.
	Volatility(ctx context.Context, ticker, start, end string) (float64, error)

	// Beta returns the sensitivity of the asset's returns to the
	// benchmark's over [start, end]. Returns 0 with an advisory when data
	// is insufficient or the benchmark variance is zero.
	Beta(ctx context.Context, ticker, benchmark, start, end string) (float64, error)

	// Report bundles volatility, beta, and the sample size for one asset.
	Report(ctx context.Context, ticker, benchmark, start, end string) (*models.RiskReport, error)

	// EnsureHistory backfills up to one year of price history for the
	// asset when fewer than two usable observations exist. The fill is
	// idempotent; duplicate dates are ignored by the store.
	EnsureHistory(ctx context.Context, ticker, end string) (int, error)
}

// ProjectionService simulates forward portfolio trajectories.
type ProjectionService interface {
	MonteCarlo(ctx context.Context, initialValue float64, runs, days int) (*models.MonteCarloResult, error)
	Linear(initialValue, annualRate float64, years int) (*models.LinearProjection, error)
}

// AlertService evaluates price alerts against current market data.
type AlertService interface {
	// Check sweeps active alerts, deactivates any that trip, and returns
	// them. Quote failures skip the alert, they do not fail the sweep.
	Check(ctx context.Context) ([]*models.TriggeredAlert, error)
}
