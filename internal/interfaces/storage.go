// Package interfaces defines service contracts for Carteira
package interfaces

import (
	"context"

	"github.com/bobmcallan/carteira/internal/models"
)

// AssetStore is the data-access collaborator. Implementations own connection
// and write-serialization discipline; the valuation/risk core never touches
// storage directly.
type AssetStore interface {
	// Assets
	AddAsset(ctx context.Context, ticker string, category models.AssetCategory) (*models.Asset, error)
	GetAssetByTicker(ctx context.Context, ticker string) (*models.Asset, error)
	GetAssetByID(ctx context.Context, id string) (*models.Asset, error)
	ListAssets(ctx context.Context) ([]*models.Asset, error)
	RenameAsset(ctx context.Context, id, newTicker string, category models.AssetCategory) error
	// DeleteAsset removes the asset and cascades to transactions, price
	// history, dividends, alerts, and events.
	DeleteAsset(ctx context.Context, id string) error

	// Transactions (append-only ledger)
	AddTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransactions(ctx context.Context, assetID string) ([]*models.Transaction, error)

	// Price history. AddPriceObservation is a no-op when an observation
	// already exists for (asset, date).
	AddPriceObservation(ctx context.Context, assetID string, price float64, date string) error
	GetPriceHistory(ctx context.Context, assetID, start, end string) ([]*models.PriceObservation, error)

	// Positions: every asset with its folded net quantity and cost basis.
	GetPositions(ctx context.Context) ([]*models.Position, error)

	// Dividends
	AddDividend(ctx context.Context, d *models.Dividend) error
	GetDividends(ctx context.Context, assetID string) ([]*models.Dividend, error)

	// Alerts
	AddAlert(ctx context.Context, a *models.Alert) error
	GetActiveAlerts(ctx context.Context) ([]*models.Alert, error)
	DeactivateAlert(ctx context.Context, id string) error

	// Calendar events
	AddEvent(ctx context.Context, e *models.CalendarEvent) error
	GetEvents(ctx context.Context, start, end string) ([]*models.CalendarEvent, error)

	// Export/Import of the full database as a portable snapshot.
	Export(ctx context.Context) (*models.ExportBundle, error)
	Import(ctx context.Context, bundle *models.ExportBundle) error

	Close() error
}
