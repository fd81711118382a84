// Package valuation folds the transaction ledger into positions and marks
// them to market.
package valuation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/interfaces"
	"github.com/bobmcallan/carteira/internal/models"
	"github.com/bobmcallan/carteira/internal/series"
)

// ErrInvalidTrade is returned when a trade fails validation before touching
// the ledger.
var ErrInvalidTrade = errors.New("invalid trade")

// Service implements interfaces.ValuationService.
type Service struct {
	store  interfaces.AssetStore
	quotes interfaces.QuoteClient
	logger *common.Logger
}

func NewService(store interfaces.AssetStore, quotes interfaces.QuoteClient, logger *common.Logger) *Service {
	return &Service{store: store, quotes: quotes, logger: logger}
}

// AggregatePosition folds one asset's transactions into net quantity and
// cost basis. Buys add to both; sells reduce quantity only. Empty input
// yields (0, 0).
func AggregatePosition(txs []*models.Transaction) (quantity, costBasis float64) {
	for _, tx := range txs {
		switch tx.Direction {
		case models.DirectionBuy:
			quantity += tx.Quantity
			costBasis += tx.Quantity * tx.Price
		case models.DirectionSell:
			quantity -= tx.Quantity
		}
	}
	return quantity, costBasis
}

// Position folds the ledger of a single ticker into its current position.
func (s *Service) Position(ctx context.Context, ticker string) (*models.Position, error) {
	asset, err := s.store.GetAssetByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.GetTransactions(ctx, asset.ID)
	if err != nil {
		return nil, err
	}
	quantity, costBasis := AggregatePosition(txs)
	return &models.Position{Asset: *asset, Quantity: quantity, CostBasis: costBasis}, nil
}

// Snapshot values every active position at current prices. Quote failures
// fall back to the most recent stored observation; a holding with no price
// at all is carried at zero value.
func (s *Service) Snapshot(ctx context.Context) (*models.PortfolioSnapshot, error) {
	positions, err := s.store.GetPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	snapshot := &models.PortfolioSnapshot{
		Holdings: []models.HoldingValuation{},
		AsOf:     time.Now().UTC(),
	}

	for _, pos := range positions {
		if !pos.Active() {
			continue
		}

		price := s.currentPrice(ctx, pos.Asset)
		holding := models.HoldingValuation{
			Ticker:       pos.Asset.Ticker,
			Category:     pos.Asset.Category,
			Quantity:     pos.Quantity,
			AvgBuyPrice:  safeDiv(pos.CostBasis, pos.Quantity),
			CurrentPrice: price,
			CostBasis:    pos.CostBasis,
			CurrentValue: pos.Quantity * price,
		}
		holding.ReturnPct = returnPct(holding.CurrentValue, holding.CostBasis)

		snapshot.Holdings = append(snapshot.Holdings, holding)
		snapshot.CostBasis += holding.CostBasis
		snapshot.CurrentValue += holding.CurrentValue
	}

	snapshot.ReturnPct = returnPct(snapshot.CurrentValue, snapshot.CostBasis)
	return snapshot, nil
}

// currentPrice resolves a price for valuation: live quote for quotable
// categories, otherwise (or on provider failure) the latest stored
// observation, otherwise zero.
func (s *Service) currentPrice(ctx context.Context, asset models.Asset) float64 {
	if asset.Category.HasAutoQuote() {
		price, err := s.quotes.GetCurrentPrice(ctx, asset.Ticker)
		if err == nil && price > 0 {
			return price
		}
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", asset.Ticker).Msg("quote failed, falling back to stored price")
		}
	}

	history, err := s.store.GetPriceHistory(ctx, asset.ID, "", "")
	if err != nil || len(history) == 0 {
		return 0
	}
	return history[len(history)-1].Price
}

// RecordTrade validates and appends one trade, registering the asset on
// first use. The trade date accepts day-first or ISO encoding and is stored
// in ISO form.
func (s *Service) RecordTrade(ctx context.Context, ticker string, category models.AssetCategory, direction models.TransactionDirection, quantity, price float64, date string) (*models.Transaction, error) {
	ticker = models.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, fmt.Errorf("%w: empty ticker", ErrInvalidTrade)
	}
	if direction != models.DirectionBuy && direction != models.DirectionSell {
		return nil, fmt.Errorf("%w: unknown direction %q", ErrInvalidTrade, direction)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidTrade)
	}
	if price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidTrade)
	}
	parsed, ok := series.ParseDate(date)
	if !ok {
		return nil, fmt.Errorf("%w: unparseable date %q", ErrInvalidTrade, date)
	}

	asset, err := s.store.GetAssetByTicker(ctx, ticker)
	if err != nil {
		if !models.ValidCategory(category) {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidTrade, category)
		}
		asset, err = s.store.AddAsset(ctx, ticker, category)
		if err != nil {
			return nil, fmt.Errorf("failed to register asset %s: %w", ticker, err)
		}
	}

	tx := &models.Transaction{
		AssetID:   asset.ID,
		Direction: direction,
		Quantity:  quantity,
		Price:     price,
		Date:      parsed.Format("2006-01-02"),
	}
	if err := s.store.AddTransaction(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("ticker", ticker).
		Str("direction", string(direction)).
		Float64("quantity", quantity).
		Float64("price", price).
		Msg("trade recorded")
	return tx, nil
}

// RefreshQuotes fetches current prices for quotable active holdings and
// persists today's observation per asset. Per-ticker failures are logged
// and skipped; the refresh reports only the tickers that updated.
func (s *Service) RefreshQuotes(ctx context.Context) ([]string, error) {
	positions, err := s.store.GetPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	today := time.Now().UTC().Format("2006-01-02")
	updated := []string{}
	for _, pos := range positions {
		if !pos.Active() || !pos.Asset.Category.HasAutoQuote() {
			continue
		}
		price, err := s.quotes.GetCurrentPrice(ctx, pos.Asset.Ticker)
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", pos.Asset.Ticker).Msg("quote refresh failed")
			continue
		}
		if err := s.store.AddPriceObservation(ctx, pos.Asset.ID, price, today); err != nil {
			s.logger.Error().Err(err).Str("ticker", pos.Asset.Ticker).Msg("failed to persist observation")
			continue
		}
		updated = append(updated, pos.Asset.Ticker)
	}

	s.logger.Info().Int("updated", len(updated)).Msg("quotes refreshed")
	return updated, nil
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func returnPct(current, basis float64) float64 {
	if basis == 0 {
		return 0
	}
	return (current - basis) / basis * 100
}
