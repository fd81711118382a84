// Package alert sweeps active price alerts against current market data.
package alert

import (
	"context"
	"fmt"
	"math"

	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/interfaces"
	"github.com/bobmcallan/carteira/internal/models"
)

// Service implements interfaces.AlertService.
type Service struct {
	store    interfaces.AssetStore
	quotes   interfaces.QuoteClient
	notifier interfaces.Notifier
	logger   *common.Logger
}

// NewService builds the alert engine. notifier may be nil.
func NewService(store interfaces.AssetStore, quotes interfaces.QuoteClient, notifier interfaces.Notifier, logger *common.Logger) *Service {
	return &Service{store: store, quotes: quotes, notifier: notifier, logger: logger}
}

// Check evaluates every active alert and deactivates the ones that trip.
// Alerts whose quote cannot be fetched are skipped and stay active; the
// sweep itself only fails on storage errors.
func (s *Service) Check(ctx context.Context) ([]*models.TriggeredAlert, error) {
	alerts, err := s.store.GetActiveAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts: %w", err)
	}
	if len(alerts) == 0 {
		return []*models.TriggeredAlert{}, nil
	}

	positions, err := s.store.GetPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}
	avgBuyByAsset := make(map[string]float64, len(positions))
	for _, pos := range positions {
		if pos.Quantity > 0 {
			avgBuyByAsset[pos.Asset.ID] = pos.CostBasis / pos.Quantity
		}
	}

	triggered := []*models.TriggeredAlert{}
	for _, a := range alerts {
		asset, err := s.store.GetAssetByID(ctx, a.AssetID)
		if err != nil {
			s.logger.Warn().Err(err).Str("alert_id", a.ID).Msg("alert references missing asset")
			continue
		}

		price, err := s.quotes.GetCurrentPrice(ctx, asset.Ticker)
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", asset.Ticker).Msg("quote failed, alert skipped")
			continue
		}

		message, fired := s.evaluate(a, asset.Ticker, price, avgBuyByAsset[a.AssetID])
		if !fired {
			continue
		}

		if err := s.store.DeactivateAlert(ctx, a.ID); err != nil {
			s.logger.Error().Err(err).Str("alert_id", a.ID).Msg("failed to deactivate alert")
			continue
		}

		a.Active = false
		triggered = append(triggered, &models.TriggeredAlert{
			Alert:   *a,
			Ticker:  asset.Ticker,
			Price:   price,
			Message: message,
		})
		s.logger.Info().Str("ticker", asset.Ticker).Float64("price", price).Msg(message)
		if s.notifier != nil {
			s.notifier.Notify(message)
		}
	}

	return triggered, nil
}

func (s *Service) evaluate(a *models.Alert, ticker string, price, avgBuy float64) (string, bool) {
	switch a.Kind {
	case models.AlertPriceTarget:
		if price >= a.Threshold {
			return fmt.Sprintf("%s reached price target %.2f (now %.2f)", ticker, a.Threshold, price), true
		}
	case models.AlertPercentChange:
		// Needs a held position; the reference point is the average buy
		// price.
		if avgBuy <= 0 {
			return "", false
		}
		change := (price - avgBuy) / avgBuy * 100
		if math.Abs(change) >= a.Threshold {
			return fmt.Sprintf("%s moved %.1f%% from average buy price %.2f (now %.2f)", ticker, change, avgBuy, price), true
		}
	default:
		s.logger.Warn().Str("kind", string(a.Kind)).Msg("unknown alert kind")
	}
	return "", false
}
