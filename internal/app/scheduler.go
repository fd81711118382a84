package app

import (
	"context"
	"time"

	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/interfaces"
)

// runScheduler refreshes quotes and sweeps alerts on a fixed interval.
func runScheduler(ctx context.Context, valuation interfaces.ValuationService, alerts interfaces.AlertService, logger *common.Logger, interval time.Duration) {
	logger.Info().Dur("interval", interval).Msg("scheduler started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("scheduler stopped")
			return
		case <-ticker.C:
			refresh(ctx, valuation, alerts, logger)
		}
	}
}

func refresh(ctx context.Context, valuation interfaces.ValuationService, alerts interfaces.AlertService, logger *common.Logger) {
	start := time.Now()

	updated, err := valuation.RefreshQuotes(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("scheduled quote refresh failed")
		return
	}

	triggered, err := alerts.Check(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("scheduled alert sweep failed")
		return
	}

	logger.Info().
		Int("tickers", len(updated)).
		Int("alerts_triggered", len(triggered)).
		Dur("elapsed", time.Since(start)).
		Msg("scheduled refresh complete")
}
