// Package risk computes volatility and beta from persisted price history.
//
// Volatility and Beta read the store only; EnsureHistory is the cache fill
// that makes a thin history usable, and Report runs it before computing so a
// thin asset gets one backfill attempt. Benchmark closes are the one
// exception: beta fetches them straight from the market-data provider and
// never persists them.
package risk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/interfaces"
	"github.com/bobmcallan/carteira/internal/models"
	"github.com/bobmcallan/carteira/internal/series"
	"github.com/bobmcallan/carteira/internal/storage/sqlite"
)

// minObservations is the smallest history that yields a return series.
const minObservations = 2

// Service implements interfaces.RiskService.
type Service struct {
	store    interfaces.AssetStore
	quotes   interfaces.QuoteClient
	notifier interfaces.Notifier
	logger   *common.Logger
}

// NewService builds the risk engine. notifier may be nil; advisories are
// then log-only.
func NewService(store interfaces.AssetStore, quotes interfaces.QuoteClient, notifier interfaces.Notifier, logger *common.Logger) *Service {
	return &Service{store: store, quotes: quotes, notifier: notifier, logger: logger}
}

func (s *Service) advise(message string) {
	s.logger.Warn().Msg(message)
	if s.notifier != nil {
		s.notifier.Notify(message)
	}
}

// returnSeries loads persisted history for a ticker and folds it into daily
// returns. An unknown ticker or thin history yields an empty series.
func (s *Service) returnSeries(ctx context.Context, ticker, start, end string) (series.Series, error) {
	asset, err := s.store.GetAssetByTicker(ctx, ticker)
	if errors.Is(err, sqlite.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	history, err := s.store.GetPriceHistory(ctx, asset.ID, start, end)
	if err != nil {
		return nil, err
	}

	points := make([]models.PricePoint, len(history))
	for i, obs := range history {
		points[i] = models.PricePoint{Date: obs.Date, Price: obs.Price}
	}
	return series.Build(points)
}

// Volatility returns the annualized standard deviation of daily returns over
// [start, end]. Insufficient data yields 0 with an advisory, not an error.
func (s *Service) Volatility(ctx context.Context, ticker, start, end string) (float64, error) {
	ticker = models.NormalizeTicker(ticker)
	returns, err := s.returnSeries(ctx, ticker, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to build return series for %s: %w", ticker, err)
	}
	// Sample statistics need at least two returns (three observations).
	if len(returns) < minObservations {
		s.advise(fmt.Sprintf("insufficient price history for %s, volatility unavailable", ticker))
		return 0, nil
	}
	return series.AnnualizedVolatility(series.SampleStdDev(returns.Returns())), nil
}

// benchmarkReturns fetches benchmark closes from the market-data provider
// and folds them into daily returns. Benchmark data is never persisted. An
// empty end defaults to today, an empty start to one year before end.
func (s *Service) benchmarkReturns(ctx context.Context, benchmark, start, end string) (series.Series, error) {
	if end == "" {
		end = time.Now().Format("2006-01-02")
	}
	if start == "" {
		endTime, ok := series.ParseDate(end)
		if !ok {
			return nil, fmt.Errorf("unparseable end date %q", end)
		}
		start = endTime.AddDate(-1, 0, 0).Format("2006-01-02")
	}
	points, err := s.quotes.GetHistoricalPrices(ctx, benchmark, start, end)
	if err != nil {
		return nil, err
	}
	return series.Build(points)
}

// Beta returns cov(asset, benchmark) / var(benchmark) over daily returns
// inner-joined by date. The asset series comes from the store, the benchmark
// series from the provider. Insufficient overlap, a flat benchmark or a
// provider failure yields 0 with an advisory.
func (s *Service) Beta(ctx context.Context, ticker, benchmark, start, end string) (float64, error) {
	ticker = models.NormalizeTicker(ticker)
	benchmark = models.NormalizeTicker(benchmark)

	assetReturns, err := s.returnSeries(ctx, ticker, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to build return series for %s: %w", ticker, err)
	}
	benchReturns, err := s.benchmarkReturns(ctx, benchmark, start, end)
	if err != nil {
		s.advise(fmt.Sprintf("benchmark history for %s unavailable, beta unavailable: %v", benchmark, err))
		return 0, nil
	}

	x, y := series.Align(assetReturns, benchReturns)
	if len(x) < minObservations {
		s.advise(fmt.Sprintf("insufficient overlapping history for %s vs %s, beta unavailable", ticker, benchmark))
		return 0, nil
	}

	variance := series.SampleVariance(y)
	if variance == 0 {
		s.advise(fmt.Sprintf("benchmark %s shows no variance, beta unavailable", benchmark))
		return 0, nil
	}
	return series.SampleCovariance(x, y) / variance, nil
}

// Report computes the full risk picture for one asset in a single call. A
// thin price cache gets one backfill attempt first; backfill failures are
// logged and the statistics fall through to their 0 sentinels.
func (s *Service) Report(ctx context.Context, ticker, benchmark, start, end string) (*models.RiskReport, error) {
	fillEnd := end
	if fillEnd == "" {
		fillEnd = time.Now().Format("2006-01-02")
	}
	if _, err := s.EnsureHistory(ctx, ticker, fillEnd); err != nil {
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("price history backfill failed")
	}

	volatility, err := s.Volatility(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}
	beta, err := s.Beta(ctx, ticker, benchmark, start, end)
	if err != nil {
		return nil, err
	}
	returns, err := s.returnSeries(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}
	return &models.RiskReport{
		Ticker:     models.NormalizeTicker(ticker),
		Benchmark:  models.NormalizeTicker(benchmark),
		Volatility: volatility,
		Beta:       beta,
		DataPoints: len(returns),
	}, nil
}

// EnsureHistory backfills up to one year of daily closes ending at end (ISO
// date) when the stored history is too thin to build a return series. The
// ticker must already be registered. Returns the number of provider samples
// written; duplicates are ignored by the store, so the fill is idempotent.
func (s *Service) EnsureHistory(ctx context.Context, ticker, end string) (int, error) {
	ticker = models.NormalizeTicker(ticker)
	endTime, ok := series.ParseDate(end)
	if !ok {
		return 0, fmt.Errorf("unparseable end date %q", end)
	}
	endISO := endTime.Format("2006-01-02")
	startISO := endTime.AddDate(-1, 0, 0).Format("2006-01-02")

	asset, err := s.store.GetAssetByTicker(ctx, ticker)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve asset %s: %w", ticker, err)
	}

	history, err := s.store.GetPriceHistory(ctx, asset.ID, startISO, endISO)
	if err != nil {
		return 0, err
	}
	if len(history) >= minObservations {
		return 0, nil
	}

	points, err := s.quotes.GetHistoricalPrices(ctx, ticker, startISO, endISO)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch history for %s: %w", ticker, err)
	}

	written := 0
	for _, p := range points {
		date, ok := series.ParseDate(p.Date)
		if !ok {
			continue
		}
		if err := s.store.AddPriceObservation(ctx, asset.ID, p.Price, date.Format("2006-01-02")); err != nil {
			return written, err
		}
		written++
	}

	s.logger.Info().Str("ticker", ticker).Int("observations", written).Msg("price history backfilled")
	return written, nil
}
