// Package projection simulates forward portfolio trajectories: Monte Carlo
// paths driven by historical daily returns, and deterministic compound
// growth.
package projection

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/interfaces"
	"github.com/bobmcallan/carteira/internal/models"
	"github.com/bobmcallan/carteira/internal/series"
)

// ErrNoResult is returned when the portfolio has too little return history
// to parameterize a simulation.
var ErrNoResult = errors.New("insufficient return history for projection")

// ErrBadInput is returned for out-of-range projection parameters.
var ErrBadInput = errors.New("invalid projection input")

const (
	// maxRuns and maxDays bound a single simulation request.
	maxRuns = 100000
	maxDays = 5 * series.TradingDaysPerYear
)

// Service implements interfaces.ProjectionService.
type Service struct {
	store  interfaces.AssetStore
	logger *common.Logger
	seed   *int64
}

// Option configures the Service.
type Option func(*Service)

// WithSeed pins the random source for reproducible simulations. Production
// leaves the source unseeded.
func WithSeed(seed int64) Option {
	return func(s *Service) { s.seed = &seed }
}

func NewService(store interfaces.AssetStore, logger *common.Logger, opts ...Option) *Service {
	s := &Service{store: store, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// portfolioReturns folds every active holding's price history into one
// daily return series: per-asset returns outer-joined by date and summed,
// missing dates contributing zero.
func (s *Service) portfolioReturns(ctx context.Context) (series.Series, error) {
	positions, err := s.store.GetPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	perAsset := make([]series.Series, 0, len(positions))
	for _, pos := range positions {
		if !pos.Active() {
			continue
		}
		history, err := s.store.GetPriceHistory(ctx, pos.Asset.ID, "", "")
		if err != nil {
			return nil, fmt.Errorf("failed to load history for %s: %w", pos.Asset.Ticker, err)
		}
		points := make([]models.PricePoint, len(history))
		for i, obs := range history {
			points[i] = models.PricePoint{Date: obs.Date, Price: obs.Price}
		}
		returns, err := series.Build(points)
		if err != nil {
			return nil, fmt.Errorf("failed to build return series for %s: %w", pos.Asset.Ticker, err)
		}
		if len(returns) > 0 {
			perAsset = append(perAsset, returns)
		}
	}

	return series.SumAligned(perAsset...), nil
}

// MonteCarlo simulates runs independent trajectories of days values each,
// Values[0] being the initial value. Daily steps draw from a normal
// distribution parameterized by the mean and sample standard deviation of
// the portfolio's historical daily returns.
func (s *Service) MonteCarlo(ctx context.Context, initialValue float64, runs, days int) (*models.MonteCarloResult, error) {
	if initialValue <= 0 {
		return nil, fmt.Errorf("%w: initial value must be positive", ErrBadInput)
	}
	if runs < 1 || runs > maxRuns {
		return nil, fmt.Errorf("%w: runs must be in [1, %d]", ErrBadInput, maxRuns)
	}
	if days < 1 || days > maxDays {
		return nil, fmt.Errorf("%w: days must be in [1, %d]", ErrBadInput, maxDays)
	}

	returns, err := s.portfolioReturns(ctx)
	if err != nil {
		return nil, err
	}
	if len(returns) < 2 {
		return nil, ErrNoResult
	}

	values := returns.Returns()
	mean := series.Mean(values)
	std := series.SampleStdDev(values)

	result := &models.MonteCarloResult{
		InitialValue: initialValue,
		Days:         days,
		Runs:         runs,
		MeanReturn:   mean,
		StdReturn:    std,
		Values:       make([][]float64, days),
	}
	for day := range result.Values {
		result.Values[day] = make([]float64, runs)
	}

	baseSeed := rand.Int63()
	if s.seed != nil {
		baseSeed = *s.seed
	}

	// Each run derives its own source from the base seed, so paths are
	// independent and a pinned seed reproduces the full matrix regardless
	// of how runs are scheduled across workers.
	workers := runtime.GOMAXPROCS(0)
	chunk := (runs + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < runs; start += chunk {
		end := start + chunk
		if end > runs {
			end = runs
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for run := start; run < end; run++ {
				rng := rand.New(rand.NewSource(baseSeed + int64(run)))
				value := initialValue
				result.Values[0][run] = value
				for day := 1; day < days; day++ {
					value *= 1 + (mean + rng.NormFloat64()*std)
					result.Values[day][run] = value
				}
			}
		}(start, end)
	}
	wg.Wait()

	s.logger.Debug().
		Int("runs", runs).
		Int("days", days).
		Float64("mean", mean).
		Float64("std", std).
		Msg("monte carlo simulation completed")
	return result, nil
}

// Linear compounds the initial value at a fixed annual rate. Values[0] is
// the initial value; Values[y] = Values[y-1] * (1 + rate).
func (s *Service) Linear(initialValue, annualRate float64, years int) (*models.LinearProjection, error) {
	if initialValue <= 0 {
		return nil, fmt.Errorf("%w: initial value must be positive", ErrBadInput)
	}
	if years < 1 {
		return nil, fmt.Errorf("%w: years must be at least 1", ErrBadInput)
	}
	if math.IsNaN(annualRate) || annualRate <= -1 {
		return nil, fmt.Errorf("%w: annual rate must be greater than -100%%", ErrBadInput)
	}

	result := &models.LinearProjection{
		InitialValue: initialValue,
		AnnualRate:   annualRate,
		Years:        years,
		Values:       make([]float64, years+1),
	}
	result.Values[0] = initialValue
	for y := 1; y <= years; y++ {
		result.Values[y] = result.Values[y-1] * (1 + annualRate)
	}
	return result, nil
}
