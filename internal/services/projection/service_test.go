package projection

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/models"
	"github.com/bobmcallan/carteira/internal/storage/sqlite"
)

func approxEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func newStoreWithHoldings(t *testing.T, prices map[string]map[string]float64) *sqlite.Store {
	t.Helper()
	store, err := sqlite.NewStore(":memory:", common.NewSilentLogger())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	for ticker, history := range prices {
		asset, err := store.AddAsset(ctx, ticker, models.CategoryEquity)
		if err != nil {
			t.Fatal(err)
		}
		if err := store.AddTransaction(ctx, &models.Transaction{
			AssetID: asset.ID, Direction: models.DirectionBuy, Quantity: 10, Price: 10, Date: "2024-01-01",
		}); err != nil {
			t.Fatal(err)
		}
		for date, price := range history {
			if err := store.AddPriceObservation(ctx, asset.ID, price, date); err != nil {
				t.Fatal(err)
			}
		}
	}
	return store
}

func TestLinear_CompoundGrowth(t *testing.T) {
	svc := NewService(nil, common.NewSilentLogger())

	projection, err := svc.Linear(1000, 0.10, 3)
	if err != nil {
		t.Fatalf("Linear failed: %v", err)
	}

	want := []float64{1000, 1100, 1210, 1331}
	if len(projection.Values) != len(want) {
		t.Fatalf("got %d values, want %d", len(projection.Values), len(want))
	}
	for i := range want {
		if !approxEqual(projection.Values[i], want[i], 1e-9) {
			t.Errorf("Values[%d] = %f, want %f", i, projection.Values[i], want[i])
		}
	}
}

func TestLinear_Validation(t *testing.T) {
	svc := NewService(nil, common.NewSilentLogger())

	cases := []struct {
		name    string
		initial float64
		rate    float64
		years   int
	}{
		{"zero initial", 0, 0.10, 3},
		{"negative initial", -100, 0.10, 3},
		{"zero years", 1000, 0.10, 0},
		{"rate at -100%", 1000, -1, 3},
		{"NaN rate", 1000, math.NaN(), 3},
	}
	for _, tc := range cases {
		if _, err := svc.Linear(tc.initial, tc.rate, tc.years); !errors.Is(err, ErrBadInput) {
			t.Errorf("%s: expected ErrBadInput, got %v", tc.name, err)
		}
	}
}

func TestMonteCarlo_ZeroVarianceHistory(t *testing.T) {
	// Two holdings whose summed daily return is always zero: one rises
	// exactly as much as the other falls.
	store := newStoreWithHoldings(t, map[string]map[string]float64{
		"UPPP3": {"2024-01-01": 100, "2024-01-02": 110, "2024-01-03": 121},
		"DOWN3": {"2024-01-01": 100, "2024-01-02": 90, "2024-01-03": 81},
	})
	svc := NewService(store, common.NewSilentLogger(), WithSeed(1))

	result, err := svc.MonteCarlo(context.Background(), 5000, 10, 20)
	if err != nil {
		t.Fatalf("MonteCarlo failed: %v", err)
	}

	if !approxEqual(result.MeanReturn, 0, 1e-9) || !approxEqual(result.StdReturn, 0, 1e-9) {
		t.Fatalf("mean = %f, std = %f, want both 0", result.MeanReturn, result.StdReturn)
	}
	// Every path stays at the initial value.
	for day := range result.Values {
		for run, v := range result.Values[day] {
			if !approxEqual(v, 5000, 1e-9) {
				t.Fatalf("Values[%d][%d] = %f, want 5000", day, run, v)
			}
		}
	}
}

func TestMonteCarlo_ShapeAndInitialRow(t *testing.T) {
	store := newStoreWithHoldings(t, map[string]map[string]float64{
		"PETR4": {"2024-01-01": 100, "2024-01-02": 103, "2024-01-03": 99, "2024-01-04": 104},
	})
	svc := NewService(store, common.NewSilentLogger(), WithSeed(42))

	result, err := svc.MonteCarlo(context.Background(), 1000, 8, 30)
	if err != nil {
		t.Fatalf("MonteCarlo failed: %v", err)
	}

	if len(result.Values) != 30 {
		t.Fatalf("got %d days, want 30", len(result.Values))
	}
	for day, row := range result.Values {
		if len(row) != 8 {
			t.Fatalf("day %d has %d runs, want 8", day, len(row))
		}
	}
	for run, v := range result.Values[0] {
		if !approxEqual(v, 1000, 1e-9) {
			t.Errorf("Values[0][%d] = %f, want initial 1000", run, v)
		}
	}
	if result.StdReturn <= 0 {
		t.Errorf("std = %f, want > 0", result.StdReturn)
	}
}

func TestMonteCarlo_FixedSeedIsReproducible(t *testing.T) {
	prices := map[string]map[string]float64{
		"PETR4": {"2024-01-01": 100, "2024-01-02": 103, "2024-01-03": 99, "2024-01-04": 104},
	}
	storeA := newStoreWithHoldings(t, prices)
	storeB := newStoreWithHoldings(t, prices)

	a, err := NewService(storeA, common.NewSilentLogger(), WithSeed(7)).MonteCarlo(context.Background(), 1000, 16, 40)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewService(storeB, common.NewSilentLogger(), WithSeed(7)).MonteCarlo(context.Background(), 1000, 16, 40)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(a.Values, b.Values) {
		t.Error("same seed produced different simulations")
	}
}

func TestMonteCarlo_InsufficientHistory(t *testing.T) {
	store := newStoreWithHoldings(t, map[string]map[string]float64{
		"THIN3": {"2024-01-01": 100, "2024-01-02": 101},
	})
	svc := NewService(store, common.NewSilentLogger())

	_, err := svc.MonteCarlo(context.Background(), 1000, 10, 10)
	if !errors.Is(err, ErrNoResult) {
		t.Fatalf("expected ErrNoResult, got %v", err)
	}
}

func TestMonteCarlo_Validation(t *testing.T) {
	svc := NewService(nil, common.NewSilentLogger())
	ctx := context.Background()

	cases := []struct {
		name    string
		initial float64
		runs    int
		days    int
	}{
		{"zero initial", 0, 10, 10},
		{"zero runs", 1000, 0, 10},
		{"too many runs", 1000, maxRuns + 1, 10},
		{"zero days", 1000, 10, 0},
		{"too many days", 1000, 10, maxDays + 1},
	}
	for _, tc := range cases {
		if _, err := svc.MonteCarlo(ctx, tc.initial, tc.runs, tc.days); !errors.Is(err, ErrBadInput) {
			t.Errorf("%s: expected ErrBadInput, got %v", tc.name, err)
		}
	}
}

func TestRenderCharts(t *testing.T) {
	store := newStoreWithHoldings(t, map[string]map[string]float64{
		"PETR4": {"2024-01-01": 100, "2024-01-02": 103, "2024-01-03": 99, "2024-01-04": 104},
	})
	svc := NewService(store, common.NewSilentLogger(), WithSeed(3))

	result, err := svc.MonteCarlo(context.Background(), 1000, 10, 20)
	if err != nil {
		t.Fatal(err)
	}
	png, err := RenderMonteCarlo(result)
	if err != nil {
		t.Fatalf("RenderMonteCarlo failed: %v", err)
	}
	if len(png) == 0 {
		t.Error("empty monte carlo PNG")
	}

	linear, err := svc.Linear(1000, 0.08, 10)
	if err != nil {
		t.Fatal(err)
	}
	png, err = RenderLinear(linear)
	if err != nil {
		t.Fatalf("RenderLinear failed: %v", err)
	}
	if len(png) == 0 {
		t.Error("empty linear PNG")
	}
}
