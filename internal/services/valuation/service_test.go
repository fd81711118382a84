package valuation

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/models"
	"github.com/bobmcallan/carteira/internal/storage/sqlite"
)

type fakeQuotes struct {
	prices map[string]float64
}

func (f *fakeQuotes) GetCurrentPrice(_ context.Context, ticker string) (float64, error) {
	if price, ok := f.prices[ticker]; ok {
		return price, nil
	}
	return 0, errors.New("no quote")
}

func (f *fakeQuotes) GetHistoricalPrices(_ context.Context, _, _, _ string) ([]models.PricePoint, error) {
	return nil, errors.New("not implemented")
}

func newTestService(t *testing.T, prices map[string]float64) (*Service, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.NewStore(":memory:", common.NewSilentLogger())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewService(store, &fakeQuotes{prices: prices}, common.NewSilentLogger()), store
}

func approxEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestRecordTrade_CreatesAssetOnFirstUse(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()

	tx, err := svc.RecordTrade(ctx, "petr4", models.CategoryEquity, models.DirectionBuy, 100, 30, "10/01/2024")
	if err != nil {
		t.Fatalf("RecordTrade failed: %v", err)
	}
	if tx.Date != "2024-01-10" {
		t.Errorf("date = %s, want 2024-01-10", tx.Date)
	}

	asset, err := store.GetAssetByTicker(ctx, "PETR4")
	if err != nil {
		t.Fatalf("asset not created: %v", err)
	}
	if asset.Category != models.CategoryEquity {
		t.Errorf("category = %s", asset.Category)
	}

	// Second trade reuses the asset; the category argument is ignored.
	if _, err := svc.RecordTrade(ctx, "PETR4", "", models.DirectionBuy, 50, 32, "2024-02-10"); err != nil {
		t.Fatalf("second trade failed: %v", err)
	}
	txs, err := store.GetTransactions(ctx, asset.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 2 {
		t.Errorf("expected 2 transactions, got %d", len(txs))
	}
}

func TestRecordTrade_Validation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	cases := []struct {
		name      string
		ticker    string
		category  models.AssetCategory
		direction models.TransactionDirection
		quantity  float64
		price     float64
		date      string
	}{
		{"empty ticker", "", models.CategoryEquity, models.DirectionBuy, 10, 30, "2024-01-10"},
		{"bad direction", "PETR4", models.CategoryEquity, "hold", 10, 30, "2024-01-10"},
		{"zero quantity", "PETR4", models.CategoryEquity, models.DirectionBuy, 0, 30, "2024-01-10"},
		{"zero price", "PETR4", models.CategoryEquity, models.DirectionBuy, 10, 0, "2024-01-10"},
		{"negative price", "PETR4", models.CategoryEquity, models.DirectionBuy, 10, -1, "2024-01-10"},
		{"bad date", "PETR4", models.CategoryEquity, models.DirectionBuy, 10, 30, "someday"},
		{"bad category on new asset", "NEWW3", "crypto", models.DirectionBuy, 10, 30, "2024-01-10"},
	}
	for _, tc := range cases {
		_, err := svc.RecordTrade(ctx, tc.ticker, tc.category, tc.direction, tc.quantity, tc.price, tc.date)
		if !errors.Is(err, ErrInvalidTrade) {
			t.Errorf("%s: expected ErrInvalidTrade, got %v", tc.name, err)
		}
	}
}

func TestAggregatePosition(t *testing.T) {
	qty, basis := AggregatePosition(nil)
	if qty != 0 || basis != 0 {
		t.Errorf("empty ledger = (%f, %f), want (0, 0)", qty, basis)
	}

	txs := []*models.Transaction{
		{Direction: models.DirectionBuy, Quantity: 100, Price: 20},
		{Direction: models.DirectionBuy, Quantity: 50, Price: 24},
		{Direction: models.DirectionSell, Quantity: 30, Price: 40},
	}
	qty, basis = AggregatePosition(txs)
	if !approxEqual(qty, 120, 1e-9) {
		t.Errorf("quantity = %f, want 120", qty)
	}
	// Basis is invariant under sells: 100*20 + 50*24.
	if !approxEqual(basis, 3200, 1e-9) {
		t.Errorf("basis = %f, want 3200", basis)
	}
}

func TestPosition_ByTicker(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.RecordTrade(ctx, "ITUB4", models.CategoryEquity, models.DirectionBuy, 100, 20, "2024-01-10"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RecordTrade(ctx, "ITUB4", "", models.DirectionSell, 40, 25, "2024-02-10"); err != nil {
		t.Fatal(err)
	}

	pos, err := svc.Position(ctx, "itub4")
	if err != nil {
		t.Fatalf("Position failed: %v", err)
	}
	if !approxEqual(pos.Quantity, 60, 1e-9) || !approxEqual(pos.CostBasis, 2000, 1e-9) {
		t.Errorf("position = %+v", pos)
	}

	if _, err := svc.Position(ctx, "GHOST3"); err == nil {
		t.Error("expected error for unknown ticker")
	}
}

func TestSnapshot_ValuesActiveHoldings(t *testing.T) {
	svc, _ := newTestService(t, map[string]float64{"PETR4": 40, "VALE3": 50})
	ctx := context.Background()

	mustTrade := func(ticker string, dir models.TransactionDirection, qty, price float64) {
		t.Helper()
		if _, err := svc.RecordTrade(ctx, ticker, models.CategoryEquity, dir, qty, price, "2024-01-10"); err != nil {
			t.Fatal(err)
		}
	}
	mustTrade("PETR4", models.DirectionBuy, 100, 30)
	mustTrade("VALE3", models.DirectionBuy, 10, 60)
	// Fully exited but with retained basis, stays in the active set.
	mustTrade("VALE3", models.DirectionSell, 10, 65)

	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Holdings) != 2 {
		t.Fatalf("expected 2 holdings, got %d", len(snap.Holdings))
	}

	var petr, vale models.HoldingValuation
	for _, h := range snap.Holdings {
		switch h.Ticker {
		case "PETR4":
			petr = h
		case "VALE3":
			vale = h
		}
	}

	if !approxEqual(petr.AvgBuyPrice, 30, 1e-9) {
		t.Errorf("PETR4 avg buy = %f, want 30", petr.AvgBuyPrice)
	}
	if !approxEqual(petr.CurrentValue, 4000, 1e-9) {
		t.Errorf("PETR4 value = %f, want 4000", petr.CurrentValue)
	}
	// (4000 - 3000) / 3000.
	if !approxEqual(petr.ReturnPct, 100.0/3, 1e-9) {
		t.Errorf("PETR4 return = %f", petr.ReturnPct)
	}

	// Zero quantity: avg buy and value are zero-guarded.
	if vale.Quantity != 0 || vale.AvgBuyPrice != 0 || vale.CurrentValue != 0 {
		t.Errorf("VALE3 valuation = %+v, want zero quantity/avg/value", vale)
	}
	if !approxEqual(vale.CostBasis, 600, 1e-9) {
		t.Errorf("VALE3 basis = %f, want 600 (sells keep basis)", vale.CostBasis)
	}

	if !approxEqual(snap.CostBasis, 3600, 1e-9) {
		t.Errorf("total basis = %f, want 3600", snap.CostBasis)
	}
	if !approxEqual(snap.CurrentValue, 4000, 1e-9) {
		t.Errorf("total value = %f, want 4000", snap.CurrentValue)
	}
}

func TestSnapshot_QuoteFailureFallsBackToStoredPrice(t *testing.T) {
	svc, store := newTestService(t, nil) // provider has no quotes
	ctx := context.Background()

	if _, err := svc.RecordTrade(ctx, "PETR4", models.CategoryEquity, models.DirectionBuy, 10, 30, "2024-01-10"); err != nil {
		t.Fatal(err)
	}
	asset, err := store.GetAssetByTicker(ctx, "PETR4")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.AddPriceObservation(ctx, asset.ID, 33, "2024-01-11"); err != nil {
		t.Fatal(err)
	}
	if err := store.AddPriceObservation(ctx, asset.ID, 35, "2024-01-12"); err != nil {
		t.Fatal(err)
	}

	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Holdings) != 1 {
		t.Fatalf("expected 1 holding, got %d", len(snap.Holdings))
	}
	if !approxEqual(snap.Holdings[0].CurrentPrice, 35, 1e-9) {
		t.Errorf("price = %f, want latest stored 35", snap.Holdings[0].CurrentPrice)
	}
}

func TestSnapshot_EmptyPortfolio(t *testing.T) {
	svc, _ := newTestService(t, nil)

	snap, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Holdings) != 0 || snap.CostBasis != 0 || snap.ReturnPct != 0 {
		t.Errorf("empty portfolio snapshot = %+v", snap)
	}
}

func TestRefreshQuotes(t *testing.T) {
	svc, store := newTestService(t, map[string]float64{"PETR4": 38})
	ctx := context.Background()

	// PETR4 is quotable, TESOURO is not, FAIL3 has no quote.
	if _, err := svc.RecordTrade(ctx, "PETR4", models.CategoryEquity, models.DirectionBuy, 10, 30, "2024-01-10"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RecordTrade(ctx, "TESOURO", models.CategoryTreasury, models.DirectionBuy, 1, 1000, "2024-01-10"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RecordTrade(ctx, "FAIL3", models.CategoryEquity, models.DirectionBuy, 5, 10, "2024-01-10"); err != nil {
		t.Fatal(err)
	}

	updated, err := svc.RefreshQuotes(ctx)
	if err != nil {
		t.Fatalf("RefreshQuotes failed: %v", err)
	}
	if len(updated) != 1 || updated[0] != "PETR4" {
		t.Fatalf("updated = %v, want [PETR4]", updated)
	}

	asset, err := store.GetAssetByTicker(ctx, "PETR4")
	if err != nil {
		t.Fatal(err)
	}
	history, err := store.GetPriceHistory(ctx, asset.ID, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || !approxEqual(history[0].Price, 38, 1e-9) {
		t.Errorf("history = %+v, want one observation at 38", history)
	}
}
