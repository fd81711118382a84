package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:", common.NewSilentLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAddAndGetAsset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	asset, err := store.AddAsset(ctx, "petr4", models.CategoryEquity)
	require.NoError(t, err)
	assert.Equal(t, "PETR4", asset.Ticker)
	assert.NotEmpty(t, asset.ID)

	got, err := store.GetAssetByTicker(ctx, "  petr4 ")
	require.NoError(t, err)
	assert.Equal(t, asset.ID, got.ID)
	assert.Equal(t, models.CategoryEquity, got.Category)

	byID, err := store.GetAssetByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, "PETR4", byID.Ticker)
}

func TestGetAsset_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetAssetByTicker(context.Background(), "MISSING")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddAsset_DuplicateTickerFails(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddAsset(ctx, "VALE3", models.CategoryEquity)
	require.NoError(t, err)

	_, err = store.AddAsset(ctx, "vale3", models.CategoryEquity)
	assert.Error(t, err)
}

func TestRenameAndDeleteAsset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	asset, err := store.AddAsset(ctx, "HGLG11", models.CategoryREITFund)
	require.NoError(t, err)

	require.NoError(t, store.RenameAsset(ctx, asset.ID, "hglg12", models.CategoryREITFund))
	got, err := store.GetAssetByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, "HGLG12", got.Ticker)

	require.NoError(t, store.DeleteAsset(ctx, asset.ID))
	_, err = store.GetAssetByID(ctx, asset.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.DeleteAsset(ctx, asset.ID), ErrNotFound)
}

func TestTransactionsAndPositions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	asset, err := store.AddAsset(ctx, "ITUB4", models.CategoryEquity)
	require.NoError(t, err)

	trades := []*models.Transaction{
		{AssetID: asset.ID, Direction: models.DirectionBuy, Quantity: 100, Price: 20, Date: "2024-01-10"},
		{AssetID: asset.ID, Direction: models.DirectionBuy, Quantity: 50, Price: 24, Date: "2024-02-10"},
		{AssetID: asset.ID, Direction: models.DirectionSell, Quantity: 30, Price: 30, Date: "2024-03-10"},
	}
	for _, tx := range trades {
		require.NoError(t, store.AddTransaction(ctx, tx))
		assert.NotZero(t, tx.ID)
	}

	txs, err := store.GetTransactions(ctx, asset.ID)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "2024-01-10", txs[0].Date)

	positions, err := store.GetPositions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)

	pos := positions[0]
	assert.Equal(t, "ITUB4", pos.Asset.Ticker)
	assert.InDelta(t, 120.0, pos.Quantity, 1e-9)
	// Sells do not reduce the basis: 100*20 + 50*24.
	assert.InDelta(t, 3200.0, pos.CostBasis, 1e-9)
	assert.True(t, pos.Active())
}

func TestGetPositions_AssetWithoutTrades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddAsset(ctx, "BOVA11", models.CategoryETF)
	require.NoError(t, err)

	positions, err := store.GetPositions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Zero(t, positions[0].Quantity)
	assert.False(t, positions[0].Active())
}

func TestPriceHistory_DuplicateDateIgnored(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	asset, err := store.AddAsset(ctx, "PETR4", models.CategoryEquity)
	require.NoError(t, err)

	require.NoError(t, store.AddPriceObservation(ctx, asset.ID, 30.0, "2024-01-02"))
	require.NoError(t, store.AddPriceObservation(ctx, asset.ID, 99.0, "2024-01-02"))
	require.NoError(t, store.AddPriceObservation(ctx, asset.ID, 31.0, "2024-01-03"))

	history, err := store.GetPriceHistory(ctx, asset.ID, "", "")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.InDelta(t, 30.0, history[0].Price, 1e-9)
	assert.InDelta(t, 31.0, history[1].Price, 1e-9)
}

func TestPriceHistory_RangeBounds(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	asset, err := store.AddAsset(ctx, "PETR4", models.CategoryEquity)
	require.NoError(t, err)

	for _, obs := range []struct {
		date  string
		price float64
	}{
		{"2024-01-01", 10}, {"2024-01-02", 11}, {"2024-01-03", 12}, {"2024-01-04", 13},
	} {
		require.NoError(t, store.AddPriceObservation(ctx, asset.ID, obs.price, obs.date))
	}

	history, err := store.GetPriceHistory(ctx, asset.ID, "2024-01-02", "2024-01-03")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2024-01-02", history[0].Date)
	assert.Equal(t, "2024-01-03", history[1].Date)
}

func TestDeleteAsset_Cascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	asset, err := store.AddAsset(ctx, "PETR4", models.CategoryEquity)
	require.NoError(t, err)

	require.NoError(t, store.AddTransaction(ctx, &models.Transaction{
		AssetID: asset.ID, Direction: models.DirectionBuy, Quantity: 10, Price: 30, Date: "2024-01-10",
	}))
	require.NoError(t, store.AddPriceObservation(ctx, asset.ID, 30.0, "2024-01-10"))
	require.NoError(t, store.AddAlert(ctx, &models.Alert{
		AssetID: asset.ID, Kind: models.AlertPriceTarget, Threshold: 40,
	}))

	require.NoError(t, store.DeleteAsset(ctx, asset.ID))

	txs, err := store.GetTransactions(ctx, asset.ID)
	require.NoError(t, err)
	assert.Empty(t, txs)

	history, err := store.GetPriceHistory(ctx, asset.ID, "", "")
	require.NoError(t, err)
	assert.Empty(t, history)

	alerts, err := store.GetActiveAlerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestAlertLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	asset, err := store.AddAsset(ctx, "VALE3", models.CategoryEquity)
	require.NoError(t, err)

	alert := &models.Alert{AssetID: asset.ID, Kind: models.AlertPriceTarget, Threshold: 70}
	require.NoError(t, store.AddAlert(ctx, alert))
	assert.NotEmpty(t, alert.ID)
	assert.True(t, alert.Active)

	active, err := store.GetActiveAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	require.NoError(t, store.DeactivateAlert(ctx, alert.ID))
	active, err = store.GetActiveAlerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	assert.ErrorIs(t, store.DeactivateAlert(ctx, "no-such-alert"), ErrNotFound)
}

func TestDividends(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	asset, err := store.AddAsset(ctx, "ITSA4", models.CategoryEquity)
	require.NoError(t, err)

	require.NoError(t, store.AddDividend(ctx, &models.Dividend{
		AssetID: asset.ID, Amount: 123.45, PayDate: "2024-05-15",
	}))

	dividends, err := store.GetDividends(ctx, asset.ID)
	require.NoError(t, err)
	require.Len(t, dividends, 1)
	assert.InDelta(t, 123.45, dividends[0].Amount, 1e-9)
}

func TestEvents_RangeAndOptionalAsset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	asset, err := store.AddAsset(ctx, "PETR4", models.CategoryEquity)
	require.NoError(t, err)

	require.NoError(t, store.AddEvent(ctx, &models.CalendarEvent{
		Date: "2024-06-01", Kind: "dividend", Description: "payout", AssetID: asset.ID,
	}))
	require.NoError(t, store.AddEvent(ctx, &models.CalendarEvent{
		Date: "2024-07-01", Kind: "note", Description: "rebalance",
	}))

	events, err := store.GetEvents(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, asset.ID, events[0].AssetID)
	assert.Empty(t, events[1].AssetID)

	june, err := store.GetEvents(ctx, "2024-06-01", "2024-06-30")
	require.NoError(t, err)
	require.Len(t, june, 1)
	assert.Equal(t, "dividend", june[0].Kind)
}

func TestExportImport_RoundTrip(t *testing.T) {
	src := newTestStore(t)
	ctx := context.Background()

	asset, err := src.AddAsset(ctx, "PETR4", models.CategoryEquity)
	require.NoError(t, err)
	require.NoError(t, src.AddTransaction(ctx, &models.Transaction{
		AssetID: asset.ID, Direction: models.DirectionBuy, Quantity: 100, Price: 30, Date: "2024-01-10",
	}))
	require.NoError(t, src.AddPriceObservation(ctx, asset.ID, 32.5, "2024-01-11"))
	require.NoError(t, src.AddAlert(ctx, &models.Alert{
		AssetID: asset.ID, Kind: models.AlertPercentChange, Threshold: 10,
	}))

	bundle, err := src.Export(ctx)
	require.NoError(t, err)
	require.Len(t, bundle.Assets, 1)
	require.Len(t, bundle.Transactions, 1)

	dst := newTestStore(t)
	require.NoError(t, dst.Import(ctx, bundle))

	positions, err := dst.GetPositions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.InDelta(t, 100.0, positions[0].Quantity, 1e-9)

	imported, err := dst.GetAssetByTicker(ctx, "PETR4")
	require.NoError(t, err)
	history, err := dst.GetPriceHistory(ctx, imported.ID, "", "")
	require.NoError(t, err)
	require.Len(t, history, 1)

	alerts, err := dst.GetActiveAlerts(ctx)
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

func TestImport_RemapsCollidingTicker(t *testing.T) {
	dst := newTestStore(t)
	ctx := context.Background()

	existing, err := dst.AddAsset(ctx, "PETR4", models.CategoryEquity)
	require.NoError(t, err)

	bundle := &models.ExportBundle{
		Assets: []*models.Asset{
			{ID: "foreign-id", Ticker: "PETR4", Category: models.CategoryEquity},
		},
		Transactions: []*models.Transaction{
			{AssetID: "foreign-id", Direction: models.DirectionBuy, Quantity: 10, Price: 30, Date: "2024-01-10"},
		},
	}
	require.NoError(t, dst.Import(ctx, bundle))

	txs, err := dst.GetTransactions(ctx, existing.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)

	assets, err := dst.ListAssets(ctx)
	require.NoError(t, err)
	assert.Len(t, assets, 1)
}
