package sqlite

import (
	"context"
	"fmt"

	"github.com/bobmcallan/carteira/internal/models"
)

// Export reads the full database into a portable bundle.
func (s *Store) Export(ctx context.Context) (*models.ExportBundle, error) {
	bundle := &models.ExportBundle{
		Assets:       []*models.Asset{},
		Transactions: []*models.Transaction{},
		PriceHistory: []*models.PriceObservation{},
		Dividends:    []*models.Dividend{},
		Alerts:       []*models.Alert{},
		Events:       []*models.CalendarEvent{},
	}

	if err := s.db.SelectContext(ctx, &bundle.Assets, `SELECT * FROM assets ORDER BY ticker`); err != nil {
		return nil, fmt.Errorf("failed to export assets: %w", err)
	}
	if err := s.db.SelectContext(ctx, &bundle.Transactions, `SELECT * FROM transactions ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to export transactions: %w", err)
	}
	if err := s.db.SelectContext(ctx, &bundle.PriceHistory, `SELECT * FROM price_history ORDER BY asset_id, record_date`); err != nil {
		return nil, fmt.Errorf("failed to export price history: %w", err)
	}
	if err := s.db.SelectContext(ctx, &bundle.Dividends, `SELECT * FROM dividends ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to export dividends: %w", err)
	}
	if err := s.db.SelectContext(ctx, &bundle.Alerts, `SELECT * FROM alerts ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("failed to export alerts: %w", err)
	}
	events, err := s.GetEvents(ctx, "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to export events: %w", err)
	}
	bundle.Events = events

	return bundle, nil
}

// Import merges a bundle into the database inside one transaction. Existing
// assets (by ticker), price observations, and alerts are kept; transactions,
// dividends, and events from the bundle are appended.
func (s *Store) Import(ctx context.Context, bundle *models.ExportBundle) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	// Bundle asset IDs may collide with existing rows for the same ticker.
	// Remap them so the ledger attaches to the surviving asset.
	idMap := make(map[string]string, len(bundle.Assets))
	for _, a := range bundle.Assets {
		var existingID string
		err := tx.GetContext(ctx, &existingID, `SELECT id FROM assets WHERE ticker = ?`, a.Ticker)
		if err == nil {
			idMap[a.ID] = existingID
			continue
		}
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO assets (id, ticker, category, created_at)
			 VALUES (:id, :ticker, :category, :created_at)`, a); err != nil {
			return fmt.Errorf("failed to import asset %s: %w", a.Ticker, err)
		}
		idMap[a.ID] = a.ID
	}

	remap := func(id string) string {
		if mapped, ok := idMap[id]; ok {
			return mapped
		}
		return id
	}

	for _, t := range bundle.Transactions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (asset_id, direction, quantity, price, trade_date)
			 VALUES (?, ?, ?, ?, ?)`,
			remap(t.AssetID), t.Direction, t.Quantity, t.Price, t.Date); err != nil {
			return fmt.Errorf("failed to import transaction: %w", err)
		}
	}

	for _, p := range bundle.PriceHistory {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO price_history (asset_id, record_date, price) VALUES (?, ?, ?)`,
			remap(p.AssetID), p.Date, p.Price); err != nil {
			return fmt.Errorf("failed to import price observation: %w", err)
		}
	}

	for _, d := range bundle.Dividends {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dividends (asset_id, amount, pay_date) VALUES (?, ?, ?)`,
			remap(d.AssetID), d.Amount, d.PayDate); err != nil {
			return fmt.Errorf("failed to import dividend: %w", err)
		}
	}

	for _, a := range bundle.Alerts {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO alerts (id, asset_id, kind, threshold, active, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, remap(a.AssetID), a.Kind, a.Threshold, a.Active, a.CreatedAt); err != nil {
			return fmt.Errorf("failed to import alert: %w", err)
		}
	}

	for _, e := range bundle.Events {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO events (event_date, kind, description, asset_id) VALUES (?, ?, ?, ?)`,
			e.Date, e.Kind, e.Description, nullableID(remap(e.AssetID))); err != nil {
			return fmt.Errorf("failed to import event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	s.logger.Info().
		Int("assets", len(bundle.Assets)).
		Int("transactions", len(bundle.Transactions)).
		Msg("import completed")
	return nil
}
