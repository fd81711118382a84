// Package sqlite persists the portfolio ledger, price history, alerts and
// calendar in a single SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS assets (
	id         TEXT PRIMARY KEY,
	ticker     TEXT NOT NULL UNIQUE,
	category   TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	asset_id   TEXT NOT NULL REFERENCES assets(id) ON DELETE CASCADE,
	direction  TEXT NOT NULL CHECK (direction IN ('buy', 'sell')),
	quantity   REAL NOT NULL,
	price      REAL NOT NULL,
	trade_date TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS price_history (
	asset_id    TEXT NOT NULL REFERENCES assets(id) ON DELETE CASCADE,
	record_date TEXT NOT NULL,
	price       REAL NOT NULL,
	PRIMARY KEY (asset_id, record_date)
);

CREATE TABLE IF NOT EXISTS dividends (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	asset_id TEXT NOT NULL REFERENCES assets(id) ON DELETE CASCADE,
	amount   REAL NOT NULL,
	pay_date TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS alerts (
	id         TEXT PRIMARY KEY,
	asset_id   TEXT NOT NULL REFERENCES assets(id) ON DELETE CASCADE,
	kind       TEXT NOT NULL,
	threshold  REAL NOT NULL,
	active     BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	event_date  TEXT NOT NULL,
	kind        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	asset_id    TEXT REFERENCES assets(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_transactions_asset ON transactions(asset_id);
CREATE INDEX IF NOT EXISTS idx_price_history_date ON price_history(asset_id, record_date);
CREATE INDEX IF NOT EXISTS idx_events_date ON events(event_date);
`

// Store implements interfaces.AssetStore on SQLite.
type Store struct {
	db     *sqlx.DB
	logger *common.Logger
}

// NewStore opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an ephemeral store in tests.
func NewStore(path string, logger *common.Logger) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// SQLite allows one writer; serializing at the pool level avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Debug().Str("path", path).Msg("database opened")
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// AddAsset registers a new asset. The ticker is normalized before storage;
// a duplicate ticker fails on the unique constraint.
func (s *Store) AddAsset(ctx context.Context, ticker string, category models.AssetCategory) (*models.Asset, error) {
	asset := &models.Asset{
		ID:        uuid.NewString(),
		Ticker:    models.NormalizeTicker(ticker),
		Category:  category,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO assets (id, ticker, category, created_at)
		 VALUES (:id, :ticker, :category, :created_at)`, asset)
	if err != nil {
		return nil, fmt.Errorf("failed to add asset %s: %w", asset.Ticker, err)
	}
	s.logger.Info().Str("ticker", asset.Ticker).Str("category", string(category)).Msg("asset registered")
	return asset, nil
}

func (s *Store) GetAssetByTicker(ctx context.Context, ticker string) (*models.Asset, error) {
	var asset models.Asset
	err := s.db.GetContext(ctx, &asset,
		`SELECT * FROM assets WHERE ticker = ?`, models.NormalizeTicker(ticker))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("asset %s: %w", ticker, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load asset %s: %w", ticker, err)
	}
	return &asset, nil
}

func (s *Store) GetAssetByID(ctx context.Context, id string) (*models.Asset, error) {
	var asset models.Asset
	err := s.db.GetContext(ctx, &asset, `SELECT * FROM assets WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load asset %s: %w", id, err)
	}
	return &asset, nil
}

func (s *Store) ListAssets(ctx context.Context) ([]*models.Asset, error) {
	assets := []*models.Asset{}
	if err := s.db.SelectContext(ctx, &assets, `SELECT * FROM assets ORDER BY ticker`); err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	return assets, nil
}

func (s *Store) RenameAsset(ctx context.Context, id, newTicker string, category models.AssetCategory) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE assets SET ticker = ?, category = ? WHERE id = ?`,
		models.NormalizeTicker(newTicker), category, id)
	if err != nil {
		return fmt.Errorf("failed to update asset %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteAsset(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete asset %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	s.logger.Info().Str("asset_id", id).Msg("asset deleted")
	return nil
}

func (s *Store) AddTransaction(ctx context.Context, tx *models.Transaction) error {
	res, err := s.db.NamedExecContext(ctx,
		`INSERT INTO transactions (asset_id, direction, quantity, price, trade_date)
		 VALUES (:asset_id, :direction, :quantity, :price, :trade_date)`, tx)
	if err != nil {
		return fmt.Errorf("failed to add transaction: %w", err)
	}
	tx.ID, _ = res.LastInsertId()
	return nil
}

func (s *Store) GetTransactions(ctx context.Context, assetID string) ([]*models.Transaction, error) {
	txs := []*models.Transaction{}
	err := s.db.SelectContext(ctx, &txs,
		`SELECT * FROM transactions WHERE asset_id = ? ORDER BY trade_date, id`, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return txs, nil
}

// AddPriceObservation records one (asset, date, price) sample. An existing
// observation for the same date is kept untouched.
func (s *Store) AddPriceObservation(ctx context.Context, assetID string, price float64, date string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO price_history (asset_id, record_date, price) VALUES (?, ?, ?)`,
		assetID, date, price)
	if err != nil {
		return fmt.Errorf("failed to add price observation: %w", err)
	}
	return nil
}

// GetPriceHistory returns observations in [start, end], oldest first. Empty
// bounds are open-ended.
func (s *Store) GetPriceHistory(ctx context.Context, assetID, start, end string) ([]*models.PriceObservation, error) {
	query := `SELECT * FROM price_history WHERE asset_id = ?`
	args := []any{assetID}
	if start != "" {
		query += ` AND record_date >= ?`
		args = append(args, start)
	}
	if end != "" {
		query += ` AND record_date <= ?`
		args = append(args, end)
	}
	query += ` ORDER BY record_date`

	history := []*models.PriceObservation{}
	if err := s.db.SelectContext(ctx, &history, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}
	return history, nil
}

type positionRow struct {
	models.Asset
	Quantity  float64 `db:"quantity"`
	CostBasis float64 `db:"cost_basis"`
}

// GetPositions folds the transaction ledger into per-asset net positions.
// Sells reduce quantity only; the cost basis keeps the full buy cost.
func (s *Store) GetPositions(ctx context.Context) ([]*models.Position, error) {
	rows := []positionRow{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT a.id, a.ticker, a.category, a.created_at,
			COALESCE(SUM(CASE WHEN t.direction = 'buy' THEN t.quantity ELSE -t.quantity END), 0) AS quantity,
			COALESCE(SUM(CASE WHEN t.direction = 'buy' THEN t.quantity * t.price ELSE 0 END), 0) AS cost_basis
		FROM assets a
		LEFT JOIN transactions t ON t.asset_id = a.id
		GROUP BY a.id
		ORDER BY a.ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	positions := make([]*models.Position, 0, len(rows))
	for _, r := range rows {
		positions = append(positions, &models.Position{
			Asset:     r.Asset,
			Quantity:  r.Quantity,
			CostBasis: r.CostBasis,
		})
	}
	return positions, nil
}

func (s *Store) AddDividend(ctx context.Context, d *models.Dividend) error {
	res, err := s.db.NamedExecContext(ctx,
		`INSERT INTO dividends (asset_id, amount, pay_date) VALUES (:asset_id, :amount, :pay_date)`, d)
	if err != nil {
		return fmt.Errorf("failed to add dividend: %w", err)
	}
	d.ID, _ = res.LastInsertId()
	return nil
}

func (s *Store) GetDividends(ctx context.Context, assetID string) ([]*models.Dividend, error) {
	dividends := []*models.Dividend{}
	err := s.db.SelectContext(ctx, &dividends,
		`SELECT * FROM dividends WHERE asset_id = ? ORDER BY pay_date, id`, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dividends: %w", err)
	}
	return dividends, nil
}

func (s *Store) AddAlert(ctx context.Context, a *models.Alert) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.Active = true
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO alerts (id, asset_id, kind, threshold, active, created_at)
		 VALUES (:id, :asset_id, :kind, :threshold, :active, :created_at)`, a)
	if err != nil {
		return fmt.Errorf("failed to add alert: %w", err)
	}
	return nil
}

func (s *Store) GetActiveAlerts(ctx context.Context) ([]*models.Alert, error) {
	alerts := []*models.Alert{}
	err := s.db.SelectContext(ctx, &alerts,
		`SELECT * FROM alerts WHERE active = 1 ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts: %w", err)
	}
	return alerts, nil
}

func (s *Store) DeactivateAlert(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE alerts SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate alert %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) AddEvent(ctx context.Context, e *models.CalendarEvent) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (event_date, kind, description, asset_id) VALUES (?, ?, ?, ?)`,
		e.Date, e.Kind, e.Description, nullableID(e.AssetID))
	if err != nil {
		return fmt.Errorf("failed to add event: %w", err)
	}
	e.ID, _ = res.LastInsertId()
	return nil
}

// GetEvents returns events in [start, end], oldest first. Empty bounds are
// open-ended.
func (s *Store) GetEvents(ctx context.Context, start, end string) ([]*models.CalendarEvent, error) {
	query := `SELECT id, event_date, kind, description, COALESCE(asset_id, '') AS asset_id FROM events WHERE 1=1`
	args := []any{}
	if start != "" {
		query += ` AND event_date >= ?`
		args = append(args, start)
	}
	if end != "" {
		query += ` AND event_date <= ?`
		args = append(args, end)
	}
	query += ` ORDER BY event_date, id`

	events := []*models.CalendarEvent{}
	if err := s.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	return events, nil
}

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}
