// Package models defines data structures for Carteira
package models

import (
	"strings"
	"time"
)

// AssetCategory classifies an asset for display and quote handling.
type AssetCategory string

const (
	CategoryEquity   AssetCategory = "equity"
	CategoryREITFund AssetCategory = "reit_fund" // FII-style listed real-estate fund
	CategoryTreasury AssetCategory = "treasury"
	CategoryETF      AssetCategory = "etf"
	CategoryOther    AssetCategory = "other"
)

// ValidCategory reports whether c is one of the fixed category set.
func ValidCategory(c AssetCategory) bool {
	switch c {
	case CategoryEquity, CategoryREITFund, CategoryTreasury, CategoryETF, CategoryOther:
		return true
	}
	return false
}

// HasAutoQuote reports whether assets of this category can be priced from the
// market-data provider. Treasury and other assets are priced manually.
func (c AssetCategory) HasAutoQuote() bool {
	switch c {
	case CategoryEquity, CategoryREITFund, CategoryETF:
		return true
	}
	return false
}

// Asset is a tradable instrument tracked by the portfolio.
type Asset struct {
	ID        string        `json:"id" db:"id"`
	Ticker    string        `json:"ticker" db:"ticker"`
	Category  AssetCategory `json:"category" db:"category"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

// NormalizeTicker upper-cases and trims a ticker for storage and lookup.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// TransactionDirection is the side of a trade.
type TransactionDirection string

const (
	DirectionBuy  TransactionDirection = "buy"
	DirectionSell TransactionDirection = "sell"
)

// Transaction is a single buy or sell in the append-only ledger.
// Transactions are immutable once recorded.
type Transaction struct {
	ID        int64                `json:"id" db:"id"`
	AssetID   string               `json:"asset_id" db:"asset_id"`
	Direction TransactionDirection `json:"direction" db:"direction"`
	Quantity  float64              `json:"quantity" db:"quantity"`
	Price     float64              `json:"price" db:"price"`
	Date      string               `json:"date" db:"trade_date"` // YYYY-MM-DD
}

// PriceObservation is one (asset, date, price) sample. At most one
// observation exists per (asset, date); later writes for an existing date
// are ignored, not overwritten.
type PriceObservation struct {
	AssetID string  `json:"asset_id" db:"asset_id"`
	Date    string  `json:"date" db:"record_date"` // YYYY-MM-DD
	Price   float64 `json:"price" db:"price"`
}

// Dividend is a cash distribution received for an asset.
type Dividend struct {
	ID      int64   `json:"id" db:"id"`
	AssetID string  `json:"asset_id" db:"asset_id"`
	Amount  float64 `json:"amount" db:"amount"`
	PayDate string  `json:"pay_date" db:"pay_date"` // YYYY-MM-DD
}

// CalendarEvent is a dated portfolio event (dividend payment, expiry, split).
type CalendarEvent struct {
	ID          int64  `json:"id" db:"id"`
	Date        string `json:"date" db:"event_date"` // YYYY-MM-DD
	Kind        string `json:"kind" db:"kind"`
	Description string `json:"description" db:"description"`
	AssetID     string `json:"asset_id,omitempty" db:"asset_id"`
}
