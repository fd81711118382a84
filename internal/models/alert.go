package models

import "time"

// AlertKind selects how an alert threshold is interpreted.
type AlertKind string

const (
	// AlertPriceTarget fires when the current price reaches Threshold.
	AlertPriceTarget AlertKind = "price_target"
	// AlertPercentChange fires when the price moves Threshold percent or
	// more away from the position's average buy price.
	AlertPercentChange AlertKind = "percent_change"
)

// Alert is a user-defined price watch on one asset. Alerts deactivate once
// triggered.
type Alert struct {
	ID        string    `json:"id" db:"id"`
	AssetID   string    `json:"asset_id" db:"asset_id"`
	Kind      AlertKind `json:"kind" db:"kind"`
	Threshold float64   `json:"threshold" db:"threshold"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TriggeredAlert reports an alert that fired during a sweep, with the price
// that tripped it.
type TriggeredAlert struct {
	Alert   Alert   `json:"alert"`
	Ticker  string  `json:"ticker"`
	Price   float64 `json:"price"`
	Message string  `json:"message"`
}
