package models

import "time"

// Position is the derived net holding of one asset, folded from its
// transaction ledger. Not stored.
//
// CostBasis accumulates buy cost only; sells reduce quantity but leave the
// basis untouched. This mirrors the product's original accounting policy.
type Position struct {
	Asset     Asset   `json:"asset"`
	Quantity  float64 `json:"quantity"`
	CostBasis float64 `json:"cost_basis"`
}

// Active reports whether the position belongs to the active portfolio.
// A position with nothing held and nothing invested is excluded.
func (p Position) Active() bool {
	return p.Quantity > 0 || p.CostBasis > 0
}

// HoldingValuation is a position marked to market.
type HoldingValuation struct {
	Ticker       string        `json:"ticker"`
	Category     AssetCategory `json:"category"`
	Quantity     float64       `json:"quantity"`
	AvgBuyPrice  float64       `json:"avg_buy_price"`
	CurrentPrice float64       `json:"current_price"`
	CostBasis    float64       `json:"cost_basis"`
	CurrentValue float64       `json:"current_value"`
	ReturnPct    float64       `json:"return_pct"`
}

// PortfolioSnapshot is the valuation of the whole active portfolio at one
// moment. Computed on demand, not stored.
type PortfolioSnapshot struct {
	Holdings     []HoldingValuation `json:"holdings"`
	CostBasis    float64            `json:"cost_basis"`
	CurrentValue float64            `json:"current_value"`
	ReturnPct    float64            `json:"return_pct"`
	AsOf         time.Time          `json:"as_of"`
}

// Holding pairs an asset with the quantity held, the projection engine's
// minimal view of the portfolio.
type Holding struct {
	Asset    Asset   `json:"asset"`
	Quantity float64 `json:"quantity"`
}
