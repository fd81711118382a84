package models

// PricePoint is one raw (date, price) sample as delivered by the market-data
// provider or the import layer. Date is text because providers disagree on
// encoding; the return-series builder normalizes it.
type PricePoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// ExportBundle is a portable snapshot of the whole database, used by the
// JSON export/import endpoints.
type ExportBundle struct {
	Assets       []*Asset            `json:"assets"`
	Transactions []*Transaction      `json:"transactions"`
	PriceHistory []*PriceObservation `json:"price_history"`
	Dividends    []*Dividend         `json:"dividends"`
	Alerts       []*Alert            `json:"alerts"`
	Events       []*CalendarEvent    `json:"events"`
}
