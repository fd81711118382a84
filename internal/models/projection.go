package models

// MonteCarloResult holds simulated portfolio values indexed [day][run],
// Days rows in total. Values[0][r] equals the initial portfolio value for
// every run r.
type MonteCarloResult struct {
	InitialValue float64     `json:"initial_value"`
	Days         int         `json:"days"`
	Runs         int         `json:"runs"`
	MeanReturn   float64     `json:"mean_daily_return"`
	StdReturn    float64     `json:"std_daily_return"`
	Values       [][]float64 `json:"values"`
}

// MeanPath returns the cross-run mean portfolio value per day.
func (r *MonteCarloResult) MeanPath() []float64 {
	if len(r.Values) == 0 {
		return nil
	}
	path := make([]float64, len(r.Values))
	for day, row := range r.Values {
		sum := 0.0
		for _, v := range row {
			sum += v
		}
		path[day] = sum / float64(len(row))
	}
	return path
}

// LinearProjection is a deterministic compound-growth trajectory indexed by
// year, with Values[0] = initial value.
type LinearProjection struct {
	InitialValue float64   `json:"initial_value"`
	AnnualRate   float64   `json:"annual_rate"`
	Years        int       `json:"years"`
	Values       []float64 `json:"values"`
}

// RiskReport bundles the risk statistics for one asset.
type RiskReport struct {
	Ticker     string  `json:"ticker"`
	Benchmark  string  `json:"benchmark,omitempty"`
	Volatility float64 `json:"volatility"`
	Beta       float64 `json:"beta"`
	DataPoints int     `json:"data_points"`
}
