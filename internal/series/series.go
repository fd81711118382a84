// Package series builds chronologically ordered return series from raw
// price observations and provides the sample statistics used by the risk
// and projection engines.
package series

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bobmcallan/carteira/internal/models"
)

// ErrZeroPrice is returned when a return would divide by a zero price.
// Zero prices are bad upstream data; propagating infinities would poison
// every statistic downstream.
var ErrZeroPrice = errors.New("zero price in series")

// Accepted textual date encodings, tried in order: day-first (the form
// layer and the provider's historical feed) then ISO (the database).
var dateLayouts = []string{"02/01/2006", "2006-01-02"}

// Point is one dated fractional return.
type Point struct {
	Date   time.Time
	Return float64
}

// Series is a date-ascending sequence of fractional returns.
type Series []Point

// observation is an internal parsed price sample.
type observation struct {
	date  time.Time
	price float64
	seq   int // original position, for stable last-write-wins collapsing
}

// ParseDate parses a date in either accepted encoding. The boolean reports
// success; unparseable dates are dropped by Build, not treated as errors.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Build converts raw (date, price) samples into a return series.
//
// Entries with unrecognized dates are skipped. Samples are sorted by date;
// duplicate dates collapse keeping the last sample encountered. The result
// has one fewer point than the distinct observations. Fewer than two
// distinct observations yield an empty series and no error — callers treat
// that as "insufficient data". A zero price anywhere but the final
// observation fails with ErrZeroPrice.
func Build(points []models.PricePoint) (Series, error) {
	obs := make([]observation, 0, len(points))
	for i, p := range points {
		d, ok := ParseDate(p.Date)
		if !ok {
			continue
		}
		obs = append(obs, observation{date: d, price: p.Price, seq: i})
	}

	if len(obs) < 2 {
		return nil, nil
	}

	sort.Slice(obs, func(i, j int) bool {
		if obs[i].date.Equal(obs[j].date) {
			return obs[i].seq < obs[j].seq
		}
		return obs[i].date.Before(obs[j].date)
	})

	// Collapse duplicate dates, last write wins.
	collapsed := obs[:0]
	for _, o := range obs {
		if len(collapsed) > 0 && collapsed[len(collapsed)-1].date.Equal(o.date) {
			collapsed[len(collapsed)-1] = o
			continue
		}
		collapsed = append(collapsed, o)
	}

	if len(collapsed) < 2 {
		return nil, nil
	}

	result := make(Series, 0, len(collapsed)-1)
	for i := 1; i < len(collapsed); i++ {
		prev := collapsed[i-1]
		if prev.price == 0 {
			return nil, fmt.Errorf("%w: %s", ErrZeroPrice, prev.date.Format("2006-01-02"))
		}
		result = append(result, Point{
			Date:   collapsed[i].date,
			Return: (collapsed[i].price - prev.price) / prev.price,
		})
	}

	return result, nil
}

// Returns extracts the raw return values in date order.
func (s Series) Returns() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Return
	}
	return out
}

// Align inner-joins two series by date, returning paired return values for
// dates present in both. Used by beta.
func Align(a, b Series) (x, y []float64) {
	byDate := make(map[time.Time]float64, len(b))
	for _, p := range b {
		byDate[p.Date] = p.Return
	}
	for _, p := range a {
		if v, ok := byDate[p.Date]; ok {
			x = append(x, p.Return)
			y = append(y, v)
		}
	}
	return x, y
}

// SumAligned outer-joins any number of series by date, summing returns and
// treating missing dates as zero contribution. Used for portfolio-level
// return aggregation.
func SumAligned(all ...Series) Series {
	sums := make(map[time.Time]float64)
	for _, s := range all {
		for _, p := range s {
			sums[p.Date] += p.Return
		}
	}
	if len(sums) == 0 {
		return nil
	}
	out := make(Series, 0, len(sums))
	for d, r := range sums {
		out = append(out, Point{Date: d, Return: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
