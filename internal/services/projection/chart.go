package projection

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/carteira/internal/models"
)

// percentilePath extracts the p-th percentile portfolio value per day.
func percentilePath(values [][]float64, p float64) []float64 {
	path := make([]float64, len(values))
	for day, row := range values {
		sorted := make([]float64, len(row))
		copy(sorted, row)
		sort.Float64s(sorted)
		idx := int(p * float64(len(sorted)-1))
		path[day] = sorted[idx]
	}
	return path
}

func dayAxis(n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	return xs
}

// RenderMonteCarlo draws the simulation as a PNG: the cross-run mean path
// with 10th/90th percentile bands.
func RenderMonteCarlo(result *models.MonteCarloResult) ([]byte, error) {
	if result == nil || len(result.Values) == 0 {
		return nil, fmt.Errorf("empty simulation result")
	}

	xs := dayAxis(len(result.Values))
	graph := chart.Chart{
		Title:  fmt.Sprintf("Monte Carlo projection (%d runs, %d days)", result.Runs, result.Days),
		Width:  1024,
		Height: 512,
		XAxis:  chart.XAxis{Name: "Trading days"},
		YAxis:  chart.YAxis{Name: "Portfolio value"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "p90",
				XValues: xs,
				YValues: percentilePath(result.Values, 0.90),
				Style: chart.Style{
					StrokeColor:     drawing.ColorGreen,
					StrokeDashArray: []float64{4, 4},
				},
			},
			chart.ContinuousSeries{
				Name:    "mean",
				XValues: xs,
				YValues: result.MeanPath(),
				Style: chart.Style{
					StrokeColor: drawing.ColorBlue,
					StrokeWidth: 2,
				},
			},
			chart.ContinuousSeries{
				Name:    "p10",
				XValues: xs,
				YValues: percentilePath(result.Values, 0.10),
				Style: chart.Style{
					StrokeColor:     drawing.ColorRed,
					StrokeDashArray: []float64{4, 4},
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderLinear draws the compound-growth trajectory as a PNG.
func RenderLinear(projection *models.LinearProjection) ([]byte, error) {
	if projection == nil || len(projection.Values) == 0 {
		return nil, fmt.Errorf("empty projection")
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("Linear projection (%.1f%% per year)", projection.AnnualRate*100),
		Width:  1024,
		Height: 512,
		XAxis:  chart.XAxis{Name: "Years"},
		YAxis:  chart.YAxis{Name: "Portfolio value"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "value",
				XValues: dayAxis(len(projection.Values)),
				YValues: projection.Values,
				Style: chart.Style{
					StrokeColor: drawing.ColorBlue,
					StrokeWidth: 2,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}
