package series

import "math"

// TradingDaysPerYear is the annualization base for daily statistics.
const TradingDaysPerYear = 252

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleVariance returns the N-1 variance, or 0 with fewer than 2 values.
func SampleVariance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values)-1)
}

// SampleStdDev returns the N-1 standard deviation, or 0 with fewer than 2
// values.
func SampleStdDev(values []float64) float64 {
	return math.Sqrt(SampleVariance(values))
}

// SampleCovariance returns the N-1 covariance of two equal-length slices,
// or 0 with fewer than 2 pairs.
func SampleCovariance(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < 2 {
		return 0
	}
	mx := Mean(x[:n])
	my := Mean(y[:n])
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += (x[i] - mx) * (y[i] - my)
	}
	return sum / float64(n-1)
}

// AnnualizedVolatility scales a daily standard deviation to a yearly figure.
func AnnualizedVolatility(dailyStd float64) float64 {
	return dailyStd * math.Sqrt(TradingDaysPerYear)
}
