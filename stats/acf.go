// Package stats provides statistical functions for time series diagnostics.
package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/regiocast/timeseries"
)

// ACF calculates the sample autocorrelation function for lags 0 to maxLag.
// It returns nil for empty or constant series.
func ACF(series *timeseries.Series, maxLag int) []float64 {
	n := series.Len()
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}

	mean := stat.Mean(series.Values, nil)
	centered := make([]float64, n)
	copy(centered, series.Values)
	floats.AddConst(-mean, centered)

	variance := floats.Dot(centered, centered)
	if variance == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		acf[k] = floats.Dot(centered[k:], centered[:n-k]) / variance
	}

	return acf
}

// PACF calculates the partial autocorrelation function with the
// Durbin-Levinson recursion. Index 0 holds 1.
func PACF(series *timeseries.Series, maxLag int) []float64 {
	n := series.Len()
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 1 {
		return nil
	}

	acf := ACF(series, maxLag)
	if acf == nil {
		return nil
	}

	pacf := make([]float64, maxLag+1)
	pacf[0] = 1

	prev := make([]float64, maxLag+1)
	cur := make([]float64, maxLag+1)
	prev[1] = acf[1]
	pacf[1] = acf[1]

	for k := 2; k <= maxLag; k++ {
		num := acf[k]
		den := 1.0
		for j := 1; j < k; j++ {
			num -= prev[j] * acf[k-j]
			den -= prev[j] * acf[j]
		}
		if den == 0 {
			break
		}

		cur[k] = num / den
		for j := 1; j < k; j++ {
			cur[j] = prev[j] - cur[k]*prev[k-j]
		}
		pacf[k] = cur[k]
		copy(prev, cur)
	}

	return pacf
}

// ConfidenceBound returns the approximate 95% bound (1.96/sqrt(n)) used to
// judge whether an autocorrelation differs from zero.
func ConfidenceBound(n int) float64 {
	if n <= 0 {
		return math.Inf(1)
	}
	return 1.96 / math.Sqrt(float64(n))
}

// SignificantLags returns the lags where ACF/PACF values exceed confBound.
func SignificantLags(values []float64, confBound float64) []int {
	var significant []int
	for i := 1; i < len(values); i++ {
		if math.Abs(values[i]) > confBound {
			significant = append(significant, i)
		}
	}
	return significant
}
