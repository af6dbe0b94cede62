// Package stats provides diagnostic functions for fitted time series models.
//
// # Autocorrelation
//
//	acf := stats.ACF(series, 10)
//	pacf := stats.PACF(series, 10)
//	significant := stats.SignificantLags(acf, stats.ConfidenceBound(series.Len()))
//
// PACF seeds the AR start values of the arima package, and the significant
// residual ACF lags end up in its model summary.
//
// # Residual Diagnostics
//
//	lb := stats.LjungBox(residuals, 10, p+q)
//	if lb.WhiteNoise() {
//	    // no remaining autocorrelation
//	}
//
//	dw, ok := stats.DurbinWatson(residuals.Values)
//
// Chi-squared tail probabilities come from gonum's distuv package.
package stats
