// Package arima implements AutoRegressive Integrated Moving Average (ARIMA) models.
//
// An ARIMA(p,d,q) model combines:
//   - AR(p): AutoRegressive component with p lags
//   - I(d): Integration (differencing) of order d
//   - MA(q): Moving Average component with q lags
//
// # Basic Usage
//
//	model := arima.NewWithOrder(arima.Order{P: 2, D: 1, Q: 2})
//	if err := model.Fit(series); err != nil {
//	    return err
//	}
//	forecasts, err := model.Predict(8)
//
// Fitting minimizes the conditional sum of squares with gonum's Nelder-Mead
// optimizer. Coefficients are searched through partial autocorrelations in
// (-0.99, 0.99), so fitted AR terms are always stationary and MA terms
// invertible. AR terms start from the sample PACF.
//
// # Constant
//
// Order.Constant adds a mean (d=0) or drift (d>=1) term. It is off unless
// set; a differenced model without it carries no deterministic trend.
//
// # Short Series
//
// Fit accepts any series with at least d+1 observations. When the differenced
// series is too short to identify the AR and MA terms they are held at zero,
// Model.Degenerate is set, and the model forecasts a random walk: flat at
// the last observation, or along the mean drift when Order.Constant is set.
// Regional annual data often has only a handful of observations, so this is
// the common path rather than an edge case.
//
// # Diagnostics
//
//	summary := model.Summary()
//	fmt.Printf("AICc: %v, converged: %v\n", summary.AICc, summary.Converged)
//	if summary.LjungBox.WhiteNoise() && len(summary.ResidualLags) == 0 {
//	    // residuals show no remaining autocorrelation
//	}
//
// Statistics that are undefined for the sample (for example AICc when there
// are fewer observations than parameters) are NaN or Inf and encode as JSON
// null.
package arima
