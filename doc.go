// Package regiocast forecasts regional statistical indicators.
//
// A dataset is a table with one row per region and year: a region code, a
// region name, a year and any number of indicator columns. regiocast
// extracts the yearly series of one indicator for one region, fits an
// ARIMA(2,1,2) model by conditional sum of squares and projects it a number
// of years ahead, together with a trend summary and a short narrative.
//
// # Quick Start
//
//	ds, err := dataset.LoadFile("regional.csv", dataset.DefaultSchema())
//	runner := pipeline.NewRunner(forecast.NewEngine())
//	reports, err := runner.Run(ctx, ds, pipeline.Request{
//	    Regions:  []string{"EL30", "EL41"},
//	    Variable: "Employment",
//	    Horizon:  8,
//	})
//
// # Packages
//
//   - timeseries: yearly series, timelines and CSV export
//   - stats: autocorrelation and residual diagnostics
//   - arima: the ARIMA model
//   - forecast: fixed-order forecasting with tagged outcomes
//   - dataset: loading, validating and filtering regional tables
//   - trend: historical and forecast summaries and narratives
//   - pipeline: multi-region runs with an optional cache
//   - chart: historical and forecast line charts
//
// The regiocast command in cmd/regiocast exposes the same flow on the
// command line and as an HTTP API.
//
// # References
//
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
//   - Box, G. E. P., & Jenkins, G. M. (1976). Time Series Analysis: Forecasting and Control
package regiocast
