// Package forecast turns a historical yearly series into an ARIMA forecast.
//
// The Engine fits a fixed-order ARIMA model (2,1,2 by default) on the series
// values by position, predicts a number of steps (8 by default) and labels
// them with the years following the last observed year.
//
// Insufficient data and fitting failures are routine outcomes, not panics or
// aborts. Forecast always returns an Outcome whose Status tells them apart:
//
//	engine := forecast.NewEngine(forecast.WithLogger(logger))
//	outcome := engine.Forecast(series, 8)
//	switch outcome.Status {
//	case forecast.StatusOK:
//	    fc := outcome.Result.Forecast
//	case forecast.StatusInsufficientData:
//	    // show the history only
//	case forecast.StatusFittingFailed:
//	    log.Println(outcome.Reason())
//	}
//
// Outcome.Forecast never returns nil: without a forecast it is an empty
// series of kind Forecast.
package forecast
