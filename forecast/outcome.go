package forecast

import (
	"errors"
	"fmt"

	"github.com/sartorproj/regiocast/arima"
	"github.com/sartorproj/regiocast/timeseries"
)

var (
	// ErrInsufficientData matches every *InsufficientDataError.
	ErrInsufficientData = errors.New("insufficient data for forecast")
	// ErrFittingFailed matches every *FittingError.
	ErrFittingFailed = errors.New("forecast model fitting failed")
)

// InsufficientDataError is reported when the series is too short to fit.
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for ARIMA forecast: have %d points, need at least %d", e.Have, e.Need)
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// FittingError wraps a numerical failure while fitting or predicting.
type FittingError struct {
	Order arima.Order
	Err   error
}

func (e *FittingError) Error() string {
	return fmt.Sprintf("ARIMA%s forecast failed: %v", e.Order, e.Err)
}

func (e *FittingError) Unwrap() error {
	return e.Err
}

func (e *FittingError) Is(target error) bool {
	return target == ErrFittingFailed
}

// Status tags the kind of Outcome.
type Status int

const (
	StatusOK Status = iota
	StatusInsufficientData
	StatusFittingFailed
	// StatusSkipped marks a forecast that was never attempted.
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInsufficientData:
		return "insufficient_data"
	case StatusFittingFailed:
		return "fitting_failed"
	case StatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText encodes the status as its name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is a successful forecast.
type Result struct {
	Forecast *timeseries.Series `json:"forecast"`
	Order    arima.Order        `json:"order"`
	Fit      *arima.Summary     `json:"fit,omitempty"`
}

// Outcome is the tagged result of Engine.Forecast. Result is set only when
// Status is StatusOK.
type Outcome struct {
	Status Status
	Result *Result

	err error
}

// Succeeded wraps a result as an OK outcome.
func Succeeded(r *Result) Outcome {
	return Outcome{Status: StatusOK, Result: r}
}

// OK reports whether a forecast is available.
func (o Outcome) OK() bool {
	return o.Status == StatusOK && o.Result != nil
}

// Err returns the *InsufficientDataError or *FittingError behind a non-OK
// outcome, and nil otherwise.
func (o Outcome) Err() error {
	return o.err
}

// Reason is the diagnostic text of a non-OK outcome.
func (o Outcome) Reason() string {
	if o.err == nil {
		return ""
	}
	return o.err.Error()
}

// Forecast returns the forecast series, or an empty Forecast series when
// there is none.
func (o Outcome) Forecast() *timeseries.Series {
	if o.OK() && o.Result.Forecast != nil {
		return o.Result.Forecast
	}
	return timeseries.Empty(timeseries.Forecast)
}
