package forecast

import (
	"io"
	"log/slog"

	"github.com/sartorproj/regiocast/arima"
	"github.com/sartorproj/regiocast/timeseries"
)

const (
	// DefaultHorizon is the number of years forecast when none is given.
	DefaultHorizon = 8
	// MinObservations is the shortest series the engine will fit.
	MinObservations = 2
)

// DefaultOrder is the fixed ARIMA order. It carries no constant, so
// forecasts have no built-in drift.
var DefaultOrder = arima.Order{P: 2, D: 1, Q: 2}

// Request is one forecast to run.
type Request struct {
	Series  *timeseries.Series
	Horizon int
}

// Engine fits a fixed-order ARIMA model per series. It holds no per-call
// state and is safe for concurrent use.
type Engine struct {
	order   arima.Order
	horizon int
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithOrder overrides the ARIMA order.
func WithOrder(order arima.Order) Option {
	return func(e *Engine) {
		e.order = order
	}
}

// WithHorizon sets the horizon used when a call passes horizon <= 0.
func WithHorizon(horizon int) Option {
	return func(e *Engine) {
		if horizon > 0 {
			e.horizon = horizon
		}
	}
}

// WithLogger sets the logger for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine with order (2,1,2) and horizon 8 unless
// overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		order:   DefaultOrder,
		horizon: DefaultHorizon,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Order returns the model order.
func (e *Engine) Order() arima.Order {
	return e.order
}

// Horizon returns the default horizon.
func (e *Engine) Horizon() int {
	return e.horizon
}

// MinObservations is the shortest series this engine fits.
func (e *Engine) MinObservations() int {
	return max(MinObservations, e.order.MinObservations())
}

// Run forecasts a request.
func (e *Engine) Run(req Request) Outcome {
	return e.Forecast(req.Series, req.Horizon)
}

// Forecast fits the model on the series values and predicts horizon steps,
// labelled last year + 1 through last year + horizon. A horizon <= 0 uses
// the engine default.
func (e *Engine) Forecast(series *timeseries.Series, horizon int) Outcome {
	if horizon <= 0 {
		horizon = e.horizon
	}

	name := ""
	if series != nil {
		name = series.Name
	}
	logger := e.logger.With("series", name, "order", e.order.String())

	need := e.MinObservations()
	if series.Len() < need {
		err := &InsufficientDataError{Have: series.Len(), Need: need}
		logger.Warn("skipping forecast", "error", err)
		return Outcome{Status: StatusInsufficientData, err: err}
	}

	fail := func(err error) Outcome {
		ferr := &FittingError{Order: e.order, Err: err}
		logger.Error("forecast failed", "error", err)
		return Outcome{Status: StatusFittingFailed, err: ferr}
	}

	model := arima.NewWithOrder(e.order)
	if err := model.Fit(series); err != nil {
		return fail(err)
	}

	predictions, err := model.Predict(horizon)
	if err != nil {
		return fail(err)
	}

	_, lastYear := series.YearSpan()
	years := make([]int, horizon)
	for i := range years {
		years[i] = lastYear + i + 1
	}

	fc, err := timeseries.NewYearly(timeseries.Forecast, years, predictions)
	if err != nil {
		return fail(err)
	}
	fc.Name = forecastName(name)

	if !model.Converged {
		logger.Warn("optimizer did not converge", "iterations", model.Iterations)
	}
	logger.Debug("model fitted",
		"observations", series.Len(),
		"horizon", horizon,
		"aic", arima.Stat(model.AIC),
		"degenerate", model.Degenerate,
		"iterations", model.Iterations,
	)

	return Succeeded(&Result{
		Forecast: fc,
		Order:    e.order,
		Fit:      model.Summary(),
	})
}

func forecastName(name string) string {
	if name == "" {
		return "forecast"
	}
	return name + " forecast"
}
