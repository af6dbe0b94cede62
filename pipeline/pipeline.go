// Package pipeline runs extraction, forecasting and trend derivation for a
// batch of regions.
//
// Each region is processed independently. A failure in one region is
// recorded in that region's report and never stops the others; only a
// dataset that cannot serve the request at all (missing columns, a
// non-numeric variable) fails the whole run.
package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/sartorproj/regiocast/arima"
	"github.com/sartorproj/regiocast/dataset"
	"github.com/sartorproj/regiocast/forecast"
	"github.com/sartorproj/regiocast/timeseries"
	"github.com/sartorproj/regiocast/trend"
)

// ErrNoRegions is returned when a request selects no regions.
var ErrNoRegions = errors.New("no regions selected")

// Request is one user selection.
type Request struct {
	Regions  []string `json:"regions"`
	Variable string   `json:"variable"`
	Horizon  int      `json:"horizon"`
}

// RegionReport is everything produced for one region.
type RegionReport struct {
	Region     dataset.Region           `json:"region"`
	Variable   string                   `json:"variable"`
	Horizon    int                      `json:"horizon"`
	Historical *timeseries.Series       `json:"historical"`
	Forecast   *timeseries.Series       `json:"forecast"`
	Timeline   []timeseries.Observation `json:"timeline"`
	Status     forecast.Status          `json:"status"`
	Order      arima.Order              `json:"order"`
	Fit        *arima.Summary           `json:"fit,omitempty"`
	Summary    *trend.Summary           `json:"summary,omitempty"`
	Narrative  string                   `json:"narrative,omitempty"`
	Note       string                   `json:"note"`
	NoData     bool                     `json:"no_data"`
	Cached     bool                     `json:"cached"`
	Diagnostic string                   `json:"diagnostic,omitempty"`

	// Err is the region-scoped error behind Diagnostic, if any.
	Err error `json:"-"`
}

// HasForecast reports whether the region got a non-empty forecast.
func (r *RegionReport) HasForecast() bool {
	return !r.Forecast.IsEmpty()
}

// Cache stores successful forecasts. Implementations handle their own errors.
type Cache interface {
	Get(ctx context.Context, series *timeseries.Series, order arima.Order, horizon int) (*forecast.Result, bool)
	Put(ctx context.Context, series *timeseries.Series, order arima.Order, horizon int, result *forecast.Result)
}

// Runner processes requests against a dataset.
type Runner struct {
	engine  *forecast.Engine
	cache   Cache
	workers int
	logger  *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithCache enables forecast caching.
func WithCache(c Cache) Option {
	return func(r *Runner) {
		r.cache = c
	}
}

// WithWorkers sets how many regions are processed at once.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a sequential runner around engine.
func NewRunner(engine *forecast.Engine, opts ...Option) *Runner {
	r := &Runner{
		engine:  engine,
		workers: 1,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes every requested region and returns the reports in request
// order. When ctx is cancelled, regions not yet started carry ctx.Err() and
// Run returns it as well.
func (r *Runner) Run(ctx context.Context, ds *dataset.Dataset, req Request) ([]RegionReport, error) {
	if len(req.Regions) == 0 {
		return nil, ErrNoRegions
	}
	if err := ds.CheckVariable(req.Variable); err != nil {
		return nil, err
	}

	horizon := req.Horizon
	if horizon <= 0 {
		horizon = r.engine.Horizon()
	}

	known := make(map[string]dataset.Region)
	regions, err := ds.Regions()
	if err != nil {
		return nil, err
	}
	for _, region := range regions {
		if _, ok := known[region.Code]; !ok {
			known[region.Code] = region
		}
	}

	reports := make([]RegionReport, len(req.Regions))
	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup

	for i, code := range req.Regions {
		region, ok := known[code]
		if !ok {
			region = dataset.Region{Code: code}
		}

		if err := ctx.Err(); err != nil {
			reports[i] = r.cancelled(region, req.Variable, horizon, err)
			continue
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(i int, region dataset.Region) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				reports[i] = r.cancelled(region, req.Variable, horizon, err)
				return
			}
			reports[i] = r.runRegion(ctx, ds, region, req.Variable, horizon)
		}(i, region)
	}

	wg.Wait()

	return reports, ctx.Err()
}

func (r *Runner) cancelled(region dataset.Region, variable string, horizon int, err error) RegionReport {
	return RegionReport{
		Region:     region,
		Variable:   variable,
		Horizon:    horizon,
		Historical: timeseries.Empty(timeseries.Historical),
		Forecast:   timeseries.Empty(timeseries.Forecast),
		Order:      r.engine.Order(),
		Status:     forecast.StatusSkipped,
		Diagnostic: err.Error(),
		Err:        err,
	}
}

func (r *Runner) runRegion(ctx context.Context, ds *dataset.Dataset, region dataset.Region, variable string, horizon int) RegionReport {
	logger := r.logger.With("region", region.Code, "variable", variable)
	report := r.newReport(region, variable, horizon)

	historical, err := dataset.Extract(ds, region.Code, variable)
	if err != nil {
		logger.Error("extraction failed", "error", err)
		report.Historical = timeseries.Empty(timeseries.Historical)
		report.Status = forecast.StatusSkipped
		report.Diagnostic = err.Error()
		report.Err = err
		return report
	}
	return r.project(ctx, report, historical, logger)
}

// RunSeries forecasts a series that does not come from a dataset, such as a
// Year,Value file. The series is sorted by year; a horizon <= 0 uses the
// engine default.
func (r *Runner) RunSeries(ctx context.Context, region dataset.Region, variable string, historical *timeseries.Series, horizon int) RegionReport {
	if horizon <= 0 {
		horizon = r.engine.Horizon()
	}
	if err := ctx.Err(); err != nil {
		return r.cancelled(region, variable, horizon, err)
	}
	if historical == nil {
		historical = timeseries.Empty(timeseries.Historical)
	}

	logger := r.logger.With("region", region.Code, "variable", variable)
	return r.project(ctx, r.newReport(region, variable, horizon), historical.SortedByYear(), logger)
}

func (r *Runner) newReport(region dataset.Region, variable string, horizon int) RegionReport {
	order := r.engine.Order()
	return RegionReport{
		Region:   region,
		Variable: variable,
		Horizon:  horizon,
		Order:    order,
		Note:     trend.ModelNote(order),
		Forecast: timeseries.Empty(timeseries.Forecast),
	}
}

// project forecasts historical and fills in the rest of report.
func (r *Runner) project(ctx context.Context, report RegionReport, historical *timeseries.Series, logger *slog.Logger) RegionReport {
	report.Historical = historical
	region, variable, horizon := report.Region, report.Variable, report.Horizon

	if historical.IsEmpty() {
		logger.Info("no data for region")
		report.NoData = true
		report.Status = forecast.StatusInsufficientData
		report.Diagnostic = "no matching data found for the selected region"
		return report
	}

	outcome, cached := r.forecast(ctx, historical, horizon)
	report.Cached = cached
	report.Status = outcome.Status
	report.Forecast = outcome.Forecast()
	report.Diagnostic = outcome.Reason()
	report.Err = outcome.Err()
	if outcome.OK() {
		report.Fit = outcome.Result.Fit
	}

	report.Timeline = timeseries.Combine(report.Historical, report.Forecast)

	if summary, ok := trend.Summarize(report.Historical, report.Forecast); ok {
		report.Summary = summary
		report.Narrative = trend.Narrative(summary, variable, region.Label())
	}

	logger.Debug("region processed",
		"status", report.Status.String(),
		"points", historical.Len(),
		"cached", cached,
	)
	return report
}

func (r *Runner) forecast(ctx context.Context, historical *timeseries.Series, horizon int) (forecast.Outcome, bool) {
	order := r.engine.Order()
	if r.cache != nil {
		if result, ok := r.cache.Get(ctx, historical, order, horizon); ok {
			return forecast.Succeeded(result), true
		}
	}

	outcome := r.engine.Run(forecast.Request{Series: historical, Horizon: horizon})
	if r.cache != nil && outcome.OK() {
		r.cache.Put(ctx, historical, order, horizon, outcome.Result)
	}
	return outcome, false
}
