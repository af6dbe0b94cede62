// Package trend derives change statistics from a historical series and its
// forecast.
package trend

import (
	"math"

	"github.com/sartorproj/regiocast/timeseries"
)

// MinObservations is the shortest historical series that gets a summary.
const MinObservations = 2

// Direction is the sign of the historical net change.
type Direction string

const (
	Increasing Direction = "increasing"
	Decreasing Direction = "decreasing"
	Stable     Direction = "stable"
)

// Summary describes the historical trend and, when a forecast exists, the
// projected change over the forecast horizon.
type Summary struct {
	FirstValue      float64   `json:"first_value"`
	LastValue       float64   `json:"last_value"`
	AbsoluteChange  float64   `json:"absolute_change"`
	PercentChange   float64   `json:"percent_change"`
	EarliestYear    int       `json:"earliest_year"`
	LatestYear      int       `json:"latest_year"`
	AvgAnnualChange float64   `json:"avg_annual_change"`
	Direction       Direction `json:"trend_direction"`

	Forecast *ForecastProjection `json:"forecast,omitempty"`
}

// ForecastProjection is the change from the last observation to the end of
// the forecast.
type ForecastProjection struct {
	LastValue       float64 `json:"forecast_last_value"`
	AbsoluteChange  float64 `json:"forecast_absolute_change"`
	PercentChange   float64 `json:"forecast_percent_change"`
	AvgAnnualChange float64 `json:"avg_forecast_annual_change"`
	FirstYear       int     `json:"first_year"`
	LastYear        int     `json:"last_year"`
	Horizon         int     `json:"horizon"`
}

// Summarize computes the summary. It reports false when the historical series
// has fewer than two points. The forecast may be nil or empty.
func Summarize(historical, forecast *timeseries.Series) (*Summary, bool) {
	if historical.Len() < MinObservations {
		return nil, false
	}

	first := historical.First().Value
	last := historical.Last().Value
	earliest, latest := historical.YearSpan()

	s := &Summary{
		FirstValue:     first,
		LastValue:      last,
		AbsoluteChange: last - first,
		EarliestYear:   earliest,
		LatestYear:     latest,
	}
	s.PercentChange = percentOf(s.AbsoluteChange, first)
	s.Direction = directionOf(s.AbsoluteChange)
	if span := latest - earliest; span > 0 {
		s.AvgAnnualChange = s.AbsoluteChange / float64(span)
	}

	if !forecast.IsEmpty() {
		horizon := forecast.Len()
		fcFirst, fcLast := forecast.YearSpan()
		p := &ForecastProjection{
			LastValue:      forecast.Last().Value,
			AbsoluteChange: forecast.Last().Value - last,
			FirstYear:      fcFirst,
			LastYear:       fcLast,
			Horizon:        horizon,
		}
		p.PercentChange = percentOf(p.AbsoluteChange, last)
		p.AvgAnnualChange = p.AbsoluteChange / float64(horizon)
		s.Forecast = p
	}

	return s, true
}

// percentOf returns change relative to |base| in percent, 0 when base is 0.
func percentOf(change, base float64) float64 {
	if base == 0 {
		return 0
	}
	return change / math.Abs(base) * 100
}

func directionOf(change float64) Direction {
	switch {
	case change > 0:
		return Increasing
	case change < 0:
		return Decreasing
	default:
		return Stable
	}
}
