// Package timeseries provides yearly time series data structures and utilities.
//
// A Series carries year labels, values and an origin Kind: Historical for
// observed data, Forecast for model output. Models treat the values as
// equally spaced by position; the years are labels only.
//
// # Creating a Series
//
//	s, err := timeseries.NewYearly(timeseries.Historical,
//	    []int{2018, 2019, 2020},
//	    []float64{100, 110, 121},
//	)
//
// # Basic Statistics
//
//	mean := s.Mean()
//	lo, hi := s.Min(), s.Max()
//	first, last := s.First(), s.Last()
//	earliest, latest := s.YearSpan()
//
// # Combining and Exporting
//
// Historical and forecast series are merged into one annotated timeline
// and exported as delimited text (Year, Value, Type):
//
//	timeline := timeseries.Combine(historical, forecast)
//	err := timeseries.WriteCSV(w, historical, forecast)
//
// ReadCSV parses the same shape back into its two parts.
package timeseries
