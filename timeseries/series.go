// Package timeseries provides core time series data structures and operations.
package timeseries

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Kind tags where the points of a series came from.
type Kind int

const (
	// Historical series hold observed values only.
	Historical Kind = iota
	// Forecast series hold model-produced values only.
	Forecast
)

// String returns the origin label used in exports ("Historical" / "Forecast").
func (k Kind) String() string {
	switch k {
	case Historical:
		return "Historical"
	case Forecast:
		return "Forecast"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MarshalText encodes the kind as its label.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a label produced by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind parses an origin label.
func ParseKind(label string) (Kind, error) {
	switch label {
	case "Historical", "historical":
		return Historical, nil
	case "Forecast", "forecast":
		return Forecast, nil
	}
	return 0, fmt.Errorf("unknown series kind %q", label)
}

// TimePoint is a single yearly observation.
type TimePoint struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Series represents a yearly time series. Years label the observations;
// models treat the values as equally spaced by position.
type Series struct {
	Name   string    `json:"name"`
	Kind   Kind      `json:"kind"`
	Years  []int     `json:"years"`
	Values []float64 `json:"values"`
}

// New creates a new historical series from values, labelled 1..n.
func New(values []float64) *Series {
	years := make([]int, len(values))
	for i := range years {
		years[i] = i + 1
	}
	return &Series{
		Years:  years,
		Values: values,
	}
}

// NewYearly creates a series with explicit year labels.
func NewYearly(kind Kind, years []int, values []float64) (*Series, error) {
	if len(years) != len(values) {
		return nil, errors.New("years and values must have the same length")
	}
	return &Series{
		Kind:   kind,
		Years:  years,
		Values: values,
	}, nil
}

// FromPoints builds a series of the given kind from points, keeping their order.
func FromPoints(kind Kind, points []TimePoint) *Series {
	s := &Series{
		Kind:   kind,
		Years:  make([]int, len(points)),
		Values: make([]float64, len(points)),
	}
	for i, p := range points {
		s.Years[i] = p.Year
		s.Values[i] = p.Value
	}
	return s
}

// Empty returns a series of the given kind with no points.
func Empty(kind Kind) *Series {
	return &Series{Kind: kind, Years: []int{}, Values: []float64{}}
}

// Len returns the length of the series.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Values)
}

// IsEmpty reports whether the series has no points.
func (s *Series) IsEmpty() bool {
	return s.Len() == 0
}

// Point returns the i-th point.
func (s *Series) Point(i int) TimePoint {
	return TimePoint{Year: s.Years[i], Value: s.Values[i]}
}

// Points returns the series as a slice of points.
func (s *Series) Points() []TimePoint {
	points := make([]TimePoint, s.Len())
	for i := range points {
		points[i] = s.Point(i)
	}
	return points
}

// First returns the first point. It panics on an empty series.
func (s *Series) First() TimePoint {
	return s.Point(0)
}

// Last returns the last point. It panics on an empty series.
func (s *Series) Last() TimePoint {
	return s.Point(s.Len() - 1)
}

// YearSpan returns the smallest and largest year label.
func (s *Series) YearSpan() (earliest, latest int) {
	if s.IsEmpty() {
		return 0, 0
	}
	earliest, latest = s.Years[0], s.Years[0]
	for _, y := range s.Years[1:] {
		if y < earliest {
			earliest = y
		}
		if y > latest {
			latest = y
		}
	}
	return earliest, latest
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if s.IsEmpty() {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// Min returns the minimum value in the series.
func (s *Series) Min() float64 {
	if s.IsEmpty() {
		return math.NaN()
	}
	return floats.Min(s.Values)
}

// Max returns the maximum value in the series.
func (s *Series) Max() float64 {
	if s.IsEmpty() {
		return math.NaN()
	}
	return floats.Max(s.Values)
}

// AllFinite reports whether every value is a finite number.
func (s *Series) AllFinite() bool {
	for _, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Diff calculates the first difference of the series (d=1).
func (s *Series) Diff() *Series {
	return s.DiffN(1)
}

// DiffN calculates the lag-n difference of the series.
func (s *Series) DiffN(n int) *Series {
	if n <= 0 || s.Len() <= n {
		return &Series{Kind: s.Kind, Years: []int{}, Values: []float64{}}
	}

	result := make([]float64, s.Len()-n)
	for i := n; i < s.Len(); i++ {
		result[i-n] = s.Values[i] - s.Values[i-n]
	}

	years := make([]int, len(result))
	if len(s.Years) == s.Len() {
		copy(years, s.Years[n:])
	}

	return &Series{
		Name:   s.Name + "_diff",
		Kind:   s.Kind,
		Years:  years,
		Values: result,
	}
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	years := make([]int, len(s.Years))
	copy(years, s.Years)

	return &Series{
		Name:   s.Name,
		Kind:   s.Kind,
		Years:  years,
		Values: values,
	}
}

// SortedByYear returns a copy ordered by ascending year. Points sharing a
// year keep their relative order.
func (s *Series) SortedByYear() *Series {
	points := s.Points()
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Year < points[j].Year
	})
	out := FromPoints(s.Kind, points)
	out.Name = s.Name
	return out
}
