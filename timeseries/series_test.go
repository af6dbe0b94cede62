package timeseries

import (
	"encoding/json"
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	s := New(values)

	if s.Len() != 5 {
		t.Errorf("Expected length 5, got %d", s.Len())
	}

	for i, v := range s.Values {
		if v != values[i] {
			t.Errorf("Expected value %f at index %d, got %f", values[i], i, v)
		}
		if s.Years[i] != i+1 {
			t.Errorf("Expected positional label %d, got %d", i+1, s.Years[i])
		}
	}
}

func TestNewYearlyLengthMismatch(t *testing.T) {
	if _, err := NewYearly(Historical, []int{2020}, []float64{1, 2}); err == nil {
		t.Error("Expected error for mismatched lengths")
	}
}

func TestMean(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"simple", []float64{1, 2, 3, 4, 5}, 3.0},
		{"single", []float64{5}, 5.0},
		{"negative", []float64{-1, -2, -3}, -2.0},
		{"mixed", []float64{-1, 0, 1}, 0.0},
		{"empty", []float64{}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.values)
			result := s.Mean()
			if math.Abs(result-tt.expected) > 1e-10 {
				t.Errorf("Expected mean %f, got %f", tt.expected, result)
			}
		})
	}
}

func TestMinMax(t *testing.T) {
	s := New([]float64{5, 2, 8, 1, 9, 3})

	if s.Min() != 1 {
		t.Errorf("Expected min 1, got %f", s.Min())
	}
	if s.Max() != 9 {
		t.Errorf("Expected max 9, got %f", s.Max())
	}

	empty := Empty(Historical)
	if !math.IsNaN(empty.Min()) || !math.IsNaN(empty.Max()) {
		t.Error("Expected NaN min/max for empty series")
	}
}

func TestDiff(t *testing.T) {
	s, _ := NewYearly(Historical, []int{2010, 2011, 2012, 2013, 2014}, []float64{1, 3, 6, 10, 15})
	diff := s.Diff()

	expected := []float64{2, 3, 4, 5}
	if len(diff.Values) != len(expected) {
		t.Fatalf("Expected length %d, got %d", len(expected), len(diff.Values))
	}

	for i, v := range diff.Values {
		if math.Abs(v-expected[i]) > 1e-10 {
			t.Errorf("Expected %f at index %d, got %f", expected[i], i, v)
		}
	}
	if diff.Years[0] != 2011 {
		t.Errorf("Expected first differenced year 2011, got %d", diff.Years[0])
	}
}

func TestDiffN(t *testing.T) {
	s := New([]float64{1, 3, 6, 10, 15, 21})
	diff2 := s.DiffN(2)

	expected := []float64{5, 7, 9, 11}
	if len(diff2.Values) != len(expected) {
		t.Fatalf("Expected length %d, got %d", len(expected), len(diff2.Values))
	}

	for i, v := range diff2.Values {
		if math.Abs(v-expected[i]) > 1e-10 {
			t.Errorf("Expected %f at index %d, got %f", expected[i], i, v)
		}
	}

	if got := New([]float64{1}).Diff().Len(); got != 0 {
		t.Errorf("Expected empty diff of single point, got length %d", got)
	}
}

func TestCopy(t *testing.T) {
	s := New([]float64{1, 2, 3})
	copied := s.Copy()

	s.Values[0] = 100
	s.Years[0] = 1999

	if copied.Values[0] != 1 || copied.Years[0] != 1 {
		t.Errorf("Copy was modified when original changed")
	}
}

func TestSortedByYearIsStable(t *testing.T) {
	s, _ := NewYearly(Historical,
		[]int{2020, 2018, 2019, 2018},
		[]float64{4, 1, 3, 2},
	)
	sorted := s.SortedByYear()

	wantYears := []int{2018, 2018, 2019, 2020}
	wantValues := []float64{1, 2, 3, 4}
	for i := range wantYears {
		if sorted.Years[i] != wantYears[i] || sorted.Values[i] != wantValues[i] {
			t.Errorf("Index %d: expected (%d, %f), got (%d, %f)",
				i, wantYears[i], wantValues[i], sorted.Years[i], sorted.Values[i])
		}
	}
	if s.Years[0] != 2020 {
		t.Error("SortedByYear must not reorder the receiver")
	}
}

func TestYearSpan(t *testing.T) {
	s, _ := NewYearly(Historical, []int{2005, 2001, 2010}, []float64{1, 2, 3})
	earliest, latest := s.YearSpan()
	if earliest != 2001 || latest != 2010 {
		t.Errorf("Expected span 2001-2010, got %d-%d", earliest, latest)
	}
}

func TestAllFinite(t *testing.T) {
	if !New([]float64{1, 2}).AllFinite() {
		t.Error("Expected finite series")
	}
	if New([]float64{1, math.NaN()}).AllFinite() {
		t.Error("Expected NaN to be reported")
	}
	if New([]float64{math.Inf(1)}).AllFinite() {
		t.Error("Expected Inf to be reported")
	}
}

func TestKindJSON(t *testing.T) {
	data, err := json.Marshal(Observation{TimePoint: TimePoint{Year: 2021, Value: 1.5}, Kind: Forecast})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"year":2021,"value":1.5,"type":"Forecast"}`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}

	var obs Observation
	if err := json.Unmarshal(data, &obs); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if obs.Kind != Forecast {
		t.Errorf("Expected Forecast kind, got %v", obs.Kind)
	}

	if _, err := ParseKind("Projected"); err == nil {
		t.Error("Expected error for unknown kind label")
	}
}
