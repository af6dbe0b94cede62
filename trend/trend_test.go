package trend

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/sartorproj/regiocast/arima"
	"github.com/sartorproj/regiocast/timeseries"
)

func series(t *testing.T, kind timeseries.Kind, years []int, values []float64) *timeseries.Series {
	t.Helper()
	s, err := timeseries.NewYearly(kind, years, values)
	if err != nil {
		t.Fatalf("Failed to build series: %v", err)
	}
	return s
}

func TestSummarizeIncreasing(t *testing.T) {
	hist := series(t, timeseries.Historical, []int{2018, 2019, 2020}, []float64{100, 110, 121})
	fc := series(t, timeseries.Forecast, []int{2021, 2022}, []float64{131.5, 142})

	s, ok := Summarize(hist, fc)
	if !ok {
		t.Fatal("Expected a summary")
	}

	if s.Direction != Increasing {
		t.Errorf("Expected increasing, got %s", s.Direction)
	}
	if s.AbsoluteChange != 21 {
		t.Errorf("Expected absolute change 21, got %f", s.AbsoluteChange)
	}
	if math.Abs(s.PercentChange-21.0) > 1e-12 {
		t.Errorf("Expected percent change 21.0, got %f", s.PercentChange)
	}
	if s.EarliestYear != 2018 || s.LatestYear != 2020 {
		t.Errorf("Expected span 2018-2020, got %d-%d", s.EarliestYear, s.LatestYear)
	}
	if s.AvgAnnualChange != 10.5 {
		t.Errorf("Expected average annual change 10.5, got %f", s.AvgAnnualChange)
	}

	p := s.Forecast
	if p == nil {
		t.Fatal("Expected a forecast projection")
	}
	if p.LastValue != 142 || p.AbsoluteChange != 21 {
		t.Errorf("Expected last 142 and change 21, got %f and %f", p.LastValue, p.AbsoluteChange)
	}
	if math.Abs(p.PercentChange-21.0/121*100) > 1e-12 {
		t.Errorf("Unexpected forecast percent change %f", p.PercentChange)
	}
	if p.AvgAnnualChange != 10.5 {
		t.Errorf("Expected forecast annual change 10.5 (21 over 2 steps), got %f", p.AvgAnnualChange)
	}
	if p.FirstYear != 2021 || p.LastYear != 2022 || p.Horizon != 2 {
		t.Errorf("Unexpected forecast range %d-%d (h=%d)", p.FirstYear, p.LastYear, p.Horizon)
	}
}

func TestSummarizeZeroFirstValue(t *testing.T) {
	hist := series(t, timeseries.Historical, []int{2018, 2019}, []float64{0, 5})

	s, ok := Summarize(hist, nil)
	if !ok {
		t.Fatal("Expected a summary")
	}
	if s.PercentChange != 0 {
		t.Errorf("Expected guarded percent change 0, got %f", s.PercentChange)
	}
	if s.AbsoluteChange != 5 {
		t.Errorf("Expected absolute change 5, got %f", s.AbsoluteChange)
	}
	if s.Forecast != nil {
		t.Error("Expected no forecast projection without a forecast")
	}
}

func TestSummarizeZeroLastValueGuardsForecastPercent(t *testing.T) {
	hist := series(t, timeseries.Historical, []int{2018, 2019}, []float64{4, 0})
	fc := series(t, timeseries.Forecast, []int{2020}, []float64{-4})

	s, _ := Summarize(hist, fc)
	if s.Direction != Decreasing {
		t.Errorf("Expected decreasing, got %s", s.Direction)
	}
	if s.PercentChange != -100 {
		t.Errorf("Expected -100%%, got %f", s.PercentChange)
	}
	if s.Forecast.PercentChange != 0 {
		t.Errorf("Expected guarded forecast percent 0, got %f", s.Forecast.PercentChange)
	}
}

func TestSummarizeNegativeBase(t *testing.T) {
	hist := series(t, timeseries.Historical, []int{2010, 2020}, []float64{-50, -25})

	s, _ := Summarize(hist, nil)
	if s.PercentChange != 50 {
		t.Errorf("Expected percent relative to |first| = 50, got %f", s.PercentChange)
	}
	if s.AvgAnnualChange != 2.5 {
		t.Errorf("Expected 2.5 per year, got %f", s.AvgAnnualChange)
	}
}

func TestSummarizeStableAndZeroSpan(t *testing.T) {
	// Duplicate year: span is zero, average is guarded.
	hist := series(t, timeseries.Historical, []int{2020, 2020}, []float64{7, 7})

	s, ok := Summarize(hist, timeseries.Empty(timeseries.Forecast))
	if !ok {
		t.Fatal("Expected a summary")
	}
	if s.Direction != Stable {
		t.Errorf("Expected stable, got %s", s.Direction)
	}
	if s.AvgAnnualChange != 0 {
		t.Errorf("Expected 0 for zero span, got %f", s.AvgAnnualChange)
	}
	if s.Forecast != nil {
		t.Error("Empty forecast must not produce a projection")
	}
}

func TestSummarizeInsufficient(t *testing.T) {
	tests := []struct {
		name string
		hist *timeseries.Series
	}{
		{"single point", series(t, timeseries.Historical, []int{2020}, []float64{50})},
		{"empty", timeseries.Empty(timeseries.Historical)},
		{"nil", nil},
	}

	fc := series(t, timeseries.Forecast, []int{2021}, []float64{51})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if s, ok := Summarize(tt.hist, fc); ok || s != nil {
				t.Errorf("Expected no summary, got %+v", s)
			}
		})
	}
}

func TestSummarizeIsPure(t *testing.T) {
	hist := series(t, timeseries.Historical, []int{2018, 2019, 2020}, []float64{100, 90, 95})
	fc := series(t, timeseries.Forecast, []int{2021}, []float64{97})

	a, _ := Summarize(hist, fc)
	b, _ := Summarize(hist, fc)

	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if string(ja) != string(jb) {
		t.Errorf("Summaries differ:\n%s\n%s", ja, jb)
	}
}

func TestNarrative(t *testing.T) {
	hist := series(t, timeseries.Historical, []int{2018, 2019, 2020}, []float64{100, 110, 121})
	fc := series(t, timeseries.Forecast, []int{2021, 2022}, []float64{131.5, 142})
	s, _ := Summarize(hist, fc)

	text := Narrative(s, "Employment", "Attica (EL30)")

	expected := []string{
		"#### Summary for Attica (EL30)",
		"Between **2018** and **2020**, Employment exhibited a **increasing** trend with a net change of **21.00k**, or **21.00%**.",
		"The average annual change during this period was **10.50k/year**.",
		"### Forecast (2021 - 2022)",
		"expected to reach **142.00k**, representing a projected change of **21.00k** or **17.36%**.",
		"approximately **10.50k/year**.",
	}
	for _, want := range expected {
		if !strings.Contains(text, want) {
			t.Errorf("Narrative missing %q:\n%s", want, text)
		}
	}
}

func TestNarrativeWithoutForecast(t *testing.T) {
	hist := series(t, timeseries.Historical, []int{2018, 2019}, []float64{0, 5})
	s, _ := Summarize(hist, nil)

	text := Narrative(s, "GDP", "")
	if strings.Contains(text, "Forecast") || strings.Contains(text, "Summary for") {
		t.Errorf("Unexpected sections in narrative:\n%s", text)
	}
	if !strings.Contains(text, "**0.00%**") {
		t.Errorf("Expected guarded percent in narrative:\n%s", text)
	}

	if Narrative(nil, "GDP", "") != "" {
		t.Error("Expected empty narrative for nil summary")
	}
}

func TestModelNote(t *testing.T) {
	note := ModelNote(arima.Order{P: 2, D: 1, Q: 2})
	if !strings.Contains(note, "ARIMA (p=2, d=1, q=2)") {
		t.Errorf("Unexpected model note %q", note)
	}
}
