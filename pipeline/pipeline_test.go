package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/sartorproj/regiocast/arima"
	"github.com/sartorproj/regiocast/dataset"
	"github.com/sartorproj/regiocast/forecast"
	"github.com/sartorproj/regiocast/timeseries"
)

const testCSV = `NUTS Code,NUTS name,Year,Employment,Label
EL30,Attica,2018,100,a
EL30,Attica,2019,110,b
EL30,Attica,2020,121,c
EL41,North Aegean,2020,50,d
EL42,South Aegean,2015,20,e
EL42,South Aegean,2016,22,f
EL42,South Aegean,2017,21,g
EL42,South Aegean,2018,25,h
`

func loadDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Load("test.csv", strings.NewReader(testCSV), dataset.DefaultSchema())
	if err != nil {
		t.Fatalf("Failed to load dataset: %v", err)
	}
	return ds
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string]*forecast.Result
	hits  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string]*forecast.Result)}
}

func (c *memoryCache) key(s *timeseries.Series, order arima.Order, horizon int) string {
	return fmt.Sprint(s.Years, s.Values, order, order.Constant, horizon)
}

func (c *memoryCache) Get(_ context.Context, s *timeseries.Series, order arima.Order, horizon int) (*forecast.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.items[c.key(s, order, horizon)]
	if ok {
		c.hits++
	}
	return r, ok
}

func (c *memoryCache) Put(_ context.Context, s *timeseries.Series, order arima.Order, horizon int, r *forecast.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[c.key(s, order, horizon)] = r
}

func TestRunMixedRegions(t *testing.T) {
	ds := loadDataset(t)
	runner := NewRunner(forecast.NewEngine())

	reports, err := runner.Run(context.Background(), ds, Request{
		Regions:  []string{"EL30", "FR10", "EL41"},
		Variable: "Employment",
		Horizon:  2,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("Expected 3 reports, got %d", len(reports))
	}

	attica := reports[0]
	if attica.Region.Code != "EL30" || attica.Region.Name != "Attica" {
		t.Errorf("Unexpected first region %+v", attica.Region)
	}
	if attica.Status != forecast.StatusOK || !attica.HasForecast() {
		t.Fatalf("Expected a forecast for EL30, got %s (%s)", attica.Status, attica.Diagnostic)
	}
	if attica.Forecast.Years[0] != 2021 || attica.Forecast.Years[1] != 2022 {
		t.Errorf("Expected forecast years [2021 2022], got %v", attica.Forecast.Years)
	}
	if attica.Summary == nil || attica.Summary.Direction != "increasing" || attica.Summary.AbsoluteChange != 21 {
		t.Errorf("Unexpected summary %+v", attica.Summary)
	}
	if len(attica.Timeline) != 5 {
		t.Errorf("Expected 5 timeline observations, got %d", len(attica.Timeline))
	}
	if !strings.Contains(attica.Narrative, "Attica (EL30)") {
		t.Errorf("Narrative should name the region:\n%s", attica.Narrative)
	}
	if !strings.Contains(attica.Note, "p=2, d=1, q=2") {
		t.Errorf("Unexpected model note %q", attica.Note)
	}

	absent := reports[1]
	if !absent.NoData || absent.Historical.Len() != 0 || absent.HasForecast() {
		t.Errorf("Expected no data for FR10, got %+v", absent)
	}
	if absent.Err != nil {
		t.Errorf("An absent region is not an error, got %v", absent.Err)
	}

	single := reports[2]
	if single.Status != forecast.StatusInsufficientData {
		t.Errorf("Expected insufficient data for EL41, got %s", single.Status)
	}
	if !errors.Is(single.Err, forecast.ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", single.Err)
	}
	if single.Summary != nil || single.Historical.Len() != 1 {
		t.Errorf("Expected history without summary, got %+v", single)
	}
}

func TestRunPrecondition(t *testing.T) {
	ds := loadDataset(t)
	runner := NewRunner(forecast.NewEngine())

	for _, variable := range []string{"GDP", "Label"} {
		t.Run(variable, func(t *testing.T) {
			reports, err := runner.Run(context.Background(), ds, Request{Regions: []string{"EL30"}, Variable: variable})
			if !dataset.IsPrecondition(err) {
				t.Errorf("Expected PreconditionError, got %v", err)
			}
			if reports != nil {
				t.Error("Expected no reports on precondition failure")
			}
		})
	}

	if _, err := runner.Run(context.Background(), ds, Request{Variable: "Employment"}); !errors.Is(err, ErrNoRegions) {
		t.Errorf("Expected ErrNoRegions, got %v", err)
	}
}

func TestRunDefaultHorizon(t *testing.T) {
	ds := loadDataset(t)
	runner := NewRunner(forecast.NewEngine(forecast.WithHorizon(5)))

	reports, err := runner.Run(context.Background(), ds, Request{Regions: []string{"EL42"}, Variable: "Employment"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if reports[0].Horizon != 5 || reports[0].Forecast.Len() != 5 {
		t.Errorf("Expected horizon 5, got %d with %d points", reports[0].Horizon, reports[0].Forecast.Len())
	}
}

func TestRunParallelMatchesSequential(t *testing.T) {
	ds := loadDataset(t)
	req := Request{Regions: []string{"EL42", "EL30", "EL41", "EL30"}, Variable: "Employment", Horizon: 4}

	sequential, err := NewRunner(forecast.NewEngine()).Run(context.Background(), ds, req)
	if err != nil {
		t.Fatalf("Sequential run failed: %v", err)
	}
	parallel, err := NewRunner(forecast.NewEngine(), WithWorkers(4)).Run(context.Background(), ds, req)
	if err != nil {
		t.Fatalf("Parallel run failed: %v", err)
	}

	for i := range sequential {
		if sequential[i].Region != parallel[i].Region {
			t.Errorf("Report %d: order differs, %v vs %v", i, sequential[i].Region, parallel[i].Region)
		}
		if fmt.Sprint(sequential[i].Forecast.Values) != fmt.Sprint(parallel[i].Forecast.Values) {
			t.Errorf("Report %d: forecasts differ", i)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	ds := loadDataset(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reports, err := NewRunner(forecast.NewEngine()).Run(ctx, ds, Request{
		Regions:  []string{"EL30", "EL42"},
		Variable: "Employment",
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	for i, r := range reports {
		if !errors.Is(r.Err, context.Canceled) || r.Status != forecast.StatusSkipped {
			t.Errorf("Report %d: expected skipped with cancellation, got %s (%v)", i, r.Status, r.Err)
		}
	}
}

func TestRunUsesCache(t *testing.T) {
	ds := loadDataset(t)
	cache := newMemoryCache()
	runner := NewRunner(forecast.NewEngine(), WithCache(cache))
	req := Request{Regions: []string{"EL30", "EL41"}, Variable: "Employment", Horizon: 2}

	first, err := runner.Run(context.Background(), ds, req)
	if err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	if first[0].Cached {
		t.Error("First run should not be served from cache")
	}
	if len(cache.items) != 1 {
		t.Errorf("Expected only the successful forecast to be cached, got %d entries", len(cache.items))
	}

	second, err := runner.Run(context.Background(), ds, req)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if !second[0].Cached || cache.hits != 1 {
		t.Errorf("Expected a cache hit, cached=%v hits=%d", second[0].Cached, cache.hits)
	}
	if fmt.Sprint(first[0].Forecast.Values) != fmt.Sprint(second[0].Forecast.Values) {
		t.Error("Cached forecast differs from computed forecast")
	}
	if second[1].Cached || second[1].Status != forecast.StatusInsufficientData {
		t.Errorf("Insufficient data must be recomputed, got %+v", second[1])
	}
}

func TestRunSeries(t *testing.T) {
	runner := NewRunner(forecast.NewEngine())
	region := dataset.Region{Code: "employment"}

	unsorted, _ := timeseries.NewYearly(timeseries.Historical,
		[]int{2020, 2018, 2019},
		[]float64{121, 100, 110},
	)
	report := runner.RunSeries(context.Background(), region, "Employment", unsorted, 0)

	if report.Status != forecast.StatusOK || report.Forecast.Len() != forecast.DefaultHorizon {
		t.Fatalf("Expected %d forecast points, got %s with %d", forecast.DefaultHorizon, report.Status, report.Forecast.Len())
	}
	if report.Historical.Years[0] != 2018 || report.Forecast.Years[0] != 2021 {
		t.Errorf("Expected sorted history and forecast from 2021, got %v and %v",
			report.Historical.Years, report.Forecast.Years)
	}
	if report.Summary == nil || report.Summary.AbsoluteChange != 21 {
		t.Errorf("Expected a summary with change 21, got %+v", report.Summary)
	}
	if !strings.Contains(report.Narrative, "employment") {
		t.Errorf("Expected the narrative to name the series, got %q", report.Narrative)
	}

	empty := runner.RunSeries(context.Background(), region, "Employment", nil, 2)
	if !empty.NoData || empty.HasForecast() {
		t.Errorf("Expected no data for a nil series, got %+v", empty)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if r := runner.RunSeries(ctx, region, "Employment", unsorted, 2); r.Status != forecast.StatusSkipped {
		t.Errorf("Expected skipped after cancellation, got %s", r.Status)
	}
}
