package cache

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sartorproj/regiocast/arima"
	"github.com/sartorproj/regiocast/forecast"
	"github.com/sartorproj/regiocast/timeseries"
)

func testSeries(values ...float64) *timeseries.Series {
	years := make([]int, len(values))
	for i := range years {
		years[i] = 2018 + i
	}
	s, _ := timeseries.NewYearly(timeseries.Historical, years, values)
	s.Name = "Employment"
	return s
}

func TestKey(t *testing.T) {
	order := arima.Order{P: 2, D: 1, Q: 2}
	base := Key(testSeries(100, 110, 121), order, 8)

	if !strings.HasPrefix(base, keyPrefix) {
		t.Errorf("Expected prefix %s, got %s", keyPrefix, base)
	}
	if base != Key(testSeries(100, 110, 121), order, 8) {
		t.Error("Key must be deterministic")
	}

	renamed := testSeries(100, 110, 121)
	renamed.Name = "Population"

	tests := []struct {
		name string
		key  string
	}{
		{"value", Key(testSeries(100, 110, 122), order, 8)},
		{"horizon", Key(testSeries(100, 110, 121), order, 4)},
		{"order", Key(testSeries(100, 110, 121), arima.Order{P: 1, D: 1, Q: 1}, 8)},
		{"name", Key(renamed, order, 8)},
		{"constant", Key(testSeries(100, 110, 121), arima.Order{P: 2, D: 1, Q: 2, Constant: true}, 8)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.key == base {
				t.Errorf("Expected a different key when the %s changes", tt.name)
			}
		})
	}
}

func TestNilCacheMisses(t *testing.T) {
	var f *Forecasts
	if _, ok := f.Get(context.Background(), testSeries(1, 2), forecast.DefaultOrder, 8); ok {
		t.Error("Nil cache must miss")
	}
	f.Put(context.Background(), testSeries(1, 2), forecast.DefaultOrder, 8, &forecast.Result{})
	if err := f.Close(); err != nil {
		t.Errorf("Expected nil error closing nil cache, got %v", err)
	}
}

func TestUnreachableRedisMisses(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})

	var buf bytes.Buffer
	f := NewForecasts(rdb, time.Minute, slog.New(slog.NewTextHandler(&buf, nil)))
	defer f.Close()

	ctx := context.Background()
	s := testSeries(100, 110, 121)
	f.Put(ctx, s, forecast.DefaultOrder, 2, &forecast.Result{Forecast: timeseries.Empty(timeseries.Forecast)})

	if _, ok := f.Get(ctx, s, forecast.DefaultOrder, 2); ok {
		t.Error("Expected a miss when Redis is unreachable")
	}
	if !strings.Contains(buf.String(), "cache read failed") {
		t.Errorf("Expected the read failure to be logged, got %q", buf.String())
	}
}
