// Package cache keeps computed forecasts in Redis.
//
// Forecasts are deterministic in the series, the model order and the
// horizon, so a result can be reused for as long as the TTL allows.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sartorproj/regiocast/arima"
	"github.com/sartorproj/regiocast/forecast"
	"github.com/sartorproj/regiocast/timeseries"
)

const keyPrefix = "regiocast:forecast:"

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

// Forecasts caches forecast results. A nil *Forecasts is a cache that
// always misses.
type Forecasts struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewForecasts wraps a client. A ttl of zero keeps entries forever.
func NewForecasts(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Forecasts {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Forecasts{rdb: rdb, ttl: ttl, logger: logger.With("component", "cache")}
}

// Key derives the cache key for a forecast request.
func Key(series *timeseries.Series, order arima.Order, horizon int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%t|%d|", series.Name, order, order.Constant, horizon)
	for i := 0; i < series.Len(); i++ {
		h.Write(strconv.AppendInt(nil, int64(series.Years[i]), 10))
		h.Write([]byte{':'})
		h.Write(strconv.AppendFloat(nil, series.Values[i], 'g', -1, 64))
		h.Write([]byte{';'})
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Get returns a cached result. Errors count as misses and are logged.
func (f *Forecasts) Get(ctx context.Context, series *timeseries.Series, order arima.Order, horizon int) (*forecast.Result, bool) {
	if f == nil || f.rdb == nil {
		return nil, false
	}

	key := Key(series, order, horizon)
	data, err := f.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			f.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	var result forecast.Result
	if err := json.Unmarshal(data, &result); err != nil {
		f.logger.Warn("cache entry is corrupt", "key", key, "error", err)
		return nil, false
	}
	return &result, true
}

// Put stores a result. Errors are logged.
func (f *Forecasts) Put(ctx context.Context, series *timeseries.Series, order arima.Order, horizon int, result *forecast.Result) {
	if f == nil || f.rdb == nil || result == nil {
		return
	}

	key := Key(series, order, horizon)
	data, err := json.Marshal(result)
	if err != nil {
		f.logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := f.rdb.Set(ctx, key, data, f.ttl).Err(); err != nil {
		f.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// Close closes the underlying client.
func (f *Forecasts) Close() error {
	if f == nil || f.rdb == nil {
		return nil
	}
	return f.rdb.Close()
}
