// Command regiocast forecasts regional indicators from tabular datasets.
//
// Usage:
//
//	regiocast regions  -file data.csv
//	regiocast forecast -file data.csv -variable Employment -region EL30,EL41 [-horizon 8] [-out DIR] [-chart]
//	regiocast forecast -series employment.csv [-variable Employment] [-horizon 8]
//	regiocast runs     [-region EL30] [-variable Employment] [-limit 20]
//	regiocast serve    [-addr :8080]
//
// Configuration comes from .env, the YAML file named by REGIOCAST_CONFIG
// and REGIOCAST_* environment variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/sartorproj/regiocast/dataset"
	"github.com/sartorproj/regiocast/forecast"
	"github.com/sartorproj/regiocast/internal/cache"
	"github.com/sartorproj/regiocast/internal/config"
	"github.com/sartorproj/regiocast/internal/logging"
	"github.com/sartorproj/regiocast/internal/store"
	"github.com/sartorproj/regiocast/pipeline"
)

const (
	exitOK = iota
	exitError
	exitUsage
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(exitUsage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(exitError)
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	args := os.Args[2:]
	switch os.Args[1] {
	case "regions":
		err = regionsCmd(cfg, args)
	case "forecast":
		err = forecastCmd(ctx, cfg, logger, args)
	case "runs":
		err = runsCmd(ctx, cfg, args)
	case "serve":
		err = serveCmd(ctx, cfg, logger, args)
	case "help", "-h", "--help":
		usage()
		return
	default:
		color.Red("Unknown command %q", os.Args[1])
		usage()
		os.Exit(exitUsage)
	}

	if err != nil {
		color.Red("Error: %v", err)
		if dataset.IsPrecondition(err) || errors.Is(err, dataset.ErrUnsupportedFormat) || errors.Is(err, errUsage) {
			os.Exit(exitUsage)
		}
		os.Exit(exitError)
	}
}

var errUsage = errors.New("invalid arguments")

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: regiocast <command> [flags]

Commands:
  regions   list the regions and numeric variables of a dataset
  forecast  forecast a variable for one or more regions
  runs      show recorded forecast runs
  serve     start the HTTP API`)
}

// app holds the components shared by the commands.
type app struct {
	runner *pipeline.Runner
	runs   *store.Store
	cache  *cache.Forecasts
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	engine := forecast.NewEngine(
		forecast.WithOrder(cfg.Forecast.Order),
		forecast.WithHorizon(cfg.Forecast.Horizon),
		forecast.WithLogger(logger),
	)

	a := &app{}
	opts := []pipeline.Option{
		pipeline.WithWorkers(cfg.Forecast.Workers),
		pipeline.WithLogger(logger),
	}

	if cfg.Redis.Enabled {
		rdb, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("forecast cache unavailable", "error", err)
		} else {
			a.cache = cache.NewForecasts(rdb, cfg.Redis.TTL, logger)
			opts = append(opts, pipeline.WithCache(a.cache))
		}
	}

	if cfg.Database.Enabled() {
		st, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			a.close()
			return nil, err
		}
		a.runs = st
	}

	a.runner = pipeline.NewRunner(engine, opts...)
	return a, nil
}

func (a *app) close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.runs != nil {
		_ = a.runs.Close()
	}
}

// record stores the reports when run history is enabled.
func (a *app) record(ctx context.Context, datasetName string, reports []pipeline.RegionReport) error {
	if a.runs == nil {
		return nil
	}
	runs := make([]store.Run, len(reports))
	for i := range reports {
		runs[i] = store.RunFromReport(datasetName, &reports[i])
	}
	return a.runs.Save(ctx, runs...)
}
