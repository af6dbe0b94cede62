package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/sartorproj/regiocast/chart"
	"github.com/sartorproj/regiocast/dataset"
	"github.com/sartorproj/regiocast/forecast"
	"github.com/sartorproj/regiocast/internal/config"
	"github.com/sartorproj/regiocast/internal/server"
	"github.com/sartorproj/regiocast/internal/store"
	"github.com/sartorproj/regiocast/pipeline"
	"github.com/sartorproj/regiocast/timeseries"
)

func regionsCmd(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("regions", flag.ContinueOnError)
	file := fs.String("file", "", "dataset file (.csv, .xlsx)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *file == "" {
		return fmt.Errorf("%w: -file is required", errUsage)
	}

	ds, err := dataset.LoadFile(*file, cfg.Schema)
	if err != nil {
		return err
	}
	regions, err := ds.Regions()
	if err != nil {
		return err
	}

	color.Cyan("\n%s: %d rows", ds.Name, ds.Rows())
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Code", "Name"})
	for _, r := range regions {
		table.Append([]string{r.Code, r.Name})
	}
	table.Render()

	color.Yellow("\nNumeric variables")
	for _, v := range ds.NumericVariables() {
		fmt.Println("  " + v)
	}
	return nil
}

func forecastCmd(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("forecast", flag.ContinueOnError)
	file := fs.String("file", "", "dataset file (.csv, .xlsx)")
	seriesFile := fs.String("series", "", "single Year,Value series file, instead of -file and -region")
	variable := fs.String("variable", "", "numeric column to forecast")
	regionList := fs.String("region", "", "comma-separated region codes")
	horizon := fs.Int("horizon", 0, "years to forecast (default from config)")
	outDir := fs.String("out", "", "directory for forecast_<code>.csv exports")
	withChart := fs.Bool("chart", false, "also write forecast_<code>.png")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *seriesFile != "" {
		return forecastSeries(ctx, cfg, logger, *seriesFile, *variable, *horizon, *outDir, *withChart)
	}
	if *file == "" || *variable == "" || *regionList == "" {
		return fmt.Errorf("%w: -file, -variable and -region are required", errUsage)
	}

	ds, err := dataset.LoadFile(*file, cfg.Schema)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	reports, err := a.runner.Run(ctx, ds, pipeline.Request{
		Regions:  splitCodes(*regionList),
		Variable: *variable,
		Horizon:  *horizon,
	})
	if err != nil {
		return err
	}

	for i := range reports {
		printReport(&reports[i])
		if *outDir != "" && reports[i].HasForecast() {
			if err := export(*outDir, &reports[i], *withChart); err != nil {
				return err
			}
		}
	}

	if err := a.record(ctx, ds.Name, reports); err != nil {
		logger.Error("recording runs failed", "error", err)
	}
	return nil
}

// forecastSeries forecasts the historical rows of a Year,Value[,Type] file,
// such as one written by a previous export.
func forecastSeries(ctx context.Context, cfg config.Config, logger *slog.Logger, path, variable string, horizon int, outDir string, withChart bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	historical, _, err := timeseries.ReadCSV(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if variable == "" {
		variable = "Value"
	}
	historical.Name = variable

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	report := a.runner.RunSeries(ctx, dataset.Region{Code: name}, variable, historical, horizon)
	printReport(&report)
	if outDir != "" && report.HasForecast() {
		if err := export(outDir, &report, withChart); err != nil {
			return err
		}
	}

	if err := a.record(ctx, filepath.Base(path), []pipeline.RegionReport{report}); err != nil {
		logger.Error("recording runs failed", "error", err)
	}
	return nil
}

func splitCodes(list string) []string {
	var codes []string
	for _, code := range strings.Split(list, ",") {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

func printReport(r *pipeline.RegionReport) {
	label := r.Region.Code
	if r.Region.Name != "" {
		label = r.Region.Label()
	}
	fmt.Printf("\n%s\n%s - %s\n%s\n", strings.Repeat("=", 60), label, r.Variable, strings.Repeat("=", 60))

	if r.NoData {
		color.Yellow("No matching data found for the selected region.")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Year", "Value", "Type"})
	for _, obs := range r.Timeline {
		table.Append([]string{
			strconv.Itoa(obs.Year),
			strconv.FormatFloat(obs.Value, 'f', 2, 64),
			obs.Kind.String(),
		})
	}
	table.Render()

	switch r.Status {
	case forecast.StatusOK:
		if r.Cached {
			color.Green("Forecast ARIMA%s (cached)", r.Order)
		} else {
			color.Green("Forecast ARIMA%s", r.Order)
		}
	case forecast.StatusInsufficientData:
		color.Yellow("Not enough data to forecast: %s", r.Diagnostic)
	default:
		color.Red("Forecast failed: %s", r.Diagnostic)
	}

	if r.Narrative != "" {
		fmt.Println()
		fmt.Println(r.Narrative)
	}
	fmt.Println(r.Note)
}

func export(dir string, r *pipeline.RegionReport, withChart bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	base := filepath.Join(dir, "forecast_"+r.Region.Code)
	if err := timeseries.SaveCSV(base+".csv", r.Forecast); err != nil {
		return err
	}
	fmt.Printf("Exported %s.csv\n", base)

	if !withChart {
		return nil
	}
	label := r.Region.Code
	if r.Region.Name != "" {
		label = r.Region.Label()
	}
	if err := chart.Save(base+".png", r.Historical, r.Forecast, chart.Options{
		Variable: r.Variable,
		Region:   label,
	}); err != nil {
		return err
	}
	fmt.Printf("Exported %s.png\n", base)
	return nil
}

func runsCmd(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	region := fs.String("region", "", "filter by region code")
	variable := fs.String("variable", "", "filter by variable")
	limit := fs.Int("limit", 20, "maximum number of runs")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if !cfg.Database.Enabled() {
		return fmt.Errorf("run history is disabled: set DATABASE_DSN")
	}

	st, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(ctx, store.Filter{Region: *region, Variable: *variable, Limit: *limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		color.Yellow("No runs recorded.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Dataset", "Region", "Variable", "Status", "Horizon", "Change %"})
	for _, run := range runs {
		change := "-"
		if run.PercentChange != nil {
			change = strconv.FormatFloat(*run.PercentChange, 'f', 2, 64)
		}
		table.Append([]string{
			run.CreatedAt.Format("2006-01-02 15:04"),
			run.Dataset,
			run.RegionCode,
			run.Variable,
			run.Status,
			strconv.Itoa(run.Horizon),
			change,
		})
	}
	table.Render()
	return nil
}

func serveCmd(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.HTTP.Addr, "listen address")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	var runs server.RunStore
	if a.runs != nil {
		runs = a.runs
	}

	srv := server.New(a.runner, runs, logger, server.Options{
		Schema:         cfg.Schema,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		MaxUploadMB:    cfg.HTTP.MaxUploadMB,
	})
	return srv.Run(ctx, *addr)
}
