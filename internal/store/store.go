// Package store records forecast runs in SQL.
//
// SQLite (modernc.org/sqlite, driver "sqlite") is the default; Postgres is
// available through lib/pq (driver "postgres").
package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/sartorproj/regiocast/pipeline"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultLimit = 50
	maxLimit     = 1000
)

const schema = `
CREATE TABLE IF NOT EXISTS forecast_runs (
	id              TEXT PRIMARY KEY,
	dataset         TEXT NOT NULL,
	region_code     TEXT NOT NULL,
	region_name     TEXT NOT NULL DEFAULT '',
	variable        TEXT NOT NULL,
	horizon         INTEGER NOT NULL,
	status          TEXT NOT NULL,
	observations    INTEGER NOT NULL,
	forecast_points INTEGER NOT NULL,
	last_forecast   DOUBLE PRECISION,
	absolute_change DOUBLE PRECISION,
	percent_change  DOUBLE PRECISION,
	diagnostic      TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS forecast_runs_region_idx ON forecast_runs (region_code, created_at);
`

var runColumns = []string{
	"id", "dataset", "region_code", "region_name", "variable", "horizon", "status",
	"observations", "forecast_points", "last_forecast", "absolute_change",
	"percent_change", "diagnostic", "created_at",
}

// Run is one processed region of one request.
type Run struct {
	ID             string    `db:"id" json:"id"`
	Dataset        string    `db:"dataset" json:"dataset"`
	RegionCode     string    `db:"region_code" json:"region_code"`
	RegionName     string    `db:"region_name" json:"region_name"`
	Variable       string    `db:"variable" json:"variable"`
	Horizon        int       `db:"horizon" json:"horizon"`
	Status         string    `db:"status" json:"status"`
	Observations   int       `db:"observations" json:"observations"`
	ForecastPoints int       `db:"forecast_points" json:"forecast_points"`
	LastForecast   *float64  `db:"last_forecast" json:"last_forecast,omitempty"`
	AbsoluteChange *float64  `db:"absolute_change" json:"absolute_change,omitempty"`
	PercentChange  *float64  `db:"percent_change" json:"percent_change,omitempty"`
	Diagnostic     string    `db:"diagnostic" json:"diagnostic,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// RunFromReport converts a region report into a Run.
func RunFromReport(datasetName string, r *pipeline.RegionReport) Run {
	run := Run{
		Dataset:        datasetName,
		RegionCode:     r.Region.Code,
		RegionName:     r.Region.Name,
		Variable:       r.Variable,
		Horizon:        r.Horizon,
		Status:         r.Status.String(),
		Observations:   r.Historical.Len(),
		ForecastPoints: r.Forecast.Len(),
		Diagnostic:     r.Diagnostic,
	}
	if r.NoData {
		run.Status = "no_data"
	}
	if r.HasForecast() {
		last := r.Forecast.Last().Value
		run.LastForecast = &last
	}
	if r.Summary != nil {
		abs, pct := r.Summary.AbsoluteChange, r.Summary.PercentChange
		run.AbsoluteChange = &abs
		run.PercentChange = &pct
	}
	return run
}

// Filter narrows List.
type Filter struct {
	Region   string
	Variable string
	Limit    int
}

// Store persists runs.
type Store struct {
	db      *sqlx.DB
	builder sq.StatementBuilderType
	now     func() time.Time
}

// Open connects with the named driver and creates the schema.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One connection: in-memory databases are per connection and
		// SQLite serializes writers anyway.
		db.SetMaxOpenConns(1)
	}

	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database.
func New(db *sqlx.DB) *Store {
	var format sq.PlaceholderFormat = sq.Question
	if db.DriverName() == DriverPostgres {
		format = sq.Dollar
	}
	return &Store{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Save inserts runs in one transaction, assigning IDs and timestamps that
// are not set.
func (s *Store) Save(ctx context.Context, runs ...Run) error {
	if len(runs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range runs {
		run := &runs[i]
		if run.ID == "" {
			run.ID = uuid.NewString()
		}
		if run.CreatedAt.IsZero() {
			run.CreatedAt = s.now()
		}

		query, args, err := s.builder.
			Insert("forecast_runs").
			Columns(runColumns...).
			Values(
				run.ID, run.Dataset, run.RegionCode, run.RegionName, run.Variable,
				run.Horizon, run.Status, run.Observations, run.ForecastPoints,
				run.LastForecast, run.AbsoluteChange, run.PercentChange,
				run.Diagnostic, run.CreatedAt,
			).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert run %s: %w", run.RegionCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// List returns the most recent runs first.
func (s *Store) List(ctx context.Context, f Filter) ([]Run, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	q := s.builder.Select(runColumns...).From("forecast_runs")
	if f.Region != "" {
		q = q.Where(sq.Eq{"region_code": f.Region})
	}
	if f.Variable != "" {
		q = q.Where(sq.Eq{"variable": f.Variable})
	}
	query, args, err := q.OrderBy("created_at DESC", "id").Limit(uint64(limit)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	runs := []Run{}
	if err := s.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
