package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sartorproj/regiocast/arima"
	"github.com/sartorproj/regiocast/dataset"
	"github.com/sartorproj/regiocast/forecast"
)

const (
	configPathEnv = "REGIOCAST_CONFIG"
	logLevelEnv   = "REGIOCAST_LOG_LEVEL"
	logFormatEnv  = "REGIOCAST_LOG_FORMAT"
	httpAddrEnv   = "REGIOCAST_HTTP_ADDR"
	horizonEnv    = "REGIOCAST_HORIZON"
	workersEnv    = "REGIOCAST_WORKERS"
	redisAddrEnv  = "REDIS_ADDR"
	redisPassEnv  = "REDIS_PASSWORD"
	dbDriverEnv   = "DATABASE_DRIVER"
	dbDSNEnv      = "DATABASE_DSN"
)

// Config holds every setting of the CLI and the HTTP server.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	HTTP     HTTPConfig     `yaml:"http"`
	Forecast ForecastConfig `yaml:"forecast"`
	Schema   dataset.Schema `yaml:"schema"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
	MaxUploadMB    int      `yaml:"maxUploadMB"`
}

// ForecastConfig holds the model settings.
type ForecastConfig struct {
	Horizon int         `yaml:"horizon"`
	Order   arima.Order `yaml:"order"`
	Workers int         `yaml:"workers"`
}

// RedisConfig describes the forecast cache.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// DatabaseConfig describes the run history store. An empty DSN disables it.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Enabled reports whether run history should be recorded.
func (d DatabaseConfig) Enabled() bool {
	return d.DSN != ""
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		HTTP: HTTPConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
			MaxUploadMB:    32,
		},
		Forecast: ForecastConfig{
			Horizon: forecast.DefaultHorizon,
			Order:   forecast.DefaultOrder,
			Workers: 1,
		},
		Schema: dataset.DefaultSchema(),
		Redis: RedisConfig{
			Addr: "localhost:6379",
			TTL:  24 * time.Hour,
		},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "regiocast.db"},
	}
}

// Load reads .env from the working directory and then applies LoadFrom.
func Load() (Config, error) {
	return LoadFrom(".env")
}

// LoadFrom builds the configuration from defaults, the given .env file (if it
// exists), the YAML file named by REGIOCAST_CONFIG and environment overrides,
// in that order.
func LoadFrom(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(logFormatEnv); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv(redisPassEnv); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv(dbDriverEnv); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv(dbDSNEnv); v != "" {
		c.Database.DSN = v
	}

	var err error
	if c.Forecast.Horizon, err = envInt(horizonEnv, c.Forecast.Horizon); err != nil {
		return err
	}
	if c.Forecast.Workers, err = envInt(workersEnv, c.Forecast.Workers); err != nil {
		return err
	}
	return nil
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

// Validate rejects settings the components cannot run with.
func (c Config) Validate() error {
	var problems []string
	if c.Forecast.Horizon <= 0 {
		problems = append(problems, "forecast.horizon must be positive")
	}
	if c.Forecast.Workers <= 0 {
		problems = append(problems, "forecast.workers must be positive")
	}
	if err := c.Forecast.Order.Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Schema.RegionCode == "" || c.Schema.RegionName == "" || c.Schema.Year == "" {
		problems = append(problems, "schema columns must be named")
	}
	if c.Database.Enabled() && c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		problems = append(problems, fmt.Sprintf("unsupported database driver %q", c.Database.Driver))
	}
	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}
