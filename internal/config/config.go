// Package config loads the pipeline configuration from YAML and the environment.
package config

import (
	"time"

	"equity-feature-lab/internal/domain"
)

// Config is the root configuration.
type Config struct {
	Run     RunConfig     `yaml:"run" envconfig:"RUN"`
	Adjust  AdjustConfig  `yaml:"adjust" envconfig:"ADJUST"`
	Source  SourceConfig  `yaml:"source" envconfig:"SOURCE"`
	Storage StorageConfig `yaml:"storage" envconfig:"STORAGE"`
	Export  ExportConfig  `yaml:"export" envconfig:"EXPORT"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Metrics MetricsConfig `yaml:"metrics" envconfig:"METRICS"`
}

// RunConfig selects what a batch computes.
type RunConfig struct {
	Instruments []string `yaml:"instruments" envconfig:"INSTRUMENTS" validate:"required,min=1,unique,dive,required"`
	Start       string   `yaml:"start" envconfig:"START" validate:"required,datetime=2006-01-02"`
	End         string   `yaml:"end" envconfig:"END" validate:"required,datetime=2006-01-02"`
	Features    []string `yaml:"features" envconfig:"FEATURES" validate:"dive,required"`
	Fields      []string `yaml:"fields" envconfig:"FIELDS" validate:"dive,oneof=close dividend split_ratio bid ask volume"`
	Workers     int      `yaml:"workers" envconfig:"WORKERS" validate:"min=1,max=256"`
	GapPolicy   string   `yaml:"gap_policy" envconfig:"GAP_POLICY" validate:"oneof=fail skip carry_forward"`
}

// StartDate returns Start as a date. Valid after Validate.
func (r RunConfig) StartDate() time.Time {
	t, _ := domain.ParseDate(r.Start)
	return t
}

// EndDate returns End as a date. Valid after Validate.
func (r RunConfig) EndDate() time.Time {
	t, _ := domain.ParseDate(r.End)
	return t
}

// AdjustConfig configures the price adjuster.
type AdjustConfig struct {
	Precision    int32 `yaml:"precision" envconfig:"PRECISION" validate:"min=1,max=12"`
	StrictSplits bool  `yaml:"strict_splits" envconfig:"STRICT_SPLITS"`
}

// SourceConfig selects and configures the record source.
type SourceConfig struct {
	Kind     string      `yaml:"kind" envconfig:"KIND" validate:"oneof=csv store eodhd"`
	Calendar string      `yaml:"calendar" envconfig:"CALENDAR" validate:"oneof=nyse weekdays"`
	CSVDir   string      `yaml:"csv_dir" envconfig:"CSV_DIR"`
	EODHD    EODHDConfig `yaml:"eodhd" envconfig:"EODHD"`
	Redis    RedisConfig `yaml:"redis" envconfig:"REDIS"`
}

// EODHDConfig configures the vendor API client.
type EODHDConfig struct {
	BaseURL           string        `yaml:"base_url" envconfig:"BASE_URL" validate:"omitempty,url"`
	APIKey            string        `yaml:"api_key" envconfig:"API_KEY"`
	Exchange          string        `yaml:"exchange" envconfig:"EXCHANGE"`
	RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"RPS" validate:"min=0"`
	Burst             int           `yaml:"burst" envconfig:"BURST" validate:"min=0"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// RedisConfig enables the source cache when Addr is set.
type RedisConfig struct {
	Addr      string        `yaml:"addr" envconfig:"ADDR"`
	Password  string        `yaml:"password" envconfig:"PASSWORD"`
	DB        int           `yaml:"db" envconfig:"DB" validate:"min=0"`
	TTL       time.Duration `yaml:"ttl" envconfig:"TTL"`
	Namespace string        `yaml:"namespace" envconfig:"NAMESPACE"`
}

// StorageConfig configures persistence. Empty DSNs disable the backend.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn" envconfig:"POSTGRES_DSN"`
	ClickHouseDSN string `yaml:"clickhouse_dsn" envconfig:"CLICKHOUSE_DSN"`
	Migrate       bool   `yaml:"migrate" envconfig:"MIGRATE"`
}

// ExportConfig configures file output. An empty Dir disables export.
type ExportConfig struct {
	Dir         string `yaml:"dir" envconfig:"DIR"`
	Format      string `yaml:"format" envconfig:"FORMAT" validate:"oneof=csv xlsx"`
	DropMissing bool   `yaml:"drop_missing" envconfig:"DROP_MISSING"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr" envconfig:"ADDR"`
}
