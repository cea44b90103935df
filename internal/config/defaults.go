package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultWorkers         = 4
	DefaultGapPolicy       = "fail"
	DefaultPrecision int32 = 4
	DefaultSourceKind      = "csv"
	DefaultCalendar        = "nyse"
	DefaultEODHDTimeout    = 30 * time.Second
	DefaultEODHDRPS        = 5.0
	DefaultEODHDBurst      = 1
	DefaultCacheTTL        = 24 * time.Hour
	DefaultCacheNamespace  = "series"
	DefaultExportFormat    = "csv"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
)

func (c *Config) applyDefaults() {
	if c.Run.Workers == 0 {
		c.Run.Workers = DefaultWorkers
	}
	if c.Run.GapPolicy == "" {
		c.Run.GapPolicy = DefaultGapPolicy
	}

	if c.Adjust.Precision == 0 {
		c.Adjust.Precision = DefaultPrecision
	}

	if c.Source.Kind == "" {
		c.Source.Kind = DefaultSourceKind
	}
	if c.Source.Calendar == "" {
		c.Source.Calendar = DefaultCalendar
	}
	if c.Source.EODHD.Timeout == 0 {
		c.Source.EODHD.Timeout = DefaultEODHDTimeout
	}
	if c.Source.EODHD.RequestsPerSecond == 0 {
		c.Source.EODHD.RequestsPerSecond = DefaultEODHDRPS
	}
	if c.Source.EODHD.Burst == 0 {
		c.Source.EODHD.Burst = DefaultEODHDBurst
	}
	if c.Source.Redis.TTL == 0 {
		c.Source.Redis.TTL = DefaultCacheTTL
	}
	if c.Source.Redis.Namespace == "" {
		c.Source.Redis.Namespace = DefaultCacheNamespace
	}

	if c.Export.Format == "" {
		c.Export.Format = DefaultExportFormat
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}
