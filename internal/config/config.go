// Package config provides configuration types, defaults, and persistence
// for traceline.
package config

import "fmt"

// AuditConfig holds audit trail configuration.
type AuditConfig struct {
	// BufferSize is the per-subscriber event buffer. Slow subscribers
	// beyond it drop events.
	BufferSize int `mapstructure:"buffer_size" yaml:"buffer_size"`
}

// TracingConfig holds tracing configuration.
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled" yaml:"enabled"`
	Exporter     string  `mapstructure:"exporter" yaml:"exporter"` // "stdout", "file", or "otlp"
	FilePath     string  `mapstructure:"file_path" yaml:"file_path"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// CacheConfig holds read-cache configuration.
type CacheConfig struct {
	Enabled    bool `mapstructure:"enabled" yaml:"enabled"`
	TTLSeconds int  `mapstructure:"ttl_seconds" yaml:"ttl_seconds"`
}

// Config holds all configuration options for traceline.
type Config struct {
	// DBPath is the SQLite database holding the persisted ledger.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
	// Debug enables file logging.
	Debug bool `mapstructure:"debug" yaml:"debug"`
	// LogFile receives structured log entries when Debug is set.
	LogFile string `mapstructure:"log_file" yaml:"log_file"`

	Audit   AuditConfig   `mapstructure:"audit" yaml:"audit"`
	Tracing TracingConfig `mapstructure:"tracing" yaml:"tracing"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		DBPath:  ".traceline/ledger.db",
		Debug:   false,
		LogFile: ".traceline/debug.log",
		Audit: AuditConfig{
			BufferSize: 64,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "stdout",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 30,
		},
	}
}

// Validate rejects configurations the runtime cannot honor.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.Audit.BufferSize < 1 {
		return fmt.Errorf("audit.buffer_size must be at least 1, got %d", c.Audit.BufferSize)
	}
	switch c.Tracing.Exporter {
	case "", "none", "stdout", "file", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be none, stdout, file, or otlp, got %q", c.Tracing.Exporter)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be within [0,1], got %v", c.Tracing.SampleRate)
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache.ttl_seconds must not be negative, got %d", c.Cache.TTLSeconds)
	}
	return nil
}
