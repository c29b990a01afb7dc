// Package config loads the command configuration from YAML and the
// environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/akhenakh/inview"
)

// Config holds all application configuration.
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Propagator string           `mapstructure:"propagator"`
	Workers    int              `mapstructure:"workers"`
	Query      QueryConfig      `mapstructure:"query"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	Stations   []map[string]any `mapstructure:"stations"`
	Satellites []map[string]any `mapstructure:"satellites"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// QueryConfig is the span computed by the command. An empty Start means now.
type QueryConfig struct {
	Start        string `mapstructure:"start"`
	HorizonHours int    `mapstructure:"horizon_hours"`
	StepSeconds  int    `mapstructure:"step_seconds"`
	Sun          bool   `mapstructure:"sun"`
	AzEls        bool   `mapstructure:"azels"`
}

type CatalogConfig struct {
	URL        string        `mapstructure:"url"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	ValkeyAddr string        `mapstructure:"valkey_addr"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Load reads configuration from path, or from inview.yaml in the working
// directory or ./configs when path is empty, then applies environment
// variables: INVIEW_QUERY_HORIZON_HOURS overrides query.horizon_hours.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("propagator", "sgp4")
	v.SetDefault("workers", 4)
	v.SetDefault("query.start", "")
	v.SetDefault("query.horizon_hours", 24)
	v.SetDefault("query.step_seconds", 60)
	v.SetDefault("query.sun", false)
	v.SetDefault("query.azels", false)
	v.SetDefault("catalog.url", inview.DefaultCatalogURL)
	v.SetDefault("catalog.cache_ttl", "6h")
	v.SetDefault("catalog.valkey_addr", "")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "inview")
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("inview")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("INVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields that have no safe default.
func (c *Config) Validate() error {
	var errs []string

	if c.Workers <= 0 {
		errs = append(errs, fmt.Sprintf("workers must be positive, got %d", c.Workers))
	}
	if c.Query.HorizonHours <= 0 {
		errs = append(errs, fmt.Sprintf("query.horizon_hours must be positive, got %d", c.Query.HorizonHours))
	}
	if c.Query.Start != "" {
		if _, err := time.Parse(time.RFC3339, c.Query.Start); err != nil {
			errs = append(errs, fmt.Sprintf("query.start must be RFC 3339: %v", err))
		}
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Sprintf("tracing.sample_ratio must be in [0, 1], got %g", c.Tracing.SampleRatio))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Span returns the configured query span starting at Query.Start, or at now
// when unset.
func (c *Config) Span(now time.Time) (start, end inview.Instant) {
	s := now
	if c.Query.Start != "" {
		if t, err := time.Parse(time.RFC3339, c.Query.Start); err == nil {
			s = t
		}
	}
	start = inview.FromAnyTimezone(s)
	return start, start.Add(time.Duration(c.Query.HorizonHours) * time.Hour)
}

// GroundStations decodes the station records. Records never fail to decode.
func (c *Config) GroundStations() []*inview.GroundStation {
	out := make([]*inview.GroundStation, 0, len(c.Stations))
	for _, rec := range c.Stations {
		out = append(out, inview.GroundStationFromRecord(rec))
	}
	return out
}

// SatelliteRecords decodes the satellite records, filling the catalog URL
// from the catalog section when a record names none.
func (c *Config) SatelliteRecords() []inview.SatelliteRecord {
	out := make([]inview.SatelliteRecord, 0, len(c.Satellites))
	for _, raw := range c.Satellites {
		rec := inview.SatelliteFromRecord(raw)
		if _, ok := raw["url"]; !ok && c.Catalog.URL != "" {
			rec.URL = c.Catalog.URL
		}
		out = append(out, rec)
	}
	return out
}
