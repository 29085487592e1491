// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Durations are plain integers in milliseconds so env and YAML agree.
// - Provide New() to build a Config with defaults; Load layers file and env on top.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/okian/siegeboard/pkg/logger"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// BaseURL is the castle siege history page; the year is appended as y=.
	BaseURL string `koanf:"base_url"`
	// StartYear is the first year collected.
	StartYear int `koanf:"start_year"`
	// EndYear is the last year collected; 0 means the current year.
	EndYear int `koanf:"end_year"`

	CacheTTLMS int `koanf:"cache_ttl_ms"`

	FetchTimeoutMS       int     `koanf:"fetch_timeout_ms"`
	FetchMaxRetries      int     `koanf:"fetch_max_retries"`
	FetchRetryIntervalMS int     `koanf:"fetch_retry_interval_ms"`
	FetchConcurrency     int     `koanf:"fetch_concurrency"`
	FetchRatePerSecond   float64 `koanf:"fetch_rate_per_second"`
	UserAgent            string  `koanf:"user_agent"`

	// PreloadDelayMS is the wait after start before warming the cache.
	// Negative disables the scheduled preload.
	PreloadDelayMS int `koanf:"preload_delay_ms"`
	// RefreshIntervalMS re-runs the preload periodically when positive.
	RefreshIntervalMS int `koanf:"refresh_interval_ms"`
	PreloadWorkers    int `koanf:"preload_workers"`

	// ArchivePath is the SQLite file holding past runs. Empty disables it.
	ArchivePath string `koanf:"archive_path"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            logger.FormatText,
		Addr:                 ":9080",
		BaseURL:              "https://www.mucabrasil.com.br/?go=castlesiege",
		StartYear:            2014,
		EndYear:              0,
		CacheTTLMS:           1_800_000,
		FetchTimeoutMS:       15_000,
		FetchMaxRetries:      2,
		FetchRetryIntervalMS: 500,
		FetchConcurrency:     0,
		FetchRatePerSecond:   0,
		UserAgent:            "siegeboard/1.0",
		PreloadDelayMS:       3_000,
		RefreshIntervalMS:    0,
		PreloadWorkers:       4,
		ArchivePath:          "",
	}
}

// Validate reports the first invalid setting, wrapped with ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != logger.FormatText && c.LogFormat != logger.FormatJSON:
		return fmt.Errorf("%w: log_format must be %q or %q, got %q", ErrInvalidConfig, logger.FormatText, logger.FormatJSON, c.LogFormat)
	case c.StartYear < 1:
		return fmt.Errorf("%w: start_year must be positive", ErrInvalidConfig)
	case c.EndYear < 0:
		return fmt.Errorf("%w: end_year must not be negative", ErrInvalidConfig)
	case c.EndYear != 0 && c.EndYear < c.StartYear:
		return fmt.Errorf("%w: end_year %d before start_year %d", ErrInvalidConfig, c.EndYear, c.StartYear)
	case c.CacheTTLMS <= 0:
		return fmt.Errorf("%w: cache_ttl_ms must be positive", ErrInvalidConfig)
	case c.FetchTimeoutMS <= 0:
		return fmt.Errorf("%w: fetch_timeout_ms must be positive", ErrInvalidConfig)
	case c.FetchMaxRetries < 0 || c.FetchRetryIntervalMS < 0:
		return fmt.Errorf("%w: fetch retry settings must not be negative", ErrInvalidConfig)
	case c.FetchConcurrency < 0 || c.FetchRatePerSecond < 0:
		return fmt.Errorf("%w: fetch limits must not be negative", ErrInvalidConfig)
	case c.RefreshIntervalMS < 0:
		return fmt.Errorf("%w: refresh_interval_ms must not be negative", ErrInvalidConfig)
	case c.PreloadWorkers < 1:
		return fmt.Errorf("%w: preload_workers must be at least 1", ErrInvalidConfig)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: base_url %q is not an absolute http(s) url", ErrInvalidConfig, c.BaseURL)
	}
	return nil
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// CacheTTL is the lifetime of every cache entry.
func (c *Config) CacheTTL() time.Duration { return ms(c.CacheTTLMS) }

// FetchTimeout bounds one HTTP request.
func (c *Config) FetchTimeout() time.Duration { return ms(c.FetchTimeoutMS) }

// FetchRetryInterval is the initial backoff between attempts.
func (c *Config) FetchRetryInterval() time.Duration { return ms(c.FetchRetryIntervalMS) }

// PreloadDelay keeps the sign of PreloadDelayMS.
func (c *Config) PreloadDelay() time.Duration { return ms(c.PreloadDelayMS) }

// RefreshInterval is zero when periodic refresh is off.
func (c *Config) RefreshInterval() time.Duration { return ms(c.RefreshIntervalMS) }
