// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pfrederiksen/park-fees/internal/batch"
	"github.com/pfrederiksen/park-fees/internal/fetch"
	"github.com/pfrederiksen/park-fees/internal/logger"
	"github.com/pfrederiksen/park-fees/internal/region"
	"github.com/pfrederiksen/park-fees/internal/search"
)

// Environment variable names.
const (
	EnvAPIKey        = "BRAVE_API_KEY"
	EnvSearchTimeout = "PARK_FEES_SEARCH_TIMEOUT"
	EnvFetchTimeout  = "PARK_FEES_FETCH_TIMEOUT"
	EnvConcurrency   = "PARK_FEES_CONCURRENCY"
	EnvRateLimit     = "PARK_FEES_RATE_LIMIT"
	EnvRegions       = "PARK_FEES_REGIONS"
	EnvLogLevel      = "PARK_FEES_LOG_LEVEL"
)

// ErrMissingAPIKey is returned by Validate when no search API key is set.
var ErrMissingAPIKey = errors.New("missing search API key (set " + EnvAPIKey + " or --api-key)")

// Config holds all runtime configuration.
type Config struct {
	APIKey        string
	SearchTimeout time.Duration
	FetchTimeout  time.Duration
	Concurrency   int
	// RateLimit is search requests per second.
	RateLimit float64
	// Regions lists region sets by short name ("us", "ca").
	Regions  []string
	LogLevel logger.Level

	// Page cache
	CacheTTL        time.Duration
	CacheMaxEntries int
}

// Default returns a Config populated with defaults.
func Default() Config {
	return Config{
		SearchTimeout:   search.DefaultTimeout,
		FetchTimeout:    fetch.Timeout,
		Concurrency:     batch.DefaultConcurrency,
		RateLimit:       search.DefaultRateLimit,
		Regions:         []string{"us"},
		LogLevel:        logger.LevelInfo,
		CacheTTL:        time.Hour,
		CacheMaxEntries: 512,
	}
}

// FromEnv loads .env from the working directory if present and applies
// environment overrides to the defaults. Malformed values are errors.
func FromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookupEnv func(string) (string, bool)) (Config, error) {
	cfg := Default()

	get := func(key string) (string, bool) {
		v, ok := lookupEnv(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvAPIKey); ok {
		cfg.APIKey = v
	}
	if v, ok := get(EnvSearchTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", EnvSearchTimeout, err)
		}
		cfg.SearchTimeout = d
	}
	if v, ok := get(EnvFetchTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", EnvFetchTimeout, err)
		}
		cfg.FetchTimeout = d
	}
	if v, ok := get(EnvConcurrency); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", EnvConcurrency, err)
		}
		cfg.Concurrency = n
	}
	if v, ok := get(EnvRateLimit); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", EnvRateLimit, err)
		}
		cfg.RateLimit = f
	}
	if v, ok := get(EnvRegions); ok {
		cfg.Regions = SplitList(v)
	}
	if v, ok := get(EnvLogLevel); ok {
		level, err := logger.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}
	return cfg, nil
}

// SplitList splits a comma-separated list, lowercasing and dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks settings needed before any lookup runs.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if c.SearchTimeout <= 0 {
		return fmt.Errorf("search timeout must be positive, got %v", c.SearchTimeout)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %v", c.FetchTimeout)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("rate limit must be positive, got %v", c.RateLimit)
	}
	if _, err := c.RegionTable(); err != nil {
		return err
	}
	return nil
}

// RegionTable builds the region table for the configured sets.
func (c Config) RegionTable() (*region.Table, error) {
	if len(c.Regions) == 0 {
		return region.DefaultTable(), nil
	}
	sets := make([][]region.Region, 0, len(c.Regions))
	for _, name := range c.Regions {
		set, ok := region.ByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown region set %q (want us or ca)", name)
		}
		sets = append(sets, set)
	}
	return region.NewTable(sets...), nil
}
