package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/pfrederiksen/park-fees/internal/logger"
)

func envFunc(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookup(t *testing.T) {
	cfg, err := fromLookup(envFunc(map[string]string{
		EnvAPIKey:        " key-123 ",
		EnvSearchTimeout: "5s",
		EnvFetchTimeout:  "750ms",
		EnvConcurrency:   "8",
		EnvRateLimit:     "2.5",
		EnvRegions:       "US, ca,",
		EnvLogLevel:      "debug",
	}))
	if err != nil {
		t.Fatalf("fromLookup() error = %v", err)
	}

	if cfg.APIKey != "key-123" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.SearchTimeout != 5*time.Second || cfg.FetchTimeout != 750*time.Millisecond {
		t.Errorf("timeouts = %v, %v", cfg.SearchTimeout, cfg.FetchTimeout)
	}
	if cfg.Concurrency != 8 || cfg.RateLimit != 2.5 {
		t.Errorf("Concurrency = %d, RateLimit = %v", cfg.Concurrency, cfg.RateLimit)
	}
	if !reflect.DeepEqual(cfg.Regions, []string{"us", "ca"}) {
		t.Errorf("Regions = %v", cfg.Regions)
	}
	if cfg.LogLevel != logger.LevelDebug {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestFromLookupDefaults(t *testing.T) {
	cfg, err := fromLookup(envFunc(map[string]string{EnvConcurrency: "  "}))
	if err != nil {
		t.Fatalf("fromLookup() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("config = %+v, want defaults %+v", cfg, Default())
	}
}

func TestFromLookupErrors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"search timeout", EnvSearchTimeout, "soon"},
		{"fetch timeout", EnvFetchTimeout, "12"},
		{"concurrency", EnvConcurrency, "four"},
		{"rate limit", EnvRateLimit, "fast"},
		{"log level", EnvLogLevel, "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := fromLookup(envFunc(map[string]string{tt.key: tt.val})); err == nil {
				t.Errorf("fromLookup(%s=%q) should fail", tt.key, tt.val)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.APIKey = "key"

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
		is      error
	}{
		{"valid", func(*Config) {}, false, nil},
		{"missing key", func(c *Config) { c.APIKey = " " }, true, ErrMissingAPIKey},
		{"zero search timeout", func(c *Config) { c.SearchTimeout = 0 }, true, nil},
		{"negative fetch timeout", func(c *Config) { c.FetchTimeout = -time.Second }, true, nil},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, true, nil},
		{"zero rate limit", func(c *Config) { c.RateLimit = 0 }, true, nil},
		{"unknown region set", func(c *Config) { c.Regions = []string{"mx"} }, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			cfg.Regions = append([]string(nil), valid.Regions...)
			tt.modify(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("Validate() error = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestRegionTable(t *testing.T) {
	cfg := Default()
	cfg.Regions = []string{"us", "ca"}

	table, err := cfg.RegionTable()
	if err != nil {
		t.Fatalf("RegionTable() error = %v", err)
	}
	if _, ok := table.Lookup("Ontario"); !ok {
		t.Error("Ontario not found in us,ca table")
	}
	if _, ok := table.Lookup("TX"); !ok {
		t.Error("TX not found in us,ca table")
	}

	cfg.Regions = nil
	table, err = cfg.RegionTable()
	if err != nil {
		t.Fatalf("RegionTable() error = %v", err)
	}
	if _, ok := table.Lookup("Ontario"); ok {
		t.Error("default table should be US only")
	}
}

func TestFromEnvReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvConcurrency+"=6\n"), 0o600); err != nil {
		t.Fatalf("writing .env: %v", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir() error = %v", err)
	}
	defer func() { _ = os.Chdir(wd) }()

	t.Setenv(EnvConcurrency, "")
	_ = os.Unsetenv(EnvConcurrency)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.Concurrency != 6 {
		t.Errorf("Concurrency = %d, want 6 from .env", cfg.Concurrency)
	}
}

func TestFromEnvWithoutDotEnv(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir() error = %v", err)
	}
	defer func() { _ = os.Chdir(wd) }()

	t.Setenv(EnvAPIKey, "from-env")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.APIKey != "from-env" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
}
