package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RateLimitConfig controls the dashboard API rate limiter.
type RateLimitConfig struct {
	Enabled        bool    `yaml:"enabled" json:"enabled"`
	RequestsPerSec float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst          int     `yaml:"burst" json:"burst"`
}

// Config holds settings shared by the convert, load and serve commands.
type Config struct {
	DataDir     string          `yaml:"data_dir" json:"data_dir"`
	DBPath      string          `yaml:"db_path" json:"db_path"`
	RTTolerance float64         `yaml:"rt_tolerance" json:"rt_tolerance"`
	HTTPAddr    string          `yaml:"http_addr" json:"http_addr"`
	DebugSQL    bool            `yaml:"debug_sql" json:"debug_sql"`
	RateLimit   RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		DataDir:     ".",
		DBPath:      "quantms.db",
		RTTolerance: 0.1,
		HTTPAddr:    ":8051",
		RateLimit: RateLimitConfig{
			Enabled:        false,
			RequestsPerSec: 20,
			Burst:          40,
		},
	}
}

// Load parses YAML bytes into a Config with defaults applied.
func Load(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config: %w", err)
	}
	return applyDefaults(cfg), nil
}

// LoadFile reads and parses a YAML config file. A missing path returns
// defaults without error so the commands run config-less.
func LoadFile(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("read config %s: %w", path, err)
	}
	return Load(data)
}

func applyDefaults(cfg Config) Config {
	def := Default()
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.DBPath == "" {
		cfg.DBPath = def.DBPath
	}
	if cfg.RTTolerance <= 0 {
		cfg.RTTolerance = def.RTTolerance
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = def.HTTPAddr
	}
	if cfg.RateLimit.RequestsPerSec <= 0 {
		cfg.RateLimit.RequestsPerSec = def.RateLimit.RequestsPerSec
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = def.RateLimit.Burst
	}
	return cfg
}
