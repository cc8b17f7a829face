// Package config loads the plateau service configuration from YAML with
// environment overrides for deploy-time secrets.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Dataset DatasetConfig `yaml:"dataset"`
	Limits  LimitsConfig  `yaml:"limits"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`

	// RateLimit is the sustained request rate per client in requests per
	// second; RateBurst is the bucket size. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// DatasetConfig selects where sweep records come from. Exactly one of File
// or PostgresDSN must be set; Redis is an optional snapshot cache layered
// over Postgres.
type DatasetConfig struct {
	File string `yaml:"file" env:"PLATEAU_SWEEP_FILE"`

	PostgresDSN string `yaml:"postgres_dsn" env:"PLATEAU_PG_DSN"`
	Table       string `yaml:"table"`

	RedisAddr   string        `yaml:"redis_addr" env:"PLATEAU_REDIS_ADDR"`
	SnapshotTTL time.Duration `yaml:"snapshot_ttl"`
}

// LimitsConfig bounds the analysis workload.
type LimitsConfig struct {
	// MaxRecords rejects pathological sweeps at load time; zero means
	// unlimited.
	MaxRecords int `yaml:"max_records"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:         "127.0.0.1", // local-only by default
			Port:         8090,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			RateLimit:    50,
			RateBurst:    100,
		},
		Dataset: DatasetConfig{
			Table:       "sweep_results",
			SnapshotTTL: 15 * time.Minute,
		},
		Limits: LimitsConfig{
			MaxRecords: 200_000,
		},
	}
}

// Load reads a YAML config file, applies environment overrides and
// validates the result. An empty path yields the defaults plus overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PLATEAU_SWEEP_FILE"); v != "" {
		cfg.Dataset.File = v
	}
	if v := os.Getenv("PLATEAU_PG_DSN"); v != "" {
		cfg.Dataset.PostgresDSN = v
	}
	if v := os.Getenv("PLATEAU_REDIS_ADDR"); v != "" {
		cfg.Dataset.RedisAddr = v
	}
	if v := os.Getenv("PLATEAU_HTTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
}

// Validate checks structural consistency; it does not touch the network.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Dataset.File != "" && c.Dataset.PostgresDSN != "" {
		return fmt.Errorf("dataset file and postgres_dsn are mutually exclusive")
	}
	if c.Dataset.PostgresDSN != "" && c.Dataset.Table == "" {
		return fmt.Errorf("dataset table is required with postgres_dsn")
	}
	if c.Limits.MaxRecords < 0 {
		return fmt.Errorf("max_records must not be negative")
	}
	return nil
}
