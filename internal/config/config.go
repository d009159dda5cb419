package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Notify   NotifyConfig   `yaml:"notify"`
	Parser   ParserConfig   `yaml:"parser"`
	Watcher  WatcherConfig  `yaml:"watcher"`
	Award    AwardConfig    `yaml:"award"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port               int    `yaml:"port"`
	MetricsPort        int    `yaml:"metrics_port"`
	AdminToken         string `yaml:"admin_token"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type NotifyConfig struct {
	URL string `yaml:"url"`
}

type ParserConfig struct {
	URL string `yaml:"url"`
}

type WatcherConfig struct {
	TickIntervalMs  int `yaml:"tick_interval_ms"`
	DeadlineSweepMs int `yaml:"deadline_sweep_ms"`
}

type AwardConfig struct {
	TimeoutMs int `yaml:"timeout_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Watcher.TickIntervalMs) * time.Millisecond
}

func (c *Config) DeadlineSweep() time.Duration {
	return time.Duration(c.Watcher.DeadlineSweepMs) * time.Millisecond
}

func (c *Config) AwardTimeout() time.Duration {
	return time.Duration(c.Award.TimeoutMs) * time.Millisecond
}

// Default returns the built-in configuration, before file and environment
// overrides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8700,
			MetricsPort:        8701,
			RateLimitPerMinute: 120,
		},
		Notify: NotifyConfig{
			URL: "nats://localhost:4222",
		},
		Parser: ParserConfig{
			URL: "http://localhost:5001",
		},
		Watcher: WatcherConfig{
			TickIntervalMs:  5000,
			DeadlineSweepMs: 60000,
		},
		Award: AwardConfig{
			TimeoutMs: 10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PROCURE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("PROCURE_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("PROCURE_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("PROCURE_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("PROCURE_NOTIFY_URL"); v != "" {
		cfg.Notify.URL = v
	}
	if v := os.Getenv("PROCURE_PARSER_URL"); v != "" {
		cfg.Parser.URL = v
	}
	if v := os.Getenv("PROCURE_TICK_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Watcher.TickIntervalMs = n
		}
	}
	if v := os.Getenv("PROCURE_AWARD_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Award.TimeoutMs = n
		}
	}
	if v := os.Getenv("PROCURE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
