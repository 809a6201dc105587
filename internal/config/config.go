// Package config loads server settings from defaults, an optional file,
// HK_-prefixed environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is prepended to every key when reading the environment (HK_JWT_KEY, ...).
const EnvPrefix = "HK"

const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StoragePostgres = "postgres"

	LimiterNone     = "none"
	LimiterPostgres = "postgres"
	LimiterRedis    = "redis"
)

type Config struct {
	Addr        string        `mapstructure:"addr"`
	Storage     string        `mapstructure:"storage"`
	DataDir     string        `mapstructure:"data_dir"`
	DatabaseDSN string        `mapstructure:"database_dsn"`
	JWTKey      string        `mapstructure:"jwt_key"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	Limiter       string        `mapstructure:"limiter"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	LoginMaxFails int           `mapstructure:"login_max_fails"`
	LoginWindow   time.Duration `mapstructure:"login_window"`
	LoginBlock    time.Duration `mapstructure:"login_block"`
}

// New returns a viper instance with defaults and environment binding applied.
// Callers bind flags to it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("addr", ":8080")
	v.SetDefault("storage", StorageMemory)
	v.SetDefault("data_dir", "./data")
	v.SetDefault("database_dsn", "")
	v.SetDefault("jwt_key", "")
	v.SetDefault("token_ttl", 24*time.Hour)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("limiter", LimiterNone)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("login_max_fails", 5)
	v.SetDefault("login_window", 15*time.Minute)
	v.SetDefault("login_block", 15*time.Minute)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges configFile into v. An empty name is a no-op.
func ReadFile(v *viper.Viper, configFile string) error {
	if configFile == "" {
		return nil
	}
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", configFile, err)
	}
	return nil
}

// Load reads configFile (if non-empty), decodes all sources and validates the result.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if err := ReadFile(v, configFile); err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	cfg.Limiter = strings.ToLower(strings.TrimSpace(cfg.Limiter))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var problems []error
	add := func(format string, args ...any) { problems = append(problems, fmt.Errorf(format, args...)) }

	if c.Addr == "" {
		add("addr is required")
	}
	if c.JWTKey == "" {
		add("jwt_key is required (set %s_JWT_KEY)", EnvPrefix)
	}
	if c.TokenTTL <= 0 {
		add("token_ttl must be positive")
	}

	switch c.Storage {
	case StorageMemory:
	case StorageFile:
		if c.DataDir == "" {
			add("data_dir is required for storage=file")
		}
	case StoragePostgres:
		if c.DatabaseDSN == "" {
			add("database_dsn is required for storage=postgres")
		}
	default:
		add("storage %q: want memory, file or postgres", c.Storage)
	}

	switch c.Limiter {
	case LimiterNone:
	case LimiterPostgres:
		if c.DatabaseDSN == "" {
			add("database_dsn is required for limiter=postgres")
		}
	case LimiterRedis:
		if c.RedisAddr == "" {
			add("redis_addr is required for limiter=redis")
		}
	default:
		add("limiter %q: want none, postgres or redis", c.Limiter)
	}
	if c.Limiter != LimiterNone && (c.LoginMaxFails <= 0 || c.LoginWindow <= 0 || c.LoginBlock <= 0) {
		add("login_max_fails, login_window and login_block must be positive")
	}

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		add("log_level %q: %v", c.LogLevel, err)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		add("log_format %q: want json or console", c.LogFormat)
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(problems...))
	}
	return nil
}

// NeedsPostgres reports whether any component needs a database connection.
func (c *Config) NeedsPostgres() bool {
	return c.Storage == StoragePostgres || c.Limiter == LimiterPostgres
}
