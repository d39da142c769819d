package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Session backends.
const (
	SessionBackendSQLite = "sqlite"
	SessionBackendRedis  = "redis"
)

// DatabaseConfig holds settings for the relational store.
type DatabaseConfig struct {
	// Path is the SQLite database file. ":memory:" is accepted for tests.
	Path string `mapstructure:"path" yaml:"path"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`

	// SecureCookies marks the session cookie Secure. Disable only for local
	// development over plain HTTP.
	SecureCookies bool `mapstructure:"secure_cookies" yaml:"secure_cookies"`
}

// SessionConfig controls session storage and housekeeping.
type SessionConfig struct {
	// Backend is "sqlite" (default) or "redis".
	Backend string `mapstructure:"backend" yaml:"backend"`

	// PurgeInterval is how often expired sessions are deleted. Zero disables
	// the sweeper; lookups fail closed either way.
	PurgeInterval time.Duration `mapstructure:"purge_interval" yaml:"purge_interval"`
}

// RedisConfig holds connection settings for the redis session backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Session  SessionConfig  `mapstructure:"session" yaml:"session"`
	Redis    RedisConfig    `mapstructure:"redis" yaml:"redis"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/tracker/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "tracker", "config.yaml")
}

// defaultDatabasePath places the database next to the default config file.
func defaultDatabasePath() string {
	return filepath.Join(filepath.Dir(DefaultConfigPath()), "tracker.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Database: DatabaseConfig{Path: defaultDatabasePath()},
		Server: ServerConfig{
			Addr:          "127.0.0.1:8080",
			SecureCookies: true,
		},
		Session: SessionConfig{
			Backend:       SessionBackendSQLite,
			PurgeInterval: time.Hour,
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "tracker:",
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with TRACKER_ override file values
// (TRACKER_SERVER_ADDR, TRACKER_SESSION_BACKEND, ...). If the file does not
// exist, defaults plus environment are used.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("tracker")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values. They also
	// register every key so AutomaticEnv can find it during Unmarshal.
	def := defaultAppConfig()
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("server.secure_cookies", def.Server.SecureCookies)
	v.SetDefault("session.backend", def.Session.Backend)
	v.SetDefault("session.purge_interval", def.Session.PurgeInterval)
	v.SetDefault("redis.addr", def.Redis.Addr)
	v.SetDefault("redis.password", def.Redis.Password)
	v.SetDefault("redis.db", def.Redis.DB)
	v.SetDefault("redis.prefix", def.Redis.Prefix)
	v.SetDefault("log.level", def.Log.Level)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *AppConfig) Validate() error {
	switch c.Session.Backend {
	case SessionBackendSQLite, SessionBackendRedis:
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	if c.Session.PurgeInterval < 0 {
		return fmt.Errorf("session.purge_interval must not be negative")
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", cfg.Database)
	v.Set("server", cfg.Server)
	v.Set("session", cfg.Session)
	v.Set("redis", cfg.Redis)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
