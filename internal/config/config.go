// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Ebay     EbayConfig     `yaml:"ebay"`
	Discord  DiscordConfig  `yaml:"discord"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// StoreConfig selects and configures the listing store backend.
type StoreConfig struct {
	Backend  string         `yaml:"backend"` // file, postgres, redis
	File     FileStore      `yaml:"file"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
}

// FileStore defines the JSON document file backend.
type FileStore struct {
	Path string `yaml:"path"`
}

// PostgresConfig defines PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns a PostgreSQL connection string.
func (p *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		p.Host, p.Port, p.Name, p.User, p.Password, p.SSLMode,
	)
}

// RedisConfig defines Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// EbayConfig defines the listing data source settings. The API strategy
// is enabled when both credentials are present; the scrape strategy is
// always available as a fallback.
type EbayConfig struct {
	AppID       string          `yaml:"app_id"`
	CertID      string          `yaml:"cert_id"`
	TokenURL    string          `yaml:"token_url"`
	ItemURL     string          `yaml:"item_url"`
	Marketplace string          `yaml:"marketplace"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
}

// APIEnabled reports whether the structured API strategy is configured.
func (e *EbayConfig) APIEnabled() bool {
	return e.AppID != "" && e.CertID != ""
}

// RateLimitConfig defines outbound request rate limiting.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// DiscordConfig defines the messaging gateway settings. When the token is
// empty the gateway runs in noop mode (side effects are logged only).
type DiscordConfig struct {
	Token             string   `yaml:"token"`
	IntakeChannels    []string `yaml:"intake_channels"`
	ShippedCategoryID string   `yaml:"shipped_category_id"`
	ArchiveCategoryID string   `yaml:"archive_category_id"`
}

// ScheduleConfig defines the update engine's scheduling parameters.
type ScheduleConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	ApplyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyStoreDefaults(&cfg.Store)
	applyEbayDefaults(&cfg.Ebay)
	applyScheduleDefaults(&cfg.Schedule)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyStoreDefaults(s *StoreConfig) {
	if s.Backend == "" {
		s.Backend = "file"
	}
	if s.File.Path == "" {
		s.File.Path = "data/listings.json"
	}
	if s.Postgres.Port == 0 {
		s.Postgres.Port = 5432
	}
	if s.Postgres.SSLMode == "" {
		s.Postgres.SSLMode = "disable"
	}
	if s.Redis.Addr == "" {
		s.Redis.Addr = "localhost:6379"
	}
	if s.Redis.Key == "" {
		s.Redis.Key = "bidwatch:listings"
	}
}

func applyEbayDefaults(e *EbayConfig) {
	if e.TokenURL == "" {
		e.TokenURL = "https://api.ebay.com/identity/v1/oauth2/token"
	}
	if e.ItemURL == "" {
		e.ItemURL = "https://api.ebay.com/buy/browse/v1/item"
	}
	if e.Marketplace == "" {
		e.Marketplace = "EBAY_US"
	}
	if e.RateLimit.PerSecond == 0 {
		e.RateLimit.PerSecond = 2.0
	}
	if e.RateLimit.Burst == 0 {
		e.RateLimit.Burst = 4
	}
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.TickInterval == 0 {
		s.TickInterval = 60 * time.Second
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	switch cfg.Store.Backend {
	case "file":
		// path always defaulted
	case "postgres":
		if cfg.Store.Postgres.Host == "" {
			errs = append(errs, fmt.Errorf("store.postgres.host is required when backend is postgres"))
		}
		if cfg.Store.Postgres.Name == "" {
			errs = append(errs, fmt.Errorf("store.postgres.name is required when backend is postgres"))
		}
		if cfg.Store.Postgres.User == "" {
			errs = append(errs, fmt.Errorf("store.postgres.user is required when backend is postgres"))
		}
	case "redis":
		// addr always defaulted
	default:
		errs = append(errs, fmt.Errorf(
			"store.backend must be one of: file, postgres, redis (got %q)",
			cfg.Store.Backend,
		))
	}

	// Partial API credentials are a misconfiguration: the API strategy
	// silently staying disabled would mask a typo.
	if (cfg.Ebay.AppID == "") != (cfg.Ebay.CertID == "") {
		errs = append(errs, fmt.Errorf("ebay.app_id and ebay.cert_id must be set together"))
	}

	if cfg.Schedule.TickInterval < time.Second {
		errs = append(errs, fmt.Errorf("schedule.tick_interval must be at least 1s"))
	}

	return errors.Join(errs...)
}
