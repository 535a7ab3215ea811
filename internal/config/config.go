package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/sdwr/cowprofit/internal/logger"
)

// Config holds the application configuration
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	GRPCAddr string `env:"GRPC_ADDR" envDefault:":9090"`

	DataDir        string        `env:"DATA_DIR" envDefault:"data"`
	MarketFile     string        `env:"MARKET_FILE" envDefault:"data/market/latest.json"`
	ReloadInterval time.Duration `env:"RELOAD_INTERVAL" envDefault:"5s"` // 0 disables hot reload
	DefaultProfile string        `env:"DEFAULT_PROFILE" envDefault:"default"`
	PriceMode      string        `env:"PRICE_MODE" envDefault:"pessimistic"`

	CacheSize int           `env:"PLAN_CACHE_SIZE" envDefault:"256"`
	CacheTTL  time.Duration `env:"PLAN_CACHE_TTL" envDefault:"10m"`

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string `env:"LOG_FORMAT" envDefault:"text"`
	LogFile        string `env:"LOG_FILE"`
	LogFileMaxMB   int    `env:"LOG_FILE_MAX_MB" envDefault:"50"`
	LogFileBackups int    `env:"LOG_FILE_BACKUPS" envDefault:"3"`
	LogFileMaxDays int    `env:"LOG_FILE_MAX_DAYS" envDefault:"14"`
	Environment    string `env:"ENVIRONMENT" envDefault:"dev"`
	Version        string `env:"VERSION" envDefault:"dev"`
}

// Load reads a .env file when present, then parses the environment.
func Load(files ...string) (*Config, error) {
	// .env is optional; real env vars win over it
	_ = godotenv.Load(files...)

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" && c.GRPCAddr == "" {
		errs = append(errs, errors.New("at least one of HTTP_ADDR or GRPC_ADDR must be set"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR must be set"))
	}
	if c.ReloadInterval < 0 {
		errs = append(errs, errors.New("RELOAD_INTERVAL must be >= 0"))
	}
	if c.CacheSize < 0 {
		errs = append(errs, errors.New("PLAN_CACHE_SIZE must be >= 0"))
	}
	switch strings.ToLower(c.PriceMode) {
	case "pessimistic", "optimistic", "midpoint":
	default:
		errs = append(errs, fmt.Errorf("PRICE_MODE %q must be pessimistic, optimistic or midpoint", c.PriceMode))
	}
	switch strings.ToLower(c.LogFormat) {
	case logger.LogFormatJSON, logger.LogFormatText:
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q must be json or text", c.LogFormat))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Logger maps the logging fields onto a logger.Config.
func (c *Config) Logger() logger.Config {
	return logger.Config{
		Level:          c.LogLevel,
		Format:         c.LogFormat,
		ServiceName:    logger.DefaultServiceName,
		Version:        c.Version,
		Environment:    c.Environment,
		AddSource:      c.Environment == logger.EnvironmentDev,
		FilePath:       c.LogFile,
		FileMaxSizeMB:  c.LogFileMaxMB,
		FileMaxBackups: c.LogFileBackups,
		FileMaxAgeDays: c.LogFileMaxDays,
	}
}
