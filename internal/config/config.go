// Package config loads threshold-lab configuration from YAML and environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"threshold-lab/internal/calendar"
	"threshold-lab/internal/domain"
)

// ErrInvalidConfig wraps every configuration failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix prefixes environment overrides, e.g. THRESHOLD_LAB_STUDY_TRADE_SIZE.
const EnvPrefix = "THRESHOLD_LAB"

// Config holds all configuration for threshold-lab.
type Config struct {
	Study    StudyConfig    `mapstructure:"study"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Provider ProviderConfig `mapstructure:"provider"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Events   EventsConfig   `mapstructure:"events"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// StudyConfig holds the backtest parameters.
type StudyConfig struct {
	TradeSize        string    `mapstructure:"trade_size" validate:"required"`
	InitialCapital   string    `mapstructure:"initial_capital" validate:"required"`
	MaxTradesPerDay  int       `mapstructure:"max_trades_per_day" validate:"gte=0"`
	Thresholds       []float64 `mapstructure:"thresholds"`
	TargetPct        float64   `mapstructure:"target_pct" validate:"gt=0"`
	StoplossPct      float64   `mapstructure:"stoploss_pct" validate:"lt=0"`
	TimeoutDays      int       `mapstructure:"timeout_days" validate:"gt=0"`
	ScanWindowDays   int       `mapstructure:"scan_window_days" validate:"gt=0"`
	ExitLookbackDays int       `mapstructure:"exit_lookback_days" validate:"gte=0"`
	PriceField       string    `mapstructure:"price_field" validate:"oneof=high low close high_low"`
	DayCount         string    `mapstructure:"day_count" validate:"oneof=calendar trading"`
	Holidays         []string  `mapstructure:"holidays"`
}

// ScanConfig controls scan concurrency.
type ScanConfig struct {
	Workers int `mapstructure:"workers" validate:"gte=1,lte=64"`
}

// ProviderConfig selects and tunes the price series source.
type ProviderConfig struct {
	Kind        string        `mapstructure:"kind" validate:"oneof=store http"`
	BaseURL     string        `mapstructure:"base_url" validate:"required_if=Kind http"`
	APIKey      string        `mapstructure:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RateLimit   float64       `mapstructure:"rate_limit" validate:"gt=0"`
	Burst       int           `mapstructure:"burst" validate:"gte=1"`
	MaxRetries  uint64        `mapstructure:"max_retries"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
	Cache       CacheConfig   `mapstructure:"cache"`
}

// CacheConfig configures the Redis read-through cache.
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend       string `mapstructure:"backend" validate:"oneof=memory sql"`
	PostgresDSN   string `mapstructure:"postgres_dsn" validate:"required_if=Backend sql"`
	ClickHouseDSN string `mapstructure:"clickhouse_dsn" validate:"required_if=Backend sql"`
	MaxConns      int32  `mapstructure:"max_conns" validate:"gte=1"`
}

// EventsConfig configures run.completed publication.
type EventsConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers" validate:"required_if=Enabled true"`
	Topic   string   `mapstructure:"topic" validate:"required"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Mode         string        `mapstructure:"mode" validate:"oneof=debug release test"`
}

// LoggingConfig holds logging specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// requiredKeys must come from the file or the environment.
var requiredKeys = []string{"study.trade_size", "study.initial_capital"}

// Load reads configuration from path (optional) with environment overrides.
// An empty path loads defaults and environment only.
// Missing trade_size or initial_capital fails with ErrInvalidConfig.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only reaches keys viper already knows about
	for _, key := range requiredKeys {
		_ = v.BindEnv(key)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidConfig, path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate runs struct tag validation and cross-field checks.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := c.Study.Domain(); err != nil {
		return err
	}
	return nil
}

// Calendar builds the business-day calendar from the configured holidays.
func (c *Config) Calendar() (calendar.Calendar, error) {
	holidays, err := calendar.ParseHolidays(c.Study.Holidays)
	if err != nil {
		return calendar.Calendar{}, fmt.Errorf("%w: holidays: %v", ErrInvalidConfig, err)
	}
	return calendar.New(holidays), nil
}

// Domain converts the study section into a domain.StudyConfig.
func (s StudyConfig) Domain() (domain.StudyConfig, error) {
	tradeSize, err := decimal.NewFromString(s.TradeSize)
	if err != nil || !tradeSize.IsPositive() {
		return domain.StudyConfig{}, fmt.Errorf("%w: trade_size must be a positive number, got %q", ErrInvalidConfig, s.TradeSize)
	}
	capital, err := decimal.NewFromString(s.InitialCapital)
	if err != nil || capital.IsNegative() {
		return domain.StudyConfig{}, fmt.Errorf("%w: initial_capital must be a non-negative number, got %q", ErrInvalidConfig, s.InitialCapital)
	}
	if _, err := calendar.ParseHolidays(s.Holidays); err != nil {
		return domain.StudyConfig{}, fmt.Errorf("%w: holidays: %v", ErrInvalidConfig, err)
	}

	levels := make([]domain.Threshold, len(s.Thresholds))
	for i, l := range s.Thresholds {
		levels[i] = domain.Threshold(l)
	}

	return domain.StudyConfig{
		TradeSize:        tradeSize,
		InitialCapital:   capital,
		MaxTradesPerDay:  s.MaxTradesPerDay,
		Thresholds:       domain.NewThresholdSet(levels, domain.Threshold(s.TargetPct), domain.Threshold(s.StoplossPct)),
		TimeoutDays:      s.TimeoutDays,
		ScanWindowDays:   s.ScanWindowDays,
		ExitLookbackDays: s.ExitLookbackDays,
		PriceField:       domain.PriceField(s.PriceField),
		DayCount:         domain.DayCount(s.DayCount),
	}, nil
}

// setDefaults sets default values for configuration.
func setDefaults(v *viper.Viper) {
	// Study defaults; trade_size and initial_capital have none
	v.SetDefault("study.max_trades_per_day", 5)
	v.SetDefault("study.thresholds", []float64{-10, -5, 5, 10, 15, 20})
	v.SetDefault("study.target_pct", 5.0)
	v.SetDefault("study.stoploss_pct", -10.0)
	v.SetDefault("study.timeout_days", domain.DefaultTimeoutDays)
	v.SetDefault("study.scan_window_days", domain.DefaultScanWindowDays)
	v.SetDefault("study.exit_lookback_days", domain.DefaultExitLookbackDays)
	v.SetDefault("study.price_field", string(domain.PriceFieldHigh))
	v.SetDefault("study.day_count", string(domain.DayCountCalendar))
	v.SetDefault("study.holidays", []string{})

	v.SetDefault("scan.workers", 4)

	// Provider defaults
	v.SetDefault("provider.kind", "store")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.timeout", "30s")
	v.SetDefault("provider.rate_limit", 5.0)
	v.SetDefault("provider.burst", 5)
	v.SetDefault("provider.max_retries", 0)
	v.SetDefault("provider.initial_wait", "500ms")
	v.SetDefault("provider.max_wait", "10s")
	v.SetDefault("provider.cache.enabled", false)
	v.SetDefault("provider.cache.addr", "localhost:6379")
	v.SetDefault("provider.cache.password", "")
	v.SetDefault("provider.cache.db", 0)
	v.SetDefault("provider.cache.ttl", "24h")

	// Storage defaults
	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.clickhouse_dsn", "")
	v.SetDefault("storage.max_conns", 10)

	// Events defaults
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.brokers", []string{})
	v.SetDefault("events.topic", "run.completed")

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.mode", "release")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
