package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"BenchBoard/internal/model"
)

// DefaultCatalog is the instrument set shown when no catalog is configured.
var DefaultCatalog = []model.Instrument{
	{Label: "Bitcoin", Symbol: "BTC-USD"},
	{Label: "S&P 500", Symbol: "^GSPC"},
	{Label: "Gold", Symbol: "GC=F"},
	{Label: "Crude Oil", Symbol: "CL=F"},
	{Label: "5 Year Treasuries", Symbol: "IEI"},
	{Label: "10 Year Treasuries", Symbol: "IEF"},
	{Label: "Residential Real Estate", Symbol: "VNQ"},
	{Label: "Commercial Real Estate", Symbol: "ICF"},
}

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr     string `yaml:"addr"`
		Compress bool   `yaml:"compress"`
	} `yaml:"server"`
	DataSource struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"data_source"`
	Instruments []model.Instrument `yaml:"instruments"`
	Range       struct {
		Start string `yaml:"start"`
		End   string `yaml:"end"` // empty means today
	} `yaml:"range"`
	Cache struct {
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
		TTL           string `yaml:"ttl"`
	} `yaml:"cache"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
		PurgeCron   string `yaml:"purge_cron"`
		DigestCron  string `yaml:"digest_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("START_DATE"); v != "" {
		cfg.Range.Start = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.RedisDB = db
		}
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8501"
	}
	if len(cfg.Instruments) == 0 {
		cfg.Instruments = append([]model.Instrument(nil), DefaultCatalog...)
	}
	if cfg.Range.Start == "" {
		cfg.Range.Start = "2023-01-01"
	}
	if cfg.Cache.TTL == "" {
		cfg.Cache.TTL = "1h"
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 */15 * * * *"
	}
	if cfg.Schedule.PurgeCron == "" {
		cfg.Schedule.PurgeCron = "0 0 * * * *"
	}
	if cfg.Schedule.DigestCron == "" {
		cfg.Schedule.DigestCron = "0 0 18 * * 1-5"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/benchboard.db"
	}

	return cfg, nil
}

// Validate checks that all fields are usable.
func (c *Config) Validate() error {
	labels := make(map[string]bool)
	symbols := make(map[string]bool)
	for _, in := range c.Instruments {
		if in.Label == "" || in.Symbol == "" {
			return fmt.Errorf("instruments: label and symbol are required, got %+v", in)
		}
		if labels[in.Label] {
			return fmt.Errorf("instruments: duplicate label %q", in.Label)
		}
		if symbols[in.Symbol] {
			return fmt.Errorf("instruments: duplicate symbol %q", in.Symbol)
		}
		labels[in.Label] = true
		symbols[in.Symbol] = true
	}
	start, err := model.ParseDay(c.Range.Start)
	if err != nil {
		return fmt.Errorf("range.start: %w", err)
	}
	if c.Range.End != "" {
		end, err := model.ParseDay(c.Range.End)
		if err != nil {
			return fmt.Errorf("range.end: %w", err)
		}
		if start.After(end) {
			return fmt.Errorf("range.start %s is after range.end %s", c.Range.Start, c.Range.End)
		}
	}
	if ttl, err := time.ParseDuration(c.Cache.TTL); err != nil || ttl <= 0 {
		return fmt.Errorf("cache.ttl must be a positive duration, got %q", c.Cache.TTL)
	}
	return nil
}

// TelegramEnabled reports whether digests and bot commands are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// CacheTTL returns the parsed cache TTL. Call after Validate.
func (c *Config) CacheTTL() time.Duration {
	ttl, _ := time.ParseDuration(c.Cache.TTL)
	return ttl
}

// DateRange resolves the configured range; an empty end is today.
func (c *Config) DateRange(now time.Time) (start, end time.Time, err error) {
	start, err = model.ParseDay(c.Range.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end = model.Day(now)
	if c.Range.End != "" {
		if end, err = model.ParseDay(c.Range.End); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, end, nil
}

// Lookup returns the catalog instrument with the given label.
func (c *Config) Lookup(label string) (model.Instrument, bool) {
	for _, in := range c.Instruments {
		if in.Label == label {
			return in, true
		}
	}
	return model.Instrument{}, false
}
