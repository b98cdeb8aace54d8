package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"gemini_bot/internal/entities"
)

type Config struct {
	Telegram TelegramConfig
	AI       AIConfig
	DB       DBConfig
	Redis    RedisConfig
	Quota    QuotaConfig
	HTTP     HTTPConfig
	Admin    AdminConfig
	Flood    FloodConfig
	Log      LogConfig
}

type TelegramConfig struct {
	Token       string
	AdminChatID int64
}

type AIConfig struct {
	APIKey       string
	Model        string
	BaseURL      string
	SystemPrompt string
	Timeout      time.Duration
}

type DBConfig struct {
	Driver string // sqlite or postgres
	Name   string // sqlite file stem
	URL    string // postgres connection string
}

// SQLitePath returns the database file used by the sqlite driver.
func (c DBConfig) SQLitePath() string {
	if strings.HasSuffix(c.Name, ".db") {
		return c.Name
	}
	return c.Name + ".db"
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address was configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type QuotaConfig struct {
	DailyLimit int
	Timezone   string
}

// Location resolves the configured time zone used for the daily rollover.
func (c QuotaConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

type HTTPConfig struct {
	Addr string
}

type AdminConfig struct {
	Username     string
	PasswordHash string
	JWTSecret    string
}

type FloodConfig struct {
	Rate  float64 // messages per second
	Burst int
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// A missing .env is fine in containers where the environment is set directly.
	_ = godotenv.Load()

	k := koanf.New(".")
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Telegram: TelegramConfig{
			Token:       k.String("telegram_bot_token"),
			AdminChatID: k.Int64("admin_chat_id"),
		},
		AI: AIConfig{
			APIKey:       k.String("gemini_api_key"),
			Model:        k.String("gemini_model"),
			BaseURL:      k.String("gemini_base_url"),
			SystemPrompt: k.String("system_prompt"),
			Timeout:      k.Duration("ai_timeout"),
		},
		DB: DBConfig{
			Driver: k.String("db_driver"),
			Name:   k.String("db_name"),
			URL:    k.String("database_url"),
		},
		Redis: RedisConfig{
			Addr:     k.String("redis_addr"),
			Password: k.String("redis_password"),
			DB:       k.Int("redis_db"),
		},
		Quota: QuotaConfig{
			DailyLimit: k.Int("daily_limit"),
			Timezone:   k.String("quota_timezone"),
		},
		HTTP: HTTPConfig{
			Addr: k.String("http_addr"),
		},
		Admin: AdminConfig{
			Username:     k.String("admin_username"),
			PasswordHash: k.String("admin_password_hash"),
			JWTSecret:    k.String("jwt_secret"),
		},
		Flood: FloodConfig{
			Rate:  k.Float64("flood_rate"),
			Burst: k.Int("flood_burst"),
		},
		Log: LogConfig{
			Level:  k.String("log_level"),
			Format: k.String("log_format"),
		},
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AI.Model == "" {
		c.AI.Model = "gemini-1.5-pro"
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = 120 * time.Second
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "sqlite"
	}
	if c.DB.Name == "" {
		c.DB.Name = "bot"
	}
	if c.Quota.DailyLimit == 0 {
		c.Quota.DailyLimit = entities.DefaultDailyLimit
	}
	if c.Quota.Timezone == "" {
		c.Quota.Timezone = "Local"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = "0.0.0.0:8080"
	}
	if c.Admin.Username == "" {
		c.Admin.Username = "admin"
	}
	if c.Flood.Rate == 0 {
		c.Flood.Rate = 1
	}
	if c.Flood.Burst == 0 {
		c.Flood.Burst = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required"))
	}
	if c.Telegram.AdminChatID == 0 {
		errs = append(errs, errors.New("ADMIN_CHAT_ID is required"))
	}
	if c.AI.APIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	switch c.DB.Driver {
	case "sqlite":
	case "postgres":
		if c.DB.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when DB_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DB.Driver))
	}
	if c.Quota.DailyLimit < 0 {
		errs = append(errs, fmt.Errorf("DAILY_LIMIT must be positive, got %d", c.Quota.DailyLimit))
	}
	if _, err := c.Quota.Location(); err != nil {
		errs = append(errs, fmt.Errorf("QUOTA_TIMEZONE: %w", err))
	}
	if c.Flood.Rate < 0 || c.Flood.Burst < 0 {
		errs = append(errs, errors.New("FLOOD_RATE and FLOOD_BURST must not be negative"))
	}
	if c.Admin.PasswordHash != "" && c.Admin.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required when ADMIN_PASSWORD_HASH is set"))
	}

	return errors.Join(errs...)
}
