package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken    string `envconfig:"BOT_TOKEN"`     // empty: headless, reminders go to the log
	OwnerChatID int64  `envconfig:"OWNER_CHAT_ID"` // 0: first chat that sends /start
	DBPath      string `envconfig:"DB_PATH" default:"./data/reminder.db"`
	TZName      string `envconfig:"TZ_NAME" default:"Local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"` // healthz + metrics

	UsageAccess      bool          `envconfig:"USAGE_ACCESS" default:"true"`
	UsageSampleEvery time.Duration `envconfig:"USAGE_SAMPLE_EVERY" default:"15s"`
	FullScreen       bool          `envconfig:"FULL_SCREEN_GRANTED" default:"true"`
	AutoStart        bool          `envconfig:"AUTO_START" default:"true"`

	WorkMinutes int `envconfig:"WORK_MINUTES" default:"30"`
	RestMinutes int `envconfig:"REST_MINUTES" default:"5"`
}

// Load reads an optional .env file and then environment variables into Config.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if cfg.UsageSampleEvery <= 0 {
		return cfg, fmt.Errorf("USAGE_SAMPLE_EVERY must be positive, got %s", cfg.UsageSampleEvery)
	}
	if cfg.WorkMinutes <= 0 || cfg.RestMinutes <= 0 {
		return cfg, fmt.Errorf("WORK_MINUTES and REST_MINUTES must be positive")
	}
	return cfg, nil
}

// Location resolves TZName. "Local" and "" mean the host zone.
func (c Config) Location() (*time.Location, error) {
	if c.TZName == "" || c.TZName == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TZName)
	if err != nil {
		return nil, fmt.Errorf("load TZ_NAME %q: %w", c.TZName, err)
	}
	return loc, nil
}

func (c Config) WorkDuration() time.Duration { return time.Duration(c.WorkMinutes) * time.Minute }
func (c Config) RestDuration() time.Duration { return time.Duration(c.RestMinutes) * time.Minute }
