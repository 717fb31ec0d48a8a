package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/lo"
	"github.com/samber/oops"

	sharedErrors "tweetwatch/internal/shared/errors"
)

type Config struct {
	TwitterAPIKey    string `koanf:"twitter_api_key"`
	TwitterAPIURL    string `koanf:"twitter_api_url"`
	TelegramBotToken string `koanf:"telegram_bot_token"`
	TelegramChatID   string `koanf:"telegram_chat_id"`
	StoragePath      string `koanf:"storage_path"`
	HTTPPort         string `koanf:"http_port"`

	// Scheduling
	CheckInterval int  `koanf:"check_interval"` // seconds
	JitterPercent int  `koanf:"jitter_percent"`
	AutoStart     bool `koanf:"auto_start"`

	// Detection
	StormCap          int `koanf:"storm_cap"`
	FingerprintWindow int `koanf:"fingerprint_window"`

	// Delivery retries
	RetryAttempts uint `koanf:"retry_attempts"`
	RetryBaseSec  int  `koanf:"retry_base_sec"`
	RetryMaxSec   int  `koanf:"retry_max_sec"`

	// Spend budget
	MonthlySpendCap float64 `koanf:"monthly_spend_cap"` // USD
	CostPerCall     float64 `koanf:"cost_per_call"`     // USD per remote API call
	RateBurst       int     `koanf:"rate_burst"`
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try to load config file from various formats
	configFiles := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"config.toml",
	}

	configFile, found := lo.Find(configFiles, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// Environment variables override config file values
	// (TWITTER_API_KEY -> twitter_api_key)
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	// Set defaults
	defaults := map[string]any{
		"twitter_api_url":    "https://api.twitterapi.io",
		"storage_path":       "./data",
		"http_port":          "8080",
		"check_interval":     60,
		"jitter_percent":     10,
		"auto_start":         true,
		"storm_cap":          5,
		"fingerprint_window": 50,
		"retry_attempts":     5,
		"retry_base_sec":     2,
		"retry_max_sec":      300,
		"monthly_spend_cap":  10.0,
		"cost_per_call":      0.00015,
		"rate_burst":         5,
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	// Validate required fields
	if cfg.TwitterAPIKey == "" {
		return nil, sharedErrors.ErrMissingTwitterAPIKey
	}
	if cfg.TelegramBotToken == "" {
		return nil, sharedErrors.ErrMissingBotToken
	}
	if cfg.TelegramChatID == "" {
		return nil, sharedErrors.ErrMissingChatID
	}

	return &cfg, nil
}

// Interval returns the poll interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.CheckInterval) * time.Second
}

// RetryBase returns the first retry delay.
func (c *Config) RetryBase() time.Duration {
	return time.Duration(c.RetryBaseSec) * time.Second
}

// RetryMax returns the retry delay cap.
func (c *Config) RetryMax() time.Duration {
	return time.Duration(c.RetryMaxSec) * time.Second
}
