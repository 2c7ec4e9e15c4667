package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

var (
	ErrEmptyToken      = errors.New("error getting PW_TELEGRAM_TOKEN: variable not specified or contains an empty string")
	ErrRefreshInterval = errors.New("error getting PW_REFRESH_INTERVAL: must be a positive duration")
)

type Config struct {
	Env         string // Env is the current environment: local, development, production.
	FeedURL     string // FeedURL is the vendor offer feed; empty disables price refresh.
	StoragePath string
	Tg          Telegram
	Monitor     Monitor
	Search      Search
}

type Telegram struct {
	Token   string        // Token is an unique telgram bot token.
	Timeout time.Duration // Timeout is a poller timeout duration.
}

type Monitor struct {
	Interval time.Duration // Interval between price refresh cycles.
}

type Search struct {
	Latency time.Duration // Latency simulated by the built-in catalog.
	Timeout time.Duration // Timeout of a single catalog fetch, zero means none.
}

// MustLoad loads the configuration from environment variables and returns a Config struct.
func MustLoad() *Config {
	// Automatically binds environment variables to config keys
	viper.SetEnvPrefix("PW")
	viper.AutomaticEnv()

	// optional args
	viper.SetDefault("ENV", "production")
	viper.SetDefault("TELEGRAM_TIMEOUT", "15s")
	viper.SetDefault("STORAGE_PATH", "./pricewatch.db")
	viper.SetDefault("REFRESH_INTERVAL", "30m")
	viper.SetDefault("SEARCH_LATENCY", "500ms")
	viper.SetDefault("SEARCH_TIMEOUT", "0s")

	if viper.GetString("TELEGRAM_TOKEN") == "" {
		panic(ErrEmptyToken)
	}
	if viper.GetDuration("REFRESH_INTERVAL") <= 0 {
		panic(ErrRefreshInterval)
	}

	return &Config{
		Env:         viper.GetString("ENV"),
		FeedURL:     viper.GetString("FEED_URL"),
		StoragePath: viper.GetString("STORAGE_PATH"),
		Tg: Telegram{
			Token:   viper.GetString("TELEGRAM_TOKEN"),
			Timeout: viper.GetDuration("TELEGRAM_TIMEOUT"),
		},
		Monitor: Monitor{
			Interval: viper.GetDuration("REFRESH_INTERVAL"),
		},
		Search: Search{
			Latency: viper.GetDuration("SEARCH_LATENCY"),
			Timeout: viper.GetDuration("SEARCH_TIMEOUT"),
		},
	}
}
