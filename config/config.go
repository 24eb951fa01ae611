// Package config loads CLI settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends for the credential slot
const (
	StoreBolt   = "bolt"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Event transports
const (
	EventsNone      = "none"
	EventsGoChannel = "gochannel"
	EventsRedis     = "redis"
)

type Config struct {
	APIURL            string
	Store             string
	StorePath         string
	RedisURL          string
	StorePrefix       string
	Events            string
	RefreshTimeout    time.Duration
	KeepAliveInterval time.Duration
	LoginPath         string
	Debug             bool
	StubAddr          string
}

// Load reads .env when present and then the TURF_* environment variables
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only
func FromEnv() (Config, error) {
	cfg := Config{
		APIURL:      getEnv("TURF_API_URL", "http://localhost:8000/api"),
		Store:       getEnv("TURF_STORE", StoreBolt),
		StorePath:   getEnv("TURF_STORE_PATH", defaultStorePath()),
		RedisURL:    getEnv("TURF_REDIS_URL", "redis://localhost:6379/0"),
		StorePrefix: getEnv("TURF_STORE_PREFIX", "turf:"),
		Events:      getEnv("TURF_EVENTS", EventsNone),
		LoginPath:   getEnv("TURF_LOGIN_PATH", "/login"),
		StubAddr:    getEnv("TURF_STUB_ADDR", ":8000"),
	}

	var err error
	if cfg.RefreshTimeout, err = getDuration("TURF_REFRESH_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.KeepAliveInterval, err = getDuration("TURF_KEEPALIVE_INTERVAL", 10*time.Minute); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("TURF_DEBUG"); v != "" {
		if cfg.Debug, err = strconv.ParseBool(v); err != nil {
			return Config{}, fmt.Errorf("invalid TURF_DEBUG %q: %w", v, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that flags may have overridden
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api url %q", c.APIURL)
	}

	switch c.Store {
	case StoreBolt:
		if c.StorePath == "" {
			return fmt.Errorf("store path is required for the %s store", StoreBolt)
		}
	case StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}

	switch c.Events {
	case EventsNone, EventsGoChannel, EventsRedis:
	default:
		return fmt.Errorf("unknown event transport %q", c.Events)
	}

	if c.RefreshTimeout <= 0 {
		return fmt.Errorf("refresh timeout must be positive")
	}
	if c.KeepAliveInterval <= 0 {
		return fmt.Errorf("keepalive interval must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".turf", "session.db")
	}
	return filepath.Join(home, ".turf", "session.db")
}
