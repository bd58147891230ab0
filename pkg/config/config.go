// Package config loads pipeline configuration from environment variables.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// ErrDatabaseURLMissing is returned by RequireDatabaseURL when DATABASE_URL
// is unset. Store-touching operations treat this as fatal.
var ErrDatabaseURLMissing = errors.New("DATABASE_URL is not set")

// Config holds pipeline configuration.
type Config struct {
	DatabaseURL  string
	UniversePath string
	UserAgent    string
	RedisURL     string

	// Live SEC fetch knobs.
	RequestDelay time.Duration
	MaxRetries   int
	BackoffBase  time.Duration
	HTTPTimeout  time.Duration
	MaxFilings   int
}

// Load reads configuration from environment variables, applying the
// defaults the batch driver uses.
func Load() *Config {
	universePath := os.Getenv("OGREE_UNIVERSE")
	if universePath == "" {
		universePath = "config/universe.yaml"
	}

	return &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		UniversePath: universePath,
		UserAgent:    os.Getenv("OGREE_USER_AGENT"),
		RedisURL:     os.Getenv("OGREE_REDIS_URL"),
		RequestDelay: envDuration("OGREE_SEC_DELAY_MS", 500*time.Millisecond),
		MaxRetries:   envInt("OGREE_SEC_MAX_RETRIES", 3),
		BackoffBase:  envDuration("OGREE_SEC_BACKOFF_MS", 1000*time.Millisecond),
		HTTPTimeout:  envDuration("OGREE_SEC_TIMEOUT_MS", 15000*time.Millisecond),
		MaxFilings:   envInt("OGREE_SEC_MAX_FILINGS", 40),
	}
}

// RequireDatabaseURL returns the database URL or ErrDatabaseURLMissing.
func (c *Config) RequireDatabaseURL() (string, error) {
	if c.DatabaseURL == "" {
		return "", ErrDatabaseURLMissing
	}
	return c.DatabaseURL, nil
}

func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
