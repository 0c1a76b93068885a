package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load .env: %w", err)
}

func envOrDefault(key, defaultValue string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val != "" {
		return val
	}
	return defaultValue
}

func durationEnv(key string, dst *time.Duration) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.DatabaseURL = envOrDefault(envDatabaseURL, cfg.DatabaseURL)
	cfg.Port = envOrDefault(envPort, cfg.Port)
	cfg.Scrape.UserAgent = envOrDefault(envUserAgent, cfg.Scrape.UserAgent)
	cfg.Scrape.Fetcher = strings.ToLower(envOrDefault(envFetcher, cfg.Scrape.Fetcher))

	if err := durationEnv(envRequestDelay, &cfg.Scrape.RequestDelay); err != nil {
		return err
	}
	return durationEnv(envRequestTimeout, &cfg.Scrape.RequestTimeout)
}
