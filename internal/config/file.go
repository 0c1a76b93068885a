package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// fileConfig is the on-disk shape. Durations are strings such as "1s".
type fileConfig struct {
	DatabaseURL string       `json:"databaseUrl"`
	Port        string       `json:"port"`
	Scrape      fileScrape   `json:"scrape"`
	Schedule    fileSchedule `json:"schedule"`
	Listings    []Listing    `json:"listings"`
}

type fileScrape struct {
	Origin             string   `json:"origin"`
	GamePath           string   `json:"gamePath"`
	UserAgent          string   `json:"userAgent"`
	Fetcher            string   `json:"fetcher"`
	RequestDelay       string   `json:"requestDelay"`
	RequestTimeout     string   `json:"requestTimeout"`
	ListingConcurrency int      `json:"listingConcurrency"`
	StatusTokens       []string `json:"statusTokens"`
}

type fileSchedule struct {
	Interval          string `json:"interval"`
	FilteredRetention string `json:"filteredRetention"`
}

func splitExt(f string) (string, string) {
	ext := filepath.Ext(f)
	return strings.TrimSuffix(f, ext), strings.TrimPrefix(ext, ".")
}

// readFile reads name and merges <name>.local.<ext> over it. It returns
// os.ErrNotExist only when neither file exists.
func readFile(name string) (fileConfig, error) {
	var out fileConfig
	allNotFound := true

	base, ext := splitExt(name)

	defaultFile, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(defaultFile) > 0 {
		if err := json5.Unmarshal(defaultFile, &out); err != nil {
			return out, err
		}
		allNotFound = false
	}

	localPath := fmt.Sprintf("%s.local.%s", base, ext)
	localFile, err := os.ReadFile(localPath)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(localFile) > 0 {
		var override fileConfig
		if err := json5.Unmarshal(localFile, &override); err != nil {
			return out, err
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", "local", localPath)
		allNotFound = false
	}

	if allNotFound {
		return out, os.ErrNotExist
	}
	return out, nil
}

// apply copies every non-zero value from the file onto cfg.
func (fc fileConfig) apply(cfg *Config) error {
	setString(&cfg.DatabaseURL, fc.DatabaseURL)
	setString(&cfg.Port, fc.Port)
	setString(&cfg.Scrape.Origin, fc.Scrape.Origin)
	setString(&cfg.Scrape.GamePath, fc.Scrape.GamePath)
	setString(&cfg.Scrape.UserAgent, fc.Scrape.UserAgent)
	setString(&cfg.Scrape.Fetcher, strings.ToLower(fc.Scrape.Fetcher))

	if fc.Scrape.ListingConcurrency != 0 {
		cfg.Scrape.ListingConcurrency = fc.Scrape.ListingConcurrency
	}
	if len(fc.Scrape.StatusTokens) > 0 {
		cfg.Scrape.StatusTokens = fc.Scrape.StatusTokens
	}
	if len(fc.Listings) > 0 {
		cfg.Listings = fc.Listings
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"scrape.requestDelay", fc.Scrape.RequestDelay, &cfg.Scrape.RequestDelay},
		{"scrape.requestTimeout", fc.Scrape.RequestTimeout, &cfg.Scrape.RequestTimeout},
		{"schedule.interval", fc.Schedule.Interval, &cfg.Schedule.Interval},
		{"schedule.filteredRetention", fc.Schedule.FilteredRetention, &cfg.Schedule.FilteredRetention},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = parsed
	}
	return nil
}

func setString(dst *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*dst = value
	}
}
