package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the jobtrack tracker.
type Config struct {
	Schedule     string // cron spec for daemon mode, e.g. "0 9 * * *" or "@every 24h"
	Sources      []SourceConfig
	Companies    []string // target company names for portal searches
	Content      ContentConfig
	RateLimit    RateLimitConfig
	Notification NotificationConfig
	Store        StoreConfig
}

// SourceConfig describes a single job-posting source to scrape.
type SourceConfig struct {
	Name    string `yaml:"name"`    // adapter identifier: "bep" or "saramin"
	URL     string `yaml:"url"`     // base URL of the source
	Company string `yaml:"company"` // fixed company for single-company sources
	Enabled bool   `yaml:"enabled"`
}

// ContentConfig controls the detail-content classifier and backfill.
type ContentConfig struct {
	MinLength    int           // below this character count content is EMPTY
	NoisePhrases []string      // phrases indicating a login wall or placeholder page
	FetchTimeout time.Duration // per-link fetch timeout
	MaxWorkers   int           // bounded fetch concurrency
}

// RateLimitConfig controls per-host politeness delays.
type RateLimitConfig struct {
	MinInterval   time.Duration            // minimum gap between requests to one host
	HostOverrides map[string]time.Duration // per-host overrides
}

// IntervalFor returns the configured interval for host, falling back to MinInterval.
func (r RateLimitConfig) IntervalFor(host string) time.Duration {
	if d, ok := r.HostOverrides[host]; ok {
		return d
	}
	return r.MinInterval
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
	ReportLink string `yaml:"report_link"` // optional download link shown in status reports
}

// StoreConfig selects the persistence backend and its location.
type StoreConfig struct {
	Backend     string `yaml:"backend"`      // "csv" or "sqlite"
	ActivePath  string `yaml:"active_path"`  // CSV master file for active listings
	ArchivePath string `yaml:"archive_path"` // CSV file for closed listings
	ContentPath string `yaml:"content_path"` // CSV file for detail content
	SQLitePath  string `yaml:"sqlite_path"`  // database file when backend is "sqlite"
	ExportDir   string `yaml:"export_dir"`   // per-day new-listing CSV exports; empty disables
}

// rawConfig mirrors the YAML layout (snake_case, durations as strings).
type rawConfig struct {
	Schedule     string             `yaml:"schedule"`
	Sources      []SourceConfig     `yaml:"sources"`
	Companies    []string           `yaml:"companies"`
	Content      rawContentConfig   `yaml:"content"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
	Notification NotificationConfig `yaml:"notification"`
	Store        StoreConfig        `yaml:"store"`
}

type rawContentConfig struct {
	MinLength    int      `yaml:"min_length"`
	NoisePhrases []string `yaml:"noise_phrases"`
	FetchTimeout string   `yaml:"fetch_timeout"`
	MaxWorkers   int      `yaml:"max_workers"`
}

type rawRateLimitConfig struct {
	MinInterval   string            `yaml:"min_interval"`
	HostOverrides map[string]string `yaml:"host_overrides"`
}

// Load reads and parses the YAML config file at path, validates it, and
// returns Config. Environment variables in the file are expanded first so
// secrets like the webhook URL stay out of the file itself.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	fetchTimeout := 20 * time.Second
	if raw.Content.FetchTimeout != "" {
		fetchTimeout, err = time.ParseDuration(raw.Content.FetchTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse content.fetch_timeout %q: %w", raw.Content.FetchTimeout, err)
		}
	}

	minLength := raw.Content.MinLength
	if minLength == 0 {
		minLength = 120
	}

	maxWorkers := raw.Content.MaxWorkers
	if maxWorkers == 0 {
		maxWorkers = 4
	}

	minInterval := 1 * time.Second
	if raw.RateLimit.MinInterval != "" {
		minInterval, err = time.ParseDuration(raw.RateLimit.MinInterval)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.min_interval %q: %w", raw.RateLimit.MinInterval, err)
		}
	}

	hostOverrides := make(map[string]time.Duration)
	for host, v := range raw.RateLimit.HostOverrides {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.host_overrides[%q]: %w", host, err)
		}
		hostOverrides[host] = d
	}

	schedule := raw.Schedule
	if schedule == "" {
		schedule = "@every 24h"
	}

	store := raw.Store
	if store.Backend == "" {
		store.Backend = "csv"
	}
	if store.ActivePath == "" {
		store.ActivePath = "job_listings_all.csv"
	}
	if store.ArchivePath == "" {
		store.ArchivePath = "job_listings_closed.csv"
	}
	if store.ContentPath == "" {
		store.ContentPath = "job_contents.csv"
	}
	if store.SQLitePath == "" {
		store.SQLitePath = "jobtrack.db"
	}

	cfg := &Config{
		Schedule:  schedule,
		Sources:   raw.Sources,
		Companies: raw.Companies,
		Content: ContentConfig{
			MinLength:    minLength,
			NoisePhrases: raw.Content.NoisePhrases,
			FetchTimeout: fetchTimeout,
			MaxWorkers:   maxWorkers,
		},
		RateLimit: RateLimitConfig{
			MinInterval:   minInterval,
			HostOverrides: hostOverrides,
		},
		Notification: raw.Notification,
		Store:        store,
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	enabled := 0
	for _, s := range cfg.Sources {
		if s.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	for _, s := range cfg.Sources {
		if !s.Enabled {
			continue
		}
		switch s.Name {
		case "bep", "saramin":
		default:
			return fmt.Errorf("unknown source %q (want bep or saramin)", s.Name)
		}
		if s.Name == "saramin" && len(cfg.Companies) == 0 {
			return fmt.Errorf("companies list is required when the saramin source is enabled")
		}
	}

	if cfg.Content.MinLength < 0 {
		return fmt.Errorf("content.min_length must not be negative, got %d", cfg.Content.MinLength)
	}

	switch cfg.Store.Backend {
	case "csv", "sqlite":
	default:
		return fmt.Errorf("store.backend must be csv or sqlite, got %q", cfg.Store.Backend)
	}

	if cfg.Notification.Type == "slack" {
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	}

	return nil
}
