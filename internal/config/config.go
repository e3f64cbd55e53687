// Package config provides configuration loading and validation for the
// service and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds the service configuration. Values come from an optional JSON
// file merged over defaults, with environment variables (loaded via dotenv
// at startup) taking precedence for secrets.
type Config struct {
	// Storage
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL

	// Server
	ServerAddr string `json:"server_addr,omitempty"` // HTTP listen address

	// Cadence
	ScrapeIntervalMinutes int `json:"scrape_interval_minutes,omitempty"` // how often ingestion runs
	NotifyIntervalMinutes int `json:"notify_interval_minutes,omitempty"` // how often match+dispatch runs
	SweepIntervalHours    int `json:"sweep_interval_hours,omitempty"`    // how often retention runs
	LookbackHours         int `json:"lookback_hours,omitempty"`          // matching window

	// Retention
	PostingRetentionDays      int `json:"posting_retention_days,omitempty"`
	NotificationRetentionDays int `json:"notification_retention_days,omitempty"`

	// Scraping
	MaxRetries          int  `json:"max_retries,omitempty"`           // fetch attempts per request
	RequestDelaySeconds int  `json:"request_delay_seconds,omitempty"` // politeness delay between requests
	FetchConcurrency    int  `json:"fetch_concurrency,omitempty"`     // sources fetched in parallel
	IndeedEnabled       bool `json:"indeed_enabled,omitempty"`
	LinkedInEnabled     bool `json:"linkedin_enabled,omitempty"`
	LinkedInUseBrowser  bool `json:"linkedin_use_browser,omitempty"` // headless fallback, needs Chrome

	// Mail
	SMTPHost     string `json:"smtp_host,omitempty"`
	SMTPPort     int    `json:"smtp_port,omitempty"`
	SMTPUsername string `json:"smtp_username,omitempty"`
	SMTPPassword string `json:"smtp_password,omitempty"`
	SMTPFrom     string `json:"smtp_from,omitempty"`
}

// Defaults returns the configuration used when nothing else is specified.
// Bool fields are not merged, so a config file must state the site toggles
// explicitly; without a file both sites are enabled.
func Defaults() Config {
	return Config{
		ServerAddr:                ":8080",
		ScrapeIntervalMinutes:     30,
		NotifyIntervalMinutes:     5,
		SweepIntervalHours:        24,
		LookbackHours:             24,
		PostingRetentionDays:      90,
		NotificationRetentionDays: 30,
		MaxRetries:                3,
		RequestDelaySeconds:       2,
		FetchConcurrency:          2,
		IndeedEnabled:             true,
		LinkedInEnabled:           true,
		SMTPPort:                  587,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overlays environment variables onto the configuration. Call after
// godotenv has loaded any .env file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.ServerAddr = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		c.SMTPHost = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.SMTPPort = port
		}
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		c.SMTPUsername = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.SMTPPassword = v
	}
	if v := os.Getenv("SMTP_FROM"); v != "" {
		c.SMTPFrom = v
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.ScrapeIntervalMinutes < 1 {
		return fmt.Errorf("config error: 'scrape_interval_minutes' must be at least 1")
	}
	if c.NotifyIntervalMinutes < 1 {
		return fmt.Errorf("config error: 'notify_interval_minutes' must be at least 1")
	}
	if c.SweepIntervalHours < 1 {
		return fmt.Errorf("config error: 'sweep_interval_hours' must be at least 1")
	}
	if c.LookbackHours < 1 {
		return fmt.Errorf("config error: 'lookback_hours' must be at least 1")
	}
	if c.PostingRetentionDays < 1 {
		return fmt.Errorf("config error: 'posting_retention_days' must be at least 1")
	}
	if c.NotificationRetentionDays < 1 {
		return fmt.Errorf("config error: 'notification_retention_days' must be at least 1")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("config error: 'max_retries' must be at least 1")
	}
	if c.RequestDelaySeconds < 0 {
		return fmt.Errorf("config error: 'request_delay_seconds' must be non-negative")
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("config error: 'fetch_concurrency' must be at least 1")
	}
	if c.SMTPPort < 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("config error: 'smtp_port' out of range: %d", c.SMTPPort)
	}
	return nil
}

// MergeWithDefaults returns a new Config with unset fields filled from
// defaults. Bool fields cannot distinguish unset from false, so they are not
// merged; the JSON file value wins as written.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.ServerAddr == "" {
		result.ServerAddr = defaults.ServerAddr
	}
	if result.ScrapeIntervalMinutes == 0 {
		result.ScrapeIntervalMinutes = defaults.ScrapeIntervalMinutes
	}
	if result.NotifyIntervalMinutes == 0 {
		result.NotifyIntervalMinutes = defaults.NotifyIntervalMinutes
	}
	if result.SweepIntervalHours == 0 {
		result.SweepIntervalHours = defaults.SweepIntervalHours
	}
	if result.LookbackHours == 0 {
		result.LookbackHours = defaults.LookbackHours
	}
	if result.PostingRetentionDays == 0 {
		result.PostingRetentionDays = defaults.PostingRetentionDays
	}
	if result.NotificationRetentionDays == 0 {
		result.NotificationRetentionDays = defaults.NotificationRetentionDays
	}
	if result.MaxRetries == 0 {
		result.MaxRetries = defaults.MaxRetries
	}
	if result.RequestDelaySeconds == 0 {
		result.RequestDelaySeconds = defaults.RequestDelaySeconds
	}
	if result.FetchConcurrency == 0 {
		result.FetchConcurrency = defaults.FetchConcurrency
	}
	if result.SMTPHost == "" {
		result.SMTPHost = defaults.SMTPHost
	}
	if result.SMTPPort == 0 {
		result.SMTPPort = defaults.SMTPPort
	}
	if result.SMTPUsername == "" {
		result.SMTPUsername = defaults.SMTPUsername
	}
	if result.SMTPPassword == "" {
		result.SMTPPassword = defaults.SMTPPassword
	}
	if result.SMTPFrom == "" {
		result.SMTPFrom = defaults.SMTPFrom
	}

	return result
}

// Duration accessors for the interval knobs.

func (c *Config) ScrapeInterval() time.Duration {
	return time.Duration(c.ScrapeIntervalMinutes) * time.Minute
}

func (c *Config) NotifyInterval() time.Duration {
	return time.Duration(c.NotifyIntervalMinutes) * time.Minute
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalHours) * time.Hour
}

func (c *Config) Lookback() time.Duration {
	return time.Duration(c.LookbackHours) * time.Hour
}

func (c *Config) PostingRetention() time.Duration {
	return time.Duration(c.PostingRetentionDays) * 24 * time.Hour
}

func (c *Config) NotificationRetention() time.Duration {
	return time.Duration(c.NotificationRetentionDays) * 24 * time.Hour
}

func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelaySeconds) * time.Second
}
