// Package config loads the metin2-events configuration from a YAML file, an
// optional .env file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata" // timezone lookups must not depend on the host

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/igor-ruivo/metin2-events/internal/scraper"
	"github.com/igor-ruivo/metin2-events/internal/storage"
)

const (
	DefaultPath     = "~/.config/metin2-events/config.yaml"
	DefaultTimezone = "Europe/Lisbon"

	DefaultRequestsPerSecond = 2.0
)

// ForumConfig describes one forum index to search
type ForumConfig struct {
	URL         string `yaml:"url"`
	Selector    string `yaml:"selector"`
	TitleFilter string `yaml:"title_filter"`
}

type ForumsConfig struct {
	Primary   ForumConfig `yaml:"primary"`
	Secondary ForumConfig `yaml:"secondary"`
}

type DiscordConfig struct {
	// WebhookURL is the incoming webhook used by remind and monthly
	WebhookURL string `yaml:"webhook_url"`
	// Mention is sent as message content, e.g. "<@&1410116889740316684>"
	Mention string `yaml:"mention"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"`
	DataDir string `yaml:"data_dir"`
}

// CronConfig holds standard 5-field cron specs evaluated in Timezone
type CronConfig struct {
	Refresh string `yaml:"refresh"`
	Remind  string `yaml:"remind"`
	Monthly string `yaml:"monthly"`
}

// Config is the top-level application configuration
type Config struct {
	Timezone          string        `yaml:"timezone"`
	ServerFilter      string        `yaml:"server_filter"`
	Forums            ForumsConfig  `yaml:"forums"`
	Discord           DiscordConfig `yaml:"discord"`
	Storage           StorageConfig `yaml:"storage"`
	Cron              CronConfig    `yaml:"cron"`
	// RequestsPerSecond bounds forum requests; 0 disables the limit, absent means 2
	RequestsPerSecond *float64      `yaml:"requests_per_second"`
	LogLevel          string        `yaml:"log_level"`
}

// DefaultConfig returns an in-memory default configuration
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing values with defaults
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.ServerFilter == "" {
		c.ServerFilter = "(?i)tigerghost"
	}

	normalizeForum(&c.Forums.Primary, scraper.PrimaryForumURL, "(?i)tigerghost")
	normalizeForum(&c.Forums.Secondary, scraper.SecondaryForumURL, "(?i)events")

	if c.Storage.Backend == "" {
		c.Storage.Backend = storage.BackendFile
	}
	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = storage.DefaultDataDir
	}

	if c.Cron.Refresh == "" {
		c.Cron.Refresh = "*/30 * * * *"
	}
	if c.Cron.Remind == "" {
		c.Cron.Remind = "0 14,18 * * *"
	}
	if c.Cron.Monthly == "" {
		c.Cron.Monthly = "0 9 1 * *"
	}

	if c.RequestsPerSecond == nil {
		rps := DefaultRequestsPerSecond
		c.RequestsPerSecond = &rps
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func normalizeForum(f *ForumConfig, url, filter string) {
	if f.URL == "" {
		f.URL = url
	}
	if f.Selector == "" {
		f.Selector = scraper.DefaultThreadSelector
	}
	if f.TitleFilter == "" {
		f.TitleFilter = filter
	}
}

// Validate checks values that would otherwise fail later at runtime
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	patterns := map[string]string{
		"server_filter":                 c.ServerFilter,
		"forums.primary.title_filter":   c.Forums.Primary.TitleFilter,
		"forums.secondary.title_filter": c.Forums.Secondary.TitleFilter,
	}
	for name, p := range patterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if c.RateLimit() < 0 {
		return fmt.Errorf("invalid requests_per_second %v (must be >= 0)", *c.RequestsPerSecond)
	}

	switch c.Storage.Backend {
	case storage.BackendFile, storage.BackendBolt:
	default:
		return fmt.Errorf("invalid storage backend %q (must be 'file' or 'bolt')", c.Storage.Backend)
	}

	specs := map[string]string{
		"cron.refresh": c.Cron.Refresh,
		"cron.remind":  c.Cron.Remind,
		"cron.monthly": c.Cron.Monthly,
	}
	for name, spec := range specs {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, spec, err)
		}
	}
	return nil
}

// RateLimit returns the forum request rate; 0 means unlimited
func (c *Config) RateLimit() float64 {
	if c.RequestsPerSecond == nil {
		return DefaultRequestsPerSecond
	}
	return *c.RequestsPerSecond
}

// Location returns the configured timezone
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Load reads the YAML file at path, applies environment overrides and
// normalizes the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		expanded, err := expandHome(path)
		if err != nil {
			return nil, err
		}

		data, err := os.ReadFile(expanded)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", expanded, err)
			}
		}
	}

	cfg.ApplyEnv()
	cfg.Normalize()
	return cfg, nil
}

// ApplyEnv overrides fields from the environment
func (c *Config) ApplyEnv() {
	c.Discord.WebhookURL = getEnv("DISCORD_WEBHOOK_URL", c.Discord.WebhookURL)
	c.Discord.Mention = getEnv("DISCORD_MENTION", c.Discord.Mention)
	c.Timezone = getEnv("TZ", c.Timezone)
	c.Storage.DataDir = getEnv("METIN2_EVENTS_DATA_DIR", c.Storage.DataDir)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// LoadDotEnv loads variables from .env files into the environment without
// overriding ones already set. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
