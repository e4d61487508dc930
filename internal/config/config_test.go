package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearEnv blanks every override so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DISCORD_WEBHOOK_URL", "DISCORD_MENTION", "TZ", "METIN2_EVENTS_DATA_DIR", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"timezone", c.Timezone, "Europe/Lisbon"},
		{"server filter", c.ServerFilter, "(?i)tigerghost"},
		{"primary url", c.Forums.Primary.URL, "https://board.pt.metin2.gameforge.com/index.php?board/86-eventos-metin2-pt/"},
		{"secondary filter", c.Forums.Secondary.TitleFilter, "(?i)events"},
		{"backend", c.Storage.Backend, "file"},
		{"data dir", c.Storage.DataDir, "~/.local/share/metin2-events"},
		{"refresh cron", c.Cron.Refresh, "*/30 * * * *"},
		{"remind cron", c.Cron.Remind, "0 14,18 * * *"},
		{"monthly cron", c.Cron.Monthly, "0 9 1 * *"},
		{"log level", c.LogLevel, "info"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
	if c.RateLimit() != 2 {
		t.Errorf("RateLimit() = %v, want 2", c.RateLimit())
	}
	if err := c.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Timezone != DefaultTimezone || c.Storage.Backend != "file" {
		t.Errorf("Load() on missing file = %+v, want defaults", c)
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, "config.yaml", `
timezone: Europe/Madrid
forums:
  secondary:
    url: https://board.example.com/en/board/
discord:
  webhook_url: https://discord.com/api/webhooks/1/from-file
  mention: "<@&42>"
storage:
  backend: BOLT
cron:
  remind: "0 14 * * *"
requests_per_second: 0.5
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if c.Timezone != "Europe/Madrid" {
		t.Errorf("Timezone = %q", c.Timezone)
	}
	if c.Forums.Secondary.URL != "https://board.example.com/en/board/" {
		t.Errorf("secondary URL = %q", c.Forums.Secondary.URL)
	}
	if c.Forums.Secondary.Selector == "" || c.Forums.Primary.URL == "" {
		t.Error("unset forum fields should be filled with defaults")
	}
	if c.Discord.Mention != "<@&42>" {
		t.Errorf("Mention = %q", c.Discord.Mention)
	}
	if c.Storage.Backend != "bolt" {
		t.Errorf("Backend = %q, want bolt", c.Storage.Backend)
	}
	if c.Cron.Remind != "0 14 * * *" || c.Cron.Refresh != "*/30 * * * *" {
		t.Errorf("Cron = %+v", c.Cron)
	}
	if c.RateLimit() != 0.5 {
		t.Errorf("RateLimit() = %v", c.RateLimit())
	}
}

func TestLoad_RateLimit(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		content string
		want    float64
	}{
		{"absent uses default", "timezone: UTC\n", DefaultRequestsPerSecond},
		{"zero disables the limit", "requests_per_second: 0\n", 0},
		{"explicit value", "requests_per_second: 5\n", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load(writeFile(t, "config.yaml", tt.content))
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if got := c.RateLimit(); got != tt.want {
				t.Errorf("RateLimit() = %v, want %v", got, tt.want)
			}
			if err := c.Validate(); err != nil {
				t.Errorf("Validate() error: %v", err)
			}
		})
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, "config.yaml", "timezone: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("Load() should fail on invalid YAML")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.com/api/webhooks/1/from-env")
	t.Setenv("DISCORD_MENTION", "<@&7>")
	t.Setenv("TZ", "UTC")
	t.Setenv("METIN2_EVENTS_DATA_DIR", "/tmp/metin2")
	t.Setenv("LOG_LEVEL", "debug")

	path := writeFile(t, "config.yaml", `
discord:
  webhook_url: https://discord.com/api/webhooks/1/from-file
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if c.Discord.WebhookURL != "https://discord.com/api/webhooks/1/from-env" {
		t.Errorf("WebhookURL = %q, env should win", c.Discord.WebhookURL)
	}
	if c.Discord.Mention != "<@&7>" || c.Timezone != "UTC" || c.Storage.DataDir != "/tmp/metin2" || c.LogLevel != "debug" {
		t.Errorf("env overrides not applied: %+v", c)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "timezone"},
		{"bad filter", func(c *Config) { c.ServerFilter = "(" }, "server_filter"},
		{"bad backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage backend"},
		{"negative rate", func(c *Config) { rps := -1.0; c.RequestsPerSecond = &rps }, "requests_per_second"},
		{"bad cron", func(c *Config) { c.Cron.Monthly = "every month" }, "cron.monthly"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("METIN2_DOTENV_TEST", "")
	os.Unsetenv("METIN2_DOTENV_TEST")

	path := writeFile(t, ".env", "METIN2_DOTENV_TEST=from-dotenv\n")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error: %v", err)
	}
	if got := os.Getenv("METIN2_DOTENV_TEST"); got != "from-dotenv" {
		t.Errorf("METIN2_DOTENV_TEST = %q, want from-dotenv", got)
	}

	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("LoadDotEnv() on missing file error: %v", err)
	}
}
