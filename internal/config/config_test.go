package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("CHANNEL_ID", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Discord.APIBase != "https://discord.com/api/v9" {
		t.Errorf("APIBase = %q", cfg.Discord.APIBase)
	}
	if cfg.Discord.GatewayURL != "wss://gateway.discord.gg/?v=9&encoding=json" {
		t.Errorf("GatewayURL = %q", cfg.Discord.GatewayURL)
	}
	if !cfg.Monitor.Poll {
		t.Error("Poll default = false, want true")
	}
	if got := cfg.PollInterval(); got != 1500*time.Millisecond {
		t.Errorf("PollInterval() = %s, want 1.5s", got)
	}
	if got := cfg.FetchTimeout(); got != 5*time.Second {
		t.Errorf("FetchTimeout() = %s, want 5s", got)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("CHANNEL_ID", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
discord:
  token: "file-token"
  channel_id: "42"
monitor:
  poll: false
  poll_interval_seconds: 3
alert:
  sound_path: "/sounds/alarm.mp3"
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Discord.Token != "file-token" {
		t.Errorf("Token = %q, want file-token", cfg.Discord.Token)
	}
	if cfg.Discord.ChannelID != "42" {
		t.Errorf("ChannelID = %q, want 42", cfg.Discord.ChannelID)
	}
	if cfg.Monitor.Poll {
		t.Error("Poll = true, want false")
	}
	if got := cfg.PollInterval(); got != 3*time.Second {
		t.Errorf("PollInterval() = %s, want 3s", got)
	}
	if cfg.ResolveSoundPath() != "/sounds/alarm.mp3" {
		t.Errorf("ResolveSoundPath() = %q, want /sounds/alarm.mp3", cfg.ResolveSoundPath())
	}

	// Unspecified fields keep their defaults.
	if cfg.Discord.APIBase == "" {
		t.Error("APIBase default lost after file load")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
discord:
  token: "file-token"
  channel_id: "file-channel"
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DISCORD_TOKEN", "env-token")
	t.Setenv("CHANNEL_ID", "env-channel")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Discord.Token != "env-token" {
		t.Errorf("Token = %q, want env-token", cfg.Discord.Token)
	}
	if cfg.Discord.ChannelID != "env-channel" {
		t.Errorf("ChannelID = %q, want env-channel", cfg.Discord.ChannelID)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("discord: [not: valid"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() on malformed yaml returned nil error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"complete", func(c *Config) {}, false},
		{"missing token", func(c *Config) { c.Discord.Token = "" }, true},
		{"missing channel", func(c *Config) { c.Discord.ChannelID = "" }, true},
		{"zero poll interval", func(c *Config) { c.Monitor.PollIntervalSeconds = 0 }, true},
		{"negative poll interval", func(c *Config) { c.Monitor.PollIntervalSeconds = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Discord.Token = "tok"
			cfg.Discord.ChannelID = "chan"
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
