package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Discord DiscordConfig `yaml:"discord"`
	Monitor MonitorConfig `yaml:"monitor"`
	Alert   AlertConfig   `yaml:"alert"`
}

type DiscordConfig struct {
	Token      string `yaml:"token"`
	ChannelID  string `yaml:"channel_id"`
	APIBase    string `yaml:"api_base"`
	GatewayURL string `yaml:"gateway_url"`
}

type MonitorConfig struct {
	// Poll toggles the REST polling path. The Gateway subscription always
	// runs; polling is the redundant backup and can be switched off.
	Poll                bool    `yaml:"poll"`
	PollIntervalSeconds float64 `yaml:"poll_interval_seconds"`
	FetchTimeoutSeconds float64 `yaml:"fetch_timeout_seconds"`
}

type AlertConfig struct {
	SoundPath string `yaml:"sound_path"`
}

func defaultConfig() *Config {
	return &Config{
		Discord: DiscordConfig{
			APIBase:    "https://discord.com/api/v9",
			GatewayURL: "wss://gateway.discord.gg/?v=9&encoding=json",
		},
		Monitor: MonitorConfig{
			Poll:                true,
			PollIntervalSeconds: 1.5,
			FetchTimeoutSeconds: 5,
		},
	}
}

// Load reads the yaml config at path, layered over coded defaults, then
// applies environment overrides. A missing file is not an error -- the
// watcher can run entirely from DISCORD_TOKEN and CHANNEL_ID.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides file values with the environment contract the watcher
// has always honored: DISCORD_TOKEN and CHANNEL_ID win over the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		c.Discord.Token = v
	}
	if v := os.Getenv("CHANNEL_ID"); v != "" {
		c.Discord.ChannelID = v
	}
}

// Validate reports the first fatal configuration problem. The CLI surfaces
// the message and exits nonzero without starting either detection path.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("no Discord token: set DISCORD_TOKEN or discord.token in the config file")
	}
	if c.Discord.ChannelID == "" {
		return fmt.Errorf("no channel id: set CHANNEL_ID or discord.channel_id in the config file")
	}
	if c.Monitor.PollIntervalSeconds <= 0 {
		return fmt.Errorf("monitor.poll_interval_seconds must be positive, got %v", c.Monitor.PollIntervalSeconds)
	}
	return nil
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Monitor.PollIntervalSeconds * float64(time.Second))
}

func (c *Config) FetchTimeout() time.Duration {
	if c.Monitor.FetchTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Monitor.FetchTimeoutSeconds * float64(time.Second))
}

// ResolveSoundPath returns the configured alarm sound, falling back to
// boom.mp3 next to the executable and finally the working directory.
func (c *Config) ResolveSoundPath() string {
	if c.Alert.SoundPath != "" {
		return c.Alert.SoundPath
	}
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), "boom.mp3")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return "boom.mp3"
}
