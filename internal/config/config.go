package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8880
	DefaultUpstreamBaseURL = "https://www.baby-connect.com"
	DefaultUpstreamTimeout = 15
	DefaultTimezone        = "US/Pacific"
	DefaultProbeSpec       = "@every 15m"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Token    TokenConfig    `json:"token"`
	Upstream UpstreamConfig `json:"upstream"`
	Timezone string         `json:"timezone"`
	Probe    ProbeConfig    `json:"probe"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type TokenConfig struct {
	// Secret protects linked-account tokens. It is handed to the
	// auth gate at construction and never read from the environment
	// anywhere else.
	Secret string `json:"secret"`
}

type UpstreamConfig struct {
	BaseURL        string `json:"baseUrl"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type ProbeConfig struct {
	Enabled bool   `json:"enabled"`
	Spec    string `json:"spec,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Upstream: UpstreamConfig{
			BaseURL:        DefaultUpstreamBaseURL,
			TimeoutSeconds: DefaultUpstreamTimeout,
		},
		Timezone: DefaultTimezone,
		Probe: ProbeConfig{
			Enabled: false,
			Spec:    DefaultProbeSpec,
		},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".bcskill")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if secret := os.Getenv("BCSKILL_TOKEN_SECRET"); secret != "" {
		cfg.Token.Secret = secret
	}
	if port := os.Getenv("BCSKILL_PORT"); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = parsed
		}
	}
	if host := os.Getenv("BCSKILL_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if url := os.Getenv("BCSKILL_UPSTREAM_URL"); url != "" {
		cfg.Upstream.BaseURL = url
	}
	if tz := os.Getenv("BCSKILL_TIMEZONE"); tz != "" {
		cfg.Timezone = tz
	}
	if spec := os.Getenv("BCSKILL_PROBE_SPEC"); spec != "" {
		cfg.Probe.Spec = spec
		cfg.Probe.Enabled = true
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = DefaultUpstreamBaseURL
	}
	if cfg.Upstream.TimeoutSeconds <= 0 {
		cfg.Upstream.TimeoutSeconds = DefaultUpstreamTimeout
	}
	if cfg.Timezone == "" {
		cfg.Timezone = DefaultTimezone
	}
	if cfg.Probe.Spec == "" {
		cfg.Probe.Spec = DefaultProbeSpec
	}

	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0600)
}
