package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	EnvClientID     = "SPOTIPY_CLIENT_ID"
	EnvClientSecret = "SPOTIPY_CLIENT_SECRET"
	EnvRedirectURI  = "SPOTIPY_REDIRECT_URI"
	EnvDeemixARL    = "DEEMIX_ARL"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Deemix  DeemixConfig  `toml:"deemix"`
	Log     LogConfig     `toml:"log"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// DeemixConfig points at a running Deemix instance and tunes how hard it is queried.
type DeemixConfig struct {
	URL            string  `toml:"url"`
	ARL            string  `toml:"arl"`
	Format         string  `toml:"format"`
	Workers        int     `toml:"workers"`
	RateLimit      float64 `toml:"rate_limit"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// LogConfig selects the log level and an optional rotated log file.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/spoteemix/config.toml, creating the directory if needed.
func DefaultConfigPath() (string, error) {
	return xdg.ConfigFile(filepath.Join("spoteemix", "config.toml"))
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, exampleConf, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path as TOML, replacing the file. Comments from the example config are not kept.
func SaveConfig(path string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides the Spotify credentials and the Deemix ARL with any non-empty
// environment values. Flags are applied after it and win over both.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Spotify.ClientID, EnvClientID)
	set(&c.Spotify.ClientSecret, EnvClientSecret)
	set(&c.Spotify.RedirectURI, EnvRedirectURI)
	set(&c.Deemix.ARL, EnvDeemixARL)
}
