package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Deemix.URL != "http://127.0.0.1:6595" {
			t.Errorf("expected deemix url http://127.0.0.1:6595, got %s", config.Deemix.URL)
		}

		if config.Deemix.Format != "mp3_320" {
			t.Errorf("expected format mp3_320, got %s", config.Deemix.Format)
		}

		if config.Deemix.Workers != 8 {
			t.Errorf("expected 8 workers, got %d", config.Deemix.Workers)
		}

		if config.Deemix.TimeoutSeconds != 15 {
			t.Errorf("expected 15 second timeout, got %d", config.Deemix.TimeoutSeconds)
		}

		if config.Spotify.RedirectURI != "http://127.0.0.1:8888/callback" {
			t.Errorf("unexpected redirect uri %s", config.Spotify.RedirectURI)
		}

		if config.Log.Level != "info" {
			t.Errorf("expected log level info, got %s", config.Log.Level)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "nested", "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if *config != *DefaultConfig() {
			t.Errorf("created config doesn't match default: %+v", config)
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[spotify]
client_id = "test_client_id"
client_secret = "test_secret"

[deemix]
url = "http://deemix.local:6595"
format = "flac"
workers = 2
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Deemix.URL != "http://deemix.local:6595" {
			t.Errorf("expected custom deemix url, got %s", config.Deemix.URL)
		}

		if config.Deemix.Workers != 2 {
			t.Errorf("expected 2 workers, got %d", config.Deemix.Workers)
		}

		if config.Deemix.RateLimit != 10 {
			t.Errorf("expected default rate limit to survive, got %v", config.Deemix.RateLimit)
		}

		if config.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Spotify.ClientID)
		}
	})

	t.Run("LoadConfig invalid", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[deemix\nurl = "), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfig missing", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		env := map[string]string{
			EnvClientID:     "env_id",
			EnvClientSecret: "env_secret",
			EnvDeemixARL:    "env_arl",
		}
		config := DefaultConfig()
		config.Spotify.ClientSecret = "from_file"
		config.Spotify.RedirectURI = "http://127.0.0.1:9999/callback"
		config.Deemix.ARL = "file_arl"
		config.ApplyEnv(func(k string) string { return env[k] })

		if config.Spotify.ClientID != "env_id" {
			t.Errorf("expected env client id, got %s", config.Spotify.ClientID)
		}

		if config.Spotify.ClientSecret != "env_secret" {
			t.Errorf("expected env to override configured secret, got %s", config.Spotify.ClientSecret)
		}

		if config.Deemix.ARL != "env_arl" {
			t.Errorf("expected env to override configured ARL, got %s", config.Deemix.ARL)
		}

		if config.Spotify.RedirectURI != "http://127.0.0.1:9999/callback" {
			t.Errorf("unset env var should keep the file value, got %s", config.Spotify.RedirectURI)
		}
	})

	t.Run("ApplyEnv blank values", func(t *testing.T) {
		config := DefaultConfig()
		config.Deemix.ARL = "file_arl"
		config.ApplyEnv(func(string) string { return "  " })

		if config.Deemix.ARL != "file_arl" {
			t.Errorf("blank env should keep the file value, got %s", config.Deemix.ARL)
		}
	})

	t.Run("SaveConfig unwritable path", func(t *testing.T) {
		dir := t.TempDir()
		if err := SaveConfig(dir, DefaultConfig()); err == nil {
			t.Error("expected error writing over a directory")
		}

		blocker := filepath.Join(dir, "file")
		if err := os.WriteFile(blocker, nil, 0o600); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
		if err := SaveConfig(filepath.Join(blocker, "config.toml"), DefaultConfig()); err == nil {
			t.Error("expected error when the parent is a file")
		}
	})

	t.Run("SaveConfig round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sub", "config.toml")
		config := DefaultConfig()
		config.Deemix.ARL = "abc123"
		config.Deemix.Workers = 4

		if err := SaveConfig(path, config); err != nil {
			t.Fatalf("SaveConfig() error = %v", err)
		}

		loaded, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if loaded.Deemix.ARL != "abc123" || loaded.Deemix.Workers != 4 {
			t.Errorf("unexpected deemix config %+v", loaded.Deemix)
		}
		if loaded.Spotify.RedirectURI != config.Spotify.RedirectURI {
			t.Errorf("expected redirect uri to survive, got %s", loaded.Spotify.RedirectURI)
		}
	})
}
