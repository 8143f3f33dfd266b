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

		if config.Database.Path != "./spotunisia.db" {
			t.Errorf("expected database path ./spotunisia.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8888 {
			t.Errorf("expected server port 8888, got %d", config.Server.Port)
		}

		if config.Catalog.BaseURL != "https://api.spotify.com/v1" {
			t.Errorf("unexpected catalog base URL %s", config.Catalog.BaseURL)
		}

		if config.Fallback.RelayURL != "https://corsproxy.io/?" {
			t.Errorf("unexpected relay URL %s", config.Fallback.RelayURL)
		}

		if len(config.Player.Args) == 0 {
			t.Error("expected default player args")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
port = 9090

[credentials.spotify]
client_id = "test_client_id"
redirect_uri = "http://localhost:9090/callback"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.Server.Port != 9090 {
			t.Errorf("expected server port 9090, got %d", config.Server.Port)
		}
		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		t.Run("keeps defaults for omitted sections", func(t *testing.T) {
			if config.Fallback.StreamURL != "https://pipedapi.kavin.rocks" {
				t.Errorf("expected default stream URL, got %s", config.Fallback.StreamURL)
			}
		})
	})

	t.Run("LoadConfig with invalid toml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[database\npath = "), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("SPOTUNISIA_CLIENT_ID", "from-env")
		t.Setenv("SPOTUNISIA_SERVER_PORT", "7777")
		t.Setenv("SPOTUNISIA_VOLUME", "not-a-number")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.Credentials.Spotify.ClientID != "from-env" {
			t.Errorf("expected client id from env, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Server.Port != 7777 {
			t.Errorf("expected port 7777, got %d", config.Server.Port)
		}
		if config.Player.Volume != 0.8 {
			t.Errorf("unparseable volume should keep default, got %v", config.Player.Volume)
		}
	})

	t.Run("LoadEnv", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("SPOTUNISIA_TEST_LOADENV=yes\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("SPOTUNISIA_TEST_LOADENV") })

		if err := LoadEnv(envPath, filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("LoadEnv failed: %v", err)
		}
		if got := os.Getenv("SPOTUNISIA_TEST_LOADENV"); got != "yes" {
			t.Errorf("expected env var to be loaded, got %q", got)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		if err := config.Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("placeholder client id should fail validation, got %v", err)
		}

		config.Credentials.Spotify.ClientID = "abc"
		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})
}
