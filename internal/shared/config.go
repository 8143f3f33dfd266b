package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvPrefix prefixes every environment variable that overrides a config value.
const EnvPrefix = "SPOTUNISIA_"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Catalog     CatalogConfig     `toml:"catalog"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Fallback    FallbackConfig    `toml:"fallback"`
	Player      PlayerConfig      `toml:"player"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains the implicit-grant client registration.
type SpotifyConfig struct {
	ClientID    string `toml:"client_id"`
	RedirectURI string `toml:"redirect_uri"`
}

// CatalogConfig points the catalog gateway at its endpoints.
type CatalogConfig struct {
	BaseURL string `toml:"base_url"`
	AuthURL string `toml:"auth_url"`
	Country string `toml:"country"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the redirect capture listener settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// FallbackConfig configures the secondary audio source lookup.
type FallbackConfig struct {
	RelayURL          string  `toml:"relay_url"`
	SearchURL         string  `toml:"search_url"`
	StreamURL         string  `toml:"stream_url"`
	WatchURL          string  `toml:"watch_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
}

// PlayerConfig configures the external playback process.
type PlayerConfig struct {
	Command     string   `toml:"command"`
	Args        []string `toml:"args"`
	Volume      float64  `toml:"volume"`
	DownloadDir string   `toml:"download_dir"`
}

// LogConfig configures the rotating file log used while the TUI owns the terminal.
type LogConfig struct {
	Level      string `toml:"level"`
	Path       string `toml:"path"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their embedded defaults. Environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrInvalidConfig, err)
	}

	config.ApplyEnv()
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

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv reads .env style files into the process environment. Missing files are ignored.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides config values with SPOTUNISIA_* environment variables.
func (c *Config) ApplyEnv() {
	setString(&c.Credentials.Spotify.ClientID, "CLIENT_ID")
	setString(&c.Credentials.Spotify.RedirectURI, "REDIRECT_URI")
	setString(&c.Catalog.BaseURL, "CATALOG_URL")
	setString(&c.Database.Path, "DATABASE_PATH")
	setString(&c.Fallback.StreamURL, "STREAM_URL")
	setString(&c.Fallback.RelayURL, "RELAY_URL")
	setString(&c.Player.Command, "PLAYER_COMMAND")
	setString(&c.Player.DownloadDir, "DOWNLOAD_DIR")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Path, "LOG_PATH")

	if v, ok := lookupEnv("SERVER_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v, ok := lookupEnv("VOLUME"); ok {
		if vol, err := strconv.ParseFloat(v, 64); err == nil {
			c.Player.Volume = vol
		}
	}
}

// Validate reports configuration that would make authentication impossible.
func (c *Config) Validate() error {
	id := c.Credentials.Spotify.ClientID
	if id == "" || id == "your_spotify_client_id" {
		return fmt.Errorf("%w: credentials.spotify.client_id", ErrMissingCredentials)
	}
	if c.Credentials.Spotify.RedirectURI == "" {
		return fmt.Errorf("%w: credentials.spotify.redirect_uri", ErrMissingConfig)
	}
	return nil
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func setString(dst *string, name string) {
	if v, ok := lookupEnv(name); ok {
		*dst = v
	}
}
