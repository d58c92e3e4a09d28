package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jfmyers9/spotify-backup/pkg/spotify"
	"github.com/spf13/viper"
)

// DefaultClientID is the Spotify application registered for
// http://127.0.0.1:43019/redirect.
const DefaultClientID = "5c098bcc800e45d49e476265bc9b6934"

// Config holds application configuration
type Config struct {
	// What to export: "playlists", "liked", or both comma separated
	// Default: "playlists"
	Dump string

	// Output format: json, txt, table or sqlite
	// Default: "txt"
	Format string

	// Log level (debug, info, warn, error)
	LogLevel string

	// Minimum time between "Loaded n/m items" messages
	ProgressInterval time.Duration

	// Spotify API settings
	Spotify SpotifyConfig

	// Request retry policy
	Retry RetryConfig
}

// SpotifyConfig holds Spotify specific configuration
type SpotifyConfig struct {
	ClientID     string
	Scopes       []string
	CallbackPort int
	APIBaseURL   string
	AuthURL      string
}

// RetryConfig holds the fixed retry policy for API requests
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	return load(getConfigDir())
}

func load(configDir string) (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	// Set defaults
	v.SetDefault("dump", "playlists")
	v.SetDefault("format", "txt")
	v.SetDefault("log_level", "info")
	v.SetDefault("progress_interval", spotify.DefaultProgressInterval)
	v.SetDefault("spotify.client_id", DefaultClientID)
	v.SetDefault("spotify.scopes", spotify.DefaultScopes)
	v.SetDefault("spotify.callback_port", spotify.DefaultCallbackPort)
	v.SetDefault("spotify.api_base_url", spotify.DefaultBaseURL)
	v.SetDefault("spotify.auth_url", spotify.DefaultAuthURL)
	v.SetDefault("retry.attempts", spotify.DefaultMaxAttempts)
	v.SetDefault("retry.delay", spotify.DefaultRetryDelay)

	// Read config file (optional - don't fail if missing)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Read from environment variables, e.g. SPOTIFY_BACKUP_SPOTIFY_CLIENT_ID
	v.SetEnvPrefix("SPOTIFY_BACKUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map config to struct
	cfg := &Config{
		Dump:             v.GetString("dump"),
		Format:           v.GetString("format"),
		LogLevel:         v.GetString("log_level"),
		ProgressInterval: v.GetDuration("progress_interval"),
		Spotify: SpotifyConfig{
			ClientID:     v.GetString("spotify.client_id"),
			Scopes:       v.GetStringSlice("spotify.scopes"),
			CallbackPort: v.GetInt("spotify.callback_port"),
			APIBaseURL:   v.GetString("spotify.api_base_url"),
			AuthURL:      v.GetString("spotify.auth_url"),
		},
		Retry: RetryConfig{
			Attempts: v.GetInt("retry.attempts"),
			Delay:    v.GetDuration("retry.delay"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run
func (c *Config) Validate() error {
	if c.Spotify.ClientID == "" {
		return fmt.Errorf("spotify.client_id must not be empty")
	}
	if c.Spotify.CallbackPort <= 0 || c.Spotify.CallbackPort > 65535 {
		return fmt.Errorf("spotify.callback_port out of range: %d", c.Spotify.CallbackPort)
	}
	if c.Retry.Attempts <= 0 {
		return fmt.Errorf("retry.attempts must be positive, got %d", c.Retry.Attempts)
	}
	if c.Retry.Delay <= 0 {
		return fmt.Errorf("retry.delay must be positive, got %v", c.Retry.Delay)
	}
	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(homeDir, ".config", "spotify-backup")
}
