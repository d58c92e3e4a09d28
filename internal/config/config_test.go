package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(t.TempDir())
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Dump != "playlists" {
		t.Errorf("expected dump %q, got %q", "playlists", cfg.Dump)
	}
	if cfg.Format != "txt" {
		t.Errorf("expected format %q, got %q", "txt", cfg.Format)
	}
	if cfg.Spotify.ClientID != DefaultClientID {
		t.Errorf("expected client id %q, got %q", DefaultClientID, cfg.Spotify.ClientID)
	}
	if cfg.Spotify.CallbackPort != 43019 {
		t.Errorf("expected callback port 43019, got %d", cfg.Spotify.CallbackPort)
	}
	if cfg.Spotify.APIBaseURL != "https://api.spotify.com/v1/" {
		t.Errorf("unexpected API base URL %q", cfg.Spotify.APIBaseURL)
	}

	wantScopes := []string{"playlist-read-private", "playlist-read-collaborative", "user-library-read"}
	if !reflect.DeepEqual(cfg.Spotify.Scopes, wantScopes) {
		t.Errorf("expected scopes %v, got %v", wantScopes, cfg.Spotify.Scopes)
	}

	if cfg.Retry.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", cfg.Retry.Attempts)
	}
	if cfg.Retry.Delay != 2*time.Second {
		t.Errorf("expected retry delay 2s, got %v", cfg.Retry.Delay)
	}
	if cfg.ProgressInterval != 15*time.Second {
		t.Errorf("expected progress interval 15s, got %v", cfg.ProgressInterval)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	content := `dump: liked,playlists
format: json
spotify:
  client_id: my-client
  callback_port: 8888
  scopes:
    - user-library-read
retry:
  attempts: 5
  delay: 500ms
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := load(dir)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Dump != "liked,playlists" {
		t.Errorf("expected dump %q, got %q", "liked,playlists", cfg.Dump)
	}
	if cfg.Format != "json" {
		t.Errorf("expected format json, got %q", cfg.Format)
	}
	if cfg.Spotify.ClientID != "my-client" {
		t.Errorf("expected client id my-client, got %q", cfg.Spotify.ClientID)
	}
	if cfg.Spotify.CallbackPort != 8888 {
		t.Errorf("expected callback port 8888, got %d", cfg.Spotify.CallbackPort)
	}
	if !reflect.DeepEqual(cfg.Spotify.Scopes, []string{"user-library-read"}) {
		t.Errorf("unexpected scopes %v", cfg.Spotify.Scopes)
	}
	if cfg.Retry.Attempts != 5 {
		t.Errorf("expected 5 attempts, got %d", cfg.Retry.Attempts)
	}
	if cfg.Retry.Delay != 500*time.Millisecond {
		t.Errorf("expected retry delay 500ms, got %v", cfg.Retry.Delay)
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("SPOTIFY_BACKUP_FORMAT", "sqlite")
	t.Setenv("SPOTIFY_BACKUP_SPOTIFY_CLIENT_ID", "env-client")
	t.Setenv("SPOTIFY_BACKUP_RETRY_ATTEMPTS", "7")

	cfg, err := load(t.TempDir())
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Format != "sqlite" {
		t.Errorf("expected format sqlite, got %q", cfg.Format)
	}
	if cfg.Spotify.ClientID != "env-client" {
		t.Errorf("expected client id env-client, got %q", cfg.Spotify.ClientID)
	}
	if cfg.Retry.Attempts != 7 {
		t.Errorf("expected 7 attempts, got %d", cfg.Retry.Attempts)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		errContains string
	}{
		{
			name:        "port out of range",
			content:     "spotify:\n  callback_port: 70000\n",
			errContains: "callback_port",
		},
		{
			name:        "zero attempts",
			content:     "retry:\n  attempts: 0\n",
			errContains: "retry.attempts",
		},
		{
			name:        "zero retry delay",
			content:     "retry:\n  delay: 0s\n",
			errContains: "retry.delay",
		},
		{
			name:        "negative retry delay",
			content:     "retry:\n  delay: -1s\n",
			errContains: "retry.delay",
		},
		{
			name:        "malformed yaml",
			content:     "dump: [unterminated\n",
			errContains: "failed to read config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			_, err := load(dir)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("expected error to contain %q, got %q", tt.errContains, err.Error())
			}
		})
	}
}
