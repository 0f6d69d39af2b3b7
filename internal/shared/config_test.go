package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "cratesync.db" {
			t.Errorf("expected database path cratesync.db, got %s", config.Database.Path)
		}

		if config.Storage.PlaylistsPath != "smart_playlists.json" {
			t.Errorf("expected playlists path smart_playlists.json, got %s", config.Storage.PlaylistsPath)
		}

		if !config.Storage.Watch {
			t.Error("expected file watching enabled by default")
		}

		if config.Remote.RateLimit != 5.0 {
			t.Errorf("expected rate limit 5.0, got %v", config.Remote.RateLimit)
		}

		if config.Remote.RedirectURI != "http://localhost:8080/callback" {
			t.Errorf("unexpected redirect URI %s", config.Remote.RedirectURI)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

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

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		content := `
[remote]
client_id = "cid"
client_secret = "secret"
rate_limit = 2.5

[database]
path = "/tmp/tags.db"

[storage]
playlists_path = "/tmp/playlists.json"
watch = false

[library]
local_files_dir = "/music"
`
		if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Remote.ClientID != "cid" || config.Remote.RateLimit != 2.5 {
			t.Errorf("unexpected remote config: %+v", config.Remote)
		}
		if config.Storage.Watch {
			t.Error("expected watch disabled")
		}
		if config.Library.LocalFilesDir != "/music" {
			t.Errorf("unexpected library dir %s", config.Library.LocalFilesDir)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("Environment Overrides", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		content := `
[remote]
client_id = "from-file"
client_secret = "from-file"
`
		if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		t.Setenv("CRATESYNC_CLIENT_ID", "from-env")
		t.Setenv("CRATESYNC_ACCESS_TOKEN", "token-from-env")

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Remote.ClientID != "from-env" {
			t.Errorf("expected env to win over file, got %s", config.Remote.ClientID)
		}
		if config.Remote.ClientSecret != "from-file" {
			t.Errorf("expected file value kept without env override, got %s", config.Remote.ClientSecret)
		}
		if config.Remote.AccessToken != "token-from-env" {
			t.Errorf("expected access token from env, got %s", config.Remote.AccessToken)
		}
	})
}
