package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Remote   RemoteConfig   `toml:"remote"`
	Database DatabaseConfig `toml:"database"`
	Storage  StorageConfig  `toml:"storage"`
	Library  LibraryConfig  `toml:"library"`
}

// RemoteConfig contains credentials and limits for the remote playlist API.
type RemoteConfig struct {
	ClientID     string  `toml:"client_id"`
	ClientSecret string  `toml:"client_secret"`
	RedirectURI  string  `toml:"redirect_uri"`
	AccessToken  string  `toml:"access_token"`
	RateLimit    float64 `toml:"rate_limit"`
}

// DatabaseConfig contains tag database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// StorageConfig locates the smart playlist definition store.
type StorageConfig struct {
	PlaylistsPath string `toml:"playlists_path"`
	Watch         bool   `toml:"watch"`
}

// LibraryConfig contains optional local music library settings.
type LibraryConfig struct {
	LocalFilesDir string `toml:"local_files_dir"`
}

// LoadConfig reads and parses a TOML configuration file from the specified
// path, then applies .env / environment variable overrides for credentials.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnv()
	return &config, nil
}

// DefaultConfig returns a Config with defaults loaded from the embedded
// example config, with environment overrides applied.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the
// embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnv overlays credential values from a .env file (if present) and the
// process environment. Environment values win over file values so secrets
// can stay out of config.toml.
func (c *Config) applyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("CRATESYNC_CLIENT_ID"); v != "" {
		c.Remote.ClientID = v
	}
	if v := os.Getenv("CRATESYNC_CLIENT_SECRET"); v != "" {
		c.Remote.ClientSecret = v
	}
	if v := os.Getenv("CRATESYNC_ACCESS_TOKEN"); v != "" {
		c.Remote.AccessToken = v
	}
}
