package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API   APIConfig   `toml:"api"`
	Auth  AuthConfig  `toml:"auth"`
	Cache CacheConfig `toml:"cache"`
	Sync  SyncConfig  `toml:"sync"`
}

// APIConfig contains AniList GraphQL endpoint settings.
type APIConfig struct {
	URL               string `toml:"url"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

// AuthConfig contains OAuth client credentials and token storage settings.
type AuthConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	TokenPath    string `toml:"token_path"`
	CallbackPort int    `toml:"callback_port"`
}

// CacheConfig contains result cache settings.
type CacheConfig struct {
	Dir              string `toml:"dir"`
	UserIDMaxAgeDays int    `toml:"user_id_max_age_days"`
}

// SyncConfig contains default mirror policy settings, overridable per run via flags.
type SyncConfig struct {
	DeleteUnmapped bool              `toml:"delete_unmapped"`
	Force          bool              `toml:"force"`
	Protected      []string          `toml:"protected"`
	AuditPath      string            `toml:"audit_path"`
	StatusMap      map[string]string `toml:"status_map"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
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
//
// Refuses to overwrite an existing file.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: config file already exists at %s", ErrInvalidArgument, path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
