package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.API.URL != "https://graphql.anilist.co" {
			t.Errorf("expected api url https://graphql.anilist.co, got %s", config.API.URL)
		}

		if config.API.RequestsPerMinute != 90 {
			t.Errorf("expected 90 requests per minute, got %d", config.API.RequestsPerMinute)
		}

		if config.Auth.ClientID != "your_anilist_client_id" {
			t.Errorf("expected auth client_id your_anilist_client_id, got %s", config.Auth.ClientID)
		}

		if config.Auth.CallbackPort != 3000 {
			t.Errorf("expected callback port 3000, got %d", config.Auth.CallbackPort)
		}

		if config.Sync.DeleteUnmapped {
			t.Error("delete_unmapped should default to false")
		}

		if len(config.Sync.StatusMap) != 6 {
			t.Errorf("expected identity status map over 6 statuses, got %d entries", len(config.Sync.StatusMap))
		}

		for _, status := range []string{"CURRENT", "COMPLETED", "PAUSED", "DROPPED", "PLANNING", "REPEATING"} {
			if config.Sync.StatusMap[status] != status {
				t.Errorf("expected status map %s -> %s, got %s", status, status, config.Sync.StatusMap[status])
			}
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
		if config.API.URL != defaultConfig.API.URL {
			t.Errorf("created config api url doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[api]
url = "https://example.test/graphql"
requests_per_minute = 30

[auth]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:9999/callback"
token_path = "/tmp/tokens.json"
callback_port = 9999

[cache]
dir = "/tmp/anisync-cache"
user_id_max_age_days = 7

[sync]
delete_unmapped = true
force = true
protected = ["PAUSED", "DROPPED"]
audit_path = "modifications.txt"

[sync.status_map]
CURRENT = "CURRENT"
COMPLETED = "CURRENT"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.URL != "https://example.test/graphql" {
			t.Errorf("expected api url https://example.test/graphql, got %s", config.API.URL)
		}

		if config.Auth.CallbackPort != 9999 {
			t.Errorf("expected callback port 9999, got %d", config.Auth.CallbackPort)
		}

		if !config.Sync.DeleteUnmapped {
			t.Error("expected delete_unmapped true")
		}

		if len(config.Sync.Protected) != 2 || config.Sync.Protected[0] != "PAUSED" {
			t.Errorf("expected protected [PAUSED DROPPED], got %v", config.Sync.Protected)
		}

		if config.Sync.StatusMap["COMPLETED"] != "CURRENT" {
			t.Errorf("expected status map COMPLETED -> CURRENT, got %s", config.Sync.StatusMap["COMPLETED"])
		}
	})
}
