package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./rango.db" {
			t.Errorf("expected database path ./rango.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8000 {
			t.Errorf("expected server port 8000, got %d", config.Server.Port)
		}

		if config.Site.TopN != 5 {
			t.Errorf("expected top_n 5, got %d", config.Site.TopN)
		}

		if config.Session.Name != "rango_session" {
			t.Errorf("expected session name rango_session, got %s", config.Session.Name)
		}

		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("default config must be rejected for its example secret, got %v", err)
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

		if config.Session.Secret == DefaultConfig().Session.Secret {
			t.Error("created config must not keep the example secret")
		}
		if err := config.Validate(); err != nil {
			t.Errorf("created config should be valid: %v", err)
		}

		other := filepath.Join(t.TempDir(), "config.toml")
		if err := CreateConfigFile(other); err != nil {
			t.Fatalf("failed to create second config file: %v", err)
		}
		otherConfig, err := LoadConfig(other)
		if err != nil {
			t.Fatalf("failed to load second config: %v", err)
		}
		if otherConfig.Session.Secret == config.Session.Secret {
			t.Error("each config file should get its own secret")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig overlays defaults", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 9000

[site]
top_n = 10
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
		if config.Server.Addr() != "0.0.0.0:9000" {
			t.Errorf("expected addr 0.0.0.0:9000, got %s", config.Server.Addr())
		}
		if config.Site.TopN != 10 {
			t.Errorf("expected top_n 10, got %d", config.Site.TopN)
		}
		if config.Session.Name != "rango_session" {
			t.Errorf("missing keys should keep defaults, got session name %q", config.Session.Name)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(*Config)
		}{
			{name: "empty database path", mutate: func(c *Config) { c.Database.Path = "" }},
			{name: "port out of range", mutate: func(c *Config) { c.Server.Port = 70000 }},
			{name: "short secret", mutate: func(c *Config) { c.Session.Secret = "short" }},
			{name: "example secret", mutate: func(c *Config) { c.Session.Secret = DefaultConfig().Session.Secret }},
			{name: "zero top n", mutate: func(c *Config) { c.Site.TopN = 0 }},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				config.Session.Secret = strings.Repeat("s", 32)
				if err := config.Validate(); err != nil {
					t.Fatalf("config with its own secret should be valid: %v", err)
				}

				tt.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})
}
