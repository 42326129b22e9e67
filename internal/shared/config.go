package shared

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/gorilla/securecookie"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Session  SessionConfig  `toml:"session"`
	Auth     AuthConfig     `toml:"auth"`
	Site     SiteConfig     `toml:"site"`
	Logging  LoggingConfig  `toml:"logging"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ShutdownTimeout int    `toml:"shutdown_timeout"` // seconds
}

// SessionConfig contains cookie session settings.
type SessionConfig struct {
	Name   string `toml:"name"`
	Secret string `toml:"secret"`
	MaxAge int    `toml:"max_age"` // seconds
	Secure bool   `toml:"secure"`
}

// AuthConfig contains password hashing and login throttling settings.
type AuthConfig struct {
	BcryptCost      int `toml:"bcrypt_cost"`
	LoginsPerMinute int `toml:"logins_per_minute"`
	LoginBurst      int `toml:"login_burst"`
}

// SiteConfig contains content settings for the rendered pages.
type SiteConfig struct {
	Title        string `toml:"title"`
	TopN         int    `toml:"top_n"`
	BoldMessage  string `toml:"bold_message"`
	AboutMessage string `toml:"about_message"`
}

// LoggingConfig contains log output settings.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Validate reports settings that would prevent the server from starting.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty", ErrInvalidConfig)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("%w: session.secret must be at least 32 bytes", ErrInvalidConfig)
	}
	if c.Session.Secret == exampleSecret() {
		return fmt.Errorf("%w: session.secret is the published example; run `rango setup config` or set your own", ErrInvalidConfig)
	}
	if c.Site.TopN <= 0 {
		return fmt.Errorf("%w: site.top_n must be positive", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

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

func exampleSecret() string {
	return DefaultConfig().Session.Secret
}

// GenerateSecret returns a random, hex encoded session secret.
func GenerateSecret() (string, error) {
	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		return "", fmt.Errorf("failed to generate session secret")
	}
	return hex.EncodeToString(key), nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
//
// The example session secret is replaced with a freshly generated one.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	secret, err := GenerateSecret()
	if err != nil {
		return err
	}
	example := []byte(strconv.Quote(exampleSecret()))
	data := bytes.Replace(exampleConf, example, []byte(strconv.Quote(secret)), 1)

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
