package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override credentials from the config file.
const (
	EnvClientID     = "APP_ID"
	EnvClientSecret = "APP_SECRET"
	EnvUserID       = "USER_ID"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Provider    ProviderConfig    `toml:"provider"`
	Export      ExportConfig      `toml:"export"`
	Database    DatabaseConfig    `toml:"database"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify application credentials and the OAuth redirect.
type SpotifyConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	UserID       string   `toml:"user_id"`
	RedirectURI  string   `toml:"redirect_uri"`
	Scopes       []string `toml:"scopes"`
}

// ProviderConfig contains the provider endpoints. Tests point these at local servers.
type ProviderConfig struct {
	AuthURL  string `toml:"auth_url"`
	TokenURL string `toml:"token_url"`
	APIURL   string `toml:"api_url"`
}

// ExportConfig controls the fetch-and-persist pipeline.
type ExportConfig struct {
	OutputDir             string  `toml:"output_dir"`
	PageSize              int     `toml:"page_size"`
	Workers               int     `toml:"workers"`
	RateLimit             float64 `toml:"rate_limit"`
	RequestTimeoutSeconds int     `toml:"request_timeout_seconds"`
	Retries               int     `toml:"retries"`
}

// DatabaseConfig contains run history database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// RequestTimeout returns the per-request timeout as a [time.Duration].
func (e ExportConfig) RequestTimeout() time.Duration {
	if e.RequestTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(e.RequestTimeoutSeconds) * time.Second
}

// CallbackAddr returns the host:port the local callback listener binds to, parsed from the redirect URI.
func (s SpotifyConfig) CallbackAddr() (string, error) {
	u, err := url.Parse(s.RedirectURI)
	if err != nil {
		return "", fmt.Errorf("%w: redirect_uri: %v", ErrInvalidConfig, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: redirect_uri %q has no host", ErrInvalidConfig, s.RedirectURI)
	}
	if u.Port() != "" {
		return u.Host, nil
	}

	port := "80"
	if u.Scheme == "https" {
		port = "443"
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}

// CallbackPath returns the path component of the redirect URI.
func (s SpotifyConfig) CallbackPath() string {
	u, err := url.Parse(s.RedirectURI)
	if err != nil || u.Path == "" {
		return "/callback"
	}
	return u.Path
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file fall back to the embedded defaults.
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

// ApplyEnv overlays credentials from a .env file (when present) and the process environment.
//
// Environment values win over the config file.
func (c *Config) ApplyEnv(envFiles ...string) error {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("%w: failed to load %s: %v", ErrInvalidConfig, f, err)
		}
	}

	if v := os.Getenv(EnvClientID); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv(EnvClientSecret); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv(EnvUserID); v != "" {
		c.Credentials.Spotify.UserID = v
	}
	return nil
}

// Validate checks that credentials are present and the redirect URI is usable.
//
// Every missing credential is named in the returned error.
func (c *Config) Validate() error {
	var missing []string
	if c.Credentials.Spotify.ClientID == "" {
		missing = append(missing, fmt.Sprintf("client_id (or %s)", EnvClientID))
	}
	if c.Credentials.Spotify.ClientSecret == "" {
		missing = append(missing, fmt.Sprintf("client_secret (or %s)", EnvClientSecret))
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s must be set in config.toml or the environment",
			ErrMissingCredentials, strings.Join(missing, ", "))
	}

	if _, err := c.Credentials.Spotify.CallbackAddr(); err != nil {
		return err
	}
	if c.Export.OutputDir == "" {
		return fmt.Errorf("%w: export.output_dir is empty", ErrInvalidConfig)
	}
	return nil
}

// OutputDir returns the export directory with a leading ~ expanded.
func (c *Config) OutputDir() string {
	return ExpandHome(c.Export.OutputDir)
}

// DatabasePath returns the history database path with a leading ~ expanded.
func (c *Config) DatabasePath() string {
	return ExpandHome(c.Database.Path)
}

// ExpandHome replaces a leading "~" with the current user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
