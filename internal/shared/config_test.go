package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Credentials.Spotify.RedirectURI != "http://localhost:5000/callback" {
			t.Errorf("expected redirect URI http://localhost:5000/callback, got %s", config.Credentials.Spotify.RedirectURI)
		}

		if config.Export.PageSize != 50 {
			t.Errorf("expected page size 50, got %d", config.Export.PageSize)
		}

		if config.Provider.TokenURL != "https://accounts.spotify.com/api/token" {
			t.Errorf("unexpected token URL %s", config.Provider.TokenURL)
		}

		if len(config.Credentials.Spotify.Scopes) != 2 {
			t.Errorf("expected 2 default scopes, got %v", config.Credentials.Spotify.Scopes)
		}

		if config.Credentials.Spotify.ClientID != "" {
			t.Errorf("expected empty default client_id, got %s", config.Credentials.Spotify.ClientID)
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
		if config.Export.OutputDir != defaultConfig.Export.OutputDir {
			t.Errorf("created config output dir doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://127.0.0.1:8888/auth/done"

[export]
output_dir = "/tmp/playlists"
workers = 4
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.Export.Workers != 4 {
			t.Errorf("expected 4 workers, got %d", config.Export.Workers)
		}

		if config.Export.PageSize != 50 {
			t.Errorf("page size should fall back to default 50, got %d", config.Export.PageSize)
		}

		addr, err := config.Credentials.Spotify.CallbackAddr()
		if err != nil {
			t.Fatalf("CallbackAddr() error = %v", err)
		}
		if addr != "127.0.0.1:8888" {
			t.Errorf("expected callback addr 127.0.0.1:8888, got %s", addr)
		}

		if got := config.Credentials.Spotify.CallbackPath(); got != "/auth/done" {
			t.Errorf("expected callback path /auth/done, got %s", got)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("SaveConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		config.Credentials.Spotify.ClientID = "saved"

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("SaveConfig() error = %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if loaded.Credentials.Spotify.ClientID != "saved" {
			t.Errorf("expected client_id saved, got %s", loaded.Credentials.Spotify.ClientID)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
		wantMsg []string
	}{
		{
			name: "valid",
			mutate: func(c *Config) {
				c.Credentials.Spotify.ClientID = "id"
				c.Credentials.Spotify.ClientSecret = "secret"
			},
		},
		{
			name:    "missing both credentials",
			mutate:  func(c *Config) {},
			wantErr: ErrMissingCredentials,
			wantMsg: []string{"client_id", "client_secret", EnvClientID, EnvClientSecret},
		},
		{
			name: "missing secret",
			mutate: func(c *Config) {
				c.Credentials.Spotify.ClientID = "id"
			},
			wantErr: ErrMissingCredentials,
			wantMsg: []string{"client_secret"},
		},
		{
			name: "redirect without host",
			mutate: func(c *Config) {
				c.Credentials.Spotify.ClientID = "id"
				c.Credentials.Spotify.ClientSecret = "secret"
				c.Credentials.Spotify.RedirectURI = "/callback"
			},
			wantErr: ErrInvalidConfig,
		},
		{
			name: "empty output dir",
			mutate: func(c *Config) {
				c.Credentials.Spotify.ClientID = "id"
				c.Credentials.Spotify.ClientSecret = "secret"
				c.Export.OutputDir = ""
			},
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() unexpected error = %v", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			for _, msg := range tt.wantMsg {
				if !strings.Contains(err.Error(), msg) {
					t.Errorf("error %q should mention %q", err.Error(), msg)
				}
			}
		})
	}
}

func TestConfigApplyEnv(t *testing.T) {
	t.Run("Environment Overrides File", func(t *testing.T) {
		t.Setenv(EnvClientID, "env_id")
		t.Setenv(EnvClientSecret, "env_secret")
		t.Setenv(EnvUserID, "env_user")

		config := DefaultConfig()
		config.Credentials.Spotify.ClientID = "file_id"

		if err := config.ApplyEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("ApplyEnv() error = %v", err)
		}

		if config.Credentials.Spotify.ClientID != "env_id" {
			t.Errorf("expected env_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.ClientSecret != "env_secret" {
			t.Errorf("expected env_secret, got %s", config.Credentials.Spotify.ClientSecret)
		}
		if config.Credentials.Spotify.UserID != "env_user" {
			t.Errorf("expected env_user, got %s", config.Credentials.Spotify.UserID)
		}
	})

	t.Run("Dotenv File", func(t *testing.T) {
		for _, key := range []string{EnvClientID, EnvClientSecret, EnvUserID} {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}

		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("APP_SECRET=dotenv_secret\n"), 0600); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}

		config := DefaultConfig()
		if err := config.ApplyEnv(envPath); err != nil {
			t.Fatalf("ApplyEnv() error = %v", err)
		}

		if config.Credentials.Spotify.ClientSecret != "dotenv_secret" {
			t.Errorf("expected dotenv_secret, got %s", config.Credentials.Spotify.ClientSecret)
		}
	})
}

func TestCallbackAddr(t *testing.T) {
	tests := []struct {
		redirect string
		want     string
		wantErr  bool
	}{
		{redirect: "http://localhost:5000/callback", want: "localhost:5000"},
		{redirect: "http://localhost/callback", want: "localhost:80"},
		{redirect: "https://example.com/cb", want: "example.com:443"},
		{redirect: "callback", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.redirect, func(t *testing.T) {
			got, err := SpotifyConfig{RedirectURI: tt.redirect}.CallbackAddr()
			if (err != nil) != tt.wantErr {
				t.Fatalf("CallbackAddr() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("CallbackAddr() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRequestTimeout(t *testing.T) {
	if got := (ExportConfig{}).RequestTimeout(); got != 30*time.Second {
		t.Errorf("default RequestTimeout() = %v, want 30s", got)
	}
	if got := (ExportConfig{RequestTimeoutSeconds: 5}).RequestTimeout(); got != 5*time.Second {
		t.Errorf("RequestTimeout() = %v, want 5s", got)
	}
}
