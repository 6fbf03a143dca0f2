// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/spotex/internal/models"
	"github.com/desertthunder/spotex/internal/shared"
)

// MockExchanger is a test double for the callback's token exchanger.
type MockExchanger struct {
	Token models.AccessToken
	Err   error

	mu    sync.Mutex
	codes []string
}

func (m *MockExchanger) Exchange(ctx context.Context, code string) (models.AccessToken, error) {
	m.mu.Lock()
	m.codes = append(m.codes, code)
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	return m.Token, nil
}

// Calls returns the codes passed to Exchange, in order.
func (m *MockExchanger) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.codes...)
}

// NewTestConfig returns a config with credentials set and provider endpoints pointed at baseURL.
//
// Rate limiting and retries are disabled.
func NewTestConfig(baseURL, outputDir string) *shared.Config {
	config := shared.DefaultConfig()
	config.Credentials.Spotify.ClientID = "test_client_id"
	config.Credentials.Spotify.ClientSecret = "test_client_secret"
	config.Credentials.Spotify.RedirectURI = "http://localhost:5000/callback"
	config.Provider.AuthURL = baseURL + "/authorize"
	config.Provider.TokenURL = baseURL + "/api/token"
	config.Provider.APIURL = baseURL
	config.Export.OutputDir = outputDir
	config.Export.RateLimit = 0
	config.Export.Retries = 0
	config.Export.RequestTimeoutSeconds = 5
	config.Database.Path = ":memory:"
	return config
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
