// ABOUTME: Client configuration stored at XDG paths with .env and environment overrides
// ABOUTME: Holds API endpoint, OAuth provider, session backend, timing and logging settings
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// AppName names the XDG directories and the log file.
const AppName = "ringbook"

const (
	DefaultAPIBaseURL        = "http://localhost:8000/api"
	DefaultOAuthProvider     = "huggy"
	DefaultCallbackAddr      = "127.0.0.1:0"
	DefaultLoginTimeout      = 5 * time.Minute
	DefaultPopupPollInterval = time.Second
	DefaultSearchDebounce    = 500 * time.Millisecond
	DefaultRequestTimeout    = 15 * time.Second
	DefaultLogLevel          = "info"
)

// Session backends.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
)

// Config holds everything the client needs to reach the API and run the UI.
type Config struct {
	APIBaseURL        string        `json:"api_base_url"`
	OAuthProvider     string        `json:"oauth_provider"`
	SessionBackend    string        `json:"session_backend"`
	CallbackAddr      string        `json:"callback_addr"`
	LoginTimeout      time.Duration `json:"login_timeout,omitempty"`
	PopupPollInterval time.Duration `json:"popup_poll_interval,omitempty"`
	SearchDebounce    time.Duration `json:"search_debounce,omitempty"`
	RequestTimeout    time.Duration `json:"request_timeout,omitempty"`
	LogLevel          string        `json:"log_level"`
	LogFile           string        `json:"log_file,omitempty"`
}

// Default returns a config with every field populated.
func Default() *Config {
	return &Config{
		APIBaseURL:        DefaultAPIBaseURL,
		OAuthProvider:     DefaultOAuthProvider,
		SessionBackend:    BackendFile,
		CallbackAddr:      DefaultCallbackAddr,
		LoginTimeout:      DefaultLoginTimeout,
		PopupPollInterval: DefaultPopupPollInterval,
		SearchDebounce:    DefaultSearchDebounce,
		RequestTimeout:    DefaultRequestTimeout,
		LogLevel:          DefaultLogLevel,
		LogFile:           DefaultLogPath(),
	}
}

// Path returns the XDG-compliant config file location.
func Path() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.json")
}

// DataDir returns the XDG data directory used for session storage.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultLogPath returns the XDG state path for the log file.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, AppName, AppName+".log")
}

// Load reads the config at path (Path() when empty), loads .env from the working
// directory, and applies environment overrides. A missing file yields defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	// .env is optional
	_ = godotenv.Load()

	cfg := Default()

	f, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	default:
		defer func() { _ = f.Close() }()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides:
// - RINGBOOK_API_URL
// - RINGBOOK_OAUTH_PROVIDER
// - RINGBOOK_SESSION_BACKEND
// - RINGBOOK_CALLBACK_ADDR
// - RINGBOOK_LOGIN_TIMEOUT
// - RINGBOOK_LOG_LEVEL
// - RINGBOOK_LOG_FILE.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("RINGBOOK_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("RINGBOOK_OAUTH_PROVIDER"); v != "" {
		cfg.OAuthProvider = v
	}
	if v := os.Getenv("RINGBOOK_SESSION_BACKEND"); v != "" {
		cfg.SessionBackend = v
	}
	if v := os.Getenv("RINGBOOK_CALLBACK_ADDR"); v != "" {
		cfg.CallbackAddr = v
	}
	if v := os.Getenv("RINGBOOK_LOGIN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid RINGBOOK_LOGIN_TIMEOUT: %w", err)
		}
		cfg.LoginTimeout = d
	}
	if v := os.Getenv("RINGBOOK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("RINGBOOK_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	return nil
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.APIBaseURL == "" {
		c.APIBaseURL = d.APIBaseURL
	}
	if c.OAuthProvider == "" {
		c.OAuthProvider = d.OAuthProvider
	}
	if c.SessionBackend == "" {
		c.SessionBackend = d.SessionBackend
	}
	if c.CallbackAddr == "" {
		c.CallbackAddr = d.CallbackAddr
	}
	if c.LoginTimeout <= 0 {
		c.LoginTimeout = d.LoginTimeout
	}
	if c.PopupPollInterval <= 0 {
		c.PopupPollInterval = d.PopupPollInterval
	}
	if c.SearchDebounce <= 0 {
		c.SearchDebounce = d.SearchDebounce
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFile == "" {
		c.LogFile = d.LogFile
	}
}

// Validate checks the fields that cannot be defaulted.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api_base_url %q", c.APIBaseURL)
	}
	switch c.SessionBackend {
	case BackendFile, BackendBadger:
	default:
		return fmt.Errorf("unknown session_backend %q (want %s or %s)", c.SessionBackend, BackendFile, BackendBadger)
	}
	if strings.TrimSpace(c.OAuthProvider) == "" {
		return fmt.Errorf("oauth_provider is required")
	}
	return nil
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Config) BaseURL() string {
	return strings.TrimRight(c.APIBaseURL, "/")
}

// OAuthRedirectURL is the popup target: <base>/oauth/<provider>/redirect.
func (c *Config) OAuthRedirectURL() string {
	return fmt.Sprintf("%s/oauth/%s/redirect", c.BaseURL(), url.PathEscape(c.OAuthProvider))
}

// Save writes the config to path (Path() when empty) with restricted permissions.
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

type configAlias Config

// MarshalJSON writes durations as strings such as "5m0s".
func (c *Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		*configAlias
		LoginTimeout      string `json:"login_timeout,omitempty"`
		PopupPollInterval string `json:"popup_poll_interval,omitempty"`
		SearchDebounce    string `json:"search_debounce,omitempty"`
		RequestTimeout    string `json:"request_timeout,omitempty"`
	}{
		configAlias:       (*configAlias)(c),
		LoginTimeout:      formatDuration(c.LoginTimeout),
		PopupPollInterval: formatDuration(c.PopupPollInterval),
		SearchDebounce:    formatDuration(c.SearchDebounce),
		RequestTimeout:    formatDuration(c.RequestTimeout),
	})
}

// UnmarshalJSON reads durations as strings ("90s") or integer nanoseconds.
// Absent or null durations keep their current value.
func (c *Config) UnmarshalJSON(data []byte) error {
	aux := struct {
		*configAlias
		LoginTimeout      json.RawMessage `json:"login_timeout"`
		PopupPollInterval json.RawMessage `json:"popup_poll_interval"`
		SearchDebounce    json.RawMessage `json:"search_debounce"`
		RequestTimeout    json.RawMessage `json:"request_timeout"`
	}{configAlias: (*configAlias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	durations := []struct {
		name string
		raw  json.RawMessage
		dst  *time.Duration
	}{
		{"login_timeout", aux.LoginTimeout, &c.LoginTimeout},
		{"popup_poll_interval", aux.PopupPollInterval, &c.PopupPollInterval},
		{"search_debounce", aux.SearchDebounce, &c.SearchDebounce},
		{"request_timeout", aux.RequestTimeout, &c.RequestTimeout},
	}
	for _, d := range durations {
		if len(d.raw) == 0 || string(d.raw) == "null" {
			continue
		}
		v, err := parseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.dst = v
	}
	return nil
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

func parseDuration(raw json.RawMessage) (time.Duration, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return time.ParseDuration(strings.TrimSpace(s))
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("want a duration string like \"90s\", got %s", raw)
	}
	return time.Duration(n), nil
}
