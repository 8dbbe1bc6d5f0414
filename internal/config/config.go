// Package config handles the XDG configuration directory and the settings file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "taskmirror"

	// SettingsFile is the YAML settings filename.
	SettingsFile = "config.yaml"

	// OAuthClientFile is the Google OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored Google OAuth token filename.
	TokenFile = "token.json"
)

// Backend names accepted in the settings file.
const (
	BackendREST        = "rest"
	BackendGoogleTasks = "googletasks"
)

const (
	defaultEndpoint   = "http://localhost:5000"
	defaultDateLayout = "Jan 2, 2006"
	defaultModel      = "gpt-4o-mini"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	Settings Settings
}

// Settings is the content of config.yaml.
type Settings struct {
	// Backend selects the remote task store: "rest" or "googletasks".
	Backend string `yaml:"backend"`

	// Endpoint is the base URL of the REST task API.
	Endpoint string `yaml:"endpoint"`

	// Token is an optional bearer token for the REST task API.
	Token string `yaml:"token"`

	// List is the Google Tasks list ID. Empty means the default list.
	List string `yaml:"list"`

	// DateLayout is the Go time layout used for due dates on cards.
	DateLayout string `yaml:"date_layout"`

	// Timezone is an IANA zone name used to display due dates. Empty means local.
	Timezone string `yaml:"timezone"`

	// Width is the card rendering width in columns.
	Width int `yaml:"width"`

	Breakdown BreakdownSettings `yaml:"breakdown"`
}

// BreakdownSettings configures the chat model behind task breakdown.
type BreakdownSettings struct {
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultSettings returns the settings used when no file is present.
func DefaultSettings() Settings {
	return Settings{
		Backend:    BackendREST,
		Endpoint:   defaultEndpoint,
		DateLayout: defaultDateLayout,
		Width:      60,
		Breakdown: BreakdownSettings{
			Model:   defaultModel,
			Timeout: 60 * time.Second,
		},
	}
}

// New creates a new Config with the default or specified config directory
// and loads config.yaml from it if present.
// If configDir is empty, uses XDG_CONFIG_HOME/taskmirror or $HOME/.config/taskmirror.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir}
	settings, err := LoadSettings(cfg.SettingsPath())
	if err != nil {
		return nil, err
	}
	cfg.Settings = settings
	return cfg, nil
}

// LoadSettings reads a settings file over DefaultSettings and applies
// environment overrides. A missing file is not an error.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Settings{}, fmt.Errorf("failed to read %s: %w", SettingsFile, err)
	default:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("invalid %s: %w", SettingsFile, err)
		}
	}

	if v := os.Getenv("TASKMIRROR_BACKEND"); v != "" {
		s.Backend = v
	}
	if v := os.Getenv("TASKMIRROR_ENDPOINT"); v != "" {
		s.Endpoint = v
	}
	if v := os.Getenv("TASKMIRROR_TOKEN"); v != "" {
		s.Token = v
	}
	if s.Breakdown.APIKey == "" {
		s.Breakdown.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the settings for consistency.
func (s Settings) Validate() error {
	switch s.Backend {
	case BackendREST:
		u, err := url.Parse(s.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid endpoint %q: must be an absolute URL", s.Endpoint)
		}
	case BackendGoogleTasks:
	default:
		return fmt.Errorf("invalid backend %q: must be one of rest, googletasks", s.Backend)
	}
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
		}
	}
	if s.Width < 0 {
		return fmt.Errorf("invalid width %d", s.Width)
	}
	return nil
}

// Location returns the zone due dates are displayed in.
func (s Settings) Location() *time.Location {
	if s.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// LogLevel returns the slog level implied by the Debug flag.
func (c *Config) LogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// SettingsPath returns the path to config.yaml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}

// NeedsGoogleAuth reports whether the configured backend uses Google OAuth files.
func (c *Config) NeedsGoogleAuth() bool {
	return c.Settings.Backend == BackendGoogleTasks
}
