package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskmirror/internal/config"
)

func writeSettings(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, config.SettingsFile), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"TASKMIRROR_BACKEND", "TASKMIRROR_ENDPOINT", "TASKMIRROR_TOKEN", "OPENAI_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestNew_DefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	cfg, err := config.New(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := cfg.Settings
	if s.Backend != config.BackendREST {
		t.Errorf("expected rest backend, got %q", s.Backend)
	}
	if s.Endpoint != "http://localhost:5000" {
		t.Errorf("unexpected endpoint %q", s.Endpoint)
	}
	if s.DateLayout != "Jan 2, 2006" {
		t.Errorf("unexpected date layout %q", s.DateLayout)
	}
	if s.Breakdown.Timeout != 60*time.Second {
		t.Errorf("unexpected breakdown timeout %v", s.Breakdown.Timeout)
	}
}

func TestNew_ReadsSettingsFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeSettings(t, dir, `
backend: googletasks
list: abc123
date_layout: "2006-01-02"
timezone: UTC
width: 72
breakdown:
  model: gpt-4o
  timeout: 30s
`)

	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := cfg.Settings
	if s.Backend != config.BackendGoogleTasks || !cfg.NeedsGoogleAuth() {
		t.Errorf("expected googletasks backend, got %q", s.Backend)
	}
	if s.List != "abc123" {
		t.Errorf("expected list abc123, got %q", s.List)
	}
	if s.Width != 72 {
		t.Errorf("expected width 72, got %d", s.Width)
	}
	if s.Breakdown.Model != "gpt-4o" || s.Breakdown.Timeout != 30*time.Second {
		t.Errorf("unexpected breakdown settings %+v", s.Breakdown)
	}
	if s.Location() != time.UTC {
		t.Errorf("expected UTC location, got %v", s.Location())
	}
	// Unset keys keep their defaults.
	if s.Endpoint != "http://localhost:5000" {
		t.Errorf("expected default endpoint, got %q", s.Endpoint)
	}
}

func TestNew_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TASKMIRROR_ENDPOINT", "https://tasks.example.com")
	t.Setenv("TASKMIRROR_TOKEN", "secret")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := config.New(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Settings.Endpoint != "https://tasks.example.com" {
		t.Errorf("unexpected endpoint %q", cfg.Settings.Endpoint)
	}
	if cfg.Settings.Token != "secret" {
		t.Errorf("unexpected token %q", cfg.Settings.Token)
	}
	if cfg.Settings.Breakdown.APIKey != "sk-test" {
		t.Errorf("unexpected api key %q", cfg.Settings.Breakdown.APIKey)
	}
}

func TestNew_InvalidSettings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "backend: [", "invalid config.yaml"},
		{"bad backend", "backend: sqlite", "invalid backend"},
		{"relative endpoint", "endpoint: /api", "invalid endpoint"},
		{"bad timezone", "timezone: Mars/Olympus", "invalid timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			dir := t.TempDir()
			writeSettings(t, dir, tt.content)

			_, err := config.New(dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := config.DefaultConfigDir(); got != filepath.Join("/tmp/xdg", "taskmirror") {
		t.Errorf("unexpected dir %q", got)
	}
}

func TestTokenFiles(t *testing.T) {
	clearEnv(t)
	cfg, err := config.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HasToken() {
		t.Fatal("expected no token")
	}
	if err := os.WriteFile(cfg.TokenPath(), []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}
	if !cfg.HasToken() {
		t.Fatal("expected token")
	}
	if err := cfg.RemoveToken(); err != nil {
		t.Fatal(err)
	}
	if cfg.HasToken() {
		t.Error("expected token removed")
	}
}

func TestNeedsGoogleAuth_MatchesBackendExactly(t *testing.T) {
	tests := []struct {
		backend string
		want    bool
	}{
		{config.BackendGoogleTasks, true},
		{config.BackendREST, false},
		{"GoogleTasks", false},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := &config.Config{Settings: config.Settings{Backend: tt.backend}}
			if got := cfg.NeedsGoogleAuth(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			// Whatever NeedsGoogleAuth accepts, Validate must accept too.
			if tt.want {
				if err := cfg.Settings.Validate(); err != nil {
					t.Errorf("expected valid backend, got %v", err)
				}
			}
		})
	}

	s := config.DefaultSettings()
	s.Backend = "GoogleTasks"
	if err := s.Validate(); err == nil {
		t.Error("expected mixed-case backend to be rejected")
	}
}
