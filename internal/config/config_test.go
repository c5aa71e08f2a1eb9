package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_Defaults(t *testing.T) {
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Config{
		Addr:            ":8000",
		LogLevel:        "info",
		LogFormat:       "json",
		MetricsEnabled:  true,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxBodyBytes:    1 << 20,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
	if got.AuthEnabled() {
		t.Fatalf("auth should be off by default")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("FEEDBACK_ADDR", "127.0.0.1:9000")
	t.Setenv("FEEDBACK_PUBLIC_URL", "https://feedback.example/mcp")
	t.Setenv("FEEDBACK_LOG_LEVEL", "debug")
	t.Setenv("FEEDBACK_LOG_FORMAT", "text")
	t.Setenv("FEEDBACK_METRICS_ENABLED", "false")
	t.Setenv("FEEDBACK_AUTH_ISSUER", "https://issuer.example")
	t.Setenv("FEEDBACK_AUTH_REQUIRED_SCOPES", "feedback:read, feedback:write")
	t.Setenv("FEEDBACK_WRITE_TIMEOUT", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" || cfg.MetricsEnabled || cfg.WriteTimeout != 30*time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if lvl, _ := cfg.Level(); lvl != slog.LevelDebug {
		t.Fatalf("level = %v, want debug", lvl)
	}
	if !cfg.AuthEnabled() || cfg.Audience() != "https://feedback.example/mcp" {
		t.Fatalf("audience should default to the public URL, got %q", cfg.Audience())
	}
	if diff := cmp.Diff([]string{"feedback:read", "feedback:write"}, cfg.RequiredScopes()); diff != "" {
		t.Fatalf("scopes mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	base := Config{LogLevel: "info", LogFormat: "json", MaxBodyBytes: 1}
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "FEEDBACK_LOG_LEVEL"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "FEEDBACK_LOG_FORMAT"},
		{"bad body limit", func(c *Config) { c.MaxBodyBytes = 0 }, "FEEDBACK_MAX_BODY_BYTES"},
		{"bad public url", func(c *Config) { c.PublicURL = "feedback.example" }, "FEEDBACK_PUBLIC_URL must be"},
		{"issuer without url", func(c *Config) { c.AuthIssuer = "https://i" }, "FEEDBACK_PUBLIC_URL is required"},
		{"auth settings without issuer", func(c *Config) { c.AuthJWKSURL = "https://i/keys" }, "require FEEDBACK_AUTH_ISSUER"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want it to mention %q", err, tc.wantErr)
			}
		})
	}
}
