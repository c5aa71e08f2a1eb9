// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config holds every setting of the feedback server. Defaults are provided
// via struct tags.
type Config struct {
	// Addr is the listen address. ENV: FEEDBACK_ADDR
	Addr string `env:"FEEDBACK_ADDR,default=:8000"`
	// PublicURL is the externally visible URL of the /mcp endpoint, e.g.
	// https://feedback.example.com/mcp. ENV: FEEDBACK_PUBLIC_URL
	PublicURL string `env:"FEEDBACK_PUBLIC_URL"`

	LogLevel  string `env:"FEEDBACK_LOG_LEVEL,default=info"`
	LogFormat string `env:"FEEDBACK_LOG_FORMAT,default=json"`

	MetricsEnabled bool `env:"FEEDBACK_METRICS_ENABLED,default=true"`

	// Bearer auth is enabled when AuthIssuer is set. Without AuthJWKSURL the
	// issuer is resolved through OIDC discovery.
	AuthIssuer   string `env:"FEEDBACK_AUTH_ISSUER"`
	AuthAudience string `env:"FEEDBACK_AUTH_AUDIENCE"`
	AuthJWKSURL  string `env:"FEEDBACK_AUTH_JWKS_URL"`
	// AuthRequiredScopes is a space or comma separated list.
	AuthRequiredScopes string `env:"FEEDBACK_AUTH_REQUIRED_SCOPES"`

	ReadTimeout     time.Duration `env:"FEEDBACK_READ_TIMEOUT,default=15s"`
	WriteTimeout    time.Duration `env:"FEEDBACK_WRITE_TIMEOUT,default=15s"`
	ShutdownTimeout time.Duration `env:"FEEDBACK_SHUTDOWN_TIMEOUT,default=10s"`
	MaxBodyBytes    int64         `env:"FEEDBACK_MAX_BODY_BYTES,default=1048576"`
}

// Load decodes the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and combinations.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("FEEDBACK_LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("FEEDBACK_MAX_BODY_BYTES must be positive"))
	}
	if c.PublicURL != "" {
		if u, err := url.Parse(c.PublicURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Errorf("FEEDBACK_PUBLIC_URL must be an http(s) URL, got %q", c.PublicURL))
		}
	}
	if c.AuthEnabled() {
		if c.PublicURL == "" {
			errs = append(errs, errors.New("FEEDBACK_PUBLIC_URL is required when FEEDBACK_AUTH_ISSUER is set"))
		}
	} else if c.AuthAudience != "" || c.AuthJWKSURL != "" || c.AuthRequiredScopes != "" {
		errs = append(errs, errors.New("FEEDBACK_AUTH_* settings require FEEDBACK_AUTH_ISSUER"))
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("FEEDBACK_LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

// AuthEnabled reports whether bearer auth is configured.
func (c Config) AuthEnabled() bool { return c.AuthIssuer != "" }

// Audience is the expected token audience, defaulting to PublicURL.
func (c Config) Audience() string {
	if c.AuthAudience != "" {
		return c.AuthAudience
	}
	return c.PublicURL
}

// RequiredScopes splits AuthRequiredScopes.
func (c Config) RequiredScopes() []string {
	return strings.FieldsFunc(c.AuthRequiredScopes, func(r rune) bool {
		return r == ',' || r == ' '
	})
}
