package jwtauth

import (
	"context"
	"errors"
	"fmt"

	keyfunc "github.com/MicahParks/keyfunc/v3"
)

type staticAuthenticator struct {
	v    *validator
	meta Metadata
}

// NewStatic constructs an authenticator that validates JWT access tokens
// against a statically configured issuer, audiences and JWKS URI (no
// discovery). The at+jwt typ header is not required on this path.
func NewStatic(ctx context.Context, cfg *Config, jwksURI string) (Authenticator, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if jwksURI == "" {
		return nil, errors.New("jwks uri required")
	}

	kf, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURI})
	if err != nil {
		return nil, fmt.Errorf("jwks init failed: %w", err)
	}

	return &staticAuthenticator{
		v:    &validator{cfg: cfg, issuer: cfg.Issuer, keyfunc: kf.Keyfunc},
		meta: Metadata{Issuer: cfg.Issuer, JWKSURI: jwksURI},
	}, nil
}

func (a *staticAuthenticator) CheckAuthentication(ctx context.Context, tok string) (UserInfo, error) {
	return a.v.check(tok)
}

func (a *staticAuthenticator) Metadata() Metadata { return a.meta }

var _ Authenticator = (*staticAuthenticator)(nil)
