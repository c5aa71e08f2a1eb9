package auth

import (
	"context"
	"errors"
	"time"

	"github.com/ggoodman/feedback-mcp/internal/jwtauth"
)

// AccessTokenAuthOption configures optional aspects of the JWT access token
// authenticators (scopes, algorithms, leeway, advertisement).
type AccessTokenAuthOption func(*settings)

type settings struct {
	cfg        *jwtauth.Config
	advertised ScopeTransform
}

// ScopeTransform derives the advertised scopes_supported list from the
// scopes the authorization server reports.
type ScopeTransform func(discovered []string) []string

// WithRequiredScopes requires all of the provided scopes to be present in the
// space-delimited "scope" claim.
func WithRequiredScopes(scopes ...string) AccessTokenAuthOption {
	return func(s *settings) {
		s.cfg.RequiredScopes = append([]string(nil), scopes...)
		s.cfg.ScopeModeAny = false
	}
}

// WithAnyRequiredScope requires at least one of the provided scopes to be present.
func WithAnyRequiredScope(scopes ...string) AccessTokenAuthOption {
	return func(s *settings) {
		s.cfg.RequiredScopes = append([]string(nil), scopes...)
		s.cfg.ScopeModeAny = true
	}
}

// WithAllowedAlgs restricts allowed JWS algorithms. "none" is never allowed.
// Defaults to ["RS256"].
func WithAllowedAlgs(algs ...string) AccessTokenAuthOption {
	return func(s *settings) {
		s.cfg.AllowedAlgs = append([]string(nil), algs...)
	}
}

// WithLeeway sets clock skew tolerance for time-based claims.
func WithLeeway(d time.Duration) AccessTokenAuthOption {
	return func(s *settings) { s.cfg.Leeway = d }
}

// WithAdditionalAudiences accepts tokens minted for other audiences, such as
// a local base URL during development.
func WithAdditionalAudiences(aud ...string) AccessTokenAuthOption {
	return func(s *settings) {
		s.cfg.ExpectedAudiences = append(s.cfg.ExpectedAudiences, aud...)
	}
}

// WithAdvertisedScopes overrides how scopes_supported is derived.
func WithAdvertisedScopes(fn ScopeTransform) AccessTokenAuthOption {
	return func(s *settings) { s.advertised = fn }
}

// StaticScopes advertises exactly the given scopes.
func StaticScopes(scopes ...string) ScopeTransform {
	fixed := make([]string, len(scopes))
	copy(fixed, scopes)
	return func([]string) []string {
		out := make([]string, len(fixed))
		copy(out, fixed)
		return out
	}
}

// FilterScopes advertises the discovered scopes for which keep returns true.
func FilterScopes(keep func(string) bool) ScopeTransform {
	return func(discovered []string) []string {
		out := []string{}
		for _, s := range discovered {
			if keep(s) {
				out = append(out, s)
			}
		}
		return out
	}
}

func newSettings(issuer, audience string, opts []AccessTokenAuthOption) (*settings, error) {
	cfg := jwtauth.DefaultConfig()
	cfg.Issuer = issuer
	s := &settings{cfg: cfg}
	if audience == "" {
		return nil, errors.New("audience is required")
	}
	cfg.ExpectedAudiences = []string{audience}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewFromDiscovery returns a Provider that verifies RFC 9068 JWT access
// tokens discovered via OpenID Connect discovery (jwks_uri, issuer, etc.).
//
// Required:
//   - issuer:   authorization server issuer URL
//   - audience: expected audience ("aud") claim, typically the public MCP endpoint URL
func NewFromDiscovery(ctx context.Context, issuer string, audience string, opts ...AccessTokenAuthOption) (Provider, error) {
	s, err := newSettings(issuer, audience, opts)
	if err != nil {
		return nil, err
	}
	internal, err := jwtauth.NewFromDiscovery(ctx, s.cfg)
	if err != nil {
		return nil, err
	}
	return newAdapter(internal, s), nil
}

// NewStatic returns a Provider that verifies JWT access tokens against a
// fixed issuer and JWKS URL, skipping discovery.
func NewStatic(ctx context.Context, issuer, audience, jwksURL string, opts ...AccessTokenAuthOption) (Provider, error) {
	s, err := newSettings(issuer, audience, opts)
	if err != nil {
		return nil, err
	}
	internal, err := jwtauth.NewStatic(ctx, s.cfg, jwksURL)
	if err != nil {
		return nil, err
	}
	return newAdapter(internal, s), nil
}

// adapter wraps the internal authenticator to satisfy the public interface.
type adapter struct {
	a    jwtauth.Authenticator
	meta Metadata
}

func newAdapter(a jwtauth.Authenticator, s *settings) *adapter {
	return &adapter{a: a, meta: buildMetadata(a.Metadata(), s)}
}

func buildMetadata(md jwtauth.Metadata, s *settings) Metadata {
	scopes := md.ScopesSupported
	switch {
	case s.advertised != nil:
		scopes = s.advertised(md.ScopesSupported)
	case len(scopes) == 0:
		scopes = append([]string(nil), s.cfg.RequiredScopes...)
	}
	return Metadata{
		Issuer:                md.Issuer,
		JWKSURL:               md.JWKSURI,
		AuthorizationEndpoint: md.AuthorizationEndpoint,
		TokenEndpoint:         md.TokenEndpoint,
		ScopesSupported:       scopes,
		ServiceDocumentation:  md.ServiceDocumentation,
		PolicyURI:             md.PolicyURI,
		TosURI:                md.TosURI,
	}
}

func (ad *adapter) CheckAuthentication(ctx context.Context, tok string) (UserInfo, error) {
	ui, err := ad.a.CheckAuthentication(ctx, tok)
	if err != nil {
		// Map internal sentinel errors to public errors used by the handler.
		if errors.Is(err, jwtauth.ErrInsufficientScope) {
			return nil, errors.Join(ErrInsufficientScope, err)
		}
		return nil, errors.Join(ErrUnauthorized, err)
	}
	return userInfoAdapter{ui: ui}, nil
}

func (ad *adapter) Metadata() Metadata {
	md := ad.meta
	md.ScopesSupported = append([]string(nil), ad.meta.ScopesSupported...)
	return md
}

type userInfoAdapter struct{ ui jwtauth.UserInfo }

func (u userInfoAdapter) UserID() string       { return u.ui.UserID() }
func (u userInfoAdapter) Claims(ref any) error { return u.ui.Claims(ref) }
