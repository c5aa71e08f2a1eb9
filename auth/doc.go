// Package auth provides bearer token (JWT) verification for the HTTP
// endpoints when they are protected by an external OAuth 2.0 / OIDC
// authorization server.
//
// An Authenticator validates an incoming bearer token string and returns a
// UserInfo or an error. The transport extracts the token from the request and
// maps the sentinel errors to WWW-Authenticate challenges.
//
// NewFromDiscovery learns the issuer's JWKS and endpoints via OpenID Connect
// discovery; NewStatic takes a fixed JWKS URL. Both return a Provider whose
// Metadata feeds the protected resource metadata document:
//
//	authn, err := auth.NewFromDiscovery(ctx, "https://issuer.example", "https://feedback.example/mcp",
//	    auth.WithRequiredScopes("feedback:write"),
//	)
//	if err != nil { log.Fatal(err) }
//
// # Errors
//
// ErrUnauthorized signals the token is invalid (signature, expiry, audience,
// etc.). ErrInsufficientScope signals successful authentication but missing
// required scope(s).
package auth
