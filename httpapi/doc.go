// Package httpapi exposes the feedback server over HTTP.
//
// Routes:
//
//	POST /mcp               JSON-RPC 2.0, one request per body, always HTTP 200
//	POST /process-feedback  strict REST rendering, 422 with field detail on bad input
//	GET  /health            liveness
//	GET  /                  service descriptor
//	GET  /metrics           prometheus exposition, when WithMetrics is set
//
// When WithAuthenticator is set, the two POST routes require a bearer token
// and the protected resource metadata document is served under
// /.well-known/oauth-protected-resource.
package httpapi
