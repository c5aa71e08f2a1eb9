package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/elnormous/contenttype"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/ggoodman/feedback-mcp/auth"
	"github.com/ggoodman/feedback-mcp/feedback"
	"github.com/ggoodman/feedback-mcp/internal/engine"
	"github.com/ggoodman/feedback-mcp/internal/jsonrpc"
	"github.com/ggoodman/feedback-mcp/internal/logctx"
	"github.com/ggoodman/feedback-mcp/internal/metrics"
	"github.com/ggoodman/feedback-mcp/internal/wellknown"
	"github.com/ggoodman/feedback-mcp/mcpservice"
)

var (
	_ http.Handler = (*Handler)(nil)
)

var jsonMediaType = contenttype.NewMediaType("application/json")

const (
	authorizationHeader   = "Authorization"
	wwwAuthenticateHeader = "WWW-Authenticate"
	requestIDHeader       = "X-Request-Id"

	prmPathPrefix = "/.well-known/oauth-protected-resource"

	// DefaultMaxBodyBytes bounds request bodies on the POST endpoints.
	DefaultMaxBodyBytes int64 = 1 << 20
)

// Descriptor fields served on GET / and GET /health.
const (
	ServiceName        = "feedback-meeting-processor-mcp"
	DisplayName        = "Feedback Meeting Processor MCP"
	DisplayVersion     = "1.0.0"
	DisplayDescription = "MCP server for processing meeting feedback"
)

// writeJSONError emits a minimal JSON body for HTTP-layer rejections that
// happen before a JSON-RPC or REST exchange is possible.
// Shape: {"error":{"code":<httpStatus>,"message":"<reason>"}}
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": map[string]any{"code": status, "message": msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// Option configures the Handler.
type Option func(*newConfig)

type newConfig struct {
	logger        *slog.Logger
	metrics       *metrics.Metrics
	authenticator auth.Authenticator
	publicURL     string
	realm         string
	maxBodyBytes  int64
}

// WithLogger sets the logger used by the handler and the engine behind it.
func WithLogger(l *slog.Logger) Option {
	return func(c *newConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records HTTP and JSON-RPC metrics on m and serves them on
// GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *newConfig) { c.metrics = m }
}

// WithAuthenticator requires a valid bearer token on POST /mcp and
// POST /process-feedback. WithPublicURL must also be set.
func WithAuthenticator(a auth.Authenticator) Option {
	return func(c *newConfig) { c.authenticator = a }
}

// WithPublicURL sets the externally visible URL of the /mcp endpoint. It is
// the resource identifier in the protected resource metadata document.
func WithPublicURL(u string) Option {
	return func(c *newConfig) { c.publicURL = strings.TrimSpace(u) }
}

// WithRealm sets the HTTP authentication realm advertised in WWW-Authenticate
// challenges. If empty (default), the realm attribute is omitted entirely per
// RFC 6750.
func WithRealm(realm string) Option {
	return func(c *newConfig) { c.realm = strings.TrimSpace(realm) }
}

// WithMaxBodyBytes bounds request bodies. Non-positive values keep the default.
func WithMaxBodyBytes(n int64) Option {
	return func(c *newConfig) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// buildBearerChallenge builds a standardized Bearer challenge header value.
// Format:
//
//	Bearer realm="<realm>", resource_metadata="<url>", error="...", error_description="..."
//
// Realm and resource_metadata are omitted if empty.
func buildBearerChallenge(realm string, resourceMetadata string, params map[string]string) string {
	pieces := make([]string, 0, 2+len(params))
	esc := func(v string) string { return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v) }
	if realm != "" {
		pieces = append(pieces, fmt.Sprintf(`realm="%s"`, esc(realm)))
	}
	if resourceMetadata != "" {
		pieces = append(pieces, fmt.Sprintf(`resource_metadata="%s"`, esc(resourceMetadata)))
	}
	for _, k := range []string{"error", "error_description", "scope"} {
		if v, ok := params[k]; ok {
			pieces = append(pieces, fmt.Sprintf(`%s="%s"`, k, esc(v)))
		}
	}
	if len(pieces) == 0 {
		return "Bearer"
	}
	return "Bearer " + strings.Join(pieces, ", ")
}

// Handler serves the feedback endpoints: JSON-RPC on /mcp, the REST
// renderer on /process-feedback, plus health, descriptor, metrics and
// protected resource metadata.
type Handler struct {
	router       chi.Router
	log          *slog.Logger
	eng          *engine.Engine
	metrics      *metrics.Metrics
	maxBodyBytes int64

	auth           auth.Authenticator
	realm          string
	prmDocument    wellknown.ProtectedResourceMetadata
	prmDocumentURL *url.URL
}

// New builds the handler around the given server capabilities.
func New(server mcpservice.ServerCapabilities, opts ...Option) (*Handler, error) {
	if server == nil {
		return nil, errors.New("server is required")
	}

	cfg := &newConfig{logger: slog.Default(), maxBodyBytes: DefaultMaxBodyBytes}
	for _, opt := range opts {
		opt(cfg)
	}

	loggerWithContextHandler := slog.New(logctx.Handler{Handler: cfg.logger.Handler()})

	h := &Handler{
		log:          loggerWithContextHandler,
		metrics:      cfg.metrics,
		maxBodyBytes: cfg.maxBodyBytes,
		auth:         cfg.authenticator,
		realm:        cfg.realm,
	}
	h.eng = engine.NewEngine(server, engine.WithLogger(h.log), engine.WithMetrics(cfg.metrics))

	if h.auth != nil {
		if cfg.publicURL == "" {
			return nil, errors.New("public URL is required when an authenticator is configured")
		}
		mcpURL, err := url.Parse(cfg.publicURL)
		if err != nil {
			return nil, fmt.Errorf("invalid public URL %q: %w", cfg.publicURL, err)
		}
		if mcpURL.Scheme != "https" && mcpURL.Scheme != "http" {
			return nil, fmt.Errorf("public URL must use HTTP or HTTPS scheme, got %q", mcpURL.Scheme)
		}
		h.prmDocumentURL = &url.URL{Scheme: mcpURL.Scheme, Host: mcpURL.Host, Path: prmPathPrefix + strings.TrimSuffix(mcpURL.Path, "/")}
		h.prmDocument = buildPRM(mcpURL, h.auth)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(h.metrics.Middleware)
	r.Use(h.withRequestData)
	r.Use(middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/", h.handleGetRoot)
	r.Get("/health", h.handleGetHealth)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if h.auth != nil {
			r.Use(h.requireAuthentication)
		}
		r.Post("/mcp", h.handlePostMCP)
		r.Post("/process-feedback", h.handlePostProcessFeedback)
	})

	if h.auth != nil {
		for _, p := range prmPaths(h.prmDocumentURL.Path) {
			r.Get(p, h.handleGetProtectedResourceMetadata)
			r.Options(p, h.handleOptionsProtectedResourceMetadata)
		}
	}

	h.router = r
	return h, nil
}

// prmPaths lists the paths the metadata document is served on: the
// resource-specific path and the bare prefix, each with and without a
// trailing slash.
func prmPaths(p string) []string {
	paths := []string{p, p + "/"}
	if p != prmPathPrefix {
		paths = append(paths, prmPathPrefix, prmPathPrefix+"/")
	}
	return paths
}

func buildPRM(resource *url.URL, a auth.Authenticator) wellknown.ProtectedResourceMetadata {
	doc := wellknown.ProtectedResourceMetadata{
		Resource:               resource.String(),
		BearerMethodsSupported: []string{"header"},
		ResourceName:           DisplayName,
	}
	if mp, ok := a.(auth.MetadataProvider); ok {
		md := mp.Metadata()
		if md.Issuer != "" {
			doc.AuthorizationServers = []string{md.Issuer}
		}
		doc.JwksURI = md.JWKSURL
		doc.ScopesSupported = md.ScopesSupported
		doc.ResourceDocumentation = md.ServiceDocumentation
		doc.ResourcePolicyURI = md.PolicyURI
		doc.ResourceTosURI = md.TosURI
	}
	return doc
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) withRequestData(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logctx.WithRequestData(r.Context(), &logctx.RequestData{
			RequestID:  id,
			Method:     r.Method,
			UserAgent:  r.UserAgent(),
			RemoteAddr: r.RemoteAddr,
			Path:       r.URL.Path,
		})))
	})
}

// readBody reads a bounded request body. On failure it writes the rejection
// and returns ok=false.
func (h *Handler) readBody(ctx context.Context, w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.log.WarnContext(ctx, "http.body.too_large", slog.Int64("limit", tooLarge.Limit))
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		h.log.WarnContext(ctx, "http.body.read_fail", slog.String("err", err.Error()))
		writeJSONError(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}
	return body, true
}

// handlePostMCP answers one JSON-RPC request. Every envelope, including
// parse and request-shape failures, is sent with HTTP 200.
func (h *Handler) handlePostMCP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	h.log.DebugContext(ctx, "http.post_mcp.start")

	body, ok := h.readBody(ctx, w, r)
	if !ok {
		return
	}

	req, err := jsonrpc.DecodeRequest(body)
	if err != nil {
		var de *jsonrpc.DecodeError
		if !errors.As(err, &de) {
			h.log.ErrorContext(ctx, "jsonrpc.decode.fail", slog.String("err", err.Error()))
			writeJSONError(w, http.StatusInternalServerError, "internal error")
			return
		}
		h.log.InfoContext(ctx, "jsonrpc.decode.reject", slog.String("err", de.Error()))
		h.metrics.ObserveRPC("invalid", fmt.Sprint(int(de.Code)))
		writeJSON(w, http.StatusOK, de.Response())
		return
	}

	msgType := "request"
	if req.IsNotification() {
		msgType = "notification"
	}
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: req.Method, ID: req.ID.String(), Type: msgType})

	res, err := h.eng.HandleRequest(ctx, req)
	if err != nil {
		h.log.ErrorContext(ctx, "rpc.inbound.fail", slog.String("err", err.Error()))
		res = jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, jsonrpc.MessageInternalError, nil)
	}

	writeJSON(w, http.StatusOK, res)
	h.log.InfoContext(ctx, "rpc.inbound.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
}

type processFeedbackResponse struct {
	Success          bool   `json:"success"`
	TotalItems       int    `json:"total_items"`
	CriticalCount    int    `json:"critical_count"`
	ImprovementCount int    `json:"improvement_count"`
	NiceToHaveCount  int    `json:"nice_to_have_count"`
	HTMLWidget       string `json:"html_widget"`
}

type validationResponse struct {
	Detail []feedback.Violation `json:"detail"`
}

func (h *Handler) handlePostProcessFeedback(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	if r.Header.Get("Content-Type") != "" {
		ctype, err := contenttype.GetMediaType(r)
		if err != nil || !ctype.Matches(jsonMediaType) {
			h.log.WarnContext(ctx, "content_type.unsupported")
			writeJSONError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
			return
		}
	}

	body, ok := h.readBody(ctx, w, r)
	if !ok {
		return
	}

	items, err := feedback.DecodeRequest(body)
	if err != nil {
		var ve *feedback.ValidationError
		if errors.As(err, &ve) {
			h.log.InfoContext(ctx, "http.process_feedback.invalid", slog.Int("violations", len(ve.Violations)))
			writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Detail: ve.Violations})
			return
		}
		h.log.ErrorContext(ctx, "http.process_feedback.fail", slog.String("err", err.Error()))
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	html, err := feedback.Render(items)
	if err != nil {
		h.log.ErrorContext(ctx, "http.process_feedback.fail", slog.String("err", err.Error()))
		writeJSONError(w, http.StatusInternalServerError, "failed to render feedback")
		return
	}

	counts := feedback.Count(items)
	h.metrics.ObserveRendered(counts)
	writeJSON(w, http.StatusOK, processFeedbackResponse{
		Success:          true,
		TotalItems:       counts.Total(),
		CriticalCount:    counts.Critical,
		ImprovementCount: counts.Improvement,
		NiceToHaveCount:  counts.NiceToHave,
		HTMLWidget:       html,
	})
	h.log.InfoContext(ctx, "http.process_feedback.ok",
		slog.Int("total", counts.Total()),
		slog.Int64("dur_ms", time.Since(start).Milliseconds()),
	)
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func (h *Handler) handleGetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Service: ServiceName})
}

type rootEndpoints struct {
	MCP             string `json:"mcp"`
	Health          string `json:"health"`
	ProcessFeedback string `json:"process_feedback"`
}

type rootResponse struct {
	Name        string        `json:"name"`
	Version     string        `json:"version"`
	Description string        `json:"description"`
	Endpoints   rootEndpoints `json:"endpoints"`
}

func (h *Handler) handleGetRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Name:        DisplayName,
		Version:     DisplayVersion,
		Description: DisplayDescription,
		Endpoints: rootEndpoints{
			MCP:             "/mcp",
			Health:          "/health",
			ProcessFeedback: "/process-feedback",
		},
	})
}

func (h *Handler) handleOptionsProtectedResourceMetadata(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")
	w.Header().Set("Access-Control-Max-Age", "600")
	w.WriteHeader(http.StatusNoContent)
}

// handleGetProtectedResourceMetadata serves the OAuth2 Protected Resource Metadata document.
func (h *Handler) handleGetProtectedResourceMetadata(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Vary", "Origin")
	writeJSON(w, http.StatusOK, h.prmDocument)
}

func (h *Handler) requireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userInfo := h.checkAuthentication(ctx, r, w)
		if userInfo == nil {
			return
		}
		ctx = logctx.WithAuthData(ctx, &logctx.AuthData{UserID: userInfo.UserID()})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) checkAuthentication(ctx context.Context, r *http.Request, w http.ResponseWriter) auth.UserInfo {
	authHeader := r.Header.Get(authorizationHeader)
	prmURL := h.prmDocumentURL.String()

	if authHeader == "" {
		// RFC 6750 §3.1: no error code when the request lacks credentials.
		h.log.InfoContext(ctx, "auth.check.missing", slog.String("err", "no authorization header"))
		w.Header().Add(wwwAuthenticateHeader, buildBearerChallenge(h.realm, prmURL, nil))
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return nil
	}

	// Malformed header or wrong scheme -> invalid_request 400.
	const bearerPrefix = "Bearer "
	if len(authHeader) <= len(bearerPrefix) || !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		h.log.InfoContext(ctx, "auth.check.invalid", slog.String("err", "malformed bearer authorization header"))
		w.Header().Add(wwwAuthenticateHeader, buildBearerChallenge(h.realm, prmURL, map[string]string{"error": "invalid_request", "error_description": "malformed bearer authorization header"}))
		writeJSONError(w, http.StatusBadRequest, "malformed bearer authorization header")
		return nil
	}
	tok := strings.TrimSpace(authHeader[len(bearerPrefix):])
	if tok == "" {
		h.log.InfoContext(ctx, "auth.check.invalid", slog.String("err", "empty bearer token"))
		w.Header().Add(wwwAuthenticateHeader, buildBearerChallenge(h.realm, prmURL, map[string]string{"error": "invalid_request", "error_description": "empty bearer token"}))
		writeJSONError(w, http.StatusBadRequest, "empty bearer token")
		return nil
	}

	userInfo, err := h.auth.CheckAuthentication(ctx, tok)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInsufficientScope):
			h.log.InfoContext(ctx, "auth.check.fail", slog.String("err", err.Error()))
			w.Header().Add(wwwAuthenticateHeader, buildBearerChallenge(h.realm, prmURL, map[string]string{"error": "insufficient_scope", "error_description": "insufficient scope"}))
			writeJSONError(w, http.StatusForbidden, "insufficient scope")
		case errors.Is(err, auth.ErrUnauthorized):
			h.log.InfoContext(ctx, "auth.check.fail", slog.String("err", err.Error()))
			w.Header().Add(wwwAuthenticateHeader, buildBearerChallenge(h.realm, prmURL, map[string]string{"error": "invalid_token", "error_description": "invalid access token"}))
			writeJSONError(w, http.StatusUnauthorized, "invalid access token")
		default:
			h.log.ErrorContext(ctx, "auth.check.err", slog.String("err", err.Error()))
			writeJSONError(w, http.StatusInternalServerError, "authentication failed")
		}
		return nil
	}

	return userInfo
}
