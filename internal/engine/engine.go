package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ggoodman/feedback-mcp/internal/jsonrpc"
	"github.com/ggoodman/feedback-mcp/internal/logctx"
	"github.com/ggoodman/feedback-mcp/internal/metrics"
	"github.com/ggoodman/feedback-mcp/mcp"
	"github.com/ggoodman/feedback-mcp/mcpservice"
)

// Engine routes decoded JSON-RPC requests to the server capabilities. It
// holds no per-client state: every request is answered on its own.
type Engine struct {
	srv     mcpservice.ServerCapabilities
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewEngine(srv mcpservice.ServerCapabilities, opts ...EngineOption) *Engine {
	e := &Engine{
		srv: srv,
		log: slog.Default(),
	}

	// Apply options (order matters; later options override earlier ones).
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// EngineOption configures a Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger for the Engine.
func WithLogger(l *slog.Logger) EngineOption {
	return func(m *Engine) {
		if l != nil {
			m.log = l
		}
	}
}

// WithMetrics records request and tool outcomes on m.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// HandleRequest answers a single request. The returned response always
// echoes req.ID. Protocol failures are reported as JSON-RPC error responses;
// the error return is reserved for failures to build a response at all.
func (e *Engine) HandleRequest(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	var (
		res *jsonrpc.Response
		err error
	)
	switch mcp.Method(req.Method) {
	case mcp.InitializeMethod:
		res, err = e.handleInitialize(ctx, req)
	case mcp.InitializedNotificationMethod:
		res, err = e.handleInitialized(ctx, req)
	case mcp.ToolsListMethod:
		res, err = e.handleToolsList(ctx, req)
	case mcp.ToolsCallMethod:
		res, err = e.handleToolCall(ctx, req)
	default:
		e.log.InfoContext(ctx, "engine.handle_request.not_found", slog.String("method", req.Method))
		res = jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil)
	}
	if err != nil {
		return nil, err
	}
	e.metrics.ObserveRPC(methodLabel(req.Method), outcomeLabel(res))
	return res, nil
}

func (e *Engine) handleInitialize(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	start := time.Now()
	log := e.log.With(slog.String("method", req.Method))

	// Client parameters are informational only; a malformed or missing
	// params object does not fail the handshake.
	var params mcp.InitializeRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			log.DebugContext(ctx, "engine.initialize.params_ignored", slog.String("err", err.Error()))
		}
	}

	version := mcp.ProtocolVersion
	if v, ok, err := e.srv.GetPreferredProtocolVersion(ctx); err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return internalError(req), nil
	} else if ok && v != "" {
		version = v
	}

	info, err := e.srv.GetServerInfo(ctx)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return internalError(req), nil
	}

	result := &mcp.InitializeResult{
		ProtocolVersion: version,
		ServerInfo:      info,
	}

	if cap, ok, err := e.srv.GetToolsCapability(ctx); err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return internalError(req), nil
	} else if ok && cap != nil {
		result.Capabilities.Tools = &mcp.ToolsCapability{}
	}

	log.InfoContext(ctx, "engine.handle_request.ok",
		slog.Int64("dur_ms", time.Since(start).Milliseconds()),
		slog.String("client_name", params.ClientInfo.Name),
		slog.String("client_protocol_version", params.ProtocolVersion),
	)
	return jsonrpc.NewResultResponse(req.ID, result)
}

// handleInitialized acknowledges the client's initialized notification. The
// acknowledgement is still a full response envelope.
func (e *Engine) handleInitialized(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	e.log.InfoContext(ctx, "engine.handle_notification.ok", slog.String("method", req.Method))
	return jsonrpc.NewResultResponse(req.ID, &mcp.EmptyResult{})
}

func (e *Engine) handleToolsList(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	start := time.Now()
	log := e.log.With(slog.String("method", req.Method))

	cap, ok, err := e.srv.GetToolsCapability(ctx)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return internalError(req), nil
	}
	if !ok || cap == nil {
		log.InfoContext(ctx, "engine.handle_request.unsupported", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil), nil
	}

	tools, err := cap.ListTools(ctx)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return internalError(req), nil
	}
	if tools == nil {
		tools = []mcp.Tool{}
	}

	log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()), slog.Int("tool_count", len(tools)))

	return jsonrpc.NewResultResponse(req.ID, &mcp.ListToolsResult{Tools: tools})
}

func (e *Engine) handleToolCall(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	start := time.Now()
	log := e.log.With(slog.String("method", req.Method))

	var params mcp.CallToolRequestReceived
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, jsonrpc.MessageInvalidParams, nil), nil
		}
	}

	ctx = logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: params.Name})

	cap, ok, err := e.srv.GetToolsCapability(ctx)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return internalError(req), nil
	}
	if !ok || cap == nil {
		log.InfoContext(ctx, "engine.handle_request.unsupported", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil), nil
	}

	res, err := cap.CallTool(ctx, &params)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log.InfoContext(ctx, "engine.handle_request.cancelled", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "cancelled", nil), nil
		}
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return internalError(req), nil
	}
	if res == nil {
		res = &mcp.CallToolResult{}
	}
	if res.Content == nil {
		res.Content = []mcp.ContentBlock{}
	}
	e.metrics.ObserveToolCall(toolLabel(cap, params.Name), res.IsError)

	if res.IsError {
		log.InfoContext(ctx, "engine.handle_request.tool_error", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
	} else {
		log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
	}

	return jsonrpc.NewResultResponse(req.ID, res)
}

func internalError(req *jsonrpc.Request) *jsonrpc.Response {
	return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, jsonrpc.MessageInternalError, nil)
}

func methodLabel(method string) string {
	switch mcp.Method(method) {
	case mcp.InitializeMethod, mcp.InitializedNotificationMethod, mcp.ToolsListMethod, mcp.ToolsCallMethod:
		return method
	}
	return "other"
}

func outcomeLabel(res *jsonrpc.Response) string {
	if res == nil || res.Error == nil {
		return "ok"
	}
	return strconv.Itoa(int(res.Error.Code))
}

// toolLabel keeps metric cardinality bounded to the advertised tool names.
func toolLabel(cap mcpservice.ToolsCapability, name string) string {
	if c, ok := cap.(*mcpservice.ToolsContainer); ok {
		for _, t := range c.Snapshot() {
			if t.Name == name {
				return name
			}
		}
		return "unknown"
	}
	return name
}
