package mcpservice

import (
	"context"

	"github.com/ggoodman/feedback-mcp/mcp"
)

// ServerCapabilities is what the engine consults to answer initialize,
// tools/list and tools/call. Implementations MUST be safe for concurrent use.
type ServerCapabilities interface {
	// GetServerInfo returns implementation information surfaced in the
	// initialize result.
	GetServerInfo(ctx context.Context) (mcp.ImplementationInfo, error)

	// GetPreferredProtocolVersion returns the protocol version the server
	// reports. If ok is false the engine falls back to mcp.ProtocolVersion.
	GetPreferredProtocolVersion(ctx context.Context) (version string, ok bool, err error)

	// GetToolsCapability returns the tools capability. If ok is false the
	// server advertises no tools and tools/* methods are not found.
	GetToolsCapability(ctx context.Context) (cap ToolsCapability, ok bool, err error)
}

// ToolsCapability defines the server's tools surface area.
type ToolsCapability interface {
	// ListTools returns every tool the server exposes.
	ListTools(ctx context.Context) ([]mcp.Tool, error)

	// CallTool invokes a tool. Failures of the tool itself, including an
	// unknown name, are reported in the result with IsError set. A non-nil
	// error is reserved for faults outside the tool.
	CallTool(ctx context.Context, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error)
}
