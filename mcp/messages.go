package mcp

import (
	"bytes"
	"encoding/json"
)

// Method is an MCP method identifier used in JSON-RPC messages.
type Method string

// MCP method names and notifications understood by the server.
const (
	// Initialization
	InitializeMethod              Method = "initialize"
	InitializedNotificationMethod Method = "notifications/initialized"

	// Tools
	ToolsListMethod Method = "tools/list"
	ToolsCallMethod Method = "tools/call"
)

// InitializeRequest starts the MCP initialization handshake. Client
// capabilities are accepted and ignored.
type InitializeRequest struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    json.RawMessage    `json:"capabilities,omitempty"`
	ClientInfo      ImplementationInfo `json:"clientInfo"`
}

// InitializeResult returns the server capabilities and identity.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ImplementationInfo `json:"serverInfo"`
}

// ListToolsResult returns the available tools.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// CallToolRequestReceived is the server-received representation for a tool call.
type CallToolRequestReceived struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// UnmarshalJSON accepts a name of any JSON type. A non-string name is kept in
// compact JSON form and null becomes empty, so either one resolves to an
// unknown tool instead of failing the request.
func (r *CallToolRequestReceived) UnmarshalJSON(data []byte) error {
	var wire struct {
		Name      json.RawMessage `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = CallToolRequestReceived{Arguments: wire.Arguments}
	if len(wire.Name) == 0 {
		return nil
	}
	if err := json.Unmarshal(wire.Name, &r.Name); err != nil {
		var buf bytes.Buffer
		if err := json.Compact(&buf, wire.Name); err != nil {
			return err
		}
		r.Name = buf.String()
	}
	return nil
}

// CallToolResult represents a tool invocation result. IsError marks a
// tool-level failure carried inside a successful JSON-RPC response.
type CallToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitzero"`
}

// EmptyResult is returned for operations that do not return data.
type EmptyResult struct{}
