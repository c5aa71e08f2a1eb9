// Package mcp contains the Model Context Protocol wire types the server
// speaks: method names, the initialize handshake, tool descriptors and tool
// results. The types are plain structs with json tags; framing and dispatch
// live in internal/engine and the httpapi transport.
//
// Only the subset needed by a stateless, tools-only server is modelled.
// Sessions, sampling, elicitation, resources and prompts are not part of this
// surface.
//
// Example (tool result construction):
//
//	res := &mcp.CallToolResult{
//	    Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: "hello"}},
//	}
package mcp
