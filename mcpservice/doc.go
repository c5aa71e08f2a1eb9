// Package mcpservice provides the building blocks the engine consults to
// answer MCP requests: a ServerCapabilities value describing the server and a
// ToolsCapability that lists and invokes tools.
//
// Quick start:
//
//	type EchoArgs struct {
//	    Message string `json:"message"`
//	}
//	tools := mcpservice.NewToolsContainer(
//	    mcpservice.NewTool[EchoArgs]("echo",
//	        func(ctx context.Context, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[EchoArgs]) error {
//	            return w.AppendText("you said: " + r.Args().Message)
//	        },
//	        mcpservice.WithToolDescription("Echo a message back to the caller"),
//	    ),
//	)
//	srv := mcpservice.NewServer(
//	    mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "example", Version: "1.0.0"}),
//	    mcpservice.WithToolsCapability(tools),
//	)
//
// Tool failures never escape as protocol errors when a tool is built with
// WithToolFailure: argument decoding problems, handler errors and recovered
// panics are all rendered into a result with IsError set.
package mcpservice
