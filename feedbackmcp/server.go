// Package feedbackmcp wires the feedback renderer into an MCP server exposing
// a single tool, process_meeting_feedback.
package feedbackmcp

import (
	"context"
	"log/slog"

	"github.com/ggoodman/feedback-mcp/feedback"
	"github.com/ggoodman/feedback-mcp/internal/metrics"
	"github.com/ggoodman/feedback-mcp/mcp"
	"github.com/ggoodman/feedback-mcp/mcpservice"
)

const (
	ToolName        = "process_meeting_feedback"
	ToolDescription = "Procesa items de feedback de reuniones y los muestra agrupados por prioridad con categorías visuales"

	// WidgetURI and WidgetMIMEType identify the embedded HTML resource in a
	// successful tool result.
	WidgetURI      = "feedback://widget"
	WidgetMIMEType = "text/html+skybridge"

	ServerName    = "feedback-meeting-processor"
	ServerVersion = "1.0.0"
)

// Args is the argument object of process_meeting_feedback. The advertised
// input schema is reflected from this type.
type Args struct {
	FeedbackItems []feedback.Item `json:"feedback_items" jsonschema:"description=Lista de items de feedback extraídos de la transcripción"`
}

// Option configures the server built by New.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// WithLogger sets the logger used for tool diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics counts rendered items on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Tool builds the process_meeting_feedback tool. Arguments are decoded
// leniently and every failure is reported as a tool-level error.
func Tool(opts ...Option) mcpservice.StaticTool {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	return mcpservice.NewTool[Args](ToolName,
		func(ctx context.Context, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[Args]) error {
			items := r.Args().FeedbackItems
			html, err := feedback.Render(items)
			if err != nil {
				return err
			}
			counts := feedback.Count(items)
			o.metrics.ObserveRendered(counts)
			o.logger.DebugContext(ctx, "tool.process_feedback.rendered",
				slog.Int("received", len(items)),
				slog.Int("total", counts.Total()),
			)
			return w.AppendResource(mcp.ResourceContents{
				URI:      WidgetURI,
				MimeType: WidgetMIMEType,
				Text:     html,
			})
		},
		mcpservice.WithToolDescription(ToolDescription),
		mcpservice.WithToolAllowAdditionalProperties(true),
		mcpservice.WithToolLogger(o.logger),
		mcpservice.WithToolFailure(func(err error) *mcp.CallToolResult {
			return mcpservice.Errorf("Error processing feedback: %v", err)
		}),
	)
}

// New constructs the server capabilities: fixed identity and a tools
// container holding the feedback tool.
func New(opts ...Option) mcpservice.ServerCapabilities {
	return mcpservice.NewServer(
		mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: ServerName, Version: ServerVersion}),
		mcpservice.WithPreferredProtocolVersion(mcp.ProtocolVersion),
		mcpservice.WithToolsCapability(mcpservice.NewToolsContainer(Tool(opts...))),
	)
}
