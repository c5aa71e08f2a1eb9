package mcpservice

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"slices"

	"github.com/ggoodman/feedback-mcp/mcp"
	"github.com/invopop/jsonschema"
)

// ToolHandler is the function signature used to handle a tool invocation.
type ToolHandler func(ctx context.Context, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error)

// StaticTool pairs an MCP tool descriptor with its handler.
type StaticTool struct {
	Descriptor mcp.Tool
	Handler    ToolHandler
}

// ToolRequest carries the name and decoded arguments of a tool call.
type ToolRequest[A any] struct {
	name string
	args A
}

func (r *ToolRequest[A]) Name() string { return r.name }
func (r *ToolRequest[A]) Args() A      { return r.args }

// FailureFunc turns a tool failure into the result returned to the caller.
// err is an *ArgumentError, a *PanicError or the error returned by the
// handler.
type FailureFunc func(err error) *mcp.CallToolResult

// NewTool constructs a writer-based tool with typed input A. It:
//   - reflects a JSON Schema from A using invopop/jsonschema and down-converts
//     it to the simplified mcp.ToolInputSchema
//   - decodes arguments into A, rejecting unknown fields unless
//     WithToolAllowAdditionalProperties(true) is given
//   - recovers a panicking handler
//
// Without WithToolFailure, argument errors become an "invalid arguments"
// tool error while handler errors and panics are returned as errors.
func NewTool[A any](name string, fn func(ctx context.Context, w ToolResponseWriter, r *ToolRequest[A]) error, opts ...ToolOption) StaticTool {
	cfg := toolConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	input := reflectToMCPInputSchema[A](cfg.allowAdditionalProperties)
	desc := mcp.Tool{
		Name:        name,
		Description: cfg.description,
		InputSchema: input,
	}

	handler := func(ctx context.Context, req *mcp.CallToolRequestReceived) (res *mcp.CallToolResult, err error) {
		defer func() {
			if v := recover(); v != nil {
				cfg.logger.ErrorContext(ctx, "tool.call.panic", slog.String("tool", name), slog.Any("panic", v))
				res, err = cfg.fail(&PanicError{Value: v})
			}
		}()

		a, err := decodeArguments[A](req.Arguments, cfg.allowAdditionalProperties)
		if err != nil {
			if cfg.failure == nil {
				return Errorf("invalid arguments: %v", err), nil
			}
			return cfg.failure(err), nil
		}
		w := newToolResponseWriter(ctx)
		r := &ToolRequest[A]{name: req.Name, args: a}
		if err := fn(ctx, w, r); err != nil {
			return cfg.fail(err)
		}
		return w.result(), nil
	}

	return StaticTool{Descriptor: desc, Handler: handler}
}

func decodeArguments[A any](raw json.RawMessage, lenient bool) (A, error) {
	var a A
	if len(raw) == 0 {
		return a, nil
	}
	if lenient {
		if err := json.Unmarshal(raw, &a); err != nil {
			return a, &ArgumentError{Err: err}
		}
		return a, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return a, &ArgumentError{Err: err}
	}
	return a, nil
}

// ToolOption configures NewTool behavior.
type ToolOption func(*toolConfig)

type toolConfig struct {
	description               string
	allowAdditionalProperties bool // default false (strict)
	failure                   FailureFunc
	logger                    *slog.Logger
}

func (c *toolConfig) fail(err error) (*mcp.CallToolResult, error) {
	if c.failure == nil {
		return nil, err
	}
	return c.failure(err), nil
}

// WithToolDescription sets the tool description used in listings.
func WithToolDescription(desc string) ToolOption {
	return func(c *toolConfig) { c.description = desc }
}

// WithToolAllowAdditionalProperties controls whether unknown fields are allowed.
// When false (default), the generated schema sets additionalProperties=false and
// runtime decoding rejects unknown fields.
func WithToolAllowAdditionalProperties(allow bool) ToolOption {
	return func(c *toolConfig) { c.allowAdditionalProperties = allow }
}

// WithToolFailure routes argument errors, handler errors and recovered panics
// through fn so that every failure is reported as a tool result.
func WithToolFailure(fn FailureFunc) ToolOption {
	return func(c *toolConfig) { c.failure = fn }
}

// WithToolLogger sets the logger used to report recovered panics.
func WithToolLogger(logger *slog.Logger) ToolOption {
	return func(c *toolConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// reflectToMCPInputSchema reflects a Go type A into a jsonschema.Schema, and
// converts it to the simplified mcp.ToolInputSchema. Unknown field policy is
// surfaced via the AdditionalProperties flag on the returned schema.
func reflectToMCPInputSchema[A any](allowAdditional bool) mcp.ToolInputSchema {
	r := &jsonschema.Reflector{
		DoNotReference:            true, // inline defs
		ExpandedStruct:            true, // put struct at root
		AllowAdditionalProperties: allowAdditional,
	}
	s := r.Reflect(new(A))

	// Only object schemas map cleanly to MCP ToolInputSchema.
	if s == nil || s.Type != "object" {
		return mcp.ToolInputSchema{
			Type:                 "object",
			Properties:           map[string]mcp.SchemaProperty{},
			AdditionalProperties: allowAdditional,
		}
	}

	var required []string
	if len(s.Required) > 0 {
		required = append(required, s.Required...)
	}

	return mcp.ToolInputSchema{
		Type:                 "object",
		Properties:           toMCPProperties(s),
		Required:             required,
		AdditionalProperties: allowAdditional,
	}
}

func toMCPProperties(s *jsonschema.Schema) map[string]mcp.SchemaProperty {
	props := make(map[string]mcp.SchemaProperty)
	if s.Properties == nil {
		return props
	}
	for el := s.Properties.Oldest(); el != nil; el = el.Next() {
		props[el.Key] = toMCPProperty(el.Value)
	}
	return props
}

// toMCPProperty recursively maps a jsonschema.Schema to the simplified MCP SchemaProperty.
func toMCPProperty(s *jsonschema.Schema) mcp.SchemaProperty {
	if s == nil {
		return mcp.SchemaProperty{}
	}
	p := mcp.SchemaProperty{
		Type:        s.Type,
		Description: s.Description,
	}
	if len(s.Enum) > 0 {
		p.Enum = s.Enum
	}
	if s.Type == "array" && s.Items != nil {
		item := toMCPProperty(s.Items)
		p.Items = &item
	}
	if s.Type == "object" && s.Properties != nil {
		p.Properties = toMCPProperties(s)
		if len(s.Required) > 0 {
			p.Required = append([]string(nil), s.Required...)
		}
	}
	return p
}

// ToolsContainer holds a fixed set of tools. It implements ToolsCapability
// and dispatches calls by tool name.
type ToolsContainer struct {
	tools    []mcp.Tool
	handlers map[string]ToolHandler
}

var _ ToolsCapability = (*ToolsContainer)(nil)

// NewToolsContainer builds a container from defs. When two definitions share
// a name the later one wins and takes the earlier one's place in listings.
func NewToolsContainer(defs ...StaticTool) *ToolsContainer {
	c := &ToolsContainer{handlers: make(map[string]ToolHandler, len(defs))}
	for _, d := range defs {
		name := d.Descriptor.Name
		if i := slices.IndexFunc(c.tools, func(t mcp.Tool) bool { return t.Name == name }); i >= 0 {
			c.tools = slices.Delete(c.tools, i, i+1)
		}
		c.tools = append(c.tools, d.Descriptor)
		if d.Handler != nil {
			c.handlers[name] = d.Handler
		} else {
			delete(c.handlers, name)
		}
	}
	return c
}

// Snapshot returns a copy of the tool descriptors.
func (c *ToolsContainer) Snapshot() []mcp.Tool {
	return slices.Clone(c.tools)
}

// ListTools implements ToolsCapability.
func (c *ToolsContainer) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	return c.Snapshot(), nil
}

// CallTool implements ToolsCapability. An unknown name yields a tool-level
// error result, not an error.
func (c *ToolsContainer) CallTool(ctx context.Context, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
	var name string
	if req != nil {
		name = req.Name
	}
	h := c.handlers[name]
	if h == nil {
		return Errorf("Unknown tool: %s", name), nil
	}
	return h(ctx, req)
}
