package mcpservice

import (
	"context"
	"errors"
	"sync"

	"github.com/ggoodman/feedback-mcp/mcp"
)

// ToolResponseWriter accumulates the content blocks of a tool result. Appends
// fail with the context error once ctx is done, and with ErrFinalized after
// the result has been taken.
type ToolResponseWriter interface {
	AppendText(text string) error
	AppendResource(res mcp.ResourceContents) error
}

// ErrFinalized is returned when writing to a writer whose result was taken.
var ErrFinalized = errors.New("result already finalized")

type toolResponseWriter struct {
	ctx       context.Context
	mu        sync.Mutex
	finalized bool
	blocks    []mcp.ContentBlock
}

var _ ToolResponseWriter = (*toolResponseWriter)(nil)

func newToolResponseWriter(ctx context.Context) *toolResponseWriter {
	return &toolResponseWriter{ctx: ctx}
}

// AppendText adds a text block. Empty text is a no-op.
func (w *toolResponseWriter) AppendText(text string) error {
	if text == "" {
		return nil
	}
	return w.append(mcp.ContentBlock{Type: mcp.ContentTypeText, Text: text})
}

// AppendResource embeds res as a resource content block.
func (w *toolResponseWriter) AppendResource(res mcp.ResourceContents) error {
	return w.append(mcp.ContentBlock{Type: mcp.ContentTypeResource, Resource: &res})
}

func (w *toolResponseWriter) append(b mcp.ContentBlock) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finalized {
		return ErrFinalized
	}
	w.blocks = append(w.blocks, b)
	return nil
}

// result finalizes the writer and returns what was written so far.
func (w *toolResponseWriter) result() *mcp.CallToolResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.finalized = true
	return &mcp.CallToolResult{Content: append([]mcp.ContentBlock{}, w.blocks...)}
}
