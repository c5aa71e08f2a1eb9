package mcpservice

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/ggoodman/feedback-mcp/mcp"
)

// ArgumentError reports tool arguments that could not be decoded into the
// tool's argument type. Its message is short and safe to show to callers.
type ArgumentError struct {
	Err error
}

func (e *ArgumentError) Error() string {
	var te *json.UnmarshalTypeError
	if errors.As(e.Err, &te) {
		if te.Field != "" {
			return fmt.Sprintf("%s must be %s, got %s", te.Field, kindPhrase(te.Type), te.Value)
		}
		return fmt.Sprintf("arguments must be %s, got %s", kindPhrase(te.Type), te.Value)
	}
	return e.Err.Error()
}

func (e *ArgumentError) Unwrap() error { return e.Err }

func kindPhrase(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Struct, reflect.Map:
		return "an object"
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "a number"
	default:
		return "a " + t.Kind().String()
	}
}

// PanicError wraps a value recovered from a panicking tool handler.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("internal failure: %v", e.Value)
}

// Errorf returns an error CallToolResult with a single text block and IsError=true.
func Errorf(format string, a ...any) *mcp.CallToolResult {
	msg := fmt.Sprintf(format, a...)
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: msg}}, IsError: true}
}
