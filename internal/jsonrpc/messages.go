package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ProtocolVersion is the supported JSON-RPC protocol version.
const ProtocolVersion = "2.0"

// Request represents a JSON-RPC request. A Request with a nil ID is a
// notification; the server still answers it.
type Request struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Method         string          `json:"method"`
	Params         json.RawMessage `json:"params,omitempty"`
	ID             *RequestID      `json:"id,omitempty"`
}

// IsNotification reports whether the request carried no id.
func (r *Request) IsNotification() bool {
	return r.ID.IsNil()
}

// Response represents a JSON-RPC response. Exactly one of Result and Error is
// set. ID is always serialized, as null when the request had none.
type Response struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Result         json.RawMessage `json:"result,omitempty"`
	Error          *Error          `json:"error,omitempty"`
	ID             *RequestID      `json:"id"`
}

// NewResultResponse builds a successful JSON-RPC response object.
func NewResultResponse(id *RequestID, result any) (*Response, error) {
	resultBytes, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &Response{
		JSONRPCVersion: ProtocolVersion,
		Result:         resultBytes,
		ID:             id,
	}, nil
}

// NewErrorResponse builds an error JSON-RPC response with the given code.
func NewErrorResponse(id *RequestID, code ErrorCode, message string, data any) *Response {
	return &Response{
		JSONRPCVersion: ProtocolVersion,
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
		ID: id,
	}
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
}

// DecodeRequest parses a single JSON-RPC request.
//
// Decoding is lenient where clients commonly deviate: a missing "jsonrpc"
// member defaults to "2.0" and any string value is accepted, "params" may be
// absent or null, and "id" may be absent or null. Malformed JSON yields a
// *DecodeError with ErrorCodeParseError; well-formed JSON that is not a
// request object yields ErrorCodeInvalidRequest.
func DecodeRequest(data []byte) (*Request, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		if !json.Valid(data) {
			return nil, &DecodeError{Code: ErrorCodeParseError, Reason: err.Error()}
		}
		return nil, &DecodeError{Code: ErrorCodeInvalidRequest, Reason: "request must be a JSON object"}
	}
	if fields == nil {
		// literal null
		return nil, &DecodeError{Code: ErrorCodeInvalidRequest, Reason: "request must be a JSON object"}
	}

	req := &Request{JSONRPCVersion: ProtocolVersion}

	if raw, ok := fields["id"]; ok && !isNull(raw) {
		id := new(RequestID)
		if err := id.UnmarshalJSON(raw); err != nil {
			return nil, &DecodeError{Code: ErrorCodeInvalidRequest, Reason: err.Error()}
		}
		req.ID = id
	}

	invalid := func(format string, args ...any) error {
		return &DecodeError{Code: ErrorCodeInvalidRequest, ID: req.ID, Reason: fmt.Sprintf(format, args...)}
	}

	if raw, ok := fields["jsonrpc"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &req.JSONRPCVersion); err != nil {
			return nil, invalid("jsonrpc member must be a string")
		}
	}

	raw, ok := fields["method"]
	if !ok || isNull(raw) {
		return nil, invalid("method member is required")
	}
	if err := json.Unmarshal(raw, &req.Method); err != nil {
		return nil, invalid("method member must be a string")
	}

	if raw, ok := fields["params"]; ok && !isNull(raw) {
		if b := bytes.TrimSpace(raw); len(b) == 0 || b[0] != '{' {
			return nil, invalid("params member must be an object")
		}
		req.Params = raw
	}

	return req, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
