package jsonrpc

// ErrorCode is a JSON-RPC 2.0 error code.
type ErrorCode int

const (
	// ErrorCodeParseError indicates invalid JSON was received by the server.
	ErrorCodeParseError ErrorCode = -32700
	// ErrorCodeInvalidRequest indicates the JSON sent is not a valid Request object.
	ErrorCodeInvalidRequest ErrorCode = -32600
	// ErrorCodeMethodNotFound indicates the method does not exist / is not available.
	ErrorCodeMethodNotFound ErrorCode = -32601
	// ErrorCodeInvalidParams indicates invalid method parameters.
	ErrorCodeInvalidParams ErrorCode = -32602
	// ErrorCodeInternalError indicates an internal JSON-RPC error.
	ErrorCodeInternalError ErrorCode = -32603
)

// Standard messages for the codes above.
const (
	MessageParseError     = "Parse error"
	MessageInvalidRequest = "Invalid Request"
	MessageInvalidParams  = "Invalid params"
	MessageInternalError  = "Internal error"
)

// DecodeError is returned by DecodeRequest when a body cannot be turned into a
// Request. ID is set when the id member was recoverable so the error
// response can echo it.
type DecodeError struct {
	Code   ErrorCode
	ID     *RequestID
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Code == ErrorCodeParseError {
		return "jsonrpc: parse error: " + e.Reason
	}
	return "jsonrpc: invalid request: " + e.Reason
}

// Message returns the JSON-RPC error message for the failure.
func (e *DecodeError) Message() string {
	if e.Code == ErrorCodeParseError {
		return MessageParseError
	}
	return MessageInvalidRequest
}

// Response builds the error envelope reporting the failure.
func (e *DecodeError) Response() *Response {
	return NewErrorResponse(e.ID, e.Code, e.Message(), nil)
}
