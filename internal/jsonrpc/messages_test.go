package jsonrpc

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeRequest_Lenient(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"method":"tools/list","id":7}`))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if req.JSONRPCVersion != ProtocolVersion {
		t.Fatalf("expected default jsonrpc version, got %q", req.JSONRPCVersion)
	}
	if req.Method != "tools/list" {
		t.Fatalf("unexpected method %q", req.Method)
	}
	if req.ID.Value() != int64(7) {
		t.Fatalf("unexpected id %#v", req.ID.Value())
	}
	if req.Params != nil {
		t.Fatalf("expected nil params, got %s", req.Params)
	}
}

func TestDecodeRequest_NullIDAndParams(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"jsonrpc":"2.0","method":"initialize","params":null,"id":null}`))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if !req.IsNotification() {
		t.Fatalf("expected nil id")
	}
	if req.Params != nil {
		t.Fatalf("expected null params to be dropped")
	}
}

func TestDecodeRequest_Errors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		code   ErrorCode
		echoID any
	}{
		{"truncated", `{"jsonrpc":"2.0",`, ErrorCodeParseError, nil},
		{"garbage", `not json`, ErrorCodeParseError, nil},
		{"array", `[{"method":"initialize"}]`, ErrorCodeInvalidRequest, nil},
		{"null", `null`, ErrorCodeInvalidRequest, nil},
		{"missing method", `{"id":1}`, ErrorCodeInvalidRequest, int64(1)},
		{"numeric method", `{"id":"a","method":5}`, ErrorCodeInvalidRequest, "a"},
		{"array params", `{"id":2,"method":"tools/call","params":[1]}`, ErrorCodeInvalidRequest, int64(2)},
		{"bool id", `{"id":true,"method":"initialize"}`, ErrorCodeInvalidRequest, nil},
		{"fractional id", `{"id":1.5,"method":"initialize"}`, ErrorCodeInvalidRequest, nil},
		{"numeric jsonrpc", `{"jsonrpc":2,"method":"initialize"}`, ErrorCodeInvalidRequest, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeRequest([]byte(tc.body))
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DecodeError, got %v", err)
			}
			if de.Code != tc.code {
				t.Fatalf("expected code %d, got %d", tc.code, de.Code)
			}
			if got := de.ID.Value(); got != tc.echoID {
				t.Fatalf("expected echoed id %#v, got %#v", tc.echoID, got)
			}
		})
	}
}

func TestParseErrorEnvelope(t *testing.T) {
	_, err := DecodeRequest([]byte(`{`))
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
	b, err := json.Marshal(de.Response())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"jsonrpc":"2.0","error":{"code":-32700,"message":"Parse error"},"id":null}`
	if string(b) != want {
		t.Fatalf("unexpected envelope:\n got %s\nwant %s", b, want)
	}
}

func TestResponse_EchoesID(t *testing.T) {
	for _, tc := range []struct {
		id   *RequestID
		want string
	}{
		{NewRequestID(1), `{"jsonrpc":"2.0","result":{},"id":1}`},
		{NewRequestID("abc"), `{"jsonrpc":"2.0","result":{},"id":"abc"}`},
		{nil, `{"jsonrpc":"2.0","result":{},"id":null}`},
		{NewRequestID(3.5), `{"jsonrpc":"2.0","result":{},"id":null}`},
	} {
		resp, err := NewResultResponse(tc.id, struct{}{})
		if err != nil {
			t.Fatalf("NewResultResponse: %v", err)
		}
		b, err := json.Marshal(resp)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(b) != tc.want {
			t.Fatalf("got %s want %s", b, tc.want)
		}
	}
}

func TestRequestID_IntegralFloat(t *testing.T) {
	var id RequestID
	if err := json.Unmarshal([]byte(`3.0`), &id); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if id.Value() != int64(3) || id.String() != "3" {
		t.Fatalf("unexpected id %#v", id.Value())
	}
}
