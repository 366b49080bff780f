package jsonrpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ProtocolVersion is the supported JSON-RPC protocol version.
const ProtocolVersion = "2.0"

// Request represents a JSON-RPC request (with an ID) or notification (without ID).
type Request struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Method         string          `json:"method"`
	Params         json.RawMessage `json:"params,omitempty"`
	ID             *RequestID      `json:"id,omitempty"`
}

// IsNotification reports whether the request carried no identifier.
func (r *Request) IsNotification() bool {
	return r.ID.IsNil()
}

// Response represents a JSON-RPC response. Exactly one of Result and Error is
// set. ID is always serialized; a nil ID encodes as null.
type Response struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	ID             *RequestID      `json:"id"`
	Result         json.RawMessage `json:"result,omitempty"`
	Error          *Error          `json:"error,omitempty"`
}

// NewResultResponse builds a successful JSON-RPC response object.
func NewResultResponse(id *RequestID, result any) (*Response, error) {
	resultBytes, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	if bytes.Equal(resultBytes, []byte("null")) {
		resultBytes = []byte("{}")
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

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Decode parses a single line into a Request.
//
// Input that is not a JSON object yields ErrParse; the identifier cannot be
// recovered in that case. A JSON object whose fields do not fit the envelope
// yields a *DecodeError carrying the best-effort identifier. A missing method
// is not an error here: it decodes to the empty string and is left for the
// router to reject.
//
// Envelope members are matched by their exact names, so "METHOD" or "Id" are
// ignored like any other unknown member.
func Decode(line []byte) (*Request, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] != '{' || !json.Valid(line) {
		return nil, ErrParse
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(line, &members); err != nil {
		return nil, ErrParse
	}

	id, err := ParseRequestID(members["id"])
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	req := &Request{ID: id, Params: members["params"]}
	if err := decodeMember(members, "jsonrpc", &req.JSONRPCVersion); err != nil {
		return nil, &DecodeError{ID: id, Err: err}
	}
	if err := decodeMember(members, "method", &req.Method); err != nil {
		return nil, &DecodeError{ID: id, Err: err}
	}
	return req, nil
}

func decodeMember(members map[string]json.RawMessage, name string, dst *string) error {
	raw, ok := members[name]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Encode serializes a Response to a single line without the trailing newline.
// It enforces the result/error exclusivity invariant.
func Encode(res *Response) ([]byte, error) {
	if res == nil {
		return nil, errors.New("nil response")
	}
	hasResult := len(res.Result) > 0
	hasError := res.Error != nil
	if hasResult == hasError {
		return nil, fmt.Errorf("response must carry exactly one of result or error (result=%t, error=%t)", hasResult, hasError)
	}
	if res.JSONRPCVersion == "" {
		res.JSONRPCVersion = ProtocolVersion
	}
	b, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return b, nil
}
