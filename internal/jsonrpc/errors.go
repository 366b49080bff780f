package jsonrpc

import "errors"

// ErrorCode is a JSON-RPC 2.0 error code.
type ErrorCode int

const (
	// ErrorCodeParseError indicates invalid JSON was received by the server.
	ErrorCodeParseError ErrorCode = -32700
	// ErrorCodeMethodNotFound indicates the method does not exist / is not available.
	ErrorCodeMethodNotFound ErrorCode = -32601
	// ErrorCodeInvalidParams indicates invalid method parameters. The server
	// folds argument problems into ErrorCodeInternalError; the constant exists
	// so clients of this package can recognize the reserved value.
	ErrorCodeInvalidParams ErrorCode = -32602
	// ErrorCodeInternalError indicates an internal JSON-RPC error, including
	// handler failures for well-formed requests.
	ErrorCodeInternalError ErrorCode = -32603
)

// ErrParse is returned by Decode when a line is not a JSON object.
var ErrParse = errors.New("parse error")

// DecodeError reports a line that is valid JSON but does not fit the request
// envelope (for example a non-string method). ID holds whatever identifier
// could be recovered from the line, or nil.
type DecodeError struct {
	ID  *RequestID
	Err error
}

func (e *DecodeError) Error() string { return "invalid request envelope: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }
