package mcpservice

import "errors"

var (
	// ErrToolNotFound is returned when a tool name is not in the registry.
	ErrToolNotFound = errors.New("unknown tool")
	// ErrResourceNotFound is returned when a resource URI is not in the registry.
	ErrResourceNotFound = errors.New("unknown resource")
	// ErrInvalidArguments is returned when tool arguments fail decoding or
	// required-field validation.
	ErrInvalidArguments = errors.New("invalid arguments")
)

// ExecutionError reports a failed tool invocation.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string { return e.Err.Error() }

func (e *ExecutionError) Unwrap() error { return e.Err }

// ReadError reports a failed resource read.
type ReadError struct {
	URI string
	Err error
}

func (e *ReadError) Error() string { return e.Err.Error() }

func (e *ReadError) Unwrap() error { return e.Err }
