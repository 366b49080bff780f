package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RequestID is an opaque JSON-RPC identifier. It may hold any JSON scalar
// (string, number or boolean). The raw encoding is preserved so the id is
// echoed back byte-for-byte.
type RequestID struct {
	raw json.RawMessage
}

// NewRequestID creates a RequestID from a string, number or boolean. Other
// values produce a nil-valued ID.
func NewRequestID(value interface{}) *RequestID {
	switch value.(type) {
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		b, err := json.Marshal(value)
		if err != nil {
			return &RequestID{}
		}
		return &RequestID{raw: b}
	default:
		return &RequestID{}
	}
}

// ParseRequestID parses a raw JSON value into a RequestID. Empty input and
// JSON null yield (nil, nil).
func ParseRequestID(data []byte) (*RequestID, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	id := &RequestID{}
	if err := id.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return id, nil
}

// String returns the string representation of the ID. String ids are
// returned unquoted; numbers and booleans in their JSON form.
func (id *RequestID) String() string {
	if id.IsNil() {
		return ""
	}
	if id.raw[0] == '"' {
		var s string
		if err := json.Unmarshal(id.raw, &s); err == nil {
			return s
		}
	}
	return string(id.raw)
}

// IsNil returns true if the ID is nil/empty
func (id *RequestID) IsNil() bool {
	if id == nil {
		return true
	}

	return len(id.raw) == 0
}

// MarshalJSON implements json.Marshaler
func (id *RequestID) MarshalJSON() ([]byte, error) {
	if id.IsNil() {
		return []byte("null"), nil
	}
	return id.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *RequestID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("JSON-RPC ID must be a scalar, got empty input")
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("invalid JSON-RPC ID: %w", err)
	}
	switch v.(type) {
	case nil:
		id.raw = nil
	case string, json.Number, bool:
		id.raw = append(json.RawMessage(nil), data...)
	default:
		return fmt.Errorf("JSON-RPC ID must be a string, number or boolean, got: %s", string(data))
	}
	return nil
}
