package client

import (
	"errors"
	"fmt"

	"github.com/viant/jsonrpc"

	"github.com/viant/mcp-harness/transport"
)

// ProtocolError reports an exchange that broke JSON-RPC framing or correlation.
// The channel can no longer be trusted once it occurs.
type ProtocolError struct {
	Method string
	Reason string
	Raw    string
}

func (e *ProtocolError) Error() string {
	if e.Raw == "" {
		return fmt.Sprintf("protocol error on %v: %v", e.Method, e.Reason)
	}
	return fmt.Sprintf("protocol error on %v: %v; raw: %s", e.Method, e.Reason, e.Raw)
}

// ParseError reports a line that is not valid JSON.
type ParseError struct {
	Method string
	Raw    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %v response: %v; raw: %s", e.Method, e.Err, e.Raw)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ShapeError reports a well formed response whose result does not fit the method's result type.
type ShapeError struct {
	Method string
	Raw    string
	Err    error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unexpected %v result shape: %v; raw: %s", e.Method, e.Err, e.Raw)
}

func (e *ShapeError) Unwrap() error { return e.Err }

// IsFatal reports whether err leaves the channel in an untrustworthy state.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var protocolErr *ProtocolError
	var parseErr *ParseError
	switch {
	case errors.As(err, &protocolErr), errors.As(err, &parseErr):
		return true
	case errors.Is(err, transport.ErrConnectionClosed):
		return true
	}
	return false
}

// IsTimeout reports whether err is a receive timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, transport.ErrTimeout)
}

// ApplicationError returns the JSON-RPC error the bridge answered with, if any.
func ApplicationError(err error) (*jsonrpc.Error, bool) {
	var rpcErr *jsonrpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr, true
	}
	return nil, false
}
